package planner

import (
	"fmt"
	"math"

	"github.com/danieljhkim/ligate/internal/deck"
)

// DefaultRatio is the insert:vector target concentration ratio.
const DefaultRatio = 3.0

// ratioTolerance is the relative slack allowed when comparing targets.
const ratioTolerance = 1e-9

// Source is where a reagent is drawn from.
type Source struct {
	Location deck.Location `json:"location"`

	// Instrument names the delivering pipette; empty picks the smallest one
	// whose range contains the volume.
	Instrument string `json:"instrument,omitempty"`
}

// Request holds everything needed to plan a ligation run.
type Request struct {
	// VectorConcentration and InsertConcentration are the stock concentrations in ng/µL
	VectorConcentration float64
	InsertConcentration float64

	// VectorTarget and InsertTarget are the final concentrations in ng/µL
	VectorTarget float64
	InsertTarget float64

	// Ratio is the required InsertTarget/VectorTarget ratio (0 means DefaultRatio)
	Ratio float64

	// FinalVolume is the volume of every tube in µL
	FinalVolume float64

	// BufferVolume and LigaseVolume are fixed per-tube additions in µL
	BufferVolume float64
	LigaseVolume float64

	Instruments []Instrument
	Sources     map[Reagent]Source
	Tubes       []Tube

	// Mix is applied in each tube after ligase is added
	Mix Mix
}

func (r *Request) ratio() float64 {
	if r.Ratio == 0 {
		return DefaultRatio
	}
	return r.Ratio
}

// needs reports whether any tube receives the reagent.
func (r *Request) needs(reagent Reagent) bool {
	switch reagent {
	case Insert:
		for _, t := range r.Tubes {
			if t.Insert {
				return true
			}
		}
		return false
	case Ligase:
		for _, t := range r.Tubes {
			if t.Ligase {
				return true
			}
		}
		return false
	default:
		return true
	}
}

// validateInputs checks operator input and request shape.
func (r *Request) validateInputs() error {
	invalid := func(component, detail string) error {
		return &ValidationError{Component: component, Detail: detail, Err: ErrInvalidInput}
	}

	if len(r.Instruments) == 0 {
		return invalid("instruments", "no instruments configured")
	}
	for _, in := range []struct {
		component string
		value     float64
	}{
		{"vector", r.VectorConcentration},
		{"insert", r.InsertConcentration},
		{"vector", r.VectorTarget},
		{"insert", r.InsertTarget},
		{"final volume", r.FinalVolume},
		{"ratio", r.Ratio},
		{"buffer", r.BufferVolume},
		{"ligase", r.LigaseVolume},
	} {
		if !finite(in.value) {
			return invalid(in.component, fmt.Sprintf("%g is not a finite number", in.value))
		}
	}
	if r.VectorConcentration <= 0 {
		return invalid("vector", fmt.Sprintf("stock concentration %g ng/µL must be positive", r.VectorConcentration))
	}
	if r.InsertConcentration <= 0 {
		return invalid("insert", fmt.Sprintf("stock concentration %g ng/µL must be positive", r.InsertConcentration))
	}
	if r.FinalVolume <= 0 {
		return invalid("final volume", fmt.Sprintf("%g µL must be positive", r.FinalVolume))
	}
	// Negative targets fall through to ErrNegativeVolume once volumes are computed.
	if r.VectorTarget == 0 {
		return invalid("vector", "target concentration must be non-zero")
	}
	if r.InsertTarget == 0 {
		return invalid("insert", "target concentration must be non-zero")
	}
	if r.Ratio < 0 {
		return invalid("ratio", fmt.Sprintf("%g must be positive", r.Ratio))
	}
	if len(r.Tubes) == 0 {
		return invalid("tubes", "no reaction tubes configured")
	}

	names := make(map[string]bool, len(r.Tubes))
	for _, t := range r.Tubes {
		if t.Name == "" {
			return invalid("tubes", "tube with empty name")
		}
		if names[t.Name] {
			return invalid("tubes", fmt.Sprintf("duplicate tube %q", t.Name))
		}
		names[t.Name] = true
	}

	for _, reagent := range []Reagent{Vector, Insert, Water, Buffer, Ligase} {
		if !r.needs(reagent) {
			continue
		}
		if _, ok := r.Sources[reagent]; !ok {
			return invalid(string(reagent), "no source location")
		}
	}

	return nil
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

// checkRatio enforces InsertTarget == ratio × VectorTarget.
func (r *Request) checkRatio() error {
	want := r.ratio() * r.VectorTarget
	slack := ratioTolerance * math.Max(1, math.Abs(want))
	if math.Abs(r.InsertTarget-want) > slack {
		return &ValidationError{
			Component: "insert",
			Detail: fmt.Sprintf("target %g ng/µL is not %g × vector target %g ng/µL",
				r.InsertTarget, r.ratio(), r.VectorTarget),
			Err: ErrInvalidRatio,
		}
	}
	return nil
}

// builder accumulates a plan while tracking which instrument delivers what.
type builder struct {
	req      *Request
	plan     *TransferPlan
	delivery map[Reagent]map[string]Instrument
}

// BuildLigationPlan validates the request and produces an ordered TransferPlan.
// Any error is a *ValidationError and means nothing may be dispensed.
func BuildLigationPlan(req *Request) (*TransferPlan, error) {
	if err := req.validateInputs(); err != nil {
		return nil, err
	}
	if err := req.checkRatio(); err != nil {
		return nil, err
	}

	final := Microliters(req.FinalVolume)
	b := &builder{
		req:      req,
		plan:     NewTransferPlan(final, req.Tubes),
		delivery: make(map[Reagent]map[string]Instrument),
	}
	b.plan.VectorTarget = req.VectorTarget
	b.plan.InsertTarget = req.InsertTarget

	vector, vectorInst, err := b.dilutionVolume(Vector, req.VectorTarget, req.VectorConcentration)
	if err != nil {
		return nil, err
	}

	var insert Volume
	var insertInst Instrument
	if req.needs(Insert) {
		insert, insertInst, err = b.dilutionVolume(Insert, req.InsertTarget, req.InsertConcentration)
		if err != nil {
			return nil, err
		}
	}

	buffer, bufferInst, err := b.fixedVolume(Buffer, req.BufferVolume)
	if err != nil {
		return nil, err
	}

	var ligase Volume
	var ligaseInst Instrument
	if req.needs(Ligase) {
		ligase, ligaseInst, err = b.fixedVolume(Ligase, req.LigaseVolume)
		if err != nil {
			return nil, err
		}
	}

	for _, t := range req.Tubes {
		vols := b.plan.Volumes[t.Name]
		b.assign(t, Vector, vector, vectorInst)
		if t.Insert {
			b.assign(t, Insert, insert, insertInst)
		}
		b.assign(t, Buffer, buffer, bufferInst)
		if t.Ligase {
			b.assign(t, Ligase, ligase, ligaseInst)
		}

		water := final - b.plan.TubeTotal(t.Name)
		if water < 0 {
			return nil, &ValidationError{Component: string(Water), Tube: t.Name, Volume: water, Err: ErrNegativeVolume}
		}
		vols[Water] = water
		if water == 0 {
			continue
		}
		inst, err := b.instrumentFor(Water, water, t.Name)
		if err != nil {
			return nil, err
		}
		b.deliver(Water, t.Name, inst)
	}

	if err := b.checkMix(ligaseInst); err != nil {
		return nil, err
	}

	b.batch(Vector, b.plan.Tubes)
	b.batch(Insert, b.plan.Tubes)
	later := insertLast(b.plan.Tubes)
	b.batch(Water, later)
	b.batch(Buffer, later)
	b.perTube(Ligase)

	return b.plan, nil
}

// dilutionVolume applies C1V1 = C2V2: target × final / stock.
func (b *builder) dilutionVolume(r Reagent, target, stock float64) (Volume, Instrument, error) {
	raw := target * b.req.FinalVolume / stock
	return b.resolve(r, raw)
}

// fixedVolume resolves a per-tube constant addition.
func (b *builder) fixedVolume(r Reagent, ul float64) (Volume, Instrument, error) {
	if ul == 0 {
		return 0, Instrument{}, nil
	}
	return b.resolve(r, ul)
}

// resolve rounds raw µL for the delivering instrument and checks its range.
func (b *builder) resolve(r Reagent, raw float64) (Volume, Instrument, error) {
	if raw < 0 {
		return 0, Instrument{}, &ValidationError{Component: string(r), Volume: Microliters(raw), Err: ErrNegativeVolume}
	}

	rounding := finest(b.req.Instruments)
	if name := b.req.Sources[r].Instrument; name != "" {
		if inst, ok := findInstrument(b.req.Instruments, name); ok {
			rounding = inst
		}
	}
	v := rounding.Round(raw)

	inst, err := b.instrumentFor(r, v, "")
	if err != nil {
		return 0, Instrument{}, err
	}
	if inst.Name != rounding.Name {
		v = inst.Round(raw)
		if !inst.Contains(v) {
			return 0, Instrument{}, &ValidationError{Component: string(r), Volume: v, Instrument: &inst, Err: ErrCapacityExceeded}
		}
	}
	if exact := Microliters(raw); exact != v {
		b.plan.AddWarning(fmt.Sprintf("%s volume %.3f µL rounded to %s for %s", r, raw, v, inst.Name))
	}
	return v, inst, nil
}

// instrumentFor picks the delivering instrument and checks v against its range.
func (b *builder) instrumentFor(r Reagent, v Volume, tube string) (Instrument, error) {
	name := b.req.Sources[r].Instrument
	if name != "" {
		inst, ok := findInstrument(b.req.Instruments, name)
		if !ok {
			return Instrument{}, &ValidationError{
				Component: string(r),
				Detail:    fmt.Sprintf("unknown instrument %q", name),
				Err:       ErrInvalidInput,
			}
		}
		if !inst.Contains(v) {
			return Instrument{}, &ValidationError{Component: string(r), Tube: tube, Volume: v, Instrument: &inst, Err: ErrCapacityExceeded}
		}
		return inst, nil
	}

	inst, ok := smallestFor(b.req.Instruments, v)
	if !ok {
		return Instrument{}, &ValidationError{
			Component: string(r),
			Tube:      tube,
			Volume:    v,
			Detail:    fmt.Sprintf("no instrument can deliver %s", v),
			Err:       ErrCapacityExceeded,
		}
	}
	return inst, nil
}

// checkMix ensures the post-ligase mix fits both the tube and the instrument.
func (b *builder) checkMix(inst Instrument) error {
	mix := b.req.Mix
	if mix.Repetitions <= 0 || !b.req.needs(Ligase) || b.req.LigaseVolume == 0 {
		return nil
	}
	if mix.Volume <= 0 || mix.Volume > b.plan.FinalVolume {
		return &ValidationError{
			Component: "mix",
			Detail:    fmt.Sprintf("volume %s must be positive and at most the final volume %s", mix.Volume, b.plan.FinalVolume),
			Err:       ErrInvalidInput,
		}
	}
	if !inst.Contains(mix.Volume) {
		return &ValidationError{Component: "mix", Volume: mix.Volume, Instrument: &inst, Err: ErrCapacityExceeded}
	}
	return nil
}

func (b *builder) assign(t Tube, r Reagent, v Volume, inst Instrument) {
	if v == 0 {
		return
	}
	b.plan.Volumes[t.Name][r] = v
	b.deliver(r, t.Name, inst)
}

func (b *builder) deliver(r Reagent, tube string, inst Instrument) {
	if b.delivery[r] == nil {
		b.delivery[r] = make(map[string]Instrument)
	}
	b.delivery[r][tube] = inst
}

// batch adds one step per delivering instrument, each dispensing the reagent
// into every tube that needs it, in the given order.
func (b *builder) batch(r Reagent, tubes []Tube) {
	var order []string
	steps := make(map[string]*Step)

	for _, t := range tubes {
		inst, ok := b.delivery[r][t.Name]
		if !ok {
			continue
		}
		step, ok := steps[inst.Name]
		if !ok {
			step = &Step{
				Reagent:    r,
				Instrument: inst,
				Source:     b.req.Sources[r].Location,
			}
			steps[inst.Name] = step
			order = append(order, inst.Name)
		}
		step.Dispenses = append(step.Dispenses, Dispense{
			Tube:     t.Name,
			Location: t.Location,
			Volume:   b.plan.Volumes[t.Name][r],
		})
	}

	for _, name := range order {
		b.plan.AddStep(*steps[name])
	}
}

// insertLast orders tubes so a shared tip reaches the insert-bearing tubes
// after the controls and never returns from them to a stock.
func insertLast(tubes []Tube) []Tube {
	ordered := make([]Tube, 0, len(tubes))
	for _, t := range tubes {
		if !t.Insert {
			ordered = append(ordered, t)
		}
	}
	for _, t := range tubes {
		if t.Insert {
			ordered = append(ordered, t)
		}
	}
	return ordered
}

// perTube adds one step per tube, mixing after the dispense. Each gets its own
// tip because the mix touches the reaction.
func (b *builder) perTube(r Reagent) {
	for _, t := range b.plan.Tubes {
		inst, ok := b.delivery[r][t.Name]
		if !ok {
			continue
		}
		step := Step{
			Reagent:    r,
			Instrument: inst,
			Source:     b.req.Sources[r].Location,
			Dispenses: []Dispense{{
				Tube:     t.Name,
				Location: t.Location,
				Volume:   b.plan.Volumes[t.Name][r],
			}},
		}
		if b.req.Mix.Repetitions > 0 {
			mix := b.req.Mix
			step.Mix = &mix
		}
		b.plan.AddStep(step)
	}
}
