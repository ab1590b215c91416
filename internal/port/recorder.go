package port

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/danieljhkim/ligate/internal/deck"
	"github.com/danieljhkim/ligate/internal/planner"
)

var (
	// ErrNoTip indicates a liquid operation without a tip attached.
	ErrNoTip = errors.New("no tip attached")

	// ErrTipAttached indicates a pick-up while a tip is already attached.
	ErrTipAttached = errors.New("tip already attached")

	// ErrUnknownPipette indicates an operation on a pipette that was never loaded.
	ErrUnknownPipette = errors.New("unknown pipette")
)

// Recorded operation names.
const (
	OpLoadModule     = "load_module"
	OpLoadLabware    = "load_labware"
	OpLoadPipette    = "load_pipette"
	OpPickUpTip      = "pick_up_tip"
	OpDropTip        = "drop_tip"
	OpAspirate       = "aspirate"
	OpDispense       = "dispense"
	OpMix            = "mix"
	OpSetTemperature = "set_temperature"
	OpDelay          = "delay"
)

// Call is one recorded Dispenser call.
type Call struct {
	Op          string         `json:"op"`
	Target      string         `json:"target,omitempty"`
	Volume      planner.Volume `json:"volume,omitempty"`
	Location    *deck.Location `json:"location,omitempty"`
	Repetitions int            `json:"repetitions,omitempty"`
	Celsius     float64        `json:"celsius,omitempty"`
	Duration    time.Duration  `json:"duration,omitempty"`
	Message     string         `json:"message,omitempty"`
}

// String renders the call as one transcript line.
func (c Call) String() string {
	switch c.Op {
	case OpAspirate, OpDispense:
		return fmt.Sprintf("%s %s %s @ %s", c.Target, c.Op, c.Volume, c.Location)
	case OpMix:
		return fmt.Sprintf("%s mix %dx %s @ %s", c.Target, c.Repetitions, c.Volume, c.Location)
	case OpSetTemperature:
		return fmt.Sprintf("%s set %.1f °C", c.Target, c.Celsius)
	case OpDelay:
		return fmt.Sprintf("delay %s: %s", c.Duration, c.Message)
	default:
		return fmt.Sprintf("%s %s", c.Op, c.Target)
	}
}

// Recorder is a Dispenser that records calls and enforces tip bookkeeping.
// It does not model liquid or hardware.
type Recorder struct {
	Calls []Call

	pipettes map[string]bool
	modules  map[string]bool
	tipped   map[string]bool
	tipsUsed int

	// FailOn makes the named operation return an error, for tests.
	FailOn map[string]error
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{
		pipettes: make(map[string]bool),
		modules:  make(map[string]bool),
		tipped:   make(map[string]bool),
		FailOn:   make(map[string]error),
	}
}

// TipsUsed returns the number of tips picked up.
func (r *Recorder) TipsUsed() int {
	return r.tipsUsed
}

// Ops returns the recorded operation names in order.
func (r *Recorder) Ops() []string {
	ops := make([]string, len(r.Calls))
	for i, c := range r.Calls {
		ops[i] = c.Op
	}
	return ops
}

func (r *Recorder) record(ctx context.Context, c Call) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err, ok := r.FailOn[c.Op]; ok {
		return err
	}
	r.Calls = append(r.Calls, c)
	return nil
}

func (r *Recorder) requirePipette(name string) error {
	if !r.pipettes[name] {
		return fmt.Errorf("%w: %s", ErrUnknownPipette, name)
	}
	return nil
}

func (r *Recorder) requireTip(name string) error {
	if err := r.requirePipette(name); err != nil {
		return err
	}
	if !r.tipped[name] {
		return fmt.Errorf("%w: %s", ErrNoTip, name)
	}
	return nil
}

// LoadModule records a module load.
func (r *Recorder) LoadModule(ctx context.Context, m deck.ModulePlacement) error {
	if err := r.record(ctx, Call{Op: OpLoadModule, Target: m.Name}); err != nil {
		return err
	}
	r.modules[m.Name] = true
	return nil
}

// LoadLabware records a labware load.
func (r *Recorder) LoadLabware(ctx context.Context, l deck.LabwarePlacement) error {
	return r.record(ctx, Call{Op: OpLoadLabware, Target: l.Name})
}

// LoadPipette records a pipette load.
func (r *Recorder) LoadPipette(ctx context.Context, p Pipette) error {
	if err := r.record(ctx, Call{Op: OpLoadPipette, Target: p.Name}); err != nil {
		return err
	}
	r.pipettes[p.Name] = true
	return nil
}

// PickUpTip records a tip pick-up.
func (r *Recorder) PickUpTip(ctx context.Context, pipette string) error {
	if err := r.requirePipette(pipette); err != nil {
		return err
	}
	if r.tipped[pipette] {
		return fmt.Errorf("%w: %s", ErrTipAttached, pipette)
	}
	if err := r.record(ctx, Call{Op: OpPickUpTip, Target: pipette}); err != nil {
		return err
	}
	r.tipped[pipette] = true
	r.tipsUsed++
	return nil
}

// DropTip records a tip drop.
func (r *Recorder) DropTip(ctx context.Context, pipette string) error {
	if err := r.requireTip(pipette); err != nil {
		return err
	}
	if err := r.record(ctx, Call{Op: OpDropTip, Target: pipette}); err != nil {
		return err
	}
	r.tipped[pipette] = false
	return nil
}

// Aspirate records an aspiration.
func (r *Recorder) Aspirate(ctx context.Context, pipette string, volume planner.Volume, loc deck.Location) error {
	if err := r.requireTip(pipette); err != nil {
		return err
	}
	return r.record(ctx, Call{Op: OpAspirate, Target: pipette, Volume: volume, Location: &loc})
}

// Dispense records a dispense.
func (r *Recorder) Dispense(ctx context.Context, pipette string, volume planner.Volume, loc deck.Location) error {
	if err := r.requireTip(pipette); err != nil {
		return err
	}
	return r.record(ctx, Call{Op: OpDispense, Target: pipette, Volume: volume, Location: &loc})
}

// Mix records a mix.
func (r *Recorder) Mix(ctx context.Context, pipette string, repetitions int, volume planner.Volume, loc deck.Location) error {
	if err := r.requireTip(pipette); err != nil {
		return err
	}
	return r.record(ctx, Call{Op: OpMix, Target: pipette, Repetitions: repetitions, Volume: volume, Location: &loc})
}

// SetTemperature records a temperature setpoint.
func (r *Recorder) SetTemperature(ctx context.Context, module string, celsius float64) error {
	if !r.modules[module] {
		return fmt.Errorf("module %s not loaded", module)
	}
	return r.record(ctx, Call{Op: OpSetTemperature, Target: module, Celsius: celsius})
}

// Delay records a pause.
func (r *Recorder) Delay(ctx context.Context, d time.Duration, message string) error {
	return r.record(ctx, Call{Op: OpDelay, Duration: d, Message: message})
}
