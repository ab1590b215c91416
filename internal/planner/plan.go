package planner

import "github.com/danieljhkim/ligate/internal/deck"

// Reagent names a liquid source.
type Reagent string

// Reagents used by the ligation protocol.
const (
	Vector Reagent = "vector"
	Insert Reagent = "insert"
	Water  Reagent = "water"
	Buffer Reagent = "buffer"
	Ligase Reagent = "ligase"
)

// Components lists reagents in the order they are reported per tube.
var Components = []Reagent{Vector, Insert, Buffer, Ligase, Water}

// Tube is a reaction destination.
type Tube struct {
	// Name identifies the reaction, e.g. "ligation"
	Name string `json:"name"`

	// Location is where the tube sits on the deck
	Location deck.Location `json:"location"`

	// Insert is true when the tube receives insert DNA
	Insert bool `json:"insert"`

	// Ligase is true when the tube receives ligase
	Ligase bool `json:"ligase"`
}

// Mix is an up-and-down pipetting step in the destination after dispensing.
type Mix struct {
	Repetitions int    `json:"repetitions"`
	Volume      Volume `json:"volume"`
}

// Dispense is one destination of a step.
type Dispense struct {
	Tube     string        `json:"tube"`
	Location deck.Location `json:"location"`
	Volume   Volume        `json:"volume"`
}

// Step is the work done with one tip: a single reagent moved from its source
// to one or more tubes, optionally mixing after the last dispense.
type Step struct {
	Reagent    Reagent       `json:"reagent"`
	Instrument Instrument    `json:"instrument"`
	Source     deck.Location `json:"source"`
	Dispenses  []Dispense    `json:"dispenses"`
	Mix        *Mix          `json:"mix,omitempty"`
}

// Total returns the volume the step moves.
func (s Step) Total() Volume {
	var total Volume
	for _, d := range s.Dispenses {
		total += d.Volume
	}
	return total
}

// Loads splits the dispenses into consecutive groups that each fit in one
// aspiration of the step's instrument.
func (s Step) Loads() [][]Dispense {
	var loads [][]Dispense
	var current []Dispense
	var held Volume

	for _, d := range s.Dispenses {
		if len(current) > 0 && held+d.Volume > s.Instrument.MaxVolume {
			loads = append(loads, current)
			current = nil
			held = 0
		}
		current = append(current, d)
		held += d.Volume
	}
	if len(current) > 0 {
		loads = append(loads, current)
	}
	return loads
}

// Transfer is a single (source, destination, volume) triple.
type Transfer struct {
	Reagent     Reagent       `json:"reagent"`
	Source      deck.Location `json:"source"`
	Tube        string        `json:"tube"`
	Destination deck.Location `json:"destination"`
	Volume      Volume        `json:"volume"`
	Instrument  string        `json:"instrument"`
}

// TransferPlan is the validated, ordered work for one run.
type TransferPlan struct {
	// FinalVolume is the volume every tube is filled to
	FinalVolume Volume `json:"final_volume"`

	// VectorTarget and InsertTarget are the final concentrations in ng/µL
	VectorTarget float64 `json:"vector_target"`
	InsertTarget float64 `json:"insert_target"`

	// Tubes is the list of destination tubes
	Tubes []Tube `json:"tubes"`

	// Volumes maps tube name to per-component volume
	Volumes map[string]map[Reagent]Volume `json:"volumes"`

	// Steps is the ordered list of single-tip steps to execute
	Steps []Step `json:"steps"`

	// Warnings are non-fatal observations, such as rounding
	Warnings []string `json:"warnings,omitempty"`
}

// NewTransferPlan creates an empty plan for the given tubes.
func NewTransferPlan(final Volume, tubes []Tube) *TransferPlan {
	volumes := make(map[string]map[Reagent]Volume, len(tubes))
	for _, t := range tubes {
		volumes[t.Name] = make(map[Reagent]Volume)
	}
	return &TransferPlan{
		FinalVolume: final,
		Tubes:       tubes,
		Volumes:     volumes,
		Steps:       []Step{},
	}
}

// AddStep adds a step to the plan.
func (p *TransferPlan) AddStep(step Step) {
	p.Steps = append(p.Steps, step)
}

// AddWarning records a non-fatal observation.
func (p *TransferPlan) AddWarning(msg string) {
	p.Warnings = append(p.Warnings, msg)
}

// Component returns the volume of a reagent in a tube.
func (p *TransferPlan) Component(tube string, r Reagent) Volume {
	return p.Volumes[tube][r]
}

// TubeTotal returns the summed component volume of a tube.
func (p *TransferPlan) TubeTotal(tube string) Volume {
	var total Volume
	for _, v := range p.Volumes[tube] {
		total += v
	}
	return total
}

// TipCount returns the number of tips the plan consumes.
func (p *TransferPlan) TipCount() int {
	return len(p.Steps)
}

// Transfers flattens the plan into (source, destination, volume) triples in
// execution order.
func (p *TransferPlan) Transfers() []Transfer {
	var out []Transfer
	for _, s := range p.Steps {
		for _, d := range s.Dispenses {
			out = append(out, Transfer{
				Reagent:     s.Reagent,
				Source:      s.Source,
				Tube:        d.Tube,
				Destination: d.Location,
				Volume:      d.Volume,
				Instrument:  s.Instrument.Name,
			})
		}
	}
	return out
}

// Roles returns every deck location the plan touches, for a layout survey.
func (p *TransferPlan) Roles() []deck.Role {
	var roles []deck.Role
	seen := make(map[Reagent]bool)
	for _, s := range p.Steps {
		if seen[s.Reagent] {
			continue
		}
		seen[s.Reagent] = true
		roles = append(roles, deck.Role{Name: string(s.Reagent), Location: s.Source})
	}
	for _, t := range p.Tubes {
		roles = append(roles, deck.Role{Name: t.Name, Location: t.Location})
	}
	return roles
}
