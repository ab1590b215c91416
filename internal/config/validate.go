package config

import (
	"fmt"

	"github.com/danieljhkim/ligate/internal/deck"
	"github.com/danieljhkim/ligate/internal/planner"
)

// requiredReagents must each have a source.
var requiredReagents = []planner.Reagent{
	planner.Vector,
	planner.Insert,
	planner.Water,
	planner.Buffer,
	planner.Ligase,
}

// Validate checks the structure of a protocol. Reaction arithmetic is left to
// the planner, which needs the operator's stock concentrations.
func (p *Protocol) Validate() error {
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
	}

	if len(p.Pipettes) == 0 {
		return invalid("no pipettes configured")
	}
	pipettes := make(map[string]bool, len(p.Pipettes))
	mounts := make(map[string]string, len(p.Pipettes))
	for _, pip := range p.Pipettes {
		if pip.Name == "" || pip.Model == "" {
			return invalid("pipette needs a name and a model")
		}
		if pipettes[pip.Name] {
			return invalid("duplicate pipette %q", pip.Name)
		}
		pipettes[pip.Name] = true
		if pip.Mount != "left" && pip.Mount != "right" {
			return invalid("pipette %s: mount %q must be left or right", pip.Name, pip.Mount)
		}
		if prev, ok := mounts[pip.Mount]; ok {
			return invalid("pipette %s: %s mount already holds %s", pip.Name, pip.Mount, prev)
		}
		mounts[pip.Mount] = pip.Name
		if pip.MinVolume <= 0 || pip.MaxVolume < pip.MinVolume {
			return invalid("pipette %s: range %g-%g µL", pip.Name, pip.MinVolume, pip.MaxVolume)
		}
		if pip.Resolution <= 0 {
			return invalid("pipette %s: resolution must be positive", pip.Name)
		}
		if pip.FlowRate < 0 {
			return invalid("pipette %s: flow rate must not be negative", pip.Name)
		}
	}

	layout := p.Layout()
	if err := layout.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	for _, pip := range p.Pipettes {
		_, def, ok := layout.LabwareAt(pip.TipRack)
		if !ok || def.Kind != deck.KindTipRack {
			return invalid("pipette %s: slot %q holds no tip rack", pip.Name, pip.TipRack)
		}
	}

	for _, r := range requiredReagents {
		src, ok := p.Reagents[string(r)]
		if !ok {
			return invalid("no source for %s", r)
		}
		if src.Pipette != "" && !pipettes[src.Pipette] {
			return invalid("%s: unknown pipette %q", r, src.Pipette)
		}
	}
	for name := range p.Reagents {
		if !isReagent(name) {
			return invalid("unknown reagent %q", name)
		}
	}

	if len(p.Tubes) == 0 {
		return invalid("no reaction tubes configured")
	}
	if p.Mix.Repetitions < 0 {
		return invalid("mix repetitions must not be negative")
	}

	if p.Incubation.Module != "" {
		if _, ok := layout.Module(p.Incubation.Module); !ok {
			return invalid("incubation: unknown module %q", p.Incubation.Module)
		}
	}
	if p.Incubation.Minutes < 0 {
		return invalid("incubation minutes must not be negative")
	}

	if p.Robot.PollMillis <= 0 || p.Robot.TimeoutSeconds <= 0 {
		return invalid("robot poll and timeout must be positive")
	}

	return nil
}

func isReagent(name string) bool {
	for _, r := range requiredReagents {
		if string(r) == name {
			return true
		}
	}
	return false
}
