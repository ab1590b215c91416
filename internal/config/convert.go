package config

import (
	"github.com/danieljhkim/ligate/internal/deck"
	"github.com/danieljhkim/ligate/internal/planner"
	"github.com/danieljhkim/ligate/internal/port"
)

// Instruments returns the pipettes as planner instruments.
func (p *Protocol) Instruments() []planner.Instrument {
	out := make([]planner.Instrument, 0, len(p.Pipettes))
	for _, pip := range p.Pipettes {
		out = append(out, pip.instrument())
	}
	return out
}

func (pip Pipette) instrument() planner.Instrument {
	return planner.Instrument{
		Name:       pip.Name,
		Model:      pip.Model,
		Mount:      pip.Mount,
		MinVolume:  planner.Microliters(pip.MinVolume),
		MaxVolume:  planner.Microliters(pip.MaxVolume),
		Resolution: planner.Microliters(pip.Resolution),
	}
}

// PortPipettes returns the pipettes to load, with their tip racks.
func (p *Protocol) PortPipettes() []port.Pipette {
	out := make([]port.Pipette, 0, len(p.Pipettes))
	for _, pip := range p.Pipettes {
		out = append(out, port.Pipette{
			Instrument: pip.instrument(),
			TipRack:    pip.TipRack,
			FlowRate:   pip.FlowRate,
		})
	}
	return out
}

// Layout returns the deck layout.
func (p *Protocol) Layout() *deck.Layout {
	layout := &deck.Layout{}
	for _, m := range p.Modules {
		layout.Modules = append(layout.Modules, deck.ModulePlacement{Name: m.Name, Model: m.Model, Slot: m.Slot})
	}
	for _, lw := range p.Labware {
		layout.Labware = append(layout.Labware, deck.LabwarePlacement{
			Name:     lw.Name,
			LoadName: lw.LoadName,
			Slot:     lw.Slot,
			Module:   lw.Module,
		})
	}
	return layout
}

// PlanRequest combines the protocol with the operator's stock
// concentrations into a planner request.
func (p *Protocol) PlanRequest(vectorConc, insertConc float64) *planner.Request {
	sources := make(map[planner.Reagent]planner.Source, len(p.Reagents))
	for name, src := range p.Reagents {
		sources[planner.Reagent(name)] = planner.Source{
			Location:   deck.Location{Slot: src.Slot, Well: src.Well, Depth: src.Depth},
			Instrument: src.Pipette,
		}
	}

	tubes := make([]planner.Tube, 0, len(p.Tubes))
	for _, t := range p.Tubes {
		tubes = append(tubes, planner.Tube{
			Name:     t.Name,
			Location: deck.Location{Slot: t.Slot, Well: t.Well, Depth: t.Depth},
			Insert:   t.Insert,
			Ligase:   t.Ligase,
		})
	}

	return &planner.Request{
		VectorConcentration: vectorConc,
		InsertConcentration: insertConc,
		VectorTarget:        p.Reaction.VectorTarget,
		InsertTarget:        p.Reaction.InsertTarget,
		Ratio:               p.Reaction.Ratio,
		FinalVolume:         p.Reaction.FinalVolume,
		BufferVolume:        p.Reaction.BufferVolume,
		LigaseVolume:        p.Reaction.LigaseVolume,
		Instruments:         p.Instruments(),
		Sources:             sources,
		Tubes:               tubes,
		Mix: planner.Mix{
			Repetitions: p.Mix.Repetitions,
			Volume:      planner.Microliters(p.Mix.Volume),
		},
	}
}
