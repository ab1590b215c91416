package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/danieljhkim/ligate/internal/deck"
)

// layoutView is the --json shape of the layout command.
type layoutView struct {
	Slots    map[string]string        `json:"slots"`
	Reagents map[string]deck.Location `json:"reagents"`
	Tubes    map[string]deck.Location `json:"tubes"`
	Pipettes map[string]string        `json:"pipettes"`
}

var layoutCmd = &cobra.Command{
	Use:   "layout",
	Short: "Show the deck layout and where each reagent and tube sits",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession()
		if err != nil {
			return err
		}
		p := s.protocol
		layout := p.Layout()

		view := layoutView{
			Slots:    make(map[string]string),
			Reagents: make(map[string]deck.Location),
			Tubes:    make(map[string]deck.Location),
			Pipettes: make(map[string]string),
		}
		for _, slot := range layout.Slots() {
			view.Slots[slot[0]] = slot[1]
		}
		for name, src := range p.Reagents {
			view.Reagents[name] = deck.Location{Slot: src.Slot, Well: src.Well, Depth: src.Depth}
		}
		for _, t := range p.Tubes {
			view.Tubes[t.Name] = deck.Location{Slot: t.Slot, Well: t.Well, Depth: t.Depth}
		}
		for _, pip := range p.Pipettes {
			view.Pipettes[pip.Name] = fmt.Sprintf("%s on %s mount, tips in slot %s", pip.Model, pip.Mount, pip.TipRack)
		}

		if jsonOutput {
			return outputJSON(view)
		}

		PrintSection("Deck")
		rows := make([][]string, 0, len(layout.Slots()))
		for _, slot := range layout.Slots() {
			rows = append(rows, []string{slot[0], slot[1]})
		}
		PrintTable([]string{"Slot", "Contents"}, rows)

		PrintSection("Reagents")
		names := make([]string, 0, len(view.Reagents))
		for name := range view.Reagents {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			PrintLabelValue(name, wellLabel(layout, view.Reagents[name]))
		}

		PrintSection("Reaction tubes")
		for _, t := range p.Tubes {
			PrintLabelValue(t.Name, wellLabel(layout, view.Tubes[t.Name]))
		}

		PrintSection("Pipettes")
		for _, pip := range p.Pipettes {
			PrintLabelValue(pip.Name, view.Pipettes[pip.Name])
		}
		return nil
	},
}

func wellLabel(layout *deck.Layout, loc deck.Location) string {
	label := fmt.Sprintf("slot %s well %s, %.1f mm below top", loc.Slot, loc.Well, loc.Depth)
	if lw, _, ok := layout.LabwareAt(loc.Slot); ok {
		label += " (" + lw.Name + ")"
	}
	return label
}
