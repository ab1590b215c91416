package deck

import (
	"fmt"
	"sort"
)

// ModulePlacement is a hardware module sitting in a slot.
type ModulePlacement struct {
	Name  string `json:"name"`
	Model string `json:"model"`
	Slot  string `json:"slot"`
}

// LabwarePlacement is labware sitting in a slot, optionally on a module.
type LabwarePlacement struct {
	Name     string `json:"name"`
	LoadName string `json:"load_name"`
	Slot     string `json:"slot"`

	// Module is the name of the module carrying this labware ("" if on the deck)
	Module string `json:"module,omitempty"`
}

// Layout is everything loaded onto the deck for one run.
type Layout struct {
	Modules []ModulePlacement
	Labware []LabwarePlacement
}

// Role names a location that the protocol reads from or writes to.
type Role struct {
	Name     string
	Location Location
}

// LabwareAt returns the labware occupying a slot.
func (l *Layout) LabwareAt(slot string) (LabwarePlacement, Definition, bool) {
	for _, lw := range l.Labware {
		if lw.Slot == slot {
			def, err := Lookup(lw.LoadName)
			if err != nil {
				return lw, Definition{}, false
			}
			return lw, def, true
		}
	}
	return LabwarePlacement{}, Definition{}, false
}

// Module returns the module with the given name.
func (l *Layout) Module(name string) (ModulePlacement, bool) {
	for _, m := range l.Modules {
		if m.Name == name {
			return m, true
		}
	}
	return ModulePlacement{}, false
}

// Validate checks slot usage and labware definitions.
func (l *Layout) Validate() error {
	owners := make(map[string]string)
	modules := make(map[string]ModulePlacement)

	for _, m := range l.Modules {
		if err := ValidateSlot(m.Slot); err != nil {
			return fmt.Errorf("module %s: %w", m.Name, err)
		}
		if prev, ok := owners[m.Slot]; ok {
			return fmt.Errorf("module %s: %w: slot %s held by %s", m.Name, ErrSlotInUse, m.Slot, prev)
		}
		owners[m.Slot] = m.Name
		modules[m.Name] = m
	}

	carried := make(map[string]string)
	for _, lw := range l.Labware {
		if _, err := Lookup(lw.LoadName); err != nil {
			return fmt.Errorf("labware %s: %w", lw.Name, err)
		}
		if err := ValidateSlot(lw.Slot); err != nil {
			return fmt.Errorf("labware %s: %w", lw.Name, err)
		}

		if lw.Module != "" {
			m, ok := modules[lw.Module]
			if !ok {
				return fmt.Errorf("labware %s: unknown module %q", lw.Name, lw.Module)
			}
			if m.Slot != lw.Slot {
				return fmt.Errorf("labware %s: slot %s does not match module %s in slot %s", lw.Name, lw.Slot, m.Name, m.Slot)
			}
			if prev, ok := carried[m.Name]; ok {
				return fmt.Errorf("labware %s: module %s already carries %s", lw.Name, m.Name, prev)
			}
			carried[m.Name] = lw.Name
			continue
		}

		if prev, ok := owners[lw.Slot]; ok {
			return fmt.Errorf("labware %s: %w: slot %s held by %s", lw.Name, ErrSlotInUse, lw.Slot, prev)
		}
		owners[lw.Slot] = lw.Name
	}

	return nil
}

// Survey validates the layout and checks that every role resolves to a real
// well on liquid-holding labware, with no two roles sharing a well.
func (l *Layout) Survey(roles []Role) error {
	if err := l.Validate(); err != nil {
		return err
	}

	claimed := make(map[string]string)
	for _, role := range roles {
		loc := role.Location
		lw, def, ok := l.LabwareAt(loc.Slot)
		if !ok {
			return fmt.Errorf("%s: no labware loaded in slot %s", role.Name, loc.Slot)
		}
		if def.Kind == KindTipRack {
			return fmt.Errorf("%s: slot %s holds tip rack %s", role.Name, loc.Slot, lw.Name)
		}
		if !def.HasWell(loc.Well) {
			return fmt.Errorf("%s: %w: %s has no well %q", role.Name, ErrInvalidWell, lw.Name, loc.Well)
		}
		if loc.Depth < 0 || loc.Depth > def.WellDepth {
			return fmt.Errorf("%s: depth %.1f mm outside well depth %.1f mm", role.Name, loc.Depth, def.WellDepth)
		}

		key := loc.String()
		if prev, ok := claimed[key]; ok {
			return fmt.Errorf("%s: well %s already used by %s", role.Name, key, prev)
		}
		claimed[key] = role.Name
	}

	return nil
}

// Slots returns the occupied slots in numeric order with a description of each.
func (l *Layout) Slots() [][2]string {
	desc := make(map[string]string)
	for _, m := range l.Modules {
		desc[m.Slot] = m.Name + " (" + m.Model + ")"
	}
	for _, lw := range l.Labware {
		if d, ok := desc[lw.Slot]; ok {
			desc[lw.Slot] = d + " + " + lw.Name
			continue
		}
		desc[lw.Slot] = lw.Name
	}

	slots := make([]string, 0, len(desc))
	for s := range desc {
		slots = append(slots, s)
	}
	sort.Slice(slots, func(i, j int) bool {
		return slotNumber(slots[i]) < slotNumber(slots[j])
	})

	out := make([][2]string, 0, len(slots))
	for _, s := range slots {
		out = append(out, [2]string{s, desc[s]})
	}
	return out
}

func slotNumber(slot string) int {
	n := 0
	for _, c := range slot {
		if c < '0' || c > '9' {
			return 1 << 30
		}
		n = n*10 + int(c-'0')
	}
	return n
}
