package deck

import "fmt"

// TipRack hands out tip positions column by column: A1, B1, ... H1, A2, ...
type TipRack struct {
	slot string
	def  Definition
	next int
}

// NewTipRack creates a full rack in the given slot.
func NewTipRack(slot string, def Definition) *TipRack {
	return &TipRack{slot: slot, def: def}
}

// Next returns the location of the next unused tip.
func (r *TipRack) Next() (Location, error) {
	if r.next >= r.def.WellCount() {
		return Location{}, fmt.Errorf("%w: slot %s", ErrTipsExhausted, r.slot)
	}
	row := r.next % r.def.Rows
	col := r.next / r.def.Rows
	r.next++
	return Location{Slot: r.slot, Well: r.def.WellAt(row, col)}, nil
}

// Used returns the number of tips handed out.
func (r *TipRack) Used() int {
	return r.next
}

// Remaining returns the number of tips left.
func (r *TipRack) Remaining() int {
	return r.def.WellCount() - r.next
}
