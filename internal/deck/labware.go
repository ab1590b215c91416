// Package deck describes the physical layout of the robot deck.
//
// A deck has eleven numbered slots. Each slot holds at most one piece of
// labware, or a module that in turn holds one piece of labware. Liquids are
// addressed by (slot, well) with an optional depth below the well top.
//
// Key responsibilities:
//   - Labware geometry (rows, columns, well depth) by load name
//   - Well name parsing and validation
//   - Layout survey: every role resolves to loaded labware and a real well
//   - Tip rack iteration
package deck

import (
	"fmt"
	"strconv"
)

// Labware kinds.
const (
	KindTubeRack = "tuberack"
	KindBlock    = "aluminumblock"
	KindTipRack  = "tiprack"
)

// Definition is the geometry of a labware type.
type Definition struct {
	// LoadName is the vendor load name, e.g. "opentrons_96_tiprack_20ul"
	LoadName string

	// Kind is one of the Kind* constants
	Kind string

	// Rows and Columns give the well grid (rows lettered from A, columns numbered from 1)
	Rows    int
	Columns int

	// WellDepth is the depth of each well in millimetres
	WellDepth float64
}

var definitions = map[string]Definition{
	"opentrons_24_tuberack_nest_1.5ml_snapcap": {
		LoadName:  "opentrons_24_tuberack_nest_1.5ml_snapcap",
		Kind:      KindTubeRack,
		Rows:      4,
		Columns:   6,
		WellDepth: 37.9,
	},
	"opentrons_24_aluminumblock_nest_1.5ml_snapcap": {
		LoadName:  "opentrons_24_aluminumblock_nest_1.5ml_snapcap",
		Kind:      KindBlock,
		Rows:      4,
		Columns:   6,
		WellDepth: 37.9,
	},
	"opentrons_96_tiprack_20ul": {
		LoadName:  "opentrons_96_tiprack_20ul",
		Kind:      KindTipRack,
		Rows:      8,
		Columns:   12,
		WellDepth: 39.2,
	},
	"opentrons_96_tiprack_300ul": {
		LoadName:  "opentrons_96_tiprack_300ul",
		Kind:      KindTipRack,
		Rows:      8,
		Columns:   12,
		WellDepth: 59.3,
	},
}

// Lookup returns the definition for a load name.
func Lookup(loadName string) (Definition, error) {
	def, ok := definitions[loadName]
	if !ok {
		return Definition{}, fmt.Errorf("%w: %q", ErrUnknownLabware, loadName)
	}
	return def, nil
}

// HasWell reports whether the well name exists on this labware.
func (d Definition) HasWell(well string) bool {
	row, col, err := ParseWell(well)
	if err != nil {
		return false
	}
	return row < d.Rows && col < d.Columns
}

// WellAt returns the name of the well at the zero-based row and column.
func (d Definition) WellAt(row, col int) string {
	return string(rune('A'+row)) + strconv.Itoa(col+1)
}

// WellCount returns the number of wells.
func (d Definition) WellCount() int {
	return d.Rows * d.Columns
}

// Location addresses liquid on the deck.
type Location struct {
	// Slot is the deck slot, "1" to "11"
	Slot string `json:"slot"`

	// Well is the well name, e.g. "B1"
	Well string `json:"well"`

	// Depth is how far below the well top to place the tip, in millimetres
	Depth float64 `json:"depth,omitempty"`
}

// String returns "slot:well".
func (l Location) String() string {
	return l.Slot + ":" + l.Well
}

// Top returns the location at the well top.
func (l Location) Top() Location {
	l.Depth = 0
	return l
}
