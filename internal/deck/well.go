package deck

import (
	"errors"
	"fmt"
	"strconv"
)

var (
	// ErrUnknownLabware indicates a load name with no known definition.
	ErrUnknownLabware = errors.New("unknown labware")

	// ErrInvalidWell indicates a malformed or out-of-range well name.
	ErrInvalidWell = errors.New("invalid well")

	// ErrInvalidSlot indicates a slot outside 1-11.
	ErrInvalidSlot = errors.New("invalid slot")

	// ErrSlotInUse indicates two placements claim the same slot.
	ErrSlotInUse = errors.New("slot already in use")

	// ErrTipsExhausted indicates every tip in a rack has been used.
	ErrTipsExhausted = errors.New("tip rack exhausted")
)

// SlotCount is the number of deck slots.
const SlotCount = 11

// ParseWell splits a well name like "C4" into a zero-based row and column.
func ParseWell(well string) (row, col int, err error) {
	if len(well) < 2 {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidWell, well)
	}
	letter := well[0]
	if letter < 'A' || letter > 'P' {
		return 0, 0, fmt.Errorf("%w: %q: row must be A-P", ErrInvalidWell, well)
	}
	n, err := strconv.Atoi(well[1:])
	if err != nil || n < 1 || well[1] == '0' {
		return 0, 0, fmt.Errorf("%w: %q: bad column", ErrInvalidWell, well)
	}
	return int(letter - 'A'), n - 1, nil
}

// ValidateSlot checks that slot names a deck position.
func ValidateSlot(slot string) error {
	n, err := strconv.Atoi(slot)
	if err != nil || n < 1 || n > SlotCount || slot[0] == '0' {
		return fmt.Errorf("%w: %q", ErrInvalidSlot, slot)
	}
	return nil
}
