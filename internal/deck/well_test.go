package deck

import (
	"errors"
	"testing"
)

func TestParseWell(t *testing.T) {
	tests := []struct {
		well    string
		row     int
		col     int
		wantErr bool
	}{
		{well: "A1", row: 0, col: 0},
		{well: "B3", row: 1, col: 2},
		{well: "H12", row: 7, col: 11},
		{well: "", wantErr: true},
		{well: "A", wantErr: true},
		{well: "a1", wantErr: true},
		{well: "A0", wantErr: true},
		{well: "A01", wantErr: true},
		{well: "Z1", wantErr: true},
		{well: "B-1", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.well, func(t *testing.T) {
			row, col, err := ParseWell(tt.well)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidWell) {
					t.Fatalf("expected ErrInvalidWell, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseWell(%q) failed: %v", tt.well, err)
			}
			if row != tt.row || col != tt.col {
				t.Errorf("ParseWell(%q) = (%d, %d), want (%d, %d)", tt.well, row, col, tt.row, tt.col)
			}
		})
	}
}

func TestDefinition_HasWell(t *testing.T) {
	def, err := Lookup("opentrons_24_tuberack_nest_1.5ml_snapcap")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}

	if !def.HasWell("D6") {
		t.Error("expected D6 on a 24-tube rack")
	}
	// The 4x6 rack has no column 8 and no row E.
	if def.HasWell("D8") || def.HasWell("C8") || def.HasWell("E1") {
		t.Error("expected out-of-range wells to be rejected")
	}
}

func TestValidateSlot(t *testing.T) {
	for _, slot := range []string{"1", "5", "11"} {
		if err := ValidateSlot(slot); err != nil {
			t.Errorf("ValidateSlot(%q) = %v", slot, err)
		}
	}
	for _, slot := range []string{"", "0", "12", "01", "x"} {
		if err := ValidateSlot(slot); !errors.Is(err, ErrInvalidSlot) {
			t.Errorf("ValidateSlot(%q) = %v, want ErrInvalidSlot", slot, err)
		}
	}
}

func TestLookup_Unknown(t *testing.T) {
	_, err := Lookup("opentrons_24_tuberack_nest_1 .5ml_snapcap ")
	if !errors.Is(err, ErrUnknownLabware) {
		t.Fatalf("expected ErrUnknownLabware, got %v", err)
	}
}
