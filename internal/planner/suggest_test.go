package planner

import (
	"errors"
	"math"
	"testing"
)

func TestSuggestTargets(t *testing.T) {
	s, err := SuggestTargets(*newTestRequest())
	if err != nil {
		t.Fatalf("SuggestTargets failed: %v", err)
	}

	// 17 µL free for DNA allows 12.1 ng/µL, but that leaves 0.1 µL of water,
	// below the p20 minimum; 11.4 ng/µL is the first target with >= 1 µL water.
	if math.Abs(s.VectorTarget-11.4) > 1e-9 {
		t.Errorf("VectorTarget = %g, want 11.4", s.VectorTarget)
	}
	if math.Abs(s.InsertTarget-34.2) > 1e-9 {
		t.Errorf("InsertTarget = %g, want 34.2", s.InsertTarget)
	}
	if got := s.Plan.Component("ligation", Water); got != Microliter {
		t.Errorf("ligation water = %s, want 1.0 µL", got)
	}
}

func TestSuggestTargets_ConcentratedStocks(t *testing.T) {
	req := *newTestRequest()
	req.VectorConcentration = 1000
	req.InsertConcentration = 1000

	s, err := SuggestTargets(req)
	if err != nil {
		t.Fatalf("SuggestTargets failed: %v", err)
	}

	// 16 µL of DNA at 0.08 µL per ng/µL leaves exactly 1 µL of water at 200 ng/µL.
	if s.VectorTarget < 199.9 || s.VectorTarget > 200+1e-9 {
		t.Errorf("VectorTarget = %g, want about 200", s.VectorTarget)
	}
	if math.Abs(s.InsertTarget-3*s.VectorTarget) > 1e-9 {
		t.Errorf("InsertTarget = %g, want 3 × %g", s.InsertTarget, s.VectorTarget)
	}
	if got := s.Plan.Component("ligation", Water); got < Microliter {
		t.Errorf("ligation water = %s, want at least 1.0 µL", got)
	}
}

func TestSuggestTargets_TooDilute(t *testing.T) {
	req := *newTestRequest()
	req.BufferVolume = 15
	req.LigaseVolume = 5

	_, err := SuggestTargets(req)
	if !errors.Is(err, ErrNegativeVolume) {
		t.Fatalf("expected ErrNegativeVolume, got %v", err)
	}
}

func TestSuggestTargets_InvalidInput(t *testing.T) {
	req := *newTestRequest()
	req.VectorConcentration = 0

	_, err := SuggestTargets(req)
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
