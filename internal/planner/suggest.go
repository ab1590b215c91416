package planner

import (
	"errors"
	"fmt"
	"math"
)

const (
	// maxSuggestAttempts is how far SuggestTargets steps down from the ceiling.
	maxSuggestAttempts = 50

	// maxSuggestSteps bounds the search for very concentrated stocks.
	maxSuggestSteps = 5000
)

// Suggestion is the largest pair of targets whose volumes fit the tube.
type Suggestion struct {
	VectorTarget float64       `json:"vector_target"`
	InsertTarget float64       `json:"insert_target"`
	Plan         *TransferPlan `json:"plan"`
}

// SuggestTargets finds the highest vector target, in steps of 0.1 ng/µL, for
// which a valid plan exists with the insert target held at the ratio. Stocks
// can only be diluted, so the ceiling is set by how much DNA fits beside the
// buffer and ligase. The request's own targets are ignored.
func SuggestTargets(req Request) (*Suggestion, error) {
	ratio := req.ratio()
	req.VectorTarget = 1
	req.InsertTarget = ratio
	if err := req.validateInputs(); err != nil {
		return nil, err
	}

	fixed := req.BufferVolume
	if req.needs(Ligase) {
		fixed += req.LigaseVolume
	}
	available := req.FinalVolume - fixed
	if available <= 0 {
		return nil, &ValidationError{
			Component: string(Water),
			Detail:    fmt.Sprintf("buffer and ligase leave %g µL for DNA", available),
			Err:       ErrNegativeVolume,
		}
	}

	// µL of DNA needed per 1 ng/µL of vector target.
	perUnit := req.FinalVolume / req.VectorConcentration
	if req.needs(Insert) {
		perUnit += ratio * req.FinalVolume / req.InsertConcentration
	}

	// The exact fill leaves no water; failing that, the ligation tube needs at
	// least the smallest deliverable water volume.
	candidates := []int{tenthsFor(available, perUnit)}
	minWater := waterMinimum(&req)
	tenths := tenthsFor(available-minWater.Microliters(), perUnit)

	// Rounding each DNA volume can overshoot by half a resolution step, so
	// allow enough steps for the DNA total to shrink by a full step.
	attempts := maxSuggestAttempts
	if need := int(math.Ceil(coarsest(req.Instruments).Microliters() / (perUnit / 10))); need > attempts {
		attempts = min(need, maxSuggestSteps)
	}
	for i := 0; i < attempts && tenths-i > 0; i++ {
		candidates = append(candidates, tenths-i)
	}

	var lastErr error
	for _, n := range candidates {
		if n <= 0 {
			continue
		}
		attempt := req
		attempt.VectorTarget = float64(n) / 10
		attempt.InsertTarget = ratio * attempt.VectorTarget

		plan, err := BuildLigationPlan(&attempt)
		if err == nil {
			return &Suggestion{
				VectorTarget: attempt.VectorTarget,
				InsertTarget: attempt.InsertTarget,
				Plan:         plan,
			}, nil
		}
		if errors.Is(err, ErrInvalidInput) {
			return nil, err
		}
		lastErr = err
	}

	if lastErr != nil {
		return nil, lastErr
	}
	return nil, &ValidationError{
		Component: string(Vector),
		Detail:    "stocks too dilute for a target of at least 0.1 ng/µL",
		Err:       ErrCapacityExceeded,
	}
}

// tenthsFor returns the largest vector target, in tenths of ng/µL, whose DNA
// fits in ul.
func tenthsFor(ul, perUnit float64) int {
	return int(math.Floor(ul/perUnit*10 + 1e-9))
}

// waterMinimum is the smallest water volume any candidate instrument delivers.
func waterMinimum(req *Request) Volume {
	if name := req.Sources[Water].Instrument; name != "" {
		if inst, ok := findInstrument(req.Instruments, name); ok {
			return inst.MinVolume
		}
	}
	least := req.Instruments[0].MinVolume
	for _, inst := range req.Instruments[1:] {
		least = min(least, inst.MinVolume)
	}
	return least
}

// coarsest returns the largest resolution among the instruments.
func coarsest(instruments []Instrument) Volume {
	var res Volume
	for _, inst := range instruments {
		res = max(res, inst.Resolution)
	}
	return res
}
