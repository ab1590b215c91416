package engine

import (
	"errors"
	"fmt"

	"github.com/danieljhkim/ligate/internal/planner"
)

var (
	// ErrDeckSurvey indicates a plan location that the deck layout cannot serve.
	ErrDeckSurvey = errors.New("deck survey failed")

	// ErrTipShortage indicates a plan needs more tips than a pipette's rack holds.
	ErrTipShortage = errors.New("not enough tips")

	// ErrSetup indicates loading modules, labware or pipettes failed.
	ErrSetup = errors.New("setup failed")

	// ErrStepFailed indicates a pipetting step failed part way through a run.
	ErrStepFailed = errors.New("step failed")

	// ErrNoDispenser indicates Run on an engine built without a dispenser.
	ErrNoDispenser = errors.New("no dispenser configured")
)

// StepError reports which step of a run failed.
type StepError struct {
	// Index is the zero-based position of the step in the plan
	Index int

	// Total is the number of steps in the plan
	Total int

	Step planner.Step
	Err  error
}

func (e *StepError) Error() string {
	var tubes string
	for i, d := range e.Step.Dispenses {
		if i > 0 {
			tubes += ","
		}
		tubes += d.Tube
	}
	return fmt.Sprintf("step %d/%d (%s with %s to %s): %v",
		e.Index+1, e.Total, e.Step.Reagent, e.Step.Instrument.Name, tubes, e.Err)
}

// Unwrap exposes both ErrStepFailed and the port error.
func (e *StepError) Unwrap() []error {
	return []error{ErrStepFailed, e.Err}
}
