package engine

import (
	"time"

	"github.com/danieljhkim/ligate/internal/deck"
	"github.com/danieljhkim/ligate/internal/planner"
	"github.com/danieljhkim/ligate/internal/port"
)

// PlanRequest represents a request to validate and plan a ligation.
type PlanRequest struct {
	// Reaction is the planner input
	Reaction *planner.Request

	// Layout is the deck the plan is surveyed against
	Layout *deck.Layout

	// Pipettes, when set, are checked for enough tips
	Pipettes []port.Pipette
}

// Incubation is the temperature program around the pipetting steps.
type Incubation struct {
	// Module is the temperature module holding the reaction tubes ("" to skip
	// temperature control)
	Module string

	// AssemblyCelsius is held while reagents are added
	AssemblyCelsius float64

	// Celsius and Duration are the ligation incubation
	Celsius  float64
	Duration time.Duration

	// HoldCelsius chills the product once incubation ends
	HoldCelsius float64
}

// RunRequest represents a request to execute a ligation.
type RunRequest struct {
	Reaction *planner.Request
	Layout   *deck.Layout
	Pipettes []port.Pipette

	Incubation Incubation

	// Planned, when set, is the result of Plan for this same request; Run
	// executes it instead of planning again
	Planned *PlanResult

	// DryRun performs planning only without touching the dispenser
	DryRun bool
}

// SuggestRequest represents a request for the highest feasible targets.
type SuggestRequest struct {
	Reaction *planner.Request
	Layout   *deck.Layout
}
