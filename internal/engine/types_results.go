package engine

import (
	"time"

	"github.com/danieljhkim/ligate/internal/planner"
)

// PlanResult represents a validated plan.
type PlanResult struct {
	// Plan is the ordered transfer plan
	Plan *planner.TransferPlan `json:"plan"`

	// Tips is the number of tips each pipette will use
	Tips map[string]int `json:"tips"`
}

// RunResult represents the outcome of a run.
type RunResult struct {
	// RunID identifies this run in logs and reports
	RunID string `json:"run_id"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	// DryRun is true when nothing was sent to the dispenser
	DryRun bool `json:"dry_run"`

	Plan *planner.TransferPlan `json:"plan"`

	// StepsExecuted counts completed plan steps
	StepsExecuted int `json:"steps_executed"`

	// TipsUsed counts tips picked up
	TipsUsed int `json:"tips_used"`

	// Incubated is true once the incubation delay has elapsed
	Incubated bool `json:"incubated"`
}

// SuggestResult represents suggested targets and the plan they produce.
type SuggestResult struct {
	VectorTarget float64               `json:"vector_target"`
	InsertTarget float64               `json:"insert_target"`
	Plan         *planner.TransferPlan `json:"plan"`
}
