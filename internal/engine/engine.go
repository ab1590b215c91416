// Package engine runs ligation protocols.
//
// The engine package is the orchestration layer between CLI commands and the
// lower-level packages. It turns a planner request into a validated plan,
// surveys the deck, and drives a port.Dispenser through setup, the pipetting
// steps and the temperature program.
//
// Key components:
//   - Engine: Main orchestrator that coordinates all operations
//   - Plan/Suggest: Validation and planning without touching hardware
//   - Run: Setup, execution under the tip policy, incubation and chill
package engine

import (
	"go.uber.org/zap"

	"github.com/danieljhkim/ligate/internal/clock"
	"github.com/danieljhkim/ligate/internal/port"
)

// Engine orchestrates all ligate operations.
// It is the main API surface called by the CLI.
type Engine struct {
	dispenser port.Dispenser
	clock     clock.Clock
	logger    *zap.Logger
}

// New creates a new Engine with the given dependencies. The dispenser may be
// nil for engines that only plan.
func New(d port.Dispenser, clk clock.Clock, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		dispenser: d,
		clock:     clk,
		logger:    logger,
	}
}
