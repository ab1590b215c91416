package engine

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/danieljhkim/ligate/internal/planner"
	"github.com/danieljhkim/ligate/internal/port"
)

// Algorithm steps:
// 1. Plan and survey unless already planned (any failure here means nothing is dispensed)
// 2. Return the plan if DryRun
// 3. Setup: load modules, labware, pipettes
// 4. Hold the block at the assembly temperature
// 5. Execute steps: one tip per step, never shared across reagents
// 6. Incubate, then chill
// 7. Return result
func (e *Engine) Run(ctx context.Context, req *RunRequest) (*RunResult, error) {
	planned := req.Planned
	if planned == nil {
		var err error
		planned, err = e.Plan(ctx, &PlanRequest{
			Reaction: req.Reaction,
			Layout:   req.Layout,
			Pipettes: req.Pipettes,
		})
		if err != nil {
			return nil, err
		}
	}
	plan := planned.Plan

	result := &RunResult{
		RunID:     uuid.NewString(),
		StartedAt: e.clock.Now(),
		DryRun:    req.DryRun,
		Plan:      plan,
	}
	log := e.logger.With(zap.String("run_id", result.RunID))

	if req.DryRun {
		result.FinishedAt = e.clock.Now()
		return result, nil
	}
	if e.dispenser == nil {
		return nil, ErrNoDispenser
	}

	log.Info("run started", zap.Int("steps", len(plan.Steps)), zap.Int("tips", plan.TipCount()))

	if err := e.setup(ctx, req); err != nil {
		return result, err
	}

	inc := req.Incubation
	if inc.Module != "" {
		log.Info("cooling block for assembly", zap.Float64("celsius", inc.AssemblyCelsius))
		if err := e.dispenser.SetTemperature(ctx, inc.Module, inc.AssemblyCelsius); err != nil {
			return result, fmt.Errorf("failed to cool block: %w", err)
		}
	}

	for i, step := range plan.Steps {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		log.Debug("executing step",
			zap.Int("index", i),
			zap.String("reagent", string(step.Reagent)),
			zap.String("pipette", step.Instrument.Name),
			zap.Int("dispenses", len(step.Dispenses)))

		if err := e.executeStep(ctx, step); err != nil {
			return result, &StepError{Index: i, Total: len(plan.Steps), Step: step, Err: err}
		}
		result.StepsExecuted++
		result.TipsUsed++
	}

	if err := e.incubate(ctx, log, inc); err != nil {
		return result, err
	}
	result.Incubated = true

	result.FinishedAt = e.clock.Now()
	log.Info("run finished",
		zap.Int("steps", result.StepsExecuted),
		zap.Duration("elapsed", result.FinishedAt.Sub(result.StartedAt)))
	return result, nil
}

// setup loads everything onto the deck. Modules go first so labware can sit
// on them, and labware before pipettes so tip racks can be bound.
func (e *Engine) setup(ctx context.Context, req *RunRequest) error {
	if req.Layout != nil {
		for _, m := range req.Layout.Modules {
			if err := e.dispenser.LoadModule(ctx, m); err != nil {
				return fmt.Errorf("%w: module %s: %w", ErrSetup, m.Name, err)
			}
		}
		for _, lw := range req.Layout.Labware {
			if err := e.dispenser.LoadLabware(ctx, lw); err != nil {
				return fmt.Errorf("%w: labware %s: %w", ErrSetup, lw.Name, err)
			}
		}
	}
	for _, p := range req.Pipettes {
		if err := e.dispenser.LoadPipette(ctx, p); err != nil {
			return fmt.Errorf("%w: pipette %s: %w", ErrSetup, p.Name, err)
		}
	}
	return nil
}

// executeStep performs one step with a single tip. Batched steps aspirate once
// per load and dispense into each tube in turn.
func (e *Engine) executeStep(ctx context.Context, step planner.Step) error {
	pipette := step.Instrument.Name

	if len(step.Dispenses) == 1 {
		d := step.Dispenses[0]
		opts := port.TransferOptions{NewTip: true}
		if step.Mix != nil {
			opts.MixRepetitions = step.Mix.Repetitions
			opts.MixVolume = step.Mix.Volume
		}
		return port.Transfer(ctx, e.dispenser, pipette, d.Volume, step.Source, d.Location, opts)
	}

	if err := e.dispenser.PickUpTip(ctx, pipette); err != nil {
		return err
	}
	for _, load := range step.Loads() {
		var total planner.Volume
		for _, d := range load {
			total += d.Volume
		}
		if err := e.dispenser.Aspirate(ctx, pipette, total, step.Source); err != nil {
			return err
		}
		for _, d := range load {
			if err := e.dispenser.Dispense(ctx, pipette, d.Volume, d.Location); err != nil {
				return fmt.Errorf("dispense to %s: %w", d.Tube, err)
			}
		}
	}
	if step.Mix != nil {
		last := step.Dispenses[len(step.Dispenses)-1]
		if err := e.dispenser.Mix(ctx, pipette, step.Mix.Repetitions, step.Mix.Volume, last.Location); err != nil {
			return err
		}
	}
	return e.dispenser.DropTip(ctx, pipette)
}

// incubate runs the temperature program after pipetting.
func (e *Engine) incubate(ctx context.Context, log *zap.Logger, inc Incubation) error {
	if inc.Module != "" {
		log.Info("warming block for incubation", zap.Float64("celsius", inc.Celsius))
		if err := e.dispenser.SetTemperature(ctx, inc.Module, inc.Celsius); err != nil {
			return fmt.Errorf("failed to warm block: %w", err)
		}
	}

	if inc.Duration > 0 {
		msg := fmt.Sprintf("incubating at %.0f °C for %s", inc.Celsius, inc.Duration)
		log.Info("incubating", zap.Duration("duration", inc.Duration))
		if err := e.dispenser.Delay(ctx, inc.Duration, msg); err != nil {
			return fmt.Errorf("failed to incubate: %w", err)
		}
	}

	if inc.Module != "" {
		log.Info("chilling before transformation", zap.Float64("celsius", inc.HoldCelsius))
		if err := e.dispenser.SetTemperature(ctx, inc.Module, inc.HoldCelsius); err != nil {
			return fmt.Errorf("failed to chill block: %w", err)
		}
	}
	return nil
}
