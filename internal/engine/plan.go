package engine

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/danieljhkim/ligate/internal/deck"
	"github.com/danieljhkim/ligate/internal/planner"
	"github.com/danieljhkim/ligate/internal/port"
)

// Algorithm steps:
// 1. Build the transfer plan (volumes, validation, ordering)
// 2. Survey the deck: every source and tube resolves to a real well
// 3. Count tips per pipette against its rack
// 4. Return result
func (e *Engine) Plan(ctx context.Context, req *PlanRequest) (*PlanResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	plan, err := planner.BuildLigationPlan(req.Reaction)
	if err != nil {
		return nil, err
	}
	for _, w := range plan.Warnings {
		e.logger.Warn("plan warning", zap.String("warning", w))
	}

	if err := survey(req.Layout, plan); err != nil {
		return nil, err
	}

	tips := tipsByPipette(plan)
	if err := checkTips(req.Layout, req.Pipettes, tips); err != nil {
		return nil, err
	}

	e.logger.Debug("plan built",
		zap.Int("steps", len(plan.Steps)),
		zap.Int("tubes", len(plan.Tubes)),
		zap.Int("warnings", len(plan.Warnings)))

	return &PlanResult{Plan: plan, Tips: tips}, nil
}

// Suggest finds the highest targets the stocks allow and surveys the plan
// they produce.
func (e *Engine) Suggest(ctx context.Context, req *SuggestRequest) (*SuggestResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s, err := planner.SuggestTargets(*req.Reaction)
	if err != nil {
		return nil, err
	}
	if err := survey(req.Layout, s.Plan); err != nil {
		return nil, err
	}

	return &SuggestResult{
		VectorTarget: s.VectorTarget,
		InsertTarget: s.InsertTarget,
		Plan:         s.Plan,
	}, nil
}

func survey(layout *deck.Layout, plan *planner.TransferPlan) error {
	if layout == nil {
		return nil
	}
	if err := layout.Survey(plan.Roles()); err != nil {
		return fmt.Errorf("%w: %w", ErrDeckSurvey, err)
	}
	return nil
}

func tipsByPipette(plan *planner.TransferPlan) map[string]int {
	tips := make(map[string]int)
	for _, s := range plan.Steps {
		tips[s.Instrument.Name]++
	}
	return tips
}

func checkTips(layout *deck.Layout, pipettes []port.Pipette, tips map[string]int) error {
	if layout == nil {
		return nil
	}
	for _, p := range pipettes {
		need := tips[p.Name]
		if need == 0 {
			continue
		}
		_, def, ok := layout.LabwareAt(p.TipRack)
		if !ok || def.Kind != deck.KindTipRack {
			return fmt.Errorf("%w: pipette %s has no tip rack in slot %s", ErrTipShortage, p.Name, p.TipRack)
		}
		if need > def.WellCount() {
			return fmt.Errorf("%w: pipette %s needs %d, rack holds %d", ErrTipShortage, p.Name, need, def.WellCount())
		}
	}
	return nil
}
