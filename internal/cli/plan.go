package cli

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/danieljhkim/ligate/internal/engine"
	"github.com/danieljhkim/ligate/internal/planner"
)

var planConc concFlags

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Compute and validate reagent volumes and the transfer order",
	Long: `Compute the volume of every reagent in every reaction tube from the stock
concentrations, validate them against the pipettes and the deck, and show the
ordered transfer plan. Nothing is sent to the robot.

Missing concentrations are prompted for when running in a terminal.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession()
		if err != nil {
			return err
		}
		defer func() { _ = s.logger.Sync() }()

		vector, insert, err := planConc.resolve(cmd, newPrompter(cmd))
		if err != nil {
			return err
		}

		req := s.runRequest(vector, insert)
		result, err := s.newEngine(nil).Plan(context.Background(), &engine.PlanRequest{
			Reaction: req.Reaction,
			Layout:   req.Layout,
			Pipettes: req.Pipettes,
		})
		if err != nil {
			return err
		}

		if jsonOutput {
			return outputJSON(result)
		}

		printPlan(result.Plan)
		PrintSection("Tips")
		names := make([]string, 0, len(result.Tips))
		for name := range result.Tips {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			PrintLabelValue(name, PrintCount(result.Tips[name], "tip", "tips"))
		}
		return nil
	},
}

func init() {
	planConc.register(planCmd)
}

// printPlan shows per-tube volumes, the ordered steps and any warnings.
func printPlan(plan *planner.TransferPlan) {
	PrintSection(fmt.Sprintf("Volumes (final %s, vector %g ng/µL, insert %g ng/µL)",
		plan.FinalVolume, plan.VectorTarget, plan.InsertTarget))

	headers := []string{"Tube"}
	for _, r := range planner.Components {
		headers = append(headers, string(r))
	}
	headers = append(headers, "total")

	rows := make([][]string, 0, len(plan.Tubes))
	for _, t := range plan.Tubes {
		row := []string{fmt.Sprintf("%s (%s)", t.Name, t.Location)}
		for _, r := range planner.Components {
			row = append(row, plan.Component(t.Name, r).String())
		}
		row = append(row, plan.TubeTotal(t.Name).String())
		rows = append(rows, row)
	}
	PrintTable(headers, rows)

	PrintSection(fmt.Sprintf("Steps (%s)", PrintCount(len(plan.Steps), "tip", "tips")))
	steps := make([]string, 0, len(plan.Steps))
	for _, step := range plan.Steps {
		steps = append(steps, describeStep(step))
	}
	PrintNumberedList(steps, 1)

	if len(plan.Warnings) > 0 {
		fmt.Println()
		for _, w := range plan.Warnings {
			PrintWarning(w)
		}
	}
}

func describeStep(step planner.Step) string {
	var dests string
	for i, d := range step.Dispenses {
		if i > 0 {
			dests += ", "
		}
		dests += fmt.Sprintf("%s %s", d.Volume, d.Tube)
	}
	desc := fmt.Sprintf("%s from %s with %s -> %s", step.Reagent, step.Source, step.Instrument.Name, dests)
	if loads := len(step.Loads()); loads > 1 {
		desc += fmt.Sprintf(" (%d aspirations)", loads)
	}
	if step.Mix != nil {
		desc += fmt.Sprintf(", mix %dx %s", step.Mix.Repetitions, step.Mix.Volume)
	}
	return desc
}
