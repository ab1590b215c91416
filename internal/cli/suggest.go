package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danieljhkim/ligate/internal/engine"
)

var suggestConc concFlags

var suggestCmd = &cobra.Command{
	Use:   "suggest",
	Short: "Find the highest target concentrations the stocks allow",
	Long: `Stocks can be diluted but never concentrated. suggest finds the highest
vector target (in 0.1 ng/µL steps), with the insert target at the configured
ratio, whose volumes still fit every tube and pipette.

Set reaction.vector_target and reaction.insert_target in your config to use it.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession()
		if err != nil {
			return err
		}
		defer func() { _ = s.logger.Sync() }()

		vector, insert, err := suggestConc.resolve(cmd, newPrompter(cmd))
		if err != nil {
			return err
		}

		req := s.runRequest(vector, insert)
		result, err := s.newEngine(nil).Suggest(context.Background(), &engine.SuggestRequest{
			Reaction: req.Reaction,
			Layout:   req.Layout,
		})
		if err != nil {
			return err
		}

		if jsonOutput {
			return outputJSON(result)
		}

		PrintSection("Suggested targets")
		PrintLabelValue("Vector target", fmt.Sprintf("%.1f ng/µL", result.VectorTarget))
		PrintLabelValue("Insert target", fmt.Sprintf("%.1f ng/µL", result.InsertTarget))
		if cur := s.protocol.Reaction; cur.VectorTarget > result.VectorTarget {
			PrintWarning(fmt.Sprintf("Configured vector target %g ng/µL is above what these stocks allow", cur.VectorTarget))
		}
		printPlan(result.Plan)
		return nil
	},
}

func init() {
	suggestConc.register(suggestCmd)
}
