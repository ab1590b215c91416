package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danieljhkim/ligate/internal/hash"
)

var describeCmd = &cobra.Command{
	Use:   "describe",
	Short: "Show protocol details",
	Long:  `Display the protocol metadata, reaction parameters and temperature program.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession()
		if err != nil {
			return err
		}
		p := s.protocol

		if jsonOutput {
			return outputJSON(p)
		}

		PrintInfo(fmt.Sprintf("Protocol: %s", p.Metadata.ProtocolName))
		if p.Metadata.Author != "" {
			PrintInfo(fmt.Sprintf("Author: %s", p.Metadata.Author))
		}
		PrintInfo(fmt.Sprintf("Robot: %s (API %s)", p.Metadata.RobotType, p.Metadata.APILevel))
		if p.Metadata.Description != "" {
			PrintInfo(fmt.Sprintf("Description: %s", p.Metadata.Description))
		}
		if s.source != "" {
			PrintInfo(fmt.Sprintf("Config: %s", s.source))
		} else {
			PrintInfo("Config: built-in defaults")
		}
		if fingerprint, err := p.Fingerprint(); err == nil {
			PrintInfo(fmt.Sprintf("Fingerprint: %s", hash.Short(fingerprint)))
		}

		r := p.Reaction
		PrintInfo("\nReaction:")
		PrintInfo(fmt.Sprintf("  Final volume: %g µL", r.FinalVolume))
		PrintInfo(fmt.Sprintf("  Vector target: %g ng/µL", r.VectorTarget))
		PrintInfo(fmt.Sprintf("  Insert target: %g ng/µL (%g:1)", r.InsertTarget, r.Ratio))
		PrintInfo(fmt.Sprintf("  Buffer: %g µL, ligase: %g µL", r.BufferVolume, r.LigaseVolume))
		PrintInfo(fmt.Sprintf("  Mix after ligase: %dx %g µL", p.Mix.Repetitions, p.Mix.Volume))

		PrintInfo(fmt.Sprintf("\nTubes (%d):", len(p.Tubes)))
		for _, t := range p.Tubes {
			contents := "vector"
			if t.Insert {
				contents += " + insert"
			}
			if t.Ligase {
				contents += " + ligase"
			}
			PrintInfo(fmt.Sprintf("  %s: %s", t.Name, contents))
		}

		inc := p.Incubation
		PrintInfo("\nTemperature program:")
		if inc.Module == "" {
			PrintInfo(fmt.Sprintf("  No temperature module; wait %s", inc.Duration()))
		} else {
			PrintInfo(fmt.Sprintf("  Assemble at %g °C on %s", inc.AssemblyCelsius, inc.Module))
			PrintInfo(fmt.Sprintf("  Incubate at %g °C for %s", inc.Celsius, inc.Duration()))
			PrintInfo(fmt.Sprintf("  Hold at %g °C", inc.HoldCelsius))
		}

		PrintInfo(fmt.Sprintf("\nRobot address: %s", p.Robot.Address))
		return nil
	},
}
