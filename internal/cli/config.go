package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/danieljhkim/ligate/internal/config"
	"github.com/danieljhkim/ligate/internal/fsops"
)

var (
	configInitFormat string
	configInitForce  bool
	configShowFormat string
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Create or inspect the protocol config",
	Long: `Manage the protocol config file.

The config lives at $LIGATE_HOME/config.yaml or $LIGATE_HOME/config.toml
(LIGATE_HOME defaults to ~/.ligate). When both exist the YAML file wins.
--config points any command at a different file.`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default protocol to the config directory",
	Args:  cobra.NoArgs,
	RunE:  runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective protocol after file and environment overrides",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

func init() {
	configInitCmd.Flags().StringVar(&configInitFormat, "format", string(config.FormatYAML), "Config format: yaml or toml")
	configInitCmd.Flags().BoolVarP(&configInitForce, "force", "f", false, "Overwrite an existing config file")
	configShowCmd.Flags().StringVar(&configShowFormat, "format", string(config.FormatYAML), "Output format: yaml or toml")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	paths, err := config.DefaultPaths()
	if err != nil {
		return fmt.Errorf("failed to get config paths: %w", err)
	}

	format := config.Format(configInitFormat)
	var target string
	switch format {
	case config.FormatYAML:
		target = paths.ConfigYAML
	case config.FormatTOML:
		target = paths.ConfigTOML
	default:
		return fmt.Errorf("%w: %q", config.ErrUnsupportedFormat, configInitFormat)
	}
	if configPath != "" {
		target = configPath
		if format, err = config.FormatOf(target); err != nil {
			return err
		}
	}

	fs := fsops.NewRealFS()
	exists, err := fs.Exists(target)
	if err != nil {
		return fmt.Errorf("failed to check %s: %w", target, err)
	}
	if exists && !configInitForce {
		return fmt.Errorf("config already exists at %s\nUse --force to overwrite", target)
	}

	if err := paths.EnsureDirectories(fs); err != nil {
		return err
	}

	data, err := config.Encode(config.Default(), format)
	if err != nil {
		return err
	}
	if err := fs.AtomicWrite(target, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", target, err)
	}

	if jsonOutput {
		return outputJSON(map[string]string{"path": target, "format": string(format)})
	}

	PrintSuccess(fmt.Sprintf("Wrote default protocol to %s", target))
	fmt.Println()
	PrintInfo("Next steps:")
	fmt.Println("  1. Edit the deck slots and wells to match your robot")
	fmt.Println("  2. Check the layout:  ligate layout")
	fmt.Println("  3. Preview volumes:   ligate plan --vector-conc <ng/uL> --insert-conc <ng/uL>")
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	s, err := newSession()
	if err != nil {
		return err
	}

	if jsonOutput {
		return outputJSON(s.protocol)
	}

	data, err := config.Encode(s.protocol, config.Format(configShowFormat))
	if err != nil {
		return err
	}
	if s.source != "" {
		_, _ = dimColor.Fprintf(os.Stderr, "# from %s\n", s.source)
	} else {
		_, _ = dimColor.Fprintln(os.Stderr, "# built-in defaults")
	}
	_, err = os.Stdout.Write(data)
	return err
}
