package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/danieljhkim/ligate/internal/clock"
	"github.com/danieljhkim/ligate/internal/engine"
	"github.com/danieljhkim/ligate/internal/hash"
	"github.com/danieljhkim/ligate/internal/port"
	"github.com/danieljhkim/ligate/internal/port/ot2"
)

// Run modes recorded in reports.
const (
	modeRobot    = "robot"
	modeSimulate = "simulate"
	modeDryRun   = "dry-run"
)

const closeTimeout = 10 * time.Second

var (
	runConc       concFlags
	runRobot      string
	runDryRun     bool
	runSimulate   bool
	runReportPath string
	runYes        bool
)

// runReport is what --report and --json write.
type runReport struct {
	Protocol   string            `json:"protocol"`
	ConfigHash string            `json:"config_sha256"`
	Mode       string            `json:"mode"`
	Robot      string            `json:"robot,omitempty"`
	Result     *engine.RunResult `json:"result,omitempty"`
	Transcript []string          `json:"transcript,omitempty"`
	Error      string            `json:"error,omitempty"`
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the ligation on the robot",
	Long: `Plan the ligation and execute it: load the deck, hold the reaction block
on ice, transfer every reagent, mix after ligase, incubate and chill.

Volumes are validated before anything is dispensed. Use --simulate to execute
against a recorder and print every robot command instead, or --dry-run to stop
after planning.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if runDryRun && runSimulate {
			return errors.New("--dry-run and --simulate are mutually exclusive")
		}

		s, err := newSession()
		if err != nil {
			return err
		}
		defer func() { _ = s.logger.Sync() }()

		p := newPrompter(cmd)
		vector, insert, err := runConc.resolve(cmd, p)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		req := s.runRequest(vector, insert)
		fingerprint, err := s.protocol.Fingerprint()
		if err != nil {
			return err
		}
		report := &runReport{Protocol: s.protocol.Metadata.ProtocolName, ConfigHash: fingerprint}

		var result *engine.RunResult
		var runErr error
		switch {
		case runDryRun:
			report.Mode = modeDryRun
			req.DryRun = true
			result, runErr = s.newEngine(nil).Run(ctx, req)

		case runSimulate:
			report.Mode = modeSimulate
			rec := port.NewRecorder()
			result, runErr = s.newEngine(rec).Run(ctx, req)
			for _, c := range rec.Calls {
				report.Transcript = append(report.Transcript, c.String())
			}

		default:
			report.Mode = modeRobot
			report.Robot = runRobot
			if report.Robot == "" {
				report.Robot = s.protocol.Robot.Address
			}
			result, runErr = runOnRobot(ctx, s, p, req, report.Robot)
		}

		report.Result = result
		if runErr != nil {
			report.Error = runErr.Error()
		}

		if runReportPath != "" {
			if err := writeReport(s, runReportPath, report); err != nil {
				if runErr != nil {
					return errors.Join(runErr, err)
				}
				return err
			}
		}

		if jsonOutput {
			if err := outputJSON(report); err != nil {
				return err
			}
			return runErr
		}

		if result != nil && result.Plan != nil {
			printPlan(result.Plan)
		}
		if len(report.Transcript) > 0 {
			PrintSection("Robot commands")
			PrintNumberedList(report.Transcript, 1)
		}
		if runErr != nil {
			if result != nil && !result.DryRun {
				PrintWarning(fmt.Sprintf("Run stopped after %s", PrintCount(result.StepsExecuted, "step", "steps")))
			}
			return runErr
		}

		fmt.Println()
		switch report.Mode {
		case modeDryRun:
			PrintSuccess("Plan is valid; nothing was dispensed")
		case modeSimulate:
			PrintSuccess(fmt.Sprintf("Simulated %s with %s", PrintCount(result.StepsExecuted, "step", "steps"), PrintCount(result.TipsUsed, "tip", "tips")))
		default:
			PrintSuccess(fmt.Sprintf("Ligation complete: %s, %s", PrintCount(result.StepsExecuted, "step", "steps"), PrintCount(result.TipsUsed, "tip", "tips")))
			PrintInfo("Reactions are holding at 4 °C and ready for transformation.")
		}
		PrintLabelValue("Run ID", result.RunID)
		PrintLabelValue("Config", hash.Short(report.ConfigHash))
		if runReportPath != "" {
			PrintLabelValue("Report", runReportPath)
		}
		return nil
	},
}

// runOnRobot confirms with the operator, then runs against the robot server.
func runOnRobot(ctx context.Context, s *session, p *prompter, req *engine.RunRequest, addr string) (*engine.RunResult, error) {
	if !runYes {
		if !stdinIsTerminal() {
			return nil, errors.New("refusing to run on the robot without --yes when stdin is not a terminal")
		}
		if !p.confirm(fmt.Sprintf("Run %q on %s?", s.protocol.Metadata.ProtocolName, addr)) {
			return nil, errors.New("run cancelled")
		}
	}

	// Validate before claiming the robot; Run reuses the plan.
	planned, err := s.newEngine(nil).Plan(ctx, &engine.PlanRequest{
		Reaction: req.Reaction,
		Layout:   req.Layout,
		Pipettes: req.Pipettes,
	})
	if err != nil {
		return nil, err
	}
	req.Planned = planned

	robot := s.protocol.Robot
	client := ot2.New(addr, &clock.RealClock{}, s.logger,
		ot2.WithPollInterval(robot.PollInterval()),
		ot2.WithWaitTimeout(robot.Timeout()))
	if err := client.Open(ctx); err != nil {
		return nil, err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), closeTimeout)
		defer cancel()
		if err := client.Close(closeCtx); err != nil {
			s.logger.Warn("failed to close run", zap.Error(err))
		}
	}()

	return s.newEngine(client).Run(ctx, req)
}

func writeReport(s *session, path string, report *runReport) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	if err := s.fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}
	if err := s.fs.AtomicWrite(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

func init() {
	runConc.register(runCmd)
	runCmd.Flags().StringVar(&runRobot, "robot", "", "Robot address (host, host:port or URL); overrides the config and LIGATE_ROBOT_ADDR")
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "Plan and validate only; nothing is dispensed")
	runCmd.Flags().BoolVar(&runSimulate, "simulate", false, "Execute against a recorder and print the robot commands")
	runCmd.Flags().StringVar(&runReportPath, "report", "", "Write a JSON run report to this path")
	runCmd.Flags().BoolVarP(&runYes, "yes", "y", false, "Do not ask for confirmation before running on the robot")
}
