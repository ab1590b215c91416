package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/danieljhkim/ligate/internal/clock"
	"github.com/danieljhkim/ligate/internal/config"
	"github.com/danieljhkim/ligate/internal/engine"
	"github.com/danieljhkim/ligate/internal/fsops"
	"github.com/danieljhkim/ligate/internal/port"
)

// session holds what every protocol command needs.
type session struct {
	paths    *config.Paths
	fs       fsops.FS
	protocol *config.Protocol

	// source is the config file the protocol came from ("" for defaults)
	source string
	logger *zap.Logger
}

// newSession resolves paths, loads the protocol and builds the logger.
func newSession() (*session, error) {
	paths, err := config.DefaultPaths()
	if err != nil {
		return nil, fmt.Errorf("failed to get config paths: %w", err)
	}

	fs := fsops.NewRealFS()
	protocol, source, err := config.Load(fs, paths, configPath, os.Getenv)
	if err != nil {
		return nil, err
	}

	logger, err := newLogger(verbose)
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	return &session{
		paths:    paths,
		fs:       fs,
		protocol: protocol,
		source:   source,
		logger:   logger,
	}, nil
}

// newLogger builds a production logger on stderr. Only warnings show unless
// debug is set.
func newLogger(debug bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	if debug {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return cfg.Build()
}

// newEngine creates an engine driving d, which may be nil for planning only.
func (s *session) newEngine(d port.Dispenser) *engine.Engine {
	return engine.New(d, &clock.RealClock{}, s.logger)
}

// runRequest combines the protocol with the stock concentrations.
func (s *session) runRequest(vectorConc, insertConc float64) *engine.RunRequest {
	p := s.protocol
	return &engine.RunRequest{
		Reaction: p.PlanRequest(vectorConc, insertConc),
		Layout:   p.Layout(),
		Pipettes: p.PortPipettes(),
		Incubation: engine.Incubation{
			Module:          p.Incubation.Module,
			AssemblyCelsius: p.Incubation.AssemblyCelsius,
			Celsius:         p.Incubation.Celsius,
			Duration:        p.Incubation.Duration(),
			HoldCelsius:     p.Incubation.HoldCelsius,
		},
	}
}

// formatJSON formats a value as JSON.
func formatJSON(v interface{}) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// formatError formats an error for display.
func formatError(err error) string {
	return errorColor.Sprintf("Error: %v", err)
}

// outputJSON outputs a value as JSON to stdout.
func outputJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
