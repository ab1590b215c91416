// Package config manages ligate configuration and filesystem paths.
//
// A protocol config describes the deck (modules, labware, pipettes), where
// each reagent and reaction tube sits, the reaction parameters and the robot
// to talk to. Default reproduces the standard ligation deck; a config.yaml or
// config.toml under the ligate root overrides it, and LIGATE_* environment
// variables override the file.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/danieljhkim/ligate/internal/fsops"
)

// Paths contains all the filesystem paths used by ligate.
type Paths struct {
	// Root is the base directory for all ligate data (default: ~/.ligate)
	Root string

	// Reports is the default directory for run reports
	Reports string

	// ConfigYAML and ConfigTOML are the candidate global config files.
	// YAML wins when both exist.
	ConfigYAML string
	ConfigTOML string
}

// DefaultPaths returns the default paths for ligate.
// Paths can be overridden with environment variables:
// - LIGATE_HOME: Override the root directory
func DefaultPaths() (*Paths, error) {
	root := os.Getenv(EnvHome)
	if root == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		root = filepath.Join(home, ".ligate")
	}

	return &Paths{
		Root:       root,
		Reports:    filepath.Join(root, "reports"),
		ConfigYAML: filepath.Join(root, "config.yaml"),
		ConfigTOML: filepath.Join(root, "config.toml"),
	}, nil
}

// ConfigFile returns the global config file that exists, or "" if none does.
func (p *Paths) ConfigFile(fs fsops.FS) (string, error) {
	for _, path := range []string{p.ConfigYAML, p.ConfigTOML} {
		exists, err := fs.Exists(path)
		if err != nil {
			return "", fmt.Errorf("failed to check %s: %w", path, err)
		}
		if exists {
			return path, nil
		}
	}
	return "", nil
}

// EnsureDirectories creates all necessary directories if they don't exist.
func (p *Paths) EnsureDirectories(fs fsops.FS) error {
	for _, dir := range []string{p.Root, p.Reports} {
		if err := fs.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}
