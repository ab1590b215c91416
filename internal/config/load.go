package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"maps"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/danieljhkim/ligate/internal/fsops"
	"github.com/danieljhkim/ligate/internal/hash"
)

// Environment variables read by ligate.
const (
	EnvHome        = "LIGATE_HOME"
	EnvRobotAddr   = "LIGATE_ROBOT_ADDR"
	EnvFinalVolume = "LIGATE_FINAL_VOLUME"
)

var (
	// ErrInvalidConfig indicates a config that cannot describe a run.
	ErrInvalidConfig = errors.New("invalid config")

	// ErrUnsupportedFormat indicates a config file extension other than YAML or TOML.
	ErrUnsupportedFormat = errors.New("unsupported config format")
)

// Format is a config file encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// FormatOf returns the format implied by a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// Decode parses data over the defaults. Lists in data replace the default
// lists; reagents merge by name, and a reagent keeps every default field the
// file leaves out.
func Decode(data []byte, format Format) (*Protocol, error) {
	p := Default()
	defaults := maps.Clone(p.Reagents)
	var top map[string]any
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &top); err != nil {
			return nil, fmt.Errorf("failed to parse yaml: %w", err)
		}
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(p); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to parse yaml: %w", err)
		}
	case FormatTOML:
		if _, err := toml.Decode(string(data), &top); err != nil {
			return nil, fmt.Errorf("failed to parse toml: %w", err)
		}
		resetLists(p, top)
		md, err := toml.Decode(string(data), p)
		if err != nil {
			return nil, fmt.Errorf("failed to parse toml: %w", err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("failed to parse toml: unknown field %q", undecoded[0].String())
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	mergeReagents(p, defaults, top)
	return p, nil
}

// mergeReagents restores the default fields a reagent entry omits. Both
// decoders replace map values whole.
func mergeReagents(p *Protocol, defaults map[string]Source, top map[string]any) {
	raw, _ := top["reagents"].(map[string]any)
	for name, v := range raw {
		def, ok := defaults[name]
		if !ok {
			continue
		}
		fields, _ := v.(map[string]any)
		src := p.Reagents[name]
		if _, set := fields["slot"]; !set {
			src.Slot = def.Slot
		}
		if _, set := fields["well"]; !set {
			src.Well = def.Well
		}
		if _, set := fields["depth"]; !set {
			src.Depth = def.Depth
		}
		if _, set := fields["pipette"]; !set {
			src.Pipette = def.Pipette
		}
		p.Reagents[name] = src
	}
}

// resetLists drops the default lists that a TOML document redefines. The TOML
// decoder fills existing slice elements in place, so a list in the file would
// otherwise inherit fields from the default entries.
func resetLists(p *Protocol, top map[string]any) {
	if _, ok := top["pipettes"]; ok {
		p.Pipettes = nil
	}
	if _, ok := top["modules"]; ok {
		p.Modules = nil
	}
	if _, ok := top["labware"]; ok {
		p.Labware = nil
	}
	if _, ok := top["tubes"]; ok {
		p.Tubes = nil
	}
}

// Encode renders p in the given format.
func Encode(p *Protocol, format Format) ([]byte, error) {
	switch format {
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(p); err != nil {
			return nil, fmt.Errorf("failed to encode yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("failed to encode yaml: %w", err)
		}
		return buf.Bytes(), nil
	case FormatTOML:
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(p); err != nil {
			return nil, fmt.Errorf("failed to encode toml: %w", err)
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// LoadFile reads a protocol from path, then applies environment overrides
// and validates the result.
func LoadFile(fs fsops.FS, path string, getenv func(string) string) (*Protocol, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := fs.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	p, err := Decode(data, format)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return finish(p, getenv)
}

// Load resolves the protocol for a command: the explicit path if given,
// otherwise the global config file if one exists, otherwise Default. The
// second return value is the file used, or "".
func Load(fs fsops.FS, paths *Paths, explicit string, getenv func(string) string) (*Protocol, string, error) {
	if explicit != "" {
		p, err := LoadFile(fs, explicit, getenv)
		return p, explicit, err
	}

	path, err := paths.ConfigFile(fs)
	if err != nil {
		return nil, "", err
	}
	if path != "" {
		p, err := LoadFile(fs, path, getenv)
		return p, path, err
	}

	p, err := finish(Default(), getenv)
	return p, "", err
}

func finish(p *Protocol, getenv func(string) string) (*Protocol, error) {
	if getenv == nil {
		getenv = os.Getenv
	}
	if err := p.ApplyEnv(getenv); err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// ApplyEnv overrides fields from LIGATE_* environment variables.
func (p *Protocol) ApplyEnv(getenv func(string) string) error {
	if addr := strings.TrimSpace(getenv(EnvRobotAddr)); addr != "" {
		p.Robot.Address = addr
	}
	if v := strings.TrimSpace(getenv(EnvFinalVolume)); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("%w: %s=%q is not a number", ErrInvalidConfig, EnvFinalVolume, v)
		}
		p.Reaction.FinalVolume = f
	}
	return nil
}

// Fingerprint returns the SHA-256 of the protocol's canonical YAML encoding.
// Two protocols with the same settings share a fingerprint regardless of the
// file format or environment overrides that produced them.
func (p *Protocol) Fingerprint() (string, error) {
	data, err := Encode(p, FormatYAML)
	if err != nil {
		return "", err
	}
	return hash.Bytes(data), nil
}
