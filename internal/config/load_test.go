package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danieljhkim/ligate/internal/fsops"
	"github.com/danieljhkim/ligate/internal/planner"
)

func noEnv(string) string { return "" }

func envOf(vars map[string]string) func(string) string {
	return func(key string) string { return vars[key] }
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefault_IsValid(t *testing.T) {
	p := Default()
	require.NoError(t, p.Validate())

	req := p.PlanRequest(100, 50)
	plan, err := planner.BuildLigationPlan(req)
	require.NoError(t, err)
	for _, tube := range plan.Tubes {
		assert.Equal(t, 20*planner.Microliter, plan.TubeTotal(tube.Name), tube.Name)
	}
	require.NoError(t, p.Layout().Survey(plan.Roles()))
}

func TestLoadFile_YAML(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "ligate.yaml", `
reaction:
  final_volume: 30
  vector_target: 4
  insert_target: 12
reagents:
  water:
    slot: "5"
    well: C1
    depth: 30
robot:
  address: 10.0.0.7
`)

	p, err := LoadFile(fsops.NewRealFS(), path, noEnv)
	require.NoError(t, err)

	assert.Equal(t, 30.0, p.Reaction.FinalVolume)
	assert.Equal(t, 4.0, p.Reaction.VectorTarget)
	assert.Equal(t, 2.0, p.Reaction.BufferVolume, "unset fields keep defaults")
	assert.Equal(t, "C1", p.Reagents["water"].Well)
	assert.Equal(t, "B1", p.Reagents["vector"].Well, "reagents merge by name")
	assert.Equal(t, "10.0.0.7", p.Robot.Address)
	assert.Len(t, p.Pipettes, 2)
}

func TestLoadFile_TOML(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "ligate.toml", `
[metadata]
protocol_name = "Bench ligation"
robot_type = "OT-2"
api_level = "2.19"

[[pipettes]]
name = "p20"
model = "p20_single_gen2"
mount = "right"
min_volume = 1.0
max_volume = 20.0
resolution = 0.1
tip_rack = "8"
flow_rate = 7.56

[mix]
repetitions = 5
volume = 8.0
`)

	p, err := LoadFile(fsops.NewRealFS(), path, noEnv)
	require.NoError(t, err)

	assert.Equal(t, "Bench ligation", p.Metadata.ProtocolName)
	require.Len(t, p.Pipettes, 1, "pipette list replaces the defaults")
	assert.Equal(t, "p20", p.Pipettes[0].Name)
	assert.Equal(t, Mix{Repetitions: 5, Volume: 8}, p.Mix)
	assert.Equal(t, 20.0, p.Reaction.FinalVolume)
}

func TestDecode_PartialReagentKeepsDefaults(t *testing.T) {
	docs := map[Format]string{
		FormatYAML: "reagents:\n  vector:\n    pipette: p300\n  water:\n    well: C1\n",
		FormatTOML: "[reagents.vector]\npipette = \"p300\"\n\n[reagents.water]\nwell = \"C1\"\n",
	}

	for format, doc := range docs {
		t.Run(string(format), func(t *testing.T) {
			p, err := Decode([]byte(doc), format)
			require.NoError(t, err)

			assert.Equal(t, Source{Slot: "5", Well: "B1", Depth: 35, Pipette: "p300"}, p.Reagents["vector"])
			assert.Equal(t, Source{Slot: "5", Well: "C1", Depth: 35}, p.Reagents["water"])
			assert.Equal(t, Default().Reagents["insert"], p.Reagents["insert"])
			require.NoError(t, p.Validate())
		})
	}
}

func TestLoadFile_Errors(t *testing.T) {
	dir := t.TempDir()
	fs := fsops.NewRealFS()

	t.Run("unsupported extension", func(t *testing.T) {
		path := writeFile(t, dir, "ligate.json", `{}`)
		_, err := LoadFile(fs, path, noEnv)
		assert.ErrorIs(t, err, ErrUnsupportedFormat)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadFile(fs, filepath.Join(dir, "missing.yaml"), noEnv)
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("unknown field", func(t *testing.T) {
		path := writeFile(t, dir, "typo.yaml", "reaction:\n  final_volum: 20\n")
		_, err := LoadFile(fs, path, noEnv)
		assert.Error(t, err)
	})

	t.Run("structurally invalid", func(t *testing.T) {
		path := writeFile(t, dir, "bad.yaml", "pipettes: []\n")
		_, err := LoadFile(fs, path, noEnv)
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})

	t.Run("empty file yields defaults", func(t *testing.T) {
		path := writeFile(t, dir, "empty.yaml", "")
		p, err := LoadFile(fs, path, noEnv)
		require.NoError(t, err)
		assert.Equal(t, Default(), p)
	})
}

func TestLoad_Resolution(t *testing.T) {
	root := t.TempDir()
	t.Setenv(EnvHome, root)
	paths, err := DefaultPaths()
	require.NoError(t, err)
	fs := fsops.NewRealFS()

	p, used, err := Load(fs, paths, "", noEnv)
	require.NoError(t, err)
	assert.Empty(t, used)
	assert.Equal(t, Default(), p)

	writeFile(t, root, "config.yaml", "robot:\n  address: robot.lab\n")
	p, used, err = Load(fs, paths, "", noEnv)
	require.NoError(t, err)
	assert.Equal(t, paths.ConfigYAML, used)
	assert.Equal(t, "robot.lab", p.Robot.Address)

	explicit := writeFile(t, t.TempDir(), "other.toml", "[robot]\naddress = \"other.lab\"\npoll_millis = 100\ntimeout_seconds = 5\n")
	p, used, err = Load(fs, paths, explicit, noEnv)
	require.NoError(t, err)
	assert.Equal(t, explicit, used)
	assert.Equal(t, "other.lab", p.Robot.Address)
}

func TestApplyEnv(t *testing.T) {
	p := Default()
	err := p.ApplyEnv(envOf(map[string]string{
		EnvRobotAddr:   " 192.168.1.20 ",
		EnvFinalVolume: "25",
	}))
	require.NoError(t, err)
	assert.Equal(t, "192.168.1.20", p.Robot.Address)
	assert.Equal(t, 25.0, p.Reaction.FinalVolume)

	for _, bad := range []string{"twenty", "NaN", "+Inf", "-inf"} {
		err = Default().ApplyEnv(envOf(map[string]string{EnvFinalVolume: bad}))
		assert.ErrorIs(t, err, ErrInvalidConfig, bad)
	}
}

func TestEncode_RoundTrip(t *testing.T) {
	for _, format := range []Format{FormatYAML, FormatTOML} {
		t.Run(string(format), func(t *testing.T) {
			data, err := Encode(Default(), format)
			require.NoError(t, err)

			got, err := Decode(data, format)
			require.NoError(t, err)
			assert.Equal(t, Default(), got)
		})
	}
}

func TestFormatOf(t *testing.T) {
	tests := map[string]Format{
		"config.yaml": FormatYAML,
		"config.YML":  FormatYAML,
		"a/b.toml":    FormatTOML,
	}
	for path, want := range tests {
		got, err := FormatOf(path)
		require.NoError(t, err, path)
		assert.Equal(t, want, got, path)
	}

	_, err := FormatOf("config")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestProtocol_Fingerprint(t *testing.T) {
	a, err := Default().Fingerprint()
	require.NoError(t, err)
	assert.Len(t, a, 64)

	b, err := Default().Fingerprint()
	require.NoError(t, err)
	assert.Equal(t, a, b, "same settings, same fingerprint")

	// TOML source decodes to the same protocol, so it shares the fingerprint
	data, err := Encode(Default(), FormatTOML)
	require.NoError(t, err)
	fromTOML, err := Decode(data, FormatTOML)
	require.NoError(t, err)
	c, err := fromTOML.Fingerprint()
	require.NoError(t, err)
	assert.Equal(t, a, c)

	p := Default()
	p.Reaction.FinalVolume = 25
	d, err := p.Fingerprint()
	require.NoError(t, err)
	assert.NotEqual(t, a, d)
}
