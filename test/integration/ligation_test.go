package integration

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danieljhkim/ligate/internal/config"
	"github.com/danieljhkim/ligate/internal/engine"
	"github.com/danieljhkim/ligate/internal/fsops"
	"github.com/danieljhkim/ligate/internal/planner"
	"github.com/danieljhkim/ligate/internal/port/ot2"
)

func TestLigation_FullRunOverHTTP(t *testing.T) {
	h := newHarness(t)

	result, err := h.run(t, runRequest(config.Default(), 100, 50))
	require.NoError(t, err)
	assert.Equal(t, 6, result.StepsExecuted)
	assert.Equal(t, 6, result.TipsUsed)
	assert.True(t, result.Incubated)
	assert.False(t, h.robot.isCurrent(), "run is released after Close")

	types := h.robot.types()
	require.Len(t, types, 57)
	assert.Equal(t, []string{
		"loadModule",
		"loadLabware", "loadLabware", "loadLabware", "loadLabware", "loadLabware",
		"loadPipette", "loadPipette",
		"temperatureModule/setTargetTemperature", "temperatureModule/waitForTemperature",
	}, types[:10])
	assert.Equal(t, []string{
		"temperatureModule/setTargetTemperature", "temperatureModule/waitForTemperature",
		"waitForDuration",
		"temperatureModule/setTargetTemperature", "temperatureModule/waitForTemperature",
	}, types[len(types)-5:])

	var tips []any
	for _, c := range h.robot.sent() {
		if c.Type == "pickUpTip" {
			assert.Equal(t, "labware-p20_tips", c.Params["labwareId"])
			tips = append(tips, c.Params["wellName"])
		}
	}
	assert.Equal(t, []any{"A1", "B1", "C1", "D1", "E1", "F1"}, tips)
}

func TestLigation_WaterIsSplitToFitThePipette(t *testing.T) {
	h := newHarness(t)

	_, err := h.run(t, runRequest(config.Default(), 100, 50))
	require.NoError(t, err)

	var volumes []any
	for _, c := range h.robot.liquidCommands("aspirate", "tube_rack", "B3") {
		volumes = append(volumes, c.Params["volume"])
		loc := c.Params["wellLocation"].(map[string]any)
		assert.Equal(t, "top", loc["origin"])
		assert.Equal(t, -35.0, loc["offset"].(map[string]any)["z"])
		assert.Equal(t, 7.56, c.Params["flowRate"])
	}
	assert.Equal(t, []any{16.0, 17.0, 10.0}, volumes)
}

func TestLigation_LigaseIsMixedIn(t *testing.T) {
	h := newHarness(t)

	_, err := h.run(t, runRequest(config.Default(), 100, 50))
	require.NoError(t, err)

	// one dispense of ligase plus three mix cycles per ligase tube
	for _, well := range []string{"A1", "A2"} {
		aspirates := h.robot.liquidCommands("aspirate", "reaction_block", well)
		assert.Len(t, aspirates, 3, "well %s", well)
		for _, c := range aspirates {
			assert.Equal(t, 10.0, c.Params["volume"])
		}
	}
	assert.Empty(t, h.robot.liquidCommands("aspirate", "reaction_block", "A3"), "vector-only control is not mixed")
}

func TestLigation_InvalidVolumesSendNothing(t *testing.T) {
	h := newHarness(t)

	_, err := h.run(t, runRequest(config.Default(), 1, 50))
	require.ErrorIs(t, err, planner.ErrCapacityExceeded)
	assert.Empty(t, h.robot.types())
	assert.False(t, h.robot.isCurrent())
}

func TestLigation_RobotFailureStopsRun(t *testing.T) {
	h := newHarness(t)
	// setup (8) + cooling (2) + pick up (1) + aspirate (1), then the first dispense fails
	h.robot.failAt = 13

	result, err := h.run(t, runRequest(config.Default(), 100, 50))
	require.Error(t, err)
	assert.ErrorIs(t, err, engine.ErrStepFailed)
	assert.ErrorIs(t, err, ot2.ErrCommandFailed)

	var cmdErr *ot2.CommandError
	require.True(t, errors.As(err, &cmdErr))
	assert.Equal(t, "dispense", cmdErr.CommandType)
	assert.Equal(t, "TipNotAttachedError", cmdErr.ErrorType)

	assert.Equal(t, 0, result.StepsExecuted)
	assert.False(t, result.Incubated)
	assert.Len(t, h.robot.types(), 13, "nothing is sent after a failed command")
	assert.False(t, h.robot.isCurrent())
}

func TestLigation_ConfigFileMovesLabware(t *testing.T) {
	dir := t.TempDir()
	fs := fsops.NewRealFS()

	p := config.Default()
	for i := range p.Labware {
		if p.Labware[i].Name == "tube_rack" {
			p.Labware[i].Slot = "6"
		}
	}
	for _, name := range []string{"vector", "insert", "water"} {
		src := p.Reagents[name]
		src.Slot = "6"
		p.Reagents[name] = src
	}
	data, err := config.Encode(p, config.FormatTOML)
	require.NoError(t, err)
	path := filepath.Join(dir, "bench.toml")
	require.NoError(t, os.WriteFile(path, data, 0644))

	loaded, err := config.LoadFile(fs, path, func(string) string { return "" })
	require.NoError(t, err)

	h := newHarness(t)
	_, err = h.run(t, runRequest(loaded, 100, 50))
	require.NoError(t, err)

	for _, c := range h.robot.sent() {
		if c.Type == "loadLabware" && c.Params["displayName"] == "tube_rack" {
			assert.Equal(t, map[string]any{"slotName": "6"}, c.Params["location"])
		}
	}
	assert.Len(t, h.robot.liquidCommands("aspirate", "tube_rack", "B1"), 1, "vector is drawn once for all tubes")
}
