package ot2

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/danieljhkim/ligate/internal/clock"
	"github.com/danieljhkim/ligate/internal/deck"
	"github.com/danieljhkim/ligate/internal/planner"
	"github.com/danieljhkim/ligate/internal/port"
)

type sentCommand struct {
	Type   string
	Params map[string]any
}

// fakeRobot is a minimal robot server that acknowledges commands.
type fakeRobot struct {
	mu          sync.Mutex
	commands    []sentCommand
	pending     map[string]int
	pollsNeeded int
	failOn      string
	closed      bool
	badVersion  bool
	nextID      int
}

func newFakeRobot() *fakeRobot {
	return &fakeRobot{pending: make(map[string]int)}
}

func (f *fakeRobot) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if r.Header.Get("Opentrons-Version") != apiVersion {
		f.badVersion = true
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"errors":[{"title":"Missing header","detail":"Opentrons-Version required"}]}`))
		return
	}

	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/runs":
		writeJSON(w, map[string]any{"data": map[string]any{"id": "run-1", "status": "idle"}})

	case r.Method == http.MethodPatch && r.URL.Path == "/runs/run-1":
		f.closed = true
		writeJSON(w, map[string]any{"data": map[string]any{"id": "run-1"}})

	case r.Method == http.MethodPost && r.URL.Path == "/runs/run-1/commands":
		if r.URL.Query().Get("waitUntilComplete") != "true" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		var body struct {
			Data struct {
				CommandType string         `json:"commandType"`
				Params      map[string]any `json:"params"`
			} `json:"data"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		f.commands = append(f.commands, sentCommand{Type: body.Data.CommandType, Params: body.Data.Params})
		f.nextID++
		id := fmt.Sprintf("cmd-%d", f.nextID)

		cmd := map[string]any{"id": id, "commandType": body.Data.CommandType, "status": "succeeded"}
		switch body.Data.CommandType {
		case "loadModule":
			cmd["result"] = map[string]any{"moduleId": "mod-" + id}
		case "loadLabware":
			cmd["result"] = map[string]any{"labwareId": "lw-" + body.Data.Params["displayName"].(string)}
		case "loadPipette":
			cmd["result"] = map[string]any{"pipetteId": "pip-" + body.Data.Params["pipetteName"].(string)}
		}
		if body.Data.CommandType == f.failOn {
			cmd["status"] = "failed"
			cmd["error"] = map[string]any{"errorType": "PipetteNotReadyToAspirateError", "detail": "plunger not at bottom"}
		} else if f.pollsNeeded > 0 {
			cmd["status"] = "running"
			f.pending[id] = f.pollsNeeded
		}
		writeJSON(w, map[string]any{"data": cmd})

	case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/runs/run-1/commands/"):
		id := strings.TrimPrefix(r.URL.Path, "/runs/run-1/commands/")
		status := "succeeded"
		f.pending[id]--
		if f.pending[id] > 0 {
			status = "running"
		}
		writeJSON(w, map[string]any{"data": map[string]any{"id": id, "status": status}})

	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (f *fakeRobot) types() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.commands))
	for i, c := range f.commands {
		out[i] = c.Type
	}
	return out
}

func (f *fakeRobot) last(commandType string) map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.commands) - 1; i >= 0; i-- {
		if f.commands[i].Type == commandType {
			return f.commands[i].Params
		}
	}
	return nil
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func setupClient(t *testing.T, robot *fakeRobot) (*Client, *clock.FakeClock) {
	t.Helper()
	srv := httptest.NewServer(robot)
	t.Cleanup(srv.Close)

	clk := clock.NewFakeClock(time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC))
	c := New(srv.URL, clk, zaptest.NewLogger(t), WithHTTPClient(srv.Client()), WithPollInterval(time.Second))
	require.NoError(t, c.Open(context.Background()))
	return c, clk
}

func loadDeck(t *testing.T, c *Client) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, c.LoadModule(ctx, deck.ModulePlacement{Name: "temperature", Model: "temperatureModuleV2", Slot: "1"}))
	require.NoError(t, c.LoadLabware(ctx, deck.LabwarePlacement{Name: "reaction_block", LoadName: "opentrons_24_aluminumblock_nest_1.5ml_snapcap", Slot: "1", Module: "temperature"}))
	require.NoError(t, c.LoadLabware(ctx, deck.LabwarePlacement{Name: "tube_rack", LoadName: "opentrons_24_tuberack_nest_1.5ml_snapcap", Slot: "5"}))
	require.NoError(t, c.LoadLabware(ctx, deck.LabwarePlacement{Name: "p20_tips", LoadName: "opentrons_96_tiprack_20ul", Slot: "8"}))
	require.NoError(t, c.LoadPipette(ctx, port.Pipette{
		Instrument: planner.Instrument{Name: "p20", Model: "p20_single_gen2", Mount: "right"},
		TipRack:    "8",
		FlowRate:   7.56,
	}))
}

func TestClient_TransferSequence(t *testing.T) {
	robot := newFakeRobot()
	c, _ := setupClient(t, robot)
	loadDeck(t, c)
	ctx := context.Background()

	assert.Equal(t, "run-1", c.RunID())
	robot.mu.Lock()
	blockLoc := robot.commands[1].Params["location"]
	rackLoc := robot.commands[2].Params["location"]
	robot.mu.Unlock()
	assert.Equal(t, map[string]any{"moduleId": "mod-cmd-1"}, blockLoc, "block should sit on the module")
	assert.Equal(t, map[string]any{"slotName": "5"}, rackLoc)

	src := deck.Location{Slot: "5", Well: "B2", Depth: 35}
	dst := deck.Location{Slot: "1", Well: "A1", Depth: 35}
	require.NoError(t, port.Transfer(ctx, c, "p20", 6*planner.Microliter, src, dst, port.TransferOptions{NewTip: true}))
	require.NoError(t, c.PickUpTip(ctx, "p20"))

	assert.Equal(t, []string{
		"loadModule", "loadLabware", "loadLabware", "loadLabware", "loadPipette",
		"pickUpTip", "aspirate", "dispense", "dropTip", "pickUpTip",
	}, robot.types())

	assert.Equal(t, "B1", robot.last("pickUpTip")["wellName"], "second tip should come from B1")
	assert.Equal(t, "lw-p20_tips", robot.last("pickUpTip")["labwareId"])
	assert.Equal(t, fixedTrash, robot.last("dropTip")["labwareId"])

	asp := robot.last("aspirate")
	assert.Equal(t, "pip-p20_single_gen2", asp["pipetteId"])
	assert.Equal(t, "lw-tube_rack", asp["labwareId"])
	assert.Equal(t, "B2", asp["wellName"])
	assert.InDelta(t, 6.0, asp["volume"].(float64), 1e-9)
	assert.InDelta(t, 7.56, asp["flowRate"].(float64), 1e-9)
	offset := asp["wellLocation"].(map[string]any)["offset"].(map[string]any)
	assert.InDelta(t, -35.0, offset["z"].(float64), 1e-9)

	require.NoError(t, c.Close(ctx))
	assert.True(t, robot.closed)
	assert.False(t, robot.badVersion)
}

func TestClient_TemperatureAndDelay(t *testing.T) {
	robot := newFakeRobot()
	c, _ := setupClient(t, robot)
	loadDeck(t, c)
	ctx := context.Background()

	require.NoError(t, c.SetTemperature(ctx, "temperature", 4))
	require.NoError(t, c.Delay(ctx, 30*time.Minute, "incubate at room temperature"))

	types := robot.types()
	assert.Equal(t, []string{
		"temperatureModule/setTargetTemperature",
		"temperatureModule/waitForTemperature",
		"waitForDuration",
	}, types[len(types)-3:])
	assert.InDelta(t, 4.0, robot.last("temperatureModule/setTargetTemperature")["celsius"].(float64), 1e-9)
	assert.NotContains(t, robot.last("temperatureModule/waitForTemperature"), "celsius")
	assert.InDelta(t, 1800.0, robot.last("waitForDuration")["seconds"].(float64), 1e-9)

	err := c.SetTemperature(ctx, "heater_shaker", 37)
	assert.ErrorIs(t, err, ErrNotLoaded)
}

func TestClient_Mix(t *testing.T) {
	robot := newFakeRobot()
	c, _ := setupClient(t, robot)
	loadDeck(t, c)
	ctx := context.Background()

	require.NoError(t, c.PickUpTip(ctx, "p20"))
	require.NoError(t, c.Mix(ctx, "p20", 3, 10*planner.Microliter, deck.Location{Slot: "1", Well: "A1"}))

	types := robot.types()
	assert.Equal(t, []string{"aspirate", "dispense", "aspirate", "dispense", "aspirate", "dispense"}, types[len(types)-6:])
}

func TestClient_CommandFailed(t *testing.T) {
	robot := newFakeRobot()
	robot.failOn = "aspirate"
	c, _ := setupClient(t, robot)
	loadDeck(t, c)

	err := c.Aspirate(context.Background(), "p20", planner.Microliter, deck.Location{Slot: "5", Well: "B1"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCommandFailed))

	var cerr *CommandError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "aspirate", cerr.CommandType)
	assert.Equal(t, "plunger not at bottom", cerr.Detail)
}

func TestClient_PollsUnfinishedCommands(t *testing.T) {
	robot := newFakeRobot()
	c, clk := setupClient(t, robot)
	loadDeck(t, c)
	robot.mu.Lock()
	robot.pollsNeeded = 3
	robot.mu.Unlock()

	require.NoError(t, c.Delay(context.Background(), time.Minute, "wait"))
	assert.Equal(t, []time.Duration{time.Second, time.Second, time.Second}, clk.Slept())
}

func TestClient_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"errors":[{"id":"RunAlreadyActive","title":"Run Already Active","detail":"Another run is current"}]}`))
	}))
	defer srv.Close()

	c := New(srv.URL, clock.NewFakeClock(time.Time{}), zaptest.NewLogger(t), WithHTTPClient(srv.Client()))
	err := c.Open(context.Background())

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusConflict, apiErr.Status)
	assert.Equal(t, "Another run is current", apiErr.Detail)
}

func TestClient_RequiresRunAndLoads(t *testing.T) {
	c := New("localhost", clock.NewFakeClock(time.Time{}), zaptest.NewLogger(t))
	ctx := context.Background()

	err := c.Delay(ctx, time.Second, "")
	assert.ErrorIs(t, err, ErrNoRun)

	err = c.PickUpTip(ctx, "p20")
	assert.ErrorIs(t, err, ErrNotLoaded)

	err = c.LoadPipette(ctx, port.Pipette{Instrument: planner.Instrument{Name: "p20"}, TipRack: "8"})
	assert.ErrorIs(t, err, ErrNotLoaded)

	assert.NoError(t, c.Close(ctx), "closing without a run is a no-op")
}

func TestNormalizeAddr(t *testing.T) {
	tests := map[string]string{
		"10.0.0.5":                "http://10.0.0.5:31950",
		"10.0.0.5:8080":           "http://10.0.0.5:8080",
		"http://ot2.local":        "http://ot2.local:31950",
		"http://ot2.local:31950/": "http://ot2.local:31950",
		" https://robot.lab:443 ": "https://robot.lab:443",
	}
	for in, want := range tests {
		assert.Equal(t, want, normalizeAddr(in), "normalizeAddr(%q)", in)
	}
}
