// Package integration runs whole ligations through the engine and the OT-2
// client against an in-process robot server.
package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/danieljhkim/ligate/internal/clock"
	"github.com/danieljhkim/ligate/internal/config"
	"github.com/danieljhkim/ligate/internal/engine"
	"github.com/danieljhkim/ligate/internal/port/ot2"
)

// robotCommand is one command as the robot server received it.
type robotCommand struct {
	Type   string
	Params map[string]any
}

// robotServer emulates the run and command endpoints of the robot server.
type robotServer struct {
	mu       sync.Mutex
	runs     int
	current  bool
	commands []robotCommand

	// failAt makes the nth command (1-based) fail; 0 disables
	failAt int
}

func (s *robotServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	runPath := fmt.Sprintf("/runs/run-%d", s.runs)
	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/runs":
		if s.current {
			w.WriteHeader(http.StatusConflict)
			_, _ = w.Write([]byte(`{"errors":[{"title":"RunAlreadyActive","detail":"a run is already current"}]}`))
			return
		}
		s.runs++
		s.current = true
		respond(w, map[string]any{"id": fmt.Sprintf("run-%d", s.runs), "status": "idle"})

	case r.Method == http.MethodPatch && r.URL.Path == runPath:
		s.current = false
		respond(w, map[string]any{"id": fmt.Sprintf("run-%d", s.runs)})

	case r.Method == http.MethodPost && r.URL.Path == runPath+"/commands":
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
		c := robotCommand{Type: body.Data.CommandType, Params: body.Data.Params}
		s.commands = append(s.commands, c)
		n := len(s.commands)

		cmd := map[string]any{
			"id":          fmt.Sprintf("cmd-%d", n),
			"commandType": c.Type,
			"status":      "succeeded",
		}
		switch c.Type {
		case "loadModule":
			cmd["result"] = map[string]any{"moduleId": fmt.Sprintf("module-%d", n)}
		case "loadLabware":
			cmd["result"] = map[string]any{"labwareId": fmt.Sprintf("labware-%v", c.Params["displayName"])}
		case "loadPipette":
			cmd["result"] = map[string]any{"pipetteId": fmt.Sprintf("pipette-%v", c.Params["mount"])}
		}
		if n == s.failAt {
			cmd["status"] = "failed"
			cmd["error"] = map[string]any{"errorType": "TipNotAttachedError", "detail": "no tip detected"}
		}
		respond(w, cmd)

	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func respond(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"data": data})
}

// sent returns a copy of the received commands.
func (s *robotServer) sent() []robotCommand {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]robotCommand(nil), s.commands...)
}

// types returns the received command types in order.
func (s *robotServer) types() []string {
	var out []string
	for _, c := range s.sent() {
		out = append(out, c.Type)
	}
	return out
}

// isCurrent reports whether a run is still open on the robot.
func (s *robotServer) isCurrent() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// liquidCommands returns aspirate or dispense commands at a labware well.
func (s *robotServer) liquidCommands(commandType, labware, well string) []robotCommand {
	var out []robotCommand
	for _, c := range s.sent() {
		if c.Type == commandType && c.Params["labwareId"] == "labware-"+labware && c.Params["wellName"] == well {
			out = append(out, c)
		}
	}
	return out
}

// harness wires a robot server, an OT-2 client and an engine together.
type harness struct {
	robot  *robotServer
	client *ot2.Client
	engine *engine.Engine
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	robot := &robotServer{}
	srv := httptest.NewServer(robot)
	t.Cleanup(srv.Close)

	logger := zaptest.NewLogger(t)
	clk := clock.NewFakeClock(time.Date(2024, 6, 3, 14, 0, 0, 0, time.UTC))
	client := ot2.New(strings.TrimPrefix(srv.URL, "http://"), clk, logger, ot2.WithHTTPClient(srv.Client()))

	return &harness{
		robot:  robot,
		client: client,
		engine: engine.New(client, clk, logger),
	}
}

// run opens a run, executes req and closes the run.
func (h *harness) run(t *testing.T, req *engine.RunRequest) (*engine.RunResult, error) {
	t.Helper()
	ctx := context.Background()
	if err := h.client.Open(ctx); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer func() {
		if err := h.client.Close(ctx); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	}()
	return h.engine.Run(ctx, req)
}

// runRequest builds a run request from a protocol and stock concentrations.
func runRequest(p *config.Protocol, vectorConc, insertConc float64) *engine.RunRequest {
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
