// Package ot2 implements port.Dispenser against the robot server's HTTP API.
//
// A Client owns one run on the robot. Open creates the run, every Dispenser
// call becomes one or more commands enqueued on it, and Close retires it.
// Commands are sent with waitUntilComplete; anything still queued or running
// when the request returns is polled until it settles.
package ot2

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/danieljhkim/ligate/internal/clock"
	"github.com/danieljhkim/ligate/internal/deck"
)

// DefaultPort is the robot server's HTTP port.
const DefaultPort = 31950

const (
	apiVersion            = "3"
	defaultPollInterval   = 500 * time.Millisecond
	defaultWaitTimeout    = 30 * time.Second
	defaultRequestTimeout = 60 * time.Second
)

var (
	// ErrNoRun indicates a command issued before Open.
	ErrNoRun = errors.New("no run open")

	// ErrNotLoaded indicates a reference to a module, labware or pipette that was not loaded.
	ErrNotLoaded = errors.New("not loaded")

	// ErrCommandFailed indicates the robot reported a command as failed.
	ErrCommandFailed = errors.New("command failed")
)

// CommandError carries the robot's description of a failed command.
type CommandError struct {
	CommandType string
	ErrorType   string
	Detail      string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s failed: %s: %s", e.CommandType, e.ErrorType, e.Detail)
}

func (e *CommandError) Unwrap() error {
	return ErrCommandFailed
}

// APIError is a non-2xx HTTP response.
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("robot returned %d: %s", e.Status, e.Detail)
}

type loadedLabware struct {
	id  string
	def deck.Definition
}

type loadedPipette struct {
	id       string
	flowRate float64
	tips     *deck.TipRack
	tipRack  string
}

// Client is a port.Dispenser for one robot run.
type Client struct {
	baseURL      string
	http         *http.Client
	clock        clock.Clock
	logger       *zap.Logger
	pollInterval time.Duration
	waitTimeout  time.Duration

	runID    string
	modules  map[string]string
	labware  map[string]loadedLabware
	pipettes map[string]*loadedPipette
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithPollInterval sets how often unfinished commands are polled.
func WithPollInterval(d time.Duration) Option {
	return func(c *Client) { c.pollInterval = d }
}

// WithWaitTimeout sets how long the robot holds each command request open.
func WithWaitTimeout(d time.Duration) Option {
	return func(c *Client) { c.waitTimeout = d }
}

// New creates a Client for the robot at addr ("host", "host:port" or a URL).
func New(addr string, clk clock.Clock, logger *zap.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL:      normalizeAddr(addr),
		http:         &http.Client{Timeout: defaultRequestTimeout},
		clock:        clk,
		logger:       logger,
		pollInterval: defaultPollInterval,
		waitTimeout:  defaultWaitTimeout,
		modules:      make(map[string]string),
		labware:      make(map[string]loadedLabware),
		pipettes:     make(map[string]*loadedPipette),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func normalizeAddr(addr string) string {
	addr = strings.TrimRight(strings.TrimSpace(addr), "/")
	if !strings.HasPrefix(addr, "http://") && !strings.HasPrefix(addr, "https://") {
		addr = "http://" + addr
	}
	host := addr[strings.Index(addr, "://")+3:]
	if !strings.Contains(host, ":") {
		addr = fmt.Sprintf("%s:%d", addr, DefaultPort)
	}
	return addr
}

// BaseURL returns the robot server URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// RunID returns the id of the open run, or "".
func (c *Client) RunID() string {
	return c.runID
}

// Open creates a new run on the robot.
func (c *Client) Open(ctx context.Context) error {
	var resp envelope[run]
	if err := c.do(ctx, http.MethodPost, "/runs", envelope[struct{}]{}, &resp); err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}
	c.runID = resp.Data.ID
	c.logger.Info("run created", zap.String("run_id", c.runID), zap.String("robot", c.baseURL))
	return nil
}

// Close marks the run as no longer current so the robot can be used again.
func (c *Client) Close(ctx context.Context) error {
	if c.runID == "" {
		return nil
	}
	body := envelope[runPatch]{Data: runPatch{Current: false}}
	if err := c.do(ctx, http.MethodPatch, "/runs/"+c.runID, body, nil); err != nil {
		return fmt.Errorf("failed to close run %s: %w", c.runID, err)
	}
	c.logger.Info("run closed", zap.String("run_id", c.runID))
	c.runID = ""
	return nil
}

// execute enqueues a command, waits for it to settle and decodes its result.
func (c *Client) execute(ctx context.Context, commandType string, params any, result any) error {
	if c.runID == "" {
		return fmt.Errorf("%s: %w", commandType, ErrNoRun)
	}

	started := c.clock.Now()
	path := fmt.Sprintf("/runs/%s/commands?waitUntilComplete=true&timeout=%d", c.runID, c.waitTimeout.Milliseconds())
	body := envelope[commandRequest]{Data: commandRequest{
		CommandType: commandType,
		Params:      params,
		Intent:      "setup",
	}}

	var resp envelope[command]
	if err := c.do(ctx, http.MethodPost, path, body, &resp); err != nil {
		return fmt.Errorf("%s: %w", commandType, err)
	}
	cmd := resp.Data

	for cmd.Status == statusQueued || cmd.Status == statusRunning {
		if err := c.clock.Sleep(ctx, c.pollInterval); err != nil {
			return fmt.Errorf("%s: %w", commandType, err)
		}
		resp = envelope[command]{}
		if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/runs/%s/commands/%s", c.runID, cmd.ID), nil, &resp); err != nil {
			return fmt.Errorf("%s: %w", commandType, err)
		}
		cmd = resp.Data
	}

	c.logger.Debug("command settled",
		zap.String("command", commandType),
		zap.String("command_id", cmd.ID),
		zap.String("status", cmd.Status),
		zap.Duration("elapsed", c.clock.Now().Sub(started)))

	switch cmd.Status {
	case statusSucceeded:
		if result != nil && len(cmd.Result) > 0 {
			if err := json.Unmarshal(cmd.Result, result); err != nil {
				return fmt.Errorf("%s: failed to decode result: %w", commandType, err)
			}
		}
		return nil
	case statusFailed:
		cerr := &CommandError{CommandType: commandType}
		if cmd.Error != nil {
			cerr.ErrorType = cmd.Error.ErrorType
			cerr.Detail = cmd.Error.Detail
		}
		return cerr
	default:
		return fmt.Errorf("%s: unexpected status %q", commandType, cmd.Status)
	}
}

// do sends one JSON request and decodes the JSON response into out.
func (c *Client) do(ctx context.Context, method, path string, in any, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Opentrons-Version", apiVersion)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 300 {
		return &APIError{Status: resp.StatusCode, Detail: errorDetail(data)}
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// errorDetail extracts the first error detail from an error body.
func errorDetail(data []byte) string {
	var body errorBody
	if err := json.Unmarshal(data, &body); err == nil && len(body.Errors) > 0 {
		e := body.Errors[0]
		if e.Detail != "" {
			return e.Detail
		}
		return e.Title
	}
	return strings.TrimSpace(string(data))
}
