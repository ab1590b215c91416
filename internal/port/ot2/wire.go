package ot2

import "encoding/json"

// Command statuses reported by the robot server.
const (
	statusQueued    = "queued"
	statusRunning   = "running"
	statusSucceeded = "succeeded"
	statusFailed    = "failed"
)

// fixedTrash is the labware id the robot assigns to the built-in trash.
const fixedTrash = "fixedTrash"

type envelope[T any] struct {
	Data T `json:"data"`
}

type run struct {
	ID     string `json:"id"`
	Status string `json:"status,omitempty"`
}

type runPatch struct {
	Current bool `json:"current"`
}

type commandRequest struct {
	CommandType string `json:"commandType"`
	Params      any    `json:"params"`
	Intent      string `json:"intent,omitempty"`
}

type command struct {
	ID          string          `json:"id"`
	CommandType string          `json:"commandType"`
	Status      string          `json:"status"`
	Result      json.RawMessage `json:"result,omitempty"`
	Error       *commandFailure `json:"error,omitempty"`
}

type commandFailure struct {
	ErrorType string `json:"errorType"`
	Detail    string `json:"detail"`
}

type errorBody struct {
	Errors []struct {
		Title  string `json:"title"`
		Detail string `json:"detail"`
	} `json:"errors"`
}

type slotLocation struct {
	SlotName string `json:"slotName,omitempty"`
	ModuleID string `json:"moduleId,omitempty"`
}

type loadModuleParams struct {
	Model    string       `json:"model"`
	Location slotLocation `json:"location"`
}

type loadModuleResult struct {
	ModuleID string `json:"moduleId"`
}

type loadLabwareParams struct {
	LoadName    string       `json:"loadName"`
	Namespace   string       `json:"namespace"`
	Version     int          `json:"version"`
	Location    slotLocation `json:"location"`
	DisplayName string       `json:"displayName,omitempty"`
}

type loadLabwareResult struct {
	LabwareID string `json:"labwareId"`
}

type loadPipetteParams struct {
	PipetteName string `json:"pipetteName"`
	Mount       string `json:"mount"`
}

type loadPipetteResult struct {
	PipetteID string `json:"pipetteId"`
}

type tipParams struct {
	PipetteID string `json:"pipetteId"`
	LabwareID string `json:"labwareId"`
	WellName  string `json:"wellName"`
}

type offset struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

type wellLocation struct {
	Origin string `json:"origin"`
	Offset offset `json:"offset"`
}

type liquidParams struct {
	PipetteID    string       `json:"pipetteId"`
	LabwareID    string       `json:"labwareId"`
	WellName     string       `json:"wellName"`
	WellLocation wellLocation `json:"wellLocation"`
	Volume       float64      `json:"volume"`
	FlowRate     float64      `json:"flowRate"`
}

type temperatureParams struct {
	ModuleID string   `json:"moduleId"`
	Celsius  *float64 `json:"celsius,omitempty"`
}

type waitParams struct {
	Seconds float64 `json:"seconds"`
	Message string  `json:"message,omitempty"`
}
