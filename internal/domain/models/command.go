package models

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/zanzhit/ptz_console/internal/domain/errs"
)

type Mode string

const (
	ModeRead  Mode = "read"
	ModeWrite Mode = "write"
)

// CommandRequest is built per dispatch and never persisted.
type CommandRequest struct {
	TargetIP string `json:"ip,omitempty"`
	Path     string `json:"path" validate:"required"`
	Payload  any    `json:"data,omitempty"`
	Mode     Mode   `json:"mode"`
	Method   string `json:"method,omitempty"`
}

// HTTPMethod resolves the verb used against the device. Read is always GET,
// write defaults to PUT and may be POST.
func (r CommandRequest) HTTPMethod() (string, error) {
	method := strings.ToUpper(r.Method)

	switch r.Mode {
	case ModeRead:
		if method != "" && method != http.MethodGet {
			return "", errs.ErrInvalidMethod
		}
		return http.MethodGet, nil
	case ModeWrite:
		switch method {
		case "":
			return http.MethodPut, nil
		case http.MethodPut, http.MethodPost:
			return method, nil
		}
		return "", errs.ErrInvalidMethod
	default:
		return "", errs.ErrInvalidMode
	}
}

// ModeFromMethod maps a bare verb ("get", "put", "post") to a mode.
func ModeFromMethod(method string) (Mode, error) {
	switch strings.ToUpper(method) {
	case http.MethodGet:
		return ModeRead, nil
	case http.MethodPut, http.MethodPost:
		return ModeWrite, nil
	}
	return "", errs.ErrInvalidMethod
}

func ReadCommand(path string) CommandRequest {
	return CommandRequest{Path: path, Mode: ModeRead}
}

func WriteCommand(path string, payload any) CommandRequest {
	return CommandRequest{Path: path, Payload: payload, Mode: ModeWrite}
}

// Device SDK routes used by the console.
const (
	PathWorkMode         = "ai/workmode"
	PathPTZPreset        = "ptz/preset"
	PathGestureLock      = "ai/gesturecontrol/lockedtarget"
	PathGestureRecord    = "ai/gesturecontrol/recording"
	PathGestureZoom      = "ai/gesturecontrol/zoom"
	PathRecordResolution = "record/resolution"
)

const (
	WorkModeNone          = "none"
	WorkModeHumanTracking = "humanTrackingSingleMode"
)

func StartTracking() CommandRequest {
	return WriteCommand(PathWorkMode, map[string]string{"mode": WorkModeHumanTracking})
}

func StopTracking() CommandRequest {
	return WriteCommand(PathWorkMode, map[string]string{"mode": WorkModeNone})
}

func ResetPosition() CommandRequest {
	return WriteCommand(PathPTZPreset, map[string]any{"operation": "call", "id": 0})
}

type OutcomeKind string

const (
	OutcomeSuccess OutcomeKind = "success"
	OutcomeFailure OutcomeKind = "failure"
)

type CommandOutcome struct {
	CameraID   int64           `json:"cameraId"`
	Kind       OutcomeKind     `json:"kind"`
	StatusCode int             `json:"statusCode,omitempty"`
	Message    string          `json:"message"`
	Body       json.RawMessage `json:"body,omitempty"`
}

func (o CommandOutcome) OK() bool {
	return o.Kind == OutcomeSuccess
}
