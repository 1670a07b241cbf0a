package commandshandler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"github.com/zanzhit/ptz_console/internal/domain/errs"
	"github.com/zanzhit/ptz_console/internal/domain/models"
	"github.com/zanzhit/ptz_console/internal/http-server/handlers"
	"github.com/zanzhit/ptz_console/internal/lib/api/response"
	"github.com/zanzhit/ptz_console/internal/lib/sl"
	"github.com/zanzhit/ptz_console/internal/services/dispatcher"
	"github.com/zanzhit/ptz_console/internal/services/fanout"
)

type CommandHandler struct {
	log         *slog.Logger
	coordinator Coordinator
	cameras     Cameras
	sender      Sender
}

type Coordinator interface {
	DispatchToGroup(ctx context.Context, groupID int64, req models.CommandRequest, refresh bool) fanout.Round
	DispatchToCamera(ctx context.Context, cameraID int64, req models.CommandRequest, refresh bool) fanout.Round
	DisableGestures(ctx context.Context, cam models.Camera) fanout.GestureReset
}

type Cameras interface {
	Camera(ctx context.Context, id int64) (models.Camera, error)
}

type Sender interface {
	Send(ctx context.Context, req models.CommandRequest) (dispatcher.Response, error)
}

func New(log *slog.Logger, coordinator Coordinator, cameras Cameras, sender Sender) *CommandHandler {
	return &CommandHandler{
		log:         log,
		coordinator: coordinator,
		cameras:     cameras,
		sender:      sender,
	}
}

type Request struct {
	Path   string          `json:"path" validate:"required"`
	Mode   string          `json:"mode" validate:"omitempty,oneof=read write"`
	Method string          `json:"method" validate:"omitempty,oneof=get put post GET PUT POST"`
	Data   json.RawMessage `json:"data,omitempty"`
	// Refresh defaults to true when omitted.
	Refresh      *bool `json:"refresh,omitempty"`
	AwaitRefresh bool  `json:"await_refresh,omitempty"`
}

type RefreshResponse struct {
	Pending bool                         `json:"pending"`
	States  map[int64]models.ActiveState `json:"states,omitempty"`
	Error   string                       `json:"error,omitempty"`
}

type RoundResponse struct {
	RoundID  string                          `json:"roundId"`
	Outcomes map[int64]models.CommandOutcome `json:"outcomes"`
	Refresh  *RefreshResponse                `json:"refresh,omitempty"`
}

// RawRequest is the ip-addressed passthrough used by older dashboards.
type RawRequest struct {
	IP      string          `json:"ip" validate:"required"`
	Command string          `json:"command" validate:"required"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (h *CommandHandler) DispatchGroup(w http.ResponseWriter, r *http.Request) {
	h.dispatch(w, r, "handlers.commands.DispatchGroup", h.coordinator.DispatchToGroup)
}

func (h *CommandHandler) DispatchCamera(w http.ResponseWriter, r *http.Request) {
	h.dispatch(w, r, "handlers.commands.DispatchCamera", h.coordinator.DispatchToCamera)
}

type dispatchFunc func(ctx context.Context, id int64, req models.CommandRequest, refresh bool) fanout.Round

func (h *CommandHandler) dispatch(w http.ResponseWriter, r *http.Request, op string, send dispatchFunc) {
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id, ok := handlers.IDParam(w, r, "id")
	if !ok {
		return
	}

	var req Request
	if !handlers.Decode(w, r, log, &req) {
		return
	}

	cmd, err := req.command()
	if err != nil {
		log.Error("invalid command", sl.Err(err))

		handlers.Error(w, r, http.StatusBadRequest, response.Error(err.Error(), ""))

		return
	}

	refresh := req.Refresh == nil || *req.Refresh

	round := send(r.Context(), id, cmd, refresh)

	resp := RoundResponse{
		RoundID:  round.ID,
		Outcomes: round.Outcomes,
	}

	if round.Refresh != nil {
		resp.Refresh = &RefreshResponse{Pending: true}

		if req.AwaitRefresh {
			states, err := round.Refresh.Wait(r.Context())
			resp.Refresh = &RefreshResponse{States: states}
			if err != nil {
				resp.Refresh.Error = err.Error()
			}
		}
	}

	render.JSON(w, r, resp)
}

func (r Request) command() (models.CommandRequest, error) {
	cmd := models.CommandRequest{
		Path:   r.Path,
		Mode:   models.Mode(r.Mode),
		Method: r.Method,
	}

	if cmd.Mode == "" {
		method := r.Method
		if method == "" {
			method = http.MethodPut
		}

		mode, err := models.ModeFromMethod(method)
		if err != nil {
			return models.CommandRequest{}, err
		}
		cmd.Mode = mode
	}

	if len(r.Data) > 0 && string(r.Data) != "null" {
		cmd.Payload = r.Data
	}

	if _, err := cmd.HTTPMethod(); err != nil {
		return models.CommandRequest{}, err
	}

	return cmd, nil
}

// Raw forwards one command to an address and mirrors the camera's status and
// body back to the caller.
func (h *CommandHandler) Raw(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.commands.Raw"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req RawRequest
	if !handlers.Decode(w, r, log, &req) {
		return
	}

	cmd := models.CommandRequest{
		TargetIP: req.IP,
		Path:     req.Command,
		Mode:     models.ModeWrite,
		Method:   r.Method,
	}
	if len(req.Data) > 0 && string(req.Data) != "null" {
		cmd.Payload = req.Data
	}

	resp, err := h.sender.Send(r.Context(), cmd)
	if err != nil {
		log.Error("camera command failed", slog.String("camera_ip", req.IP), sl.Err(err))

		handlers.Error(w, r, http.StatusInternalServerError, response.Error(dispatcher.TransportMessage(err), middleware.GetReqID(r.Context())))

		return
	}

	log.Info("camera command sent", slog.String("camera_ip", req.IP), slog.Int("status", resp.StatusCode))

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.StatusCode)
	_, _ = w.Write(resp.Body)
}

func (h *CommandHandler) DisableGestures(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.commands.DisableGestures"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id, ok := handlers.IDParam(w, r, "id")
	if !ok {
		return
	}

	cam, err := h.cameras.Camera(r.Context(), id)
	if err != nil {
		if errors.Is(err, errs.ErrCameraNotFound) {
			handlers.Error(w, r, http.StatusNotFound, response.Error("camera not found", ""))

			return
		}

		log.Error("failed to resolve camera", sl.Err(err))

		handlers.Error(w, r, http.StatusInternalServerError, response.Error("failed to resolve camera", middleware.GetReqID(r.Context())))

		return
	}

	render.JSON(w, r, h.coordinator.DisableGestures(r.Context(), cam))
}
