package statushandler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"github.com/zanzhit/ptz_console/internal/domain/errs"
	"github.com/zanzhit/ptz_console/internal/domain/models"
	"github.com/zanzhit/ptz_console/internal/http-server/handlers"
	"github.com/zanzhit/ptz_console/internal/lib/api/response"
	"github.com/zanzhit/ptz_console/internal/lib/sl"
)

type StatusHandler struct {
	log      *slog.Logger
	cameras  Cameras
	liveness Liveness
	active   Active
	info     Info
}

type Cameras interface {
	Camera(ctx context.Context, id int64) (models.Camera, error)
	Cameras(ctx context.Context) ([]models.Camera, error)
	GroupCameras(ctx context.Context, groupID int64) ([]models.Camera, error)
}

type Liveness interface {
	Ping(ctx context.Context, ip string) bool
	Poll(ctx context.Context, cams []models.Camera) map[int64]bool
}

type Active interface {
	Probe(ctx context.Context, ip string) models.ActiveState
	PollTrackingActive(ctx context.Context, cams []models.Camera) map[int64]models.ActiveState
}

type Info interface {
	PollTrackingState(ctx context.Context, cams []models.Camera) models.TrackingPoll
}

func New(log *slog.Logger, cameras Cameras, liveness Liveness, active Active, info Info) *StatusHandler {
	return &StatusHandler{
		log:      log,
		cameras:  cameras,
		liveness: liveness,
		active:   active,
		info:     info,
	}
}

// Alive polls every registered camera.
func (h *StatusHandler) Alive(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.status.Alive"

	cams, ok := h.allCameras(w, r, op)
	if !ok {
		return
	}

	render.JSON(w, r, h.liveness.Poll(r.Context(), cams))
}

// Ping answers 200 when the address is reachable and 503 otherwise.
func (h *StatusHandler) Ping(w http.ResponseWriter, r *http.Request) {
	if h.liveness.Ping(r.Context(), chi.URLParam(r, "ip")) {
		w.WriteHeader(http.StatusOK)
		return
	}

	w.WriteHeader(http.StatusServiceUnavailable)
}

// CameraStatus reads the UI tracking state of a single address.
func (h *StatusHandler) CameraStatus(w http.ResponseWriter, r *http.Request) {
	state := h.active.Probe(r.Context(), chi.URLParam(r, "ip"))
	if !state.Known {
		handlers.Error(w, r, http.StatusInternalServerError, response.Error("failed to fetch camera UI state: "+state.Error, middleware.GetReqID(r.Context())))

		return
	}

	render.JSON(w, r, map[string]bool{"status": state.Active})
}

func (h *StatusHandler) GroupTracking(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.status.GroupTracking"

	cams, ok := h.groupCameras(w, r, op)
	if !ok {
		return
	}

	render.JSON(w, r, h.active.PollTrackingActive(r.Context(), cams))
}

func (h *StatusHandler) GroupInfo(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.status.GroupInfo"

	cams, ok := h.groupCameras(w, r, op)
	if !ok {
		return
	}

	render.JSON(w, r, h.info.PollTrackingState(r.Context(), cams))
}

func (h *StatusHandler) CameraInfo(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.status.CameraInfo"

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
			render.JSON(w, r, emptyPoll())

			return
		}

		log.Error("failed to resolve camera", sl.Err(err))

		handlers.Error(w, r, http.StatusInternalServerError, response.Error("failed to resolve camera", middleware.GetReqID(r.Context())))

		return
	}

	render.JSON(w, r, h.info.PollTrackingState(r.Context(), []models.Camera{cam}))
}

func (h *StatusHandler) allCameras(w http.ResponseWriter, r *http.Request, op string) ([]models.Camera, bool) {
	cams, err := h.cameras.Cameras(r.Context())
	if err != nil {
		h.log.Error("failed to list cameras", slog.String("op", op), sl.Err(err))

		handlers.Error(w, r, http.StatusInternalServerError, response.Error("failed to list cameras", middleware.GetReqID(r.Context())))

		return nil, false
	}

	return cams, true
}

// groupCameras resolves the group in the URL. An unknown group is not an
// error: it resolves to no cameras and therefore an empty result.
func (h *StatusHandler) groupCameras(w http.ResponseWriter, r *http.Request, op string) ([]models.Camera, bool) {
	id, ok := handlers.IDParam(w, r, "id")
	if !ok {
		return nil, false
	}

	cams, err := h.cameras.GroupCameras(r.Context(), id)
	if err != nil {
		if errors.Is(err, errs.ErrGroupNotFound) {
			return nil, true
		}

		h.log.Error("failed to resolve group cameras", slog.String("op", op), sl.Err(err))

		handlers.Error(w, r, http.StatusInternalServerError, response.Error("failed to resolve group", middleware.GetReqID(r.Context())))

		return nil, false
	}

	return cams, true
}

func emptyPoll() models.TrackingPoll {
	return models.TrackingPoll{
		States: map[int64]models.TrackingState{},
		Errors: map[int64]string{},
	}
}
