package camerashandler

import (
	"context"
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
)

type CameraHandler struct {
	log    *slog.Logger
	camera Camera
}

type Camera interface {
	CreateCamera(ctx context.Context, cam models.Camera) (models.Camera, error)
	UpdateCamera(ctx context.Context, cam models.Camera) error
	DeleteCamera(ctx context.Context, id int64) error
	Cameras(ctx context.Context) ([]models.Camera, error)
}

func New(
	log *slog.Logger,
	camera Camera,
) *CameraHandler {
	return &CameraHandler{
		log:    log,
		camera: camera,
	}
}

type Request struct {
	Name    string `json:"name"`
	IP      string `json:"ip"`
	GroupID int64  `json:"groupId"`
}

func (h *CameraHandler) List(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.cameras.List"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	cams, err := h.camera.Cameras(r.Context())
	if err != nil {
		log.Error("failed to list cameras", sl.Err(err))

		handlers.Error(w, r, http.StatusInternalServerError, response.Error("failed to list cameras", middleware.GetReqID(r.Context())))

		return
	}

	render.JSON(w, r, cams)
}

func (h *CameraHandler) SaveCamera(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.cameras.SaveCamera"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	if !handlers.Decode(w, r, log, &req) {
		return
	}

	cam, err := h.camera.CreateCamera(r.Context(), models.Camera{Name: req.Name, IP: req.IP, GroupID: req.GroupID})
	if err != nil {
		if h.clientError(w, r, err) {
			log.Error("camera rejected", sl.Err(err))

			return
		}

		log.Error("failed to save camera", sl.Err(err))

		handlers.Error(w, r, http.StatusInternalServerError, response.Error("failed to save new camera", middleware.GetReqID(r.Context())))

		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, cam)
}

func (h *CameraHandler) UpdateCamera(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.cameras.UpdateCamera"

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

	cam := models.Camera{ID: id, Name: req.Name, IP: req.IP, GroupID: req.GroupID}

	if err := h.camera.UpdateCamera(r.Context(), cam); err != nil {
		if h.clientError(w, r, err) {
			log.Error("camera update rejected", sl.Err(err))

			return
		}

		log.Error("failed to update camera", sl.Err(err))

		handlers.Error(w, r, http.StatusInternalServerError, response.Error("failed to update camera", middleware.GetReqID(r.Context())))

		return
	}

	render.JSON(w, r, cam)
}

func (h *CameraHandler) DeleteCamera(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.cameras.DeleteCamera"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id, ok := handlers.IDParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.camera.DeleteCamera(r.Context(), id); err != nil {
		if errors.Is(err, errs.ErrCameraNotFound) {
			handlers.Error(w, r, http.StatusNotFound, response.Error("camera not found", ""))

			return
		}

		log.Error("failed to delete camera", sl.Err(err))

		handlers.Error(w, r, http.StatusInternalServerError, response.Error("failed to delete camera", middleware.GetReqID(r.Context())))

		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *CameraHandler) clientError(w http.ResponseWriter, r *http.Request, err error) bool {
	switch {
	case handlers.ValidationFailed(w, r, err):
	case errors.Is(err, errs.ErrCameraNotFound):
		handlers.Error(w, r, http.StatusNotFound, response.Error("camera not found", ""))
	case errors.Is(err, errs.ErrGroupNotFound):
		handlers.Error(w, r, http.StatusBadRequest, response.Error("group does not exist", ""))
	default:
		return false
	}

	return true
}
