package groupshandler

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

type GroupHandler struct {
	log    *slog.Logger
	groups Groups
}

type Groups interface {
	CreateGroup(ctx context.Context, name string) (models.Group, error)
	Groups(ctx context.Context) ([]models.Group, error)
	DeleteGroup(ctx context.Context, id int64) error
}

func New(log *slog.Logger, groups Groups) *GroupHandler {
	return &GroupHandler{
		log:    log,
		groups: groups,
	}
}

type Request struct {
	Name string `json:"name"`
}

func (h *GroupHandler) List(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.groups.List"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	groups, err := h.groups.Groups(r.Context())
	if err != nil {
		log.Error("failed to list groups", sl.Err(err))

		handlers.Error(w, r, http.StatusInternalServerError, response.Error("failed to list groups", middleware.GetReqID(r.Context())))

		return
	}

	render.JSON(w, r, groups)
}

func (h *GroupHandler) Create(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.groups.Create"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	if !handlers.Decode(w, r, log, &req) {
		return
	}

	group, err := h.groups.CreateGroup(r.Context(), req.Name)
	if err != nil {
		if handlers.ValidationFailed(w, r, err) {
			log.Error("invalid group", sl.Err(err))

			return
		}

		log.Error("failed to create group", sl.Err(err))

		handlers.Error(w, r, http.StatusInternalServerError, response.Error("failed to create group", middleware.GetReqID(r.Context())))

		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, group)
}

func (h *GroupHandler) Delete(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.groups.Delete"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id, ok := handlers.IDParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.groups.DeleteGroup(r.Context(), id); err != nil {
		switch {
		case errors.Is(err, errs.ErrGroupNotFound):
			handlers.Error(w, r, http.StatusNotFound, response.Error("group not found", ""))
		case errors.Is(err, errs.ErrGroupNotEmpty):
			handlers.Error(w, r, http.StatusConflict, response.Error("group still has cameras", ""))
		default:
			log.Error("failed to delete group", sl.Err(err))

			handlers.Error(w, r, http.StatusInternalServerError, response.Error("failed to delete group", middleware.GetReqID(r.Context())))
		}

		return
	}

	w.WriteHeader(http.StatusNoContent)
}
