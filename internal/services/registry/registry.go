package registry

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"

	"github.com/zanzhit/ptz_console/internal/domain/models"
	"github.com/zanzhit/ptz_console/internal/lib/sl"
)

// Registry is the device inventory: groups and the cameras they own.
// Create and update requests are validated before touching storage; a failed
// validation is returned as validator.ValidationErrors.
type Registry struct {
	log      *slog.Logger
	groups   GroupStorage
	cameras  CameraStorage
	validate *validator.Validate
}

type GroupStorage interface {
	SaveGroup(ctx context.Context, group models.Group) (models.Group, error)
	Groups(ctx context.Context) ([]models.Group, error)
	Group(ctx context.Context, id int64) (models.Group, error)
	DeleteGroup(ctx context.Context, id int64) error
}

type CameraStorage interface {
	SaveCamera(ctx context.Context, cam models.Camera) (models.Camera, error)
	UpdateCamera(ctx context.Context, cam models.Camera) error
	DeleteCamera(ctx context.Context, id int64) error
	Camera(ctx context.Context, id int64) (models.Camera, error)
	Cameras(ctx context.Context) ([]models.Camera, error)
	CamerasByGroup(ctx context.Context, groupID int64) ([]models.Camera, error)
}

func New(log *slog.Logger, groups GroupStorage, cameras CameraStorage) *Registry {
	return &Registry{
		log:      log,
		groups:   groups,
		cameras:  cameras,
		validate: validator.New(),
	}
}

func (r *Registry) CreateGroup(ctx context.Context, name string) (models.Group, error) {
	const op = "service.registry.CreateGroup"

	log := r.log.With(
		slog.String("op", op),
		slog.String("name", name),
	)

	group := models.Group{Name: name}
	if err := r.validate.Struct(group); err != nil {
		return models.Group{}, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("create group")

	group, err := r.groups.SaveGroup(ctx, group)
	if err != nil {
		log.Error("failed to save group", sl.Err(err))

		return models.Group{}, fmt.Errorf("%s: %w", op, err)
	}

	return group, nil
}

func (r *Registry) Groups(ctx context.Context) ([]models.Group, error) {
	const op = "service.registry.Groups"

	groups, err := r.groups.Groups(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return groups, nil
}

func (r *Registry) Group(ctx context.Context, id int64) (models.Group, error) {
	const op = "service.registry.Group"

	group, err := r.groups.Group(ctx, id)
	if err != nil {
		return models.Group{}, fmt.Errorf("%s: %w", op, err)
	}

	return group, nil
}

// DeleteGroup refuses to remove a group that still owns cameras
// (errs.ErrGroupNotEmpty). Cameras have to be moved or deleted first.
func (r *Registry) DeleteGroup(ctx context.Context, id int64) error {
	const op = "service.registry.DeleteGroup"

	log := r.log.With(
		slog.String("op", op),
		slog.Int64("group_id", id),
	)

	log.Info("delete group")

	if err := r.groups.DeleteGroup(ctx, id); err != nil {
		log.Error("failed to delete group", sl.Err(err))

		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (r *Registry) CreateCamera(ctx context.Context, cam models.Camera) (models.Camera, error) {
	const op = "service.registry.CreateCamera"

	log := r.log.With(
		slog.String("op", op),
		slog.String("camera_ip", cam.IP),
	)

	if err := r.validate.Struct(cam); err != nil {
		return models.Camera{}, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("save camera", slog.Int64("group_id", cam.GroupID))

	cam.ID = 0
	cam, err := r.cameras.SaveCamera(ctx, cam)
	if err != nil {
		log.Error("failed to save camera", sl.Err(err))

		return models.Camera{}, fmt.Errorf("%s: %w", op, err)
	}

	return cam, nil
}

func (r *Registry) UpdateCamera(ctx context.Context, cam models.Camera) error {
	const op = "service.registry.UpdateCamera"

	log := r.log.With(
		slog.String("op", op),
		slog.Int64("camera_id", cam.ID),
	)

	if err := r.validate.Struct(cam); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	log.Info("update camera", slog.String("camera_ip", cam.IP), slog.Int64("group_id", cam.GroupID))

	if err := r.cameras.UpdateCamera(ctx, cam); err != nil {
		log.Error("failed to update camera", sl.Err(err))

		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (r *Registry) DeleteCamera(ctx context.Context, id int64) error {
	const op = "service.registry.DeleteCamera"

	log := r.log.With(
		slog.String("op", op),
		slog.Int64("camera_id", id),
	)

	log.Info("delete camera")

	if err := r.cameras.DeleteCamera(ctx, id); err != nil {
		log.Error("failed to delete camera", sl.Err(err))

		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (r *Registry) Camera(ctx context.Context, id int64) (models.Camera, error) {
	const op = "service.registry.Camera"

	cam, err := r.cameras.Camera(ctx, id)
	if err != nil {
		return models.Camera{}, fmt.Errorf("%s: %w", op, err)
	}

	return cam, nil
}

func (r *Registry) Cameras(ctx context.Context) ([]models.Camera, error) {
	const op = "service.registry.Cameras"

	cams, err := r.cameras.Cameras(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return cams, nil
}

// GroupCameras resolves the group first so an unknown id is reported as
// errs.ErrGroupNotFound instead of an empty list.
func (r *Registry) GroupCameras(ctx context.Context, groupID int64) ([]models.Camera, error) {
	const op = "service.registry.GroupCameras"

	if _, err := r.groups.Group(ctx, groupID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	cams, err := r.cameras.CamerasByGroup(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return cams, nil
}
