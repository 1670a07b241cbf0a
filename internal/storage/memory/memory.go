// Package memory keeps groups and cameras in process memory. It mirrors the
// postgres storage, including the restrict rule on group deletion.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/zanzhit/ptz_console/internal/domain/errs"
	"github.com/zanzhit/ptz_console/internal/domain/models"
)

type Storage struct {
	mu         sync.RWMutex
	groups     map[int64]models.Group
	cameras    map[int64]models.Camera
	nextGroup  int64
	nextCamera int64
}

func New() *Storage {
	return &Storage{
		groups:  make(map[int64]models.Group),
		cameras: make(map[int64]models.Camera),
	}
}

func (s *Storage) SaveGroup(_ context.Context, group models.Group) (models.Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextGroup++
	group.ID = s.nextGroup
	s.groups[group.ID] = group

	return group, nil
}

func (s *Storage) Groups(_ context.Context) ([]models.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	groups := make([]models.Group, 0, len(s.groups))
	for _, g := range s.groups {
		groups = append(groups, g)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].ID < groups[j].ID })

	return groups, nil
}

func (s *Storage) Group(_ context.Context, id int64) (models.Group, error) {
	const op = "storage.memory.Group"

	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.groups[id]
	if !ok {
		return models.Group{}, fmt.Errorf("%s: %w", op, errs.ErrGroupNotFound)
	}

	return g, nil
}

func (s *Storage) DeleteGroup(_ context.Context, id int64) error {
	const op = "storage.memory.DeleteGroup"

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.groups[id]; !ok {
		return fmt.Errorf("%s: %w", op, errs.ErrGroupNotFound)
	}

	for _, cam := range s.cameras {
		if cam.GroupID == id {
			return fmt.Errorf("%s: %w", op, errs.ErrGroupNotEmpty)
		}
	}

	delete(s.groups, id)

	return nil
}

func (s *Storage) SaveCamera(_ context.Context, cam models.Camera) (models.Camera, error) {
	const op = "storage.memory.SaveCamera"

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.groups[cam.GroupID]; !ok {
		return cam, fmt.Errorf("%s: %w", op, errs.ErrGroupNotFound)
	}

	s.nextCamera++
	cam.ID = s.nextCamera
	s.cameras[cam.ID] = cam

	return cam, nil
}

func (s *Storage) UpdateCamera(_ context.Context, cam models.Camera) error {
	const op = "storage.memory.UpdateCamera"

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.cameras[cam.ID]; !ok {
		return fmt.Errorf("%s: %w", op, errs.ErrCameraNotFound)
	}

	if _, ok := s.groups[cam.GroupID]; !ok {
		return fmt.Errorf("%s: %w", op, errs.ErrGroupNotFound)
	}

	s.cameras[cam.ID] = cam

	return nil
}

func (s *Storage) DeleteCamera(_ context.Context, id int64) error {
	const op = "storage.memory.DeleteCamera"

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.cameras[id]; !ok {
		return fmt.Errorf("%s: %w", op, errs.ErrCameraNotFound)
	}

	delete(s.cameras, id)

	return nil
}

func (s *Storage) Camera(_ context.Context, id int64) (models.Camera, error) {
	const op = "storage.memory.Camera"

	s.mu.RLock()
	defer s.mu.RUnlock()

	cam, ok := s.cameras[id]
	if !ok {
		return models.Camera{}, fmt.Errorf("%s: %w", op, errs.ErrCameraNotFound)
	}

	return cam, nil
}

func (s *Storage) Cameras(_ context.Context) ([]models.Camera, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.filter(func(models.Camera) bool { return true }), nil
}

func (s *Storage) CamerasByGroup(_ context.Context, groupID int64) ([]models.Camera, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.filter(func(c models.Camera) bool { return c.GroupID == groupID }), nil
}

func (s *Storage) filter(keep func(models.Camera) bool) []models.Camera {
	cams := []models.Camera{}
	for _, c := range s.cameras {
		if keep(c) {
			cams = append(cams, c)
		}
	}
	sort.Slice(cams, func(i, j int) bool { return cams[i].ID < cams[j].ID })

	return cams
}
