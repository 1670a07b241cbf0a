package camerastorage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/zanzhit/ptz_console/internal/domain/errs"
	"github.com/zanzhit/ptz_console/internal/domain/models"
	"github.com/zanzhit/ptz_console/internal/storage/postgres"
)

const fkViolation = "23503"

type CameraStorage struct {
	db *sqlx.DB
}

func New(db *sqlx.DB) *CameraStorage {
	return &CameraStorage{
		db: db,
	}
}

func (s *CameraStorage) SaveCamera(ctx context.Context, cam models.Camera) (models.Camera, error) {
	const op = "storage.postgres.cameras.SaveCamera"

	query := fmt.Sprintf(`INSERT INTO %s (name, ip, group_id) VALUES ($1, $2, $3) RETURNING id, name, ip, group_id`, postgres.CamerasTable)

	err := s.db.QueryRowxContext(ctx, query, cam.Name, cam.IP, cam.GroupID).StructScan(&cam)
	if err != nil {
		return cam, fmt.Errorf("%s: %w", op, translate(err))
	}

	return cam, nil
}

func (s *CameraStorage) UpdateCamera(ctx context.Context, cam models.Camera) error {
	const op = "storage.postgres.cameras.UpdateCamera"

	query := fmt.Sprintf(`UPDATE %s SET name = $1, ip = $2, group_id = $3 WHERE id = $4`, postgres.CamerasTable)

	result, err := s.db.ExecContext(ctx, query, cam.Name, cam.IP, cam.GroupID, cam.ID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, translate(err))
	}

	return affected(op, result)
}

func (s *CameraStorage) DeleteCamera(ctx context.Context, id int64) error {
	const op = "storage.postgres.cameras.DeleteCamera"

	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, postgres.CamerasTable)

	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return affected(op, result)
}

func (s *CameraStorage) Camera(ctx context.Context, id int64) (models.Camera, error) {
	const op = "storage.postgres.cameras.Camera"

	var cam models.Camera
	query := fmt.Sprintf(`SELECT id, name, ip, group_id FROM %s WHERE id = $1`, postgres.CamerasTable)

	if err := s.db.GetContext(ctx, &cam, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Camera{}, fmt.Errorf("%s: %w", op, errs.ErrCameraNotFound)
		}
		return models.Camera{}, fmt.Errorf("%s: %w", op, err)
	}

	return cam, nil
}

func (s *CameraStorage) Cameras(ctx context.Context) ([]models.Camera, error) {
	const op = "storage.postgres.cameras.Cameras"

	cams := []models.Camera{}
	query := fmt.Sprintf(`SELECT id, name, ip, group_id FROM %s ORDER BY id`, postgres.CamerasTable)

	if err := s.db.SelectContext(ctx, &cams, query); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return cams, nil
}

func (s *CameraStorage) CamerasByGroup(ctx context.Context, groupID int64) ([]models.Camera, error) {
	const op = "storage.postgres.cameras.CamerasByGroup"

	cams := []models.Camera{}
	query := fmt.Sprintf(`SELECT id, name, ip, group_id FROM %s WHERE group_id = $1 ORDER BY id`, postgres.CamerasTable)

	if err := s.db.SelectContext(ctx, &cams, query, groupID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return cams, nil
}

func translate(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == fkViolation {
		return errs.ErrGroupNotFound
	}

	return err
}

func affected(op string, result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("%s: %w", op, errs.ErrCameraNotFound)
	}

	return nil
}
