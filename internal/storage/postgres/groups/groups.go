package groupstorage

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

// foreign_key_violation
const fkViolation = "23503"

type GroupStorage struct {
	db *sqlx.DB
}

func New(db *sqlx.DB) *GroupStorage {
	return &GroupStorage{
		db: db,
	}
}

func (s *GroupStorage) SaveGroup(ctx context.Context, group models.Group) (models.Group, error) {
	const op = "storage.postgres.groups.SaveGroup"

	query := fmt.Sprintf(`INSERT INTO %s (name) VALUES ($1) RETURNING id, name`, postgres.GroupsTable)

	if err := s.db.QueryRowxContext(ctx, query, group.Name).StructScan(&group); err != nil {
		return group, fmt.Errorf("%s: %w", op, err)
	}

	return group, nil
}

func (s *GroupStorage) Groups(ctx context.Context) ([]models.Group, error) {
	const op = "storage.postgres.groups.Groups"

	groups := []models.Group{}
	query := fmt.Sprintf(`SELECT id, name FROM %s ORDER BY id`, postgres.GroupsTable)

	if err := s.db.SelectContext(ctx, &groups, query); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return groups, nil
}

func (s *GroupStorage) Group(ctx context.Context, id int64) (models.Group, error) {
	const op = "storage.postgres.groups.Group"

	var group models.Group
	query := fmt.Sprintf(`SELECT id, name FROM %s WHERE id = $1`, postgres.GroupsTable)

	if err := s.db.GetContext(ctx, &group, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Group{}, fmt.Errorf("%s: %w", op, errs.ErrGroupNotFound)
		}
		return models.Group{}, fmt.Errorf("%s: %w", op, err)
	}

	return group, nil
}

func (s *GroupStorage) DeleteGroup(ctx context.Context, id int64) error {
	const op = "storage.postgres.groups.DeleteGroup"

	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, postgres.GroupsTable)

	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == fkViolation {
			return fmt.Errorf("%s: %w", op, errs.ErrGroupNotEmpty)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("%s: %w", op, errs.ErrGroupNotFound)
	}

	return nil
}
