package tasks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/compliancebinder/internal/common"
	"github.com/dmitrijs2005/compliancebinder/internal/dbx"
	"github.com/dmitrijs2005/compliancebinder/internal/server/models"
)

type SQLRepository struct {
	db dbx.DBTX
}

func NewSQLRepository(db dbx.DBTX) *SQLRepository {
	return &SQLRepository{db: db}
}

const selectColumns = `SELECT id, binder_id, title, description, status, due_date, created_at, updated_at FROM tasks`

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(s scanner) (*models.Task, error) {
	t := &models.Task{}
	var status string
	var due sql.NullTime

	if err := s.Scan(&t.ID, &t.BinderID, &t.Title, &t.Description, &status, &due, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}

	t.Status = models.TaskStatus(status)
	if due.Valid {
		d := models.DateOf(due.Time)
		t.DueDate = &d
	}
	return t, nil
}

func (r *SQLRepository) Create(ctx context.Context, t *models.Task) (*models.Task, error) {
	query :=
		`INSERT INTO tasks (binder_id, title, description, status, due_date, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id`

	var due sql.NullTime
	if t.DueDate != nil {
		due = sql.NullTime{Time: models.DateOf(*t.DueDate), Valid: true}
	}

	err := r.db.QueryRowContext(ctx, query,
		t.BinderID, t.Title, t.Description, string(t.Status), due, t.CreatedAt, t.UpdatedAt).Scan(&t.ID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return t, nil
}

func (r *SQLRepository) GetByID(ctx context.Context, id int64) (*models.Task, error) {
	t, err := scanTask(r.db.QueryRowContext(ctx, selectColumns+` WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return t, nil
}

func (r *SQLRepository) ListByBinder(ctx context.Context, binderID int64) ([]*models.Task, error) {
	rows, err := r.db.QueryContext(ctx, selectColumns+` WHERE binder_id = $1 ORDER BY created_at DESC, id DESC`, binderID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := []*models.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *SQLRepository) MarkDone(ctx context.Context, id int64, at time.Time) error {
	query :=
		`UPDATE tasks SET status = 'done', updated_at = $2
		 WHERE id = $1 AND status = 'open'`

	if _, err := r.db.ExecContext(ctx, query, id, at); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *SQLRepository) Counts(ctx context.Context, today time.Time) (Counts, error) {
	query :=
		`SELECT
		   COALESCE(SUM(CASE WHEN status = 'open' THEN 1 ELSE 0 END), 0),
		   COALESCE(SUM(CASE WHEN status = 'done' THEN 1 ELSE 0 END), 0),
		   COALESCE(SUM(CASE WHEN status = 'open' AND due_date < $1 THEN 1 ELSE 0 END), 0)
		 FROM tasks`

	var c Counts
	if err := r.db.QueryRowContext(ctx, query, models.DateOf(today)).Scan(&c.Open, &c.Done, &c.Overdue); err != nil {
		return Counts{}, fmt.Errorf("db error: %w", err)
	}
	return c, nil
}
