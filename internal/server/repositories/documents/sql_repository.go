package documents

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

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

const selectColumns = `SELECT id, binder_id, stored_name, original_name, content_type, size_bytes, note, uploaded_at FROM documents`

type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(s scanner) (*models.Document, error) {
	d := &models.Document{}
	err := s.Scan(&d.ID, &d.BinderID, &d.StoredName, &d.OriginalName, &d.ContentType, &d.Size, &d.Note, &d.UploadedAt)
	return d, err
}

func (r *SQLRepository) Create(ctx context.Context, d *models.Document) (*models.Document, error) {
	query :=
		`INSERT INTO documents (binder_id, stored_name, original_name, content_type, size_bytes, note, uploaded_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id`

	err := r.db.QueryRowContext(ctx, query,
		d.BinderID, d.StoredName, d.OriginalName, d.ContentType, d.Size, d.Note, d.UploadedAt).Scan(&d.ID)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrorConflict
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return d, nil
}

func (r *SQLRepository) GetByID(ctx context.Context, id int64) (*models.Document, error) {
	d, err := scanDocument(r.db.QueryRowContext(ctx, selectColumns+` WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return d, nil
}

func (r *SQLRepository) ListByBinder(ctx context.Context, binderID int64) ([]*models.Document, error) {
	rows, err := r.db.QueryContext(ctx, selectColumns+` WHERE binder_id = $1 ORDER BY uploaded_at DESC, id DESC`, binderID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := []*models.Document{}
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *SQLRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}
