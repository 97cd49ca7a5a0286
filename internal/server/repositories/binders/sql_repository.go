package binders

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

func (r *SQLRepository) Create(ctx context.Context, b *models.Binder) (*models.Binder, error) {
	query :=
		`INSERT INTO binders (owner_id, name, industry, created_at)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id`

	if err := r.db.QueryRowContext(ctx, query, b.OwnerID, b.Name, b.Industry, b.CreatedAt).Scan(&b.ID); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return b, nil
}

func (r *SQLRepository) GetByID(ctx context.Context, id int64) (*models.Binder, error) {
	query :=
		`SELECT id, owner_id, name, industry, created_at FROM binders
		 WHERE id = $1`

	b := &models.Binder{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&b.ID, &b.OwnerID, &b.Name, &b.Industry, &b.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return b, nil
}

func (r *SQLRepository) ListByOwner(ctx context.Context, ownerID int64) ([]*models.Binder, error) {
	query :=
		`SELECT id, owner_id, name, industry, created_at FROM binders
		 WHERE owner_id = $1
		 ORDER BY created_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := []*models.Binder{}
	for rows.Next() {
		b := &models.Binder{}
		if err := rows.Scan(&b.ID, &b.OwnerID, &b.Name, &b.Industry, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

func (r *SQLRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM binders`).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}
