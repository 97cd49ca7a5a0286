package auditlog

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/compliancebinder/internal/dbx"
	"github.com/dmitrijs2005/compliancebinder/internal/server/models"
)

type SQLRepository struct {
	db dbx.DBTX
}

func NewSQLRepository(db dbx.DBTX) *SQLRepository {
	return &SQLRepository{db: db}
}

func (r *SQLRepository) Append(ctx context.Context, e *models.AuditEvent) error {
	query :=
		`INSERT INTO audit_events (id, occurred_at, action, resource_type, resource_id, actor_id, actor_email, outcome, detail, request_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.db.ExecContext(ctx, query,
		e.ID, e.Time, e.Action, e.ResourceType, nullID(e.ResourceID), nullID(e.ActorID),
		e.ActorEmail, string(e.Outcome), e.Detail, e.RequestID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// nullID stores unset ids as NULL.
func nullID(id int64) sql.NullInt64 {
	return sql.NullInt64{Int64: id, Valid: id != 0}
}
