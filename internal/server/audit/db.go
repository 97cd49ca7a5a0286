package audit

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/compliancebinder/internal/dbx"
	"github.com/dmitrijs2005/compliancebinder/internal/server/models"
	"github.com/dmitrijs2005/compliancebinder/internal/server/repositories/auditlog"
)

// DBSink appends events to the audit_events table. It runs after the
// mutation committed, so it uses its own statement.
type DBSink struct {
	db   *sql.DB
	repo func(dbx.DBTX) auditlog.Repository
}

func NewDBSink(db *sql.DB, repo func(dbx.DBTX) auditlog.Repository) *DBSink {
	return &DBSink{db: db, repo: repo}
}

func (s *DBSink) Emit(ctx context.Context, e *models.AuditEvent) error {
	return s.repo(s.db).Append(ctx, e)
}
