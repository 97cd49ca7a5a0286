package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/compliancebinder/internal/dbx"
	"github.com/dmitrijs2005/compliancebinder/internal/server/repositories/auditlog"
	"github.com/dmitrijs2005/compliancebinder/internal/server/repositories/binders"
	"github.com/dmitrijs2005/compliancebinder/internal/server/repositories/documents"
	"github.com/dmitrijs2005/compliancebinder/internal/server/repositories/tasks"
	"github.com/dmitrijs2005/compliancebinder/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Binders(db dbx.DBTX) binders.Repository
	Tasks(db dbx.DBTX) tasks.Repository
	Documents(db dbx.DBTX) documents.Repository
	AuditLog(db dbx.DBTX) auditlog.Repository
}
