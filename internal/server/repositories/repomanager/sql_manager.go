// Package repomanager vends repository implementations bound to a DBTX and
// applies the embedded goose migrations for the active dialect.
package repomanager

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/pressly/goose/v3"

	"github.com/dmitrijs2005/compliancebinder/internal/dbx"
	"github.com/dmitrijs2005/compliancebinder/internal/server/migrations"
	"github.com/dmitrijs2005/compliancebinder/internal/server/repositories/auditlog"
	"github.com/dmitrijs2005/compliancebinder/internal/server/repositories/binders"
	"github.com/dmitrijs2005/compliancebinder/internal/server/repositories/documents"
	"github.com/dmitrijs2005/compliancebinder/internal/server/repositories/tasks"
	"github.com/dmitrijs2005/compliancebinder/internal/server/repositories/users"
)

// SQLRepositoryManager serves both postgres and sqlite; the dialect only
// matters for migrations.
type SQLRepositoryManager struct {
	dialect dbx.Dialect
}

func NewSQLRepositoryManager(dialect dbx.Dialect) (*SQLRepositoryManager, error) {
	if _, ok := gooseDialects[dialect]; !ok {
		return nil, fmt.Errorf("unsupported dialect %q", dialect)
	}
	return &SQLRepositoryManager{dialect: dialect}, nil
}

func (m *SQLRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewSQLRepository(db)
}

func (m *SQLRepositoryManager) Binders(db dbx.DBTX) binders.Repository {
	return binders.NewSQLRepository(db)
}

func (m *SQLRepositoryManager) Tasks(db dbx.DBTX) tasks.Repository {
	return tasks.NewSQLRepository(db)
}

func (m *SQLRepositoryManager) Documents(db dbx.DBTX) documents.Repository {
	return documents.NewSQLRepository(db)
}

func (m *SQLRepositoryManager) AuditLog(db dbx.DBTX) auditlog.Repository {
	return auditlog.NewSQLRepository(db)
}

var gooseDialects = map[dbx.Dialect]goose.Dialect{
	dbx.Postgres: goose.DialectPostgres,
	dbx.SQLite:   goose.DialectSQLite3,
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// goose keeps its base FS and dialect in package globals.
var gooseMu sync.Mutex

// RunMigrations applies every pending migration for the manager's dialect.
func (m *SQLRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(migrations.Migrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect(string(gooseDialects[m.dialect])); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}

	return gooseUpContext(ctx, db, string(m.dialect))
}
