// Package services implements the ComplianceBinder operations on top of the
// repositories. Every operation authorizes against current storage state
// inside the same transaction as its reads and writes.
package services

import (
	"context"
	"database/sql"
	"time"

	"github.com/dmitrijs2005/compliancebinder/internal/server/models"
	"github.com/dmitrijs2005/compliancebinder/internal/server/repositories/repomanager"
)

// AuditRecorder receives one event per audited action. Delivery is best
// effort and never fails the caller.
type AuditRecorder interface {
	Record(ctx context.Context, e models.AuditEvent)
}

// Deps is what every service needs.
type Deps struct {
	DB          *sql.DB
	RepoManager repomanager.RepositoryManager
	Audit       AuditRecorder
	// Now defaults to time.Now.
	Now func() time.Time
}

func (d Deps) now() time.Time {
	if d.Now != nil {
		return d.Now().UTC()
	}
	return time.Now().UTC()
}

type nopAudit struct{}

func (nopAudit) Record(context.Context, models.AuditEvent) {}

func (d Deps) withDefaults() Deps {
	if d.Audit == nil {
		d.Audit = nopAudit{}
	}
	return d
}
