// Package auditlog persists audit events to the audit_events table.
package auditlog

import (
	"context"

	"github.com/dmitrijs2005/compliancebinder/internal/server/models"
)

type Repository interface {
	Append(ctx context.Context, e *models.AuditEvent) error
}
