package audit

import (
	"context"

	"github.com/dmitrijs2005/compliancebinder/internal/logging"
	"github.com/dmitrijs2005/compliancebinder/internal/server/models"
)

// LogSink writes events to the structured log under the "audit" component.
type LogSink struct {
	logger logging.Logger
}

func NewLogSink(l logging.Logger) *LogSink {
	return &LogSink{logger: l.With("component", "audit")}
}

func (s *LogSink) Emit(ctx context.Context, e *models.AuditEvent) error {
	s.logger.Info(ctx, e.Action,
		"event_id", e.ID,
		"outcome", string(e.Outcome),
		"resource_type", e.ResourceType,
		"resource_id", e.ResourceID,
		"actor_id", e.ActorID,
		"actor_email", e.ActorEmail,
		"detail", e.Detail,
	)
	return nil
}
