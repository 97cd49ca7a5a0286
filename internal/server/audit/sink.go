// Package audit delivers security events to one or more sinks. Delivery is
// best effort: a failing sink is logged and never fails the caller.
package audit

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/compliancebinder/internal/logging"
	"github.com/dmitrijs2005/compliancebinder/internal/server/models"
)

// Action names.
const (
	ActionRegister     = "auth.register"
	ActionLogin        = "auth.login"
	ActionBinderCreate = "binder.create"
	ActionTaskCreate   = "task.create"
	ActionTaskDone     = "task.done"
	ActionDocUpload    = "document.upload"
	ActionDocDownload  = "document.download"
	ActionReport       = "report.generate"
)

type Sink interface {
	Emit(ctx context.Context, e *models.AuditEvent) error
}

// Multi fans an event out to every sink and joins their errors.
type Multi []Sink

func (m Multi) Emit(ctx context.Context, e *models.AuditEvent) error {
	var errs []error
	for _, s := range m {
		if err := s.Emit(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Recorder stamps events and hands them to a sink.
type Recorder struct {
	sink   Sink
	logger logging.Logger
	now    func() time.Time
}

func NewRecorder(sink Sink, logger logging.Logger) *Recorder {
	return &Recorder{sink: sink, logger: logger, now: time.Now}
}

// Record fills in id, time and request id, then emits. A sink failure is
// logged at error level together with the whole event.
func (r *Recorder) Record(ctx context.Context, e models.AuditEvent) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Time.IsZero() {
		e.Time = r.now().UTC()
	}
	if e.Outcome == "" {
		e.Outcome = models.OutcomeSuccess
	}
	if e.RequestID == "" {
		e.RequestID = logging.RequestIDFromContext(ctx)
	}

	if err := r.sink.Emit(ctx, &e); err != nil {
		r.logger.Error(ctx, "audit delivery failed", "error", err, "event", e)
	}
}
