package tasks

import (
	"context"
	"time"

	"github.com/dmitrijs2005/compliancebinder/internal/server/models"
)

// Counts summarises task states across all binders.
type Counts struct {
	Open    int64
	Done    int64
	Overdue int64
}

type Repository interface {
	Create(ctx context.Context, t *models.Task) (*models.Task, error)
	GetByID(ctx context.Context, id int64) (*models.Task, error)
	// ListByBinder returns the binder's tasks, newest first.
	ListByBinder(ctx context.Context, binderID int64) ([]*models.Task, error)
	// MarkDone moves an open task to done. A task that is already done is
	// left untouched.
	MarkDone(ctx context.Context, id int64, at time.Time) error
	Counts(ctx context.Context, today time.Time) (Counts, error)
}
