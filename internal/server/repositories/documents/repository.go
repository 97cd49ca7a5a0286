package documents

import (
	"context"

	"github.com/dmitrijs2005/compliancebinder/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, d *models.Document) (*models.Document, error)
	GetByID(ctx context.Context, id int64) (*models.Document, error)
	// ListByBinder returns the binder's documents, most recently uploaded first.
	ListByBinder(ctx context.Context, binderID int64) ([]*models.Document, error)
	Count(ctx context.Context) (int64, error)
}
