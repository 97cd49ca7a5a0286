package binders

import (
	"context"

	"github.com/dmitrijs2005/compliancebinder/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, b *models.Binder) (*models.Binder, error)
	GetByID(ctx context.Context, id int64) (*models.Binder, error)
	// ListByOwner returns the owner's binders, newest first.
	ListByOwner(ctx context.Context, ownerID int64) ([]*models.Binder, error)
	Count(ctx context.Context) (int64, error)
}
