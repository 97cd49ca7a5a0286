// Package users is the credential store: account rows keyed by id and by
// unique email.
package users

import (
	"context"

	"github.com/dmitrijs2005/compliancebinder/internal/server/models"
)

type Repository interface {
	// Create inserts user and sets its ID. A taken email yields
	// common.ErrorConflict.
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	Count(ctx context.Context) (int64, error)
}
