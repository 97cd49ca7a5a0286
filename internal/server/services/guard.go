package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/dmitrijs2005/compliancebinder/internal/common"
	"github.com/dmitrijs2005/compliancebinder/internal/dbx"
	"github.com/dmitrijs2005/compliancebinder/internal/server/models"
	"github.com/dmitrijs2005/compliancebinder/internal/server/repositories/repomanager"
)

// ResourceKind names an ownable resource.
type ResourceKind string

const (
	KindBinder   ResourceKind = "binder"
	KindTask     ResourceKind = "task"
	KindDocument ResourceKind = "document"
)

// TokenVerifier resolves a bearer token to its subject.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// parentLookup maps a resource id to the id of the binder that owns it.
type parentLookup func(ctx context.Context, rm repomanager.RepositoryManager, db dbx.DBTX, id int64) (int64, error)

var parentLookups = map[ResourceKind]parentLookup{
	KindBinder: func(_ context.Context, _ repomanager.RepositoryManager, _ dbx.DBTX, id int64) (int64, error) {
		return id, nil
	},
	KindTask: func(ctx context.Context, rm repomanager.RepositoryManager, db dbx.DBTX, id int64) (int64, error) {
		t, err := rm.Tasks(db).GetByID(ctx, id)
		if err != nil {
			return 0, err
		}
		return t.BinderID, nil
	},
	KindDocument: func(ctx context.Context, rm repomanager.RepositoryManager, db dbx.DBTX, id int64) (int64, error) {
		d, err := rm.Documents(db).GetByID(ctx, id)
		if err != nil {
			return 0, err
		}
		return d.BinderID, nil
	},
}

// Guard authenticates bearer tokens and checks resource ownership.
type Guard struct {
	deps   Deps
	tokens TokenVerifier
}

func NewGuard(deps Deps, tokens TokenVerifier) *Guard {
	return &Guard{deps: deps.withDefaults(), tokens: tokens}
}

// Authenticate verifies token and loads the identity it names. Every failure
// is common.ErrorUnauthorized with the cause wrapped for logging.
func (g *Guard) Authenticate(ctx context.Context, token string) (*models.User, error) {
	sub, err := g.tokens.Verify(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrorUnauthorized, err)
	}

	id, err := strconv.ParseInt(sub, 10, 64)
	if err != nil || id <= 0 {
		return nil, fmt.Errorf("%w: %w: subject %q", common.ErrorUnauthorized, common.ErrMalformedToken, sub)
	}

	user, err := g.deps.RepoManager.Users(g.deps.DB).GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, fmt.Errorf("%w: subject %d no longer exists", common.ErrorUnauthorized, id)
		}
		return nil, fmt.Errorf("error loading identity: %w", err)
	}
	return user, nil
}

// Authorize resolves the binder that owns the resource and checks that user
// owns it. A missing resource and a foreign one both yield
// common.ErrorNotFound.
func (g *Guard) Authorize(ctx context.Context, db dbx.DBTX, user *models.User, kind ResourceKind, id int64) (*models.Binder, error) {
	lookup, ok := parentLookups[kind]
	if !ok {
		return nil, fmt.Errorf("unknown resource kind %q", kind)
	}
	if user == nil {
		return nil, common.ErrorUnauthorized
	}

	binderID, err := lookup(ctx, g.deps.RepoManager, db, id)
	if err != nil {
		return nil, err
	}

	b, err := g.deps.RepoManager.Binders(db).GetByID(ctx, binderID)
	if err != nil {
		return nil, err
	}
	if b.OwnerID != user.ID {
		return nil, common.ErrorNotFound
	}
	return b, nil
}
