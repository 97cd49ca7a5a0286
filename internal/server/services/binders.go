package services

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/dmitrijs2005/compliancebinder/internal/common"
	"github.com/dmitrijs2005/compliancebinder/internal/dbx"
	"github.com/dmitrijs2005/compliancebinder/internal/server/audit"
	"github.com/dmitrijs2005/compliancebinder/internal/server/models"
)

const (
	maxNameLen     = 200
	maxIndustryLen = 100
)

type BinderService struct {
	deps  Deps
	guard *Guard
}

func NewBinderService(deps Deps, guard *Guard) *BinderService {
	return &BinderService{deps: deps.withDefaults(), guard: guard}
}

func (s *BinderService) Create(ctx context.Context, user *models.User, name, industry string) (*models.Binder, error) {
	name = strings.TrimSpace(name)
	industry = strings.TrimSpace(industry)
	if industry == "" {
		industry = models.DefaultIndustry
	}

	v := &common.ValidationError{}
	switch {
	case name == "":
		v.Add("name", "required")
	case utf8.RuneCountInString(name) > maxNameLen:
		v.Add("name", fmt.Sprintf("must be at most %d characters", maxNameLen))
	}
	if utf8.RuneCountInString(industry) > maxIndustryLen {
		v.Add("industry", fmt.Sprintf("must be at most %d characters", maxIndustryLen))
	}
	if err := v.OrNil(); err != nil {
		return nil, err
	}

	var b *models.Binder
	err := dbx.WithTx(ctx, s.deps.DB, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		b, err = s.deps.RepoManager.Binders(tx).Create(ctx, &models.Binder{
			OwnerID:   user.ID,
			Name:      name,
			Industry:  industry,
			CreatedAt: s.deps.now(),
		})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("error creating binder: %w", err)
	}

	s.deps.Audit.Record(ctx, models.AuditEvent{
		Action:       audit.ActionBinderCreate,
		ResourceType: string(KindBinder),
		ResourceID:   b.ID,
		ActorID:      user.ID,
		ActorEmail:   user.Email,
	})
	return b, nil
}

// List returns the user's binders, newest first.
func (s *BinderService) List(ctx context.Context, user *models.User) ([]*models.Binder, error) {
	var out []*models.Binder
	err := dbx.WithTx(ctx, s.deps.DB, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		out, err = s.deps.RepoManager.Binders(tx).ListByOwner(ctx, user.ID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("error listing binders: %w", err)
	}
	return out, nil
}

func (s *BinderService) Get(ctx context.Context, user *models.User, id int64) (*models.Binder, error) {
	var b *models.Binder
	err := dbx.WithTx(ctx, s.deps.DB, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		b, err = s.guard.Authorize(ctx, tx, user, KindBinder, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}
