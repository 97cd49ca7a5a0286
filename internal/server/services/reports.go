package services

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/compliancebinder/internal/dbx"
	"github.com/dmitrijs2005/compliancebinder/internal/server/audit"
	"github.com/dmitrijs2005/compliancebinder/internal/server/models"
	"github.com/dmitrijs2005/compliancebinder/internal/server/report"
)

type ReportService struct {
	deps  Deps
	guard *Guard
}

func NewReportService(deps Deps, guard *Guard) *ReportService {
	return &ReportService{deps: deps.withDefaults(), guard: guard}
}

// Build reads the binder, its tasks and documents in one transaction and
// assembles the report.
func (s *ReportService) Build(ctx context.Context, user *models.User, binderID int64) (report.Report, error) {
	var (
		b     *models.Binder
		tasks []*models.Task
		docs  []*models.Document
	)
	err := dbx.WithTx(ctx, s.deps.DB, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		if b, err = s.guard.Authorize(ctx, tx, user, KindBinder, binderID); err != nil {
			return err
		}
		if tasks, err = s.deps.RepoManager.Tasks(tx).ListByBinder(ctx, binderID); err != nil {
			return err
		}
		docs, err = s.deps.RepoManager.Documents(tx).ListByBinder(ctx, binderID)
		return err
	})
	if err != nil {
		return report.Report{}, err
	}
	return report.Assemble(b, tasks, docs, s.deps.now()), nil
}

// HTML builds the report and renders it as a standalone page.
func (s *ReportService) HTML(ctx context.Context, user *models.User, binderID int64) ([]byte, error) {
	r, err := s.Build(ctx, user, binderID)
	if err != nil {
		return nil, err
	}

	page, err := report.RenderHTML(r)
	if err != nil {
		return nil, fmt.Errorf("error rendering report: %w", err)
	}

	s.deps.Audit.Record(ctx, models.AuditEvent{
		Action:       audit.ActionReport,
		ResourceType: string(KindBinder),
		ResourceID:   binderID,
		ActorID:      user.ID,
		ActorEmail:   user.Email,
	})
	return page, nil
}
