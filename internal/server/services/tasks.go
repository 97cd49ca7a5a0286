package services

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dmitrijs2005/compliancebinder/internal/common"
	"github.com/dmitrijs2005/compliancebinder/internal/dbx"
	"github.com/dmitrijs2005/compliancebinder/internal/server/audit"
	"github.com/dmitrijs2005/compliancebinder/internal/server/models"
)

const (
	maxTitleLen       = 200
	maxDescriptionLen = 5000
)

type TaskService struct {
	deps  Deps
	guard *Guard
}

func NewTaskService(deps Deps, guard *Guard) *TaskService {
	return &TaskService{deps: deps.withDefaults(), guard: guard}
}

// Today is the calendar day used for overdue checks.
func (s *TaskService) Today() time.Time {
	return models.DateOf(s.deps.now())
}

// Create adds an open task to a binder the user owns. due, when set, is
// truncated to its calendar day.
func (s *TaskService) Create(ctx context.Context, user *models.User, binderID int64, title, description string, due *time.Time) (*models.Task, error) {
	title = strings.TrimSpace(title)
	description = strings.TrimSpace(description)

	v := &common.ValidationError{}
	switch {
	case title == "":
		v.Add("title", "required")
	case utf8.RuneCountInString(title) > maxTitleLen:
		v.Add("title", fmt.Sprintf("must be at most %d characters", maxTitleLen))
	}
	if utf8.RuneCountInString(description) > maxDescriptionLen {
		v.Add("description", fmt.Sprintf("must be at most %d characters", maxDescriptionLen))
	}
	if err := v.OrNil(); err != nil {
		return nil, err
	}

	if due != nil {
		d := models.DateOf(*due)
		due = &d
	}

	var task *models.Task
	err := dbx.WithTx(ctx, s.deps.DB, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := s.guard.Authorize(ctx, tx, user, KindBinder, binderID); err != nil {
			return err
		}

		now := s.deps.now()
		var err error
		task, err = s.deps.RepoManager.Tasks(tx).Create(ctx, &models.Task{
			BinderID:    binderID,
			Title:       title,
			Description: description,
			Status:      models.TaskOpen,
			DueDate:     due,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.deps.Audit.Record(ctx, models.AuditEvent{
		Action:       audit.ActionTaskCreate,
		ResourceType: string(KindTask),
		ResourceID:   task.ID,
		ActorID:      user.ID,
		ActorEmail:   user.Email,
	})
	return task, nil
}

// List returns the binder's tasks, newest first.
func (s *TaskService) List(ctx context.Context, user *models.User, binderID int64) ([]*models.Task, error) {
	var out []*models.Task
	err := dbx.WithTx(ctx, s.deps.DB, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := s.guard.Authorize(ctx, tx, user, KindBinder, binderID); err != nil {
			return err
		}
		var err error
		out, err = s.deps.RepoManager.Tasks(tx).ListByBinder(ctx, binderID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// MarkDone moves the task to done. Calling it on a done task returns the task
// unchanged.
func (s *TaskService) MarkDone(ctx context.Context, user *models.User, taskID int64) (*models.Task, error) {
	var (
		task    *models.Task
		changed bool
	)
	err := dbx.WithTx(ctx, s.deps.DB, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := s.guard.Authorize(ctx, tx, user, KindTask, taskID); err != nil {
			return err
		}

		repo := s.deps.RepoManager.Tasks(tx)
		before, err := repo.GetByID(ctx, taskID)
		if err != nil {
			return err
		}
		if before.Status == models.TaskDone {
			task = before
			return nil
		}

		if err := repo.MarkDone(ctx, taskID, s.deps.now()); err != nil {
			return err
		}
		changed = true
		task, err = repo.GetByID(ctx, taskID)
		return err
	})
	if err != nil {
		return nil, err
	}

	if changed {
		s.deps.Audit.Record(ctx, models.AuditEvent{
			Action:       audit.ActionTaskDone,
			ResourceType: string(KindTask),
			ResourceID:   task.ID,
			ActorID:      user.ID,
			ActorEmail:   user.Email,
		})
	}
	return task, nil
}
