// Package report builds the binder inspection report: a pure assembly step
// that orders tasks and documents, and an HTML renderer.
package report

import (
	"cmp"
	"slices"
	"time"

	"github.com/dmitrijs2005/compliancebinder/internal/server/models"
)

type Report struct {
	Binder      *models.Binder
	GeneratedAt time.Time
	Open        []*models.Task
	Done        []*models.Task
	Documents   []*models.Document
}

// Assemble partitions tasks by status and orders everything for display.
// Tasks go by due date ascending with undated ones last, then creation time,
// then id. Documents go newest upload first, then id descending. The inputs
// are not modified.
func Assemble(b *models.Binder, tasks []*models.Task, docs []*models.Document, generatedAt time.Time) Report {
	r := Report{
		Binder:      b,
		GeneratedAt: generatedAt,
		Open:        []*models.Task{},
		Done:        []*models.Task{},
		Documents:   slices.Clone(docs),
	}
	if r.Documents == nil {
		r.Documents = []*models.Document{}
	}

	for _, t := range tasks {
		if t.Status == models.TaskDone {
			r.Done = append(r.Done, t)
		} else {
			r.Open = append(r.Open, t)
		}
	}

	slices.SortStableFunc(r.Open, compareTasks)
	slices.SortStableFunc(r.Done, compareTasks)
	slices.SortStableFunc(r.Documents, func(a, b *models.Document) int {
		if c := b.UploadedAt.Compare(a.UploadedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})

	return r
}

func compareTasks(a, b *models.Task) int {
	switch {
	case a.DueDate == nil && b.DueDate != nil:
		return 1
	case a.DueDate != nil && b.DueDate == nil:
		return -1
	case a.DueDate != nil && b.DueDate != nil:
		if c := a.DueDate.Compare(*b.DueDate); c != 0 {
			return c
		}
	}
	if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}
