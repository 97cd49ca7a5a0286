package models

import "time"

type TaskStatus string

const (
	TaskOpen TaskStatus = "open"
	TaskDone TaskStatus = "done"
)

func (s TaskStatus) Valid() bool {
	return s == TaskOpen || s == TaskDone
}

type Task struct {
	ID          int64      `db:"id"`
	BinderID    int64      `db:"binder_id"`
	Title       string     `db:"title"`
	Description string     `db:"description"`
	Status      TaskStatus `db:"status"`
	// DueDate is a calendar date stored at midnight UTC.
	DueDate   *time.Time `db:"due_date"`
	CreatedAt time.Time  `db:"created_at"`
	UpdatedAt time.Time  `db:"updated_at"`
}

// IsOverdue reports whether an open task's due date is before the calendar
// day of today.
func (t *Task) IsOverdue(today time.Time) bool {
	if t.Status != TaskOpen || t.DueDate == nil {
		return false
	}
	return t.DueDate.Before(DateOf(today))
}

// DateOf truncates t to midnight UTC of its calendar day.
func DateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
