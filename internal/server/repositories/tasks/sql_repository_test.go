package tasks

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/compliancebinder/internal/common"
	"github.com/dmitrijs2005/compliancebinder/internal/server/models"
)

func newRepoWithMock(t *testing.T) (*SQLRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewSQLRepository(db), mock
}

var columns = []string{"id", "binder_id", "title", "description", "status", "due_date", "created_at", "updated_at"}

func TestCreate_WithDueDate(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	now := time.Date(2026, 4, 1, 9, 30, 0, 0, time.UTC)
	due := time.Date(2026, 4, 20, 17, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`(?s)^INSERT\s+INTO\s+tasks\s*\(binder_id,\s*title,\s*description,\s*status,\s*due_date,\s*created_at,\s*updated_at\).*RETURNING\s+id$`).
		WithArgs(int64(3), "Rotate keys", "", "open", time.Date(2026, 4, 20, 0, 0, 0, 0, time.UTC), now, now).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(11)))

	task, err := repo.Create(context.Background(), &models.Task{
		BinderID: 3, Title: "Rotate keys", Status: models.TaskOpen, DueDate: &due, CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(11), task.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_NoDueDate(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	now := time.Now().UTC()

	mock.ExpectQuery(`INSERT INTO tasks`).
		WithArgs(int64(3), "T", "d", "open", nil, now, now).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))

	_, err := repo.Create(context.Background(), &models.Task{
		BinderID: 3, Title: "T", Description: "d", Status: models.TaskOpen, CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByID(t *testing.T) {
	now := time.Now().UTC()
	due := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	t.Run("found with due date", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectQuery(`(?s)FROM\s+tasks\s+WHERE\s+id\s*=\s*\$1$`).WithArgs(int64(2)).
			WillReturnRows(sqlmock.NewRows(columns).AddRow(int64(2), int64(1), "T", "", "done", due, now, now))

		task, err := repo.GetByID(context.Background(), 2)
		require.NoError(t, err)
		assert.Equal(t, models.TaskDone, task.Status)
		require.NotNil(t, task.DueDate)
		assert.Equal(t, due, *task.DueDate)
	})

	t.Run("found without due date", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectQuery(`FROM tasks WHERE id`).WithArgs(int64(2)).
			WillReturnRows(sqlmock.NewRows(columns).AddRow(int64(2), int64(1), "T", "", "open", nil, now, now))

		task, err := repo.GetByID(context.Background(), 2)
		require.NoError(t, err)
		assert.Nil(t, task.DueDate)
	})

	t.Run("missing", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectQuery(`FROM tasks WHERE id`).WithArgs(int64(2)).WillReturnError(sql.ErrNoRows)

		_, err := repo.GetByID(context.Background(), 2)
		assert.ErrorIs(t, err, common.ErrorNotFound)
	})
}

func TestListByBinder(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	now := time.Now().UTC()

	mock.ExpectQuery(`(?s)WHERE\s+binder_id\s*=\s*\$1\s+ORDER\s+BY\s+created_at\s+DESC,\s*id\s+DESC`).
		WithArgs(int64(4)).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow(int64(6), int64(4), "second", "", "open", nil, now, now).
			AddRow(int64(5), int64(4), "first", "", "open", nil, now.Add(-time.Minute), now))

	list, err := repo.ListByBinder(context.Background(), 4)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, int64(6), list[0].ID)
}

func TestMarkDone(t *testing.T) {
	now := time.Now().UTC()
	q := `(?s)^UPDATE\s+tasks\s+SET\s+status\s*=\s*'done',\s*updated_at\s*=\s*\$2\s+WHERE\s+id\s*=\s*\$1\s+AND\s+status\s*=\s*'open'$`

	t.Run("updates open task", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectExec(q).WithArgs(int64(1), now).WillReturnResult(sqlmock.NewResult(0, 1))
		assert.NoError(t, repo.MarkDone(context.Background(), 1, now))
	})

	t.Run("already done is not an error", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectExec(q).WithArgs(int64(1), now).WillReturnResult(sqlmock.NewResult(0, 0))
		assert.NoError(t, repo.MarkDone(context.Background(), 1, now))
	})

	t.Run("db error", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectExec(q).WithArgs(int64(1), now).WillReturnError(errors.New("locked"))
		assert.ErrorContains(t, repo.MarkDone(context.Background(), 1, now), "db error: locked")
	})
}

func TestCounts(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	today := time.Date(2026, 4, 2, 13, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`(?s)SELECT\s+COALESCE.*FROM\s+tasks$`).
		WithArgs(time.Date(2026, 4, 2, 0, 0, 0, 0, time.UTC)).
		WillReturnRows(sqlmock.NewRows([]string{"open", "done", "overdue"}).AddRow(int64(4), int64(2), int64(1)))

	c, err := repo.Counts(context.Background(), today)
	require.NoError(t, err)
	assert.Equal(t, Counts{Open: 4, Done: 2, Overdue: 1}, c)
}
