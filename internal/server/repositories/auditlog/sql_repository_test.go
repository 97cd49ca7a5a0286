package auditlog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/compliancebinder/internal/server/models"
)

func TestAppend(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectExec(`(?s)^INSERT\s+INTO\s+audit_events\s*\(id,\s*occurred_at,\s*action,.*\$10\)$`).
		WithArgs("ev-1", now, "binder.create", "binder", int64(4), int64(1), "a@x.io", "success", "", "req-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = NewSQLRepository(db).Append(context.Background(), &models.AuditEvent{
		ID: "ev-1", Time: now, Action: "binder.create", ResourceType: "binder", ResourceID: 4,
		ActorID: 1, ActorEmail: "a@x.io", Outcome: models.OutcomeSuccess, RequestID: "req-1",
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppend_NullIDsAndError(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectExec(`INSERT INTO audit_events`).
		WithArgs("ev-2", now, "auth.login", "", nil, nil, "ghost@x.io", "failure", "bad credentials", "").
		WillReturnError(errors.New("disk full"))

	err = NewSQLRepository(db).Append(context.Background(), &models.AuditEvent{
		ID: "ev-2", Time: now, Action: "auth.login", ActorEmail: "ghost@x.io",
		Outcome: models.OutcomeFailure, Detail: "bad credentials",
	})
	assert.ErrorContains(t, err, "db error: disk full")
}
