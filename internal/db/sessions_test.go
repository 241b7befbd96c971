package db

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newMockStore(t *testing.T) (*SessionStore, sqlmock.Sqlmock) {
	t.Helper()
	raw, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { raw.Close() })
	client := NewClientFromDB(sqlx.NewDb(raw, "postgres"), zaptest.NewLogger(t))
	return NewSessionStore(client, zaptest.NewLogger(t)), mock
}

func TestSessionStoreSaveUpserts(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("INSERT INTO research_sessions").
		WithArgs("run-1", "user-1", "what is raft", "## Report", "high", false).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.Save(context.Background(), ResearchSession{
		RunID:      "run-1",
		UserID:     "user-1",
		Query:      "what is raft",
		ReportBody: "## Report",
		Confidence: "high",
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionStoreListNewestFirst(t *testing.T) {
	store, mock := newMockStore(t)

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"run_id", "query", "confidence", "incomplete", "created_at"}).
		AddRow("run-2", "newer", "medium", true, now).
		AddRow("run-1", "older", "high", false, now.Add(-time.Hour))
	mock.ExpectQuery("SELECT run_id, query, confidence, incomplete, created_at").
		WithArgs("user-1", 50).
		WillReturnRows(rows)

	out, err := store.List(context.Background(), "user-1", 0)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "run-2", out[0].RunID)
	assert.Equal(t, "run-1", out[1].RunID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionStoreGetMissingIsNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("SELECT run_id, user_id, query").
		WithArgs("user-1", "run-x").
		WillReturnRows(sqlmock.NewRows([]string{"run_id"}))

	_, err := store.Get(context.Background(), "user-1", "run-x")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionStoreDeleteScopedToUser(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("DELETE FROM research_sessions").
		WithArgs("user-2", "run-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.Delete(context.Background(), "user-2", "run-1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
