package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// ErrSessionNotFound is returned when a session id does not exist for the
// requesting user.
var ErrSessionNotFound = errors.New("research session not found")

// ResearchSession is one archived research run.
type ResearchSession struct {
	RunID      string    `db:"run_id" json:"run_id"`
	UserID     string    `db:"user_id" json:"user_id"`
	Query      string    `db:"query" json:"query"`
	ReportBody string    `db:"report_body" json:"report_body"`
	Confidence string    `db:"confidence" json:"confidence"`
	Incomplete bool      `db:"incomplete" json:"incomplete"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// SessionSummary is the list view: the report body is omitted.
type SessionSummary struct {
	RunID      string    `db:"run_id" json:"run_id"`
	Query      string    `db:"query" json:"query"`
	Confidence string    `db:"confidence" json:"confidence"`
	Incomplete bool      `db:"incomplete" json:"incomplete"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// SessionStore persists completed research runs. All reads and deletes are
// scoped to the owning user; one user can never see another's sessions.
type SessionStore struct {
	client *Client
	logger *zap.Logger
}

// NewSessionStore creates a session store on an existing client.
func NewSessionStore(client *Client, logger *zap.Logger) *SessionStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionStore{client: client, logger: logger}
}

// Save archives a completed run. Re-saving the same run id overwrites the
// previous record, which makes workflow-side retries harmless.
func (s *SessionStore) Save(ctx context.Context, session ResearchSession) error {
	const q = `
		INSERT INTO research_sessions (run_id, user_id, query, report_body, confidence, incomplete, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (run_id) DO UPDATE SET
			report_body = EXCLUDED.report_body,
			confidence  = EXCLUDED.confidence,
			incomplete  = EXCLUDED.incomplete`
	_, err := s.client.db.ExecContext(ctx, q,
		session.RunID, session.UserID, session.Query,
		session.ReportBody, session.Confidence, session.Incomplete)
	if err != nil {
		return fmt.Errorf("save research session %s: %w", session.RunID, err)
	}
	s.logger.Debug("research session saved",
		zap.String("run_id", session.RunID),
		zap.String("user_id", session.UserID))
	return nil
}

// List returns the user's sessions newest first.
func (s *SessionStore) List(ctx context.Context, userID string, limit int) ([]SessionSummary, error) {
	if limit <= 0 {
		limit = 50
	}
	const q = `
		SELECT run_id, query, confidence, incomplete, created_at
		FROM research_sessions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2`
	var out []SessionSummary
	if err := s.client.db.SelectContext(ctx, &out, q, userID, limit); err != nil {
		return nil, fmt.Errorf("list research sessions for %s: %w", userID, err)
	}
	return out, nil
}

// Get returns one session with its full report.
func (s *SessionStore) Get(ctx context.Context, userID, runID string) (*ResearchSession, error) {
	const q = `
		SELECT run_id, user_id, query, report_body, confidence, incomplete, created_at
		FROM research_sessions
		WHERE user_id = $1 AND run_id = $2`
	var session ResearchSession
	err := s.client.db.GetContext(ctx, &session, q, userID, runID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get research session %s: %w", runID, err)
	}
	return &session, nil
}

// Delete removes one session. Deleting a session that does not exist (or
// belongs to someone else) returns ErrSessionNotFound.
func (s *SessionStore) Delete(ctx context.Context, userID, runID string) error {
	const q = `DELETE FROM research_sessions WHERE user_id = $1 AND run_id = $2`
	res, err := s.client.db.ExecContext(ctx, q, userID, runID)
	if err != nil {
		return fmt.Errorf("delete research session %s: %w", runID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrSessionNotFound
	}
	return nil
}
