package activities

import (
	"context"

	"go.uber.org/zap"

	"github.com/seekerlab/seeker/internal/db"
)

// PersistSession archives a finished run. Persistence happens after the
// report has already been delivered, so a store failure is logged and
// swallowed rather than surfaced to the caller.
func (a *Activities) PersistSession(ctx context.Context, in PersistSessionInput) error {
	if a.sessions == nil || in.UserID == "" {
		return nil
	}
	err := a.sessions.Save(ctx, db.ResearchSession{
		RunID:      in.RunID,
		UserID:     in.UserID,
		Query:      in.Query,
		ReportBody: in.ReportBody,
		Confidence: in.Confidence,
		Incomplete: in.Incomplete,
	})
	if err != nil {
		a.logger.Warn("session persist failed",
			zap.String("run_id", in.RunID),
			zap.Error(err))
	}
	return nil
}
