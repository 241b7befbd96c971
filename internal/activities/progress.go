package activities

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/seekerlab/seeker/internal/metrics"
	"github.com/seekerlab/seeker/internal/streaming"
)

// EmitProgress publishes one orchestrator transition to subscribers and
// records run-outcome metrics on terminal transitions. The Redis mirror
// write is best-effort; a mirror outage never fails the run.
func (a *Activities) EmitProgress(ctx context.Context, in ProgressInput) error {
	switch in.State {
	case "DONE":
		status := "completed"
		if in.Forced {
			status = "forced"
			metrics.BreakerForcedRuns.Inc()
		}
		metrics.RunsCompleted.WithLabelValues(status).Inc()
		metrics.IterationsPerRun.Observe(float64(in.Iteration))
		if in.Elapsed > 0 {
			metrics.RunDuration.Observe(in.Elapsed.Seconds())
		}
	case "FAILED":
		metrics.RunsCompleted.WithLabelValues("failed").Inc()
	}

	if a.streams == nil {
		return nil
	}
	ev := a.streams.Publish(in.RunID, streaming.Event{
		RunID:     in.RunID,
		State:     in.State,
		Iteration: in.Iteration,
		Message:   in.Message,
		Report:    in.Report,
		Timestamp: time.Now().UTC(),
	})
	if a.mirror != nil {
		a.mirror.Append(ctx, ev)
	}
	a.logger.Debug("progress emitted",
		zap.String("run_id", in.RunID),
		zap.String("state", in.State),
		zap.Int("iteration", in.Iteration))
	return nil
}
