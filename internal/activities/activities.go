package activities

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/seekerlab/seeker/internal/circuitbreaker"
	"github.com/seekerlab/seeker/internal/db"
	"github.com/seekerlab/seeker/internal/providers/reasoning"
	"github.com/seekerlab/seeker/internal/providers/search"
	"github.com/seekerlab/seeker/internal/ratecontrol"
	"github.com/seekerlab/seeker/internal/streaming"
)

// Activities bundles the external-facing stage adapters behind Temporal
// activity methods. Workflows stay deterministic; everything that touches a
// model API, a search API, Redis, or Postgres lives here.
type Activities struct {
	reasoner reasoning.Provider
	searcher search.Provider
	gate     *ratecontrol.Gate
	breaker  *circuitbreaker.Breaker
	streams  *streaming.Manager
	mirror   *streaming.RedisMirror
	sessions *db.SessionStore
	logger   *zap.Logger
}

// Options carries optional collaborators. Nil fields disable the
// corresponding side effect rather than failing construction.
type Options struct {
	Mirror   *streaming.RedisMirror
	Sessions *db.SessionStore
}

// NewActivities wires the stage adapters. reasoner and searcher are
// required; gate and breaker guard the search path.
func NewActivities(
	reasoner reasoning.Provider,
	searcher search.Provider,
	gate *ratecontrol.Gate,
	breaker *circuitbreaker.Breaker,
	streams *streaming.Manager,
	opts Options,
	logger *zap.Logger,
) *Activities {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Activities{
		reasoner: reasoner,
		searcher: searcher,
		gate:     gate,
		breaker:  breaker,
		streams:  streams,
		mirror:   opts.Mirror,
		sessions: opts.Sessions,
		logger:   logger,
	}
}

// acquireReasoner blocks until the reasoning provider's cooldown allows the
// next call. Every reasoning stage goes through here; the model is never
// called ungated.
func (a *Activities) acquireReasoner(ctx context.Context) error {
	if a.gate == nil {
		return nil
	}
	if err := a.gate.Acquire(ctx, a.reasoner.Name()); err != nil {
		return fmt.Errorf("rate gate wait for %s: %w", a.reasoner.Name(), err)
	}
	return nil
}

// stripCodeFences removes a markdown code fence wrapper that models sometimes
// emit around JSON payloads despite a JSON response MIME type.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
