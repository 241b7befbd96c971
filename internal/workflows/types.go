package workflows

import (
	"time"

	"github.com/seekerlab/seeker/internal/models"
)

// Research phase names, published verbatim in progress events.
const (
	StatePlanning    = "PLANNING"
	StateSearching   = "SEARCHING"
	StateEvaluating  = "EVALUATING"
	StateSummarizing = "SUMMARIZING"
	StateDone        = "DONE"
	StateFailed      = "FAILED"
)

// Defaults for the research loop. MaxIterations bounds loop-backs: the run
// re-plans at most this many times before summarization is forced.
const (
	DefaultMaxIterations    = 2
	DefaultMaxSubQueries    = 3
	DefaultSearchTimeout    = 10 * time.Second
	DefaultPlanTimeout      = 30 * time.Second
	DefaultEvaluateTimeout  = 30 * time.Second
	DefaultSynthesisTimeout = 60 * time.Second
)

// ResearchInput starts one research run.
type ResearchInput struct {
	Query models.Query

	// MaxIterations overrides DefaultMaxIterations when positive.
	MaxIterations int
	// MaxSubQueries caps the planner fan-out width when positive.
	MaxSubQueries int
	// SearchTimeout bounds each fan-out search call when positive.
	SearchTimeout time.Duration
	// RunDeadline, when positive, bounds the whole run: once elapsed the
	// current fan-out join stops waiting and the run proceeds with the
	// evidence in hand.
	RunDeadline time.Duration
}

// ResearchResult is a run's terminal outcome.
type ResearchResult struct {
	Report models.Report `json:"report"`
	// Iterations is the number of loop-backs taken (0 on a first-pass
	// sufficient verdict).
	Iterations int `json:"iterations"`
	// Forced marks termination by the iteration bound rather than a
	// sufficient verdict.
	Forced bool `json:"forced"`
	// EvidenceCount is the total accumulated evidence across iterations.
	EvidenceCount int `json:"evidence_count"`
	// FailedSearches counts fan-out calls absorbed at join barriers.
	FailedSearches int `json:"failed_searches"`
}
