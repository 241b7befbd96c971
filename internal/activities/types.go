package activities

import (
	"time"

	"github.com/seekerlab/seeker/internal/models"
)

// Activity registration names. Workflows invoke activities by name so tests
// can substitute mocks per name.
const (
	ActivityPlanSubQueries   = "PlanSubQueries"
	ActivityExecuteSearch    = "ExecuteSearch"
	ActivityEvaluateEvidence = "EvaluateEvidence"
	ActivitySynthesizeReport = "SynthesizeReport"
	ActivityEmitProgress     = "EmitProgress"
	ActivityPersistSession   = "PersistSession"
)

// Error type tags carried on non-retryable application errors so workflows
// can map activity failures onto the run-level taxonomy.
const (
	ErrTypePlanningFailure = "PlanningFailure"
	ErrTypeInference       = "InferenceError"
)

// PlanInput is the read view handed to the planner stage.
type PlanInput struct {
	Query          models.Query
	Iteration      int
	MissingAspects []string // gap list from the prior verdict, empty on iteration 0
	MaxSubQueries  int
}

// PlanResult is the planner delta: new sub-queries only.
type PlanResult struct {
	SubQueries []models.SubQuery
}

// SearchInput carries one sub-query into a single fan-out search call.
type SearchInput struct {
	SubQuery models.SubQuery
}

// SearchResult is one search call's evidence delta.
type SearchResult struct {
	Items    []models.EvidenceItem
	Provider string
}

// EvaluateInput is the read view handed to the evaluator stage: the full
// accumulated evidence set plus the original query.
type EvaluateInput struct {
	Query     models.Query
	Evidence  []models.EvidenceItem
	Iteration int
}

// EvaluateResult wraps the verdict delta.
type EvaluateResult struct {
	Verdict models.EvaluationVerdict
}

// SynthesizeInput is the read view handed to the summarizer stage.
type SynthesizeInput struct {
	Query          models.Query
	Evidence       []models.EvidenceItem
	Forced         bool // iteration bound reached; synthesize from best available data
	FailedSearches int  // observability only
}

// SynthesizeResult wraps the terminal report.
type SynthesizeResult struct {
	Report models.Report
}

// ProgressInput is one orchestrator transition observation. Forced and
// Elapsed are populated on the terminal event only.
type ProgressInput struct {
	RunID     string
	State     string
	Iteration int
	Message   string
	Report    string
	Forced    bool
	Elapsed   time.Duration
}

// PersistSessionInput archives a completed run for later retrieval.
type PersistSessionInput struct {
	RunID      string
	UserID     string
	Query      string
	ReportBody string
	Confidence string
	Incomplete bool
}
