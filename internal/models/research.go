package models

import (
	"time"

	"github.com/google/uuid"
)

// Query is the original user research request. Immutable after submission.
type Query struct {
	ID          string    `json:"id"`
	Text        string    `json:"text"`
	UserID      string    `json:"user_id,omitempty"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// NewQuery creates a Query with a fresh ID and UTC submission timestamp.
func NewQuery(text, userID string) Query {
	return Query{
		ID:          uuid.New().String(),
		Text:        text,
		UserID:      userID,
		SubmittedAt: time.Now().UTC(),
	}
}

// SubQuery is one decomposed search task. Produced only by the planner and
// never mutated after creation.
type SubQuery struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Iteration int    `json:"iteration"` // planning iteration that produced it
}

// EvidenceItem is one retrieved snippet tied to a source. Immutable once
// created.
type EvidenceItem struct {
	ID         string `json:"id"`
	Source     string `json:"source"`      // source identifier (host or provider-reported name)
	URL        string `json:"url"`         // authority marker
	Excerpt    string `json:"excerpt"`     // text excerpt
	SubQueryID string `json:"subquery_id"` // originating sub-query
}

// EvaluationVerdict is the evaluator's output. Sufficient is always a
// definite boolean; ambiguous evaluator output resolves to false upstream so
// the termination logic stays total.
type EvaluationVerdict struct {
	Sufficient     bool     `json:"sufficient"`
	Rationale      string   `json:"rationale"`
	MissingAspects []string `json:"missing_aspects,omitempty"`
}

// Confidence is the coarse reliability label on a final report.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Report is the terminal artifact of a research run, created exactly once.
type Report struct {
	Body        string     `json:"body"` // synthesized markdown
	Confidence  Confidence `json:"confidence"`
	Citations   []string   `json:"citations,omitempty"` // cited source identifiers
	Incomplete  bool       `json:"incomplete"`          // true on forced (iteration-bounded) termination
	GeneratedAt time.Time  `json:"generated_at"`
}

// ResearchState is the single aggregate threaded through the research cycle.
// It is exclusively owned by the orchestrating workflow: stage activities
// receive read views and return deltas which the workflow applies here.
type ResearchState struct {
	Query      Query              `json:"query"`
	Iteration  int                `json:"iteration"`
	SubQueries []SubQuery         `json:"sub_queries"` // every sub-query ever issued, in order
	Evidence   []EvidenceItem     `json:"evidence"`    // append-only across iterations
	Verdict    *EvaluationVerdict `json:"verdict,omitempty"`
	Report     *Report            `json:"report,omitempty"`
}

// NewResearchState initializes state for a run at iteration 0.
func NewResearchState(q Query) *ResearchState {
	return &ResearchState{Query: q}
}

// AddSubQueries records a planner delta.
func (s *ResearchState) AddSubQueries(batch []SubQuery) {
	s.SubQueries = append(s.SubQueries, batch...)
}

// AppendEvidence records a search delta. Evidence is never discarded: prior
// iterations remain visible to later evaluation and planning, which is what
// lets a forced termination fall back to best available data.
func (s *ResearchState) AppendEvidence(items []EvidenceItem) {
	s.Evidence = append(s.Evidence, items...)
}

// MissingAspects returns the gap list from the latest verdict, if any. Used
// to seed loop-back planning.
func (s *ResearchState) MissingAspects() []string {
	if s.Verdict == nil {
		return nil
	}
	return s.Verdict.MissingAspects
}

// DistinctSources returns the set of distinct source identifiers across all
// accumulated evidence, in first-seen order.
func (s *ResearchState) DistinctSources() []string {
	return DistinctSources(s.Evidence)
}

// DistinctSources extracts distinct source identifiers from evidence in
// first-seen order.
func DistinctSources(items []EvidenceItem) []string {
	seen := make(map[string]bool, len(items))
	var out []string
	for _, it := range items {
		src := it.Source
		if src == "" {
			src = it.URL
		}
		if src == "" || seen[src] {
			continue
		}
		seen[src] = true
		out = append(out, src)
	}
	return out
}
