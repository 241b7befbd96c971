package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewQueryAssignsIdentity(t *testing.T) {
	q := NewQuery("what is raft", "user-1")
	assert.NotEmpty(t, q.ID)
	assert.Equal(t, "user-1", q.UserID)
	assert.False(t, q.SubmittedAt.IsZero())
	assert.NotEqual(t, q.ID, NewQuery("what is raft", "user-1").ID)
}

func TestEvidenceIsAppendOnly(t *testing.T) {
	s := NewResearchState(NewQuery("q", ""))
	s.AppendEvidence([]EvidenceItem{{ID: "a", Source: "x.org"}})
	s.AppendEvidence([]EvidenceItem{{ID: "b", Source: "y.org"}, {ID: "c", Source: "x.org"}})

	require.Len(t, s.Evidence, 3)
	assert.Equal(t, "a", s.Evidence[0].ID, "earlier evidence survives later appends")
}

func TestDistinctSourcesFirstSeenOrder(t *testing.T) {
	items := []EvidenceItem{
		{Source: "b.net"},
		{Source: "a.org"},
		{Source: "b.net"},
		{Source: "", URL: "https://c.io/page"},
		{Source: ""},
	}
	assert.Equal(t, []string{"b.net", "a.org", "https://c.io/page"}, DistinctSources(items))
}

func TestMissingAspectsWithoutVerdict(t *testing.T) {
	s := NewResearchState(NewQuery("q", ""))
	assert.Nil(t, s.MissingAspects())

	s.Verdict = &EvaluationVerdict{Sufficient: false, MissingAspects: []string{"details"}}
	assert.Equal(t, []string{"details"}, s.MissingAspects())
}
