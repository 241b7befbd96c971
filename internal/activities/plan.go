package activities

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.temporal.io/sdk/temporal"
	"go.uber.org/zap"

	"github.com/seekerlab/seeker/internal/metrics"
	"github.com/seekerlab/seeker/internal/models"
	"github.com/seekerlab/seeker/internal/providers/reasoning"
)

const defaultMaxSubQueries = 3

const plannerSystemPrompt = `You are a research planner. Decompose the user's question into focused web search queries.
Respond with JSON only: {"sub_queries": ["...", "..."]}.
Each sub-query must be independently searchable and collectively cover the question.`

type plannerResponse struct {
	SubQueries []string `json:"sub_queries"`
}

// PlanSubQueries asks the reasoning model to decompose the query into
// sub-queries for the current iteration. On iterations after the first the
// prompt carries the evaluator's gap list so planning refines rather than
// repeats. A model transport failure is fatal to the run; a malformed
// response degrades to searching the original query verbatim.
func (a *Activities) PlanSubQueries(ctx context.Context, in PlanInput) (PlanResult, error) {
	started := time.Now()
	defer func() {
		metrics.StageDuration.WithLabelValues("planning").Observe(time.Since(started).Seconds())
	}()

	maxN := in.MaxSubQueries
	if maxN <= 0 {
		maxN = defaultMaxSubQueries
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Question: %s\n", in.Query.Text)
	if len(in.MissingAspects) > 0 {
		fmt.Fprintf(&sb, "Earlier searches were judged insufficient. Cover these gaps:\n")
		for _, gap := range in.MissingAspects {
			fmt.Fprintf(&sb, "- %s\n", gap)
		}
	}
	fmt.Fprintf(&sb, "Produce at most %d sub-queries.", maxN)

	if err := a.acquireReasoner(ctx); err != nil {
		return PlanResult{}, err
	}
	raw, err := a.reasoner.Infer(ctx, reasoning.PromptContext{
		System:    plannerSystemPrompt,
		Prompt:    sb.String(),
		ForceJSON: true,
	})
	if err != nil {
		metrics.ProviderCalls.WithLabelValues(a.reasoner.Name(), "error").Inc()
		if errors.Is(err, reasoning.ErrInference) {
			return PlanResult{}, temporal.NewNonRetryableApplicationError(
				"planner inference failed", ErrTypeInference, err)
		}
		return PlanResult{}, fmt.Errorf("planner call: %w", err)
	}
	metrics.ProviderCalls.WithLabelValues(a.reasoner.Name(), "ok").Inc()

	texts := parsePlannerResponse(raw)
	if len(texts) == 0 && strings.TrimSpace(in.Query.Text) != "" {
		// Malformed output still leaves us a viable plan: search the
		// question as asked.
		a.logger.Warn("planner returned no usable sub-queries, falling back to raw query",
			zap.String("query_id", in.Query.ID),
			zap.Int("iteration", in.Iteration))
		texts = []string{in.Query.Text}
	}
	if len(texts) > maxN {
		texts = texts[:maxN]
	}

	subs := make([]models.SubQuery, 0, len(texts))
	for _, t := range texts {
		subs = append(subs, models.SubQuery{
			ID:        uuid.NewString(),
			Text:      t,
			Iteration: in.Iteration,
		})
	}
	if len(subs) == 0 {
		return PlanResult{}, temporal.NewNonRetryableApplicationError(
			"planner produced an empty plan", ErrTypePlanningFailure,
			fmt.Errorf("no sub-queries for query %s", in.Query.ID))
	}

	a.logger.Info("planned sub-queries",
		zap.String("query_id", in.Query.ID),
		zap.Int("iteration", in.Iteration),
		zap.Int("count", len(subs)))
	return PlanResult{SubQueries: subs}, nil
}

func parsePlannerResponse(raw string) []string {
	var parsed plannerResponse
	if err := json.Unmarshal([]byte(stripCodeFences(raw)), &parsed); err != nil {
		return nil
	}
	out := make([]string, 0, len(parsed.SubQueries))
	for _, q := range parsed.SubQueries {
		q = strings.TrimSpace(q)
		if q != "" {
			out = append(out, q)
		}
	}
	return out
}
