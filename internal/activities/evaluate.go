package activities

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.temporal.io/sdk/temporal"
	"go.uber.org/zap"

	"github.com/seekerlab/seeker/internal/metrics"
	"github.com/seekerlab/seeker/internal/models"
	"github.com/seekerlab/seeker/internal/providers/reasoning"
)

const evaluatorSystemPrompt = `You are a research evaluator. Judge whether the collected evidence is sufficient to answer the question thoroughly.
Respond with JSON only: {"sufficient": true|false, "rationale": "...", "missing_aspects": ["..."]}.
List missing_aspects only when sufficient is false.`

// Excerpts longer than this are truncated in the evaluator prompt to keep
// context size bounded.
const evaluatorExcerptLimit = 600

type evaluatorResponse struct {
	Sufficient     *bool    `json:"sufficient"`
	Rationale      string   `json:"rationale"`
	MissingAspects []string `json:"missing_aspects"`
}

// EvaluateEvidence asks the reasoning model whether the accumulated evidence
// answers the original query. An unparseable or ambiguous response is
// treated as insufficient so the loop keeps working rather than shipping a
// report on unvetted data.
func (a *Activities) EvaluateEvidence(ctx context.Context, in EvaluateInput) (EvaluateResult, error) {
	started := time.Now()
	defer func() {
		metrics.StageDuration.WithLabelValues("evaluating").Observe(time.Since(started).Seconds())
	}()

	if err := a.acquireReasoner(ctx); err != nil {
		return EvaluateResult{}, err
	}
	raw, err := a.reasoner.Infer(ctx, reasoning.PromptContext{
		System:    evaluatorSystemPrompt,
		Prompt:    buildEvaluatorPrompt(in.Query.Text, in.Evidence),
		ForceJSON: true,
	})
	if err != nil {
		metrics.ProviderCalls.WithLabelValues(a.reasoner.Name(), "error").Inc()
		if errors.Is(err, reasoning.ErrInference) {
			return EvaluateResult{}, temporal.NewNonRetryableApplicationError(
				"evaluator inference failed", ErrTypeInference, err)
		}
		return EvaluateResult{}, fmt.Errorf("evaluator call: %w", err)
	}
	metrics.ProviderCalls.WithLabelValues(a.reasoner.Name(), "ok").Inc()

	verdict := parseEvaluatorResponse(raw)
	a.logger.Info("evidence evaluated",
		zap.String("query_id", in.Query.ID),
		zap.Int("iteration", in.Iteration),
		zap.Bool("sufficient", verdict.Sufficient),
		zap.Int("missing_aspects", len(verdict.MissingAspects)))
	return EvaluateResult{Verdict: verdict}, nil
}

func buildEvaluatorPrompt(query string, evidence []models.EvidenceItem) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Question: %s\n\nEvidence collected so far (%d items):\n", query, len(evidence))
	for i, item := range evidence {
		fmt.Fprintf(&sb, "%d. [%s] %s\n", i+1, item.Source, truncateExcerpt(item.Excerpt, evaluatorExcerptLimit))
	}
	if len(evidence) == 0 {
		sb.WriteString("(none)\n")
	}
	return sb.String()
}

// truncateExcerpt caps an excerpt at limit bytes without cutting through a
// multi-byte rune.
func truncateExcerpt(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

// parseEvaluatorResponse maps the raw model output onto a verdict. Anything
// short of an explicit "sufficient": true reads as insufficient.
func parseEvaluatorResponse(raw string) models.EvaluationVerdict {
	var parsed evaluatorResponse
	if err := json.Unmarshal([]byte(stripCodeFences(raw)), &parsed); err != nil || parsed.Sufficient == nil {
		return models.EvaluationVerdict{
			Sufficient: false,
			Rationale:  "evaluator response was not interpretable",
		}
	}
	verdict := models.EvaluationVerdict{
		Sufficient: *parsed.Sufficient,
		Rationale:  strings.TrimSpace(parsed.Rationale),
	}
	if !verdict.Sufficient {
		for _, gap := range parsed.MissingAspects {
			gap = strings.TrimSpace(gap)
			if gap != "" {
				verdict.MissingAspects = append(verdict.MissingAspects, gap)
			}
		}
	}
	return verdict
}
