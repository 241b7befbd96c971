package activities

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.uber.org/zap"

	"github.com/seekerlab/seeker/internal/metrics"
	"github.com/seekerlab/seeker/internal/models"
	"github.com/seekerlab/seeker/internal/providers/reasoning"
)

const summarizerSystemPrompt = `You are a research writer. Compose a structured markdown report answering the question from the evidence provided.
Cite sources inline as [n] matching the numbered evidence list. Do not invent facts beyond the evidence.`

// SynthesizeReport produces the terminal report from whatever evidence the
// run accumulated. A run with zero evidence skips the model entirely and
// returns an explicit empty-handed report rather than failing.
func (a *Activities) SynthesizeReport(ctx context.Context, in SynthesizeInput) (SynthesizeResult, error) {
	started := time.Now()
	defer func() {
		metrics.StageDuration.WithLabelValues("summarizing").Observe(time.Since(started).Seconds())
	}()

	if len(in.Evidence) == 0 {
		a.logger.Warn("synthesizing with no evidence",
			zap.String("query_id", in.Query.ID),
			zap.Int("failed_searches", in.FailedSearches))
		return SynthesizeResult{Report: emptyEvidenceReport(in.Query)}, nil
	}

	if err := a.acquireReasoner(ctx); err != nil {
		return SynthesizeResult{}, err
	}
	body, err := a.reasoner.Infer(ctx, reasoning.PromptContext{
		System: summarizerSystemPrompt,
		Prompt: buildSummarizerPrompt(in.Query.Text, in.Evidence, in.Forced),
	})
	if err != nil {
		metrics.ProviderCalls.WithLabelValues(a.reasoner.Name(), "error").Inc()
		if errors.Is(err, reasoning.ErrInference) {
			return SynthesizeResult{}, temporal.NewNonRetryableApplicationError(
				"summarizer inference failed", ErrTypeInference, err)
		}
		return SynthesizeResult{}, fmt.Errorf("summarizer call: %w", err)
	}
	metrics.ProviderCalls.WithLabelValues(a.reasoner.Name(), "ok").Inc()

	report := BuildReport(in.Query, strings.TrimSpace(body), in.Evidence, in.Forced)
	a.logger.Info("report synthesized",
		zap.String("query_id", in.Query.ID),
		zap.String("confidence", string(report.Confidence)),
		zap.Int("citations", len(report.Citations)),
		zap.Bool("incomplete", report.Incomplete))
	return SynthesizeResult{Report: report}, nil
}

func buildSummarizerPrompt(query string, evidence []models.EvidenceItem, forced bool) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Question: %s\n\nEvidence:\n", query)
	for i, item := range evidence {
		fmt.Fprintf(&sb, "%d. %s (%s)\n%s\n\n", i+1, item.Source, item.URL, item.Excerpt)
	}
	if forced {
		sb.WriteString("The research budget was exhausted before the evidence was judged complete. " +
			"Answer as far as the evidence allows and state what remains uncertain.\n")
	}
	return sb.String()
}

// BuildReport assembles the terminal report around a synthesized body:
// citation list from distinct sources, confidence label, incompleteness flag.
func BuildReport(q models.Query, body string, evidence []models.EvidenceItem, forced bool) models.Report {
	sources := models.DistinctSources(evidence)
	return models.Report{
		Body:        body,
		Confidence:  DeriveConfidence(len(sources), forced),
		Citations:   sources,
		Incomplete:  forced,
		GeneratedAt: time.Now().UTC(),
	}
}

// DeriveConfidence maps source diversity and loop outcome onto the report
// confidence label. High requires multi-source corroboration and a clean
// (unforced) exit; a forced exit with corroborated evidence caps at medium;
// single-source or empty evidence is always low.
func DeriveConfidence(distinctSources int, forced bool) models.Confidence {
	switch {
	case distinctSources < 2:
		return models.ConfidenceLow
	case forced:
		return models.ConfidenceMedium
	default:
		return models.ConfidenceHigh
	}
}

func emptyEvidenceReport(q models.Query) models.Report {
	body := fmt.Sprintf("## %s\n\nNo supporting information could be gathered for this question. "+
		"All search attempts returned no usable results.", q.Text)
	return models.Report{
		Body:        body,
		Confidence:  models.ConfidenceLow,
		Citations:   nil,
		Incomplete:  true,
		GeneratedAt: time.Now().UTC(),
	}
}
