package activities

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/seekerlab/seeker/internal/metrics"
	"github.com/seekerlab/seeker/internal/models"
	"github.com/seekerlab/seeker/internal/providers/search"
)

// ExecuteSearch runs one sub-query against the configured search provider.
// The rate gate serializes calls per provider before the request goes out,
// and the provider circuit breaker absorbs sustained provider outages.
// Failures here are absorbed at the fan-out join, never fatal to the run.
func (a *Activities) ExecuteSearch(ctx context.Context, in SearchInput) (SearchResult, error) {
	started := time.Now()
	provider := a.searcher.Name()
	defer func() {
		metrics.StageDuration.WithLabelValues("searching").Observe(time.Since(started).Seconds())
	}()

	if a.gate != nil {
		if err := a.gate.Acquire(ctx, provider); err != nil {
			metrics.SearchCalls.WithLabelValues(provider, "gate_abort").Inc()
			return SearchResult{}, fmt.Errorf("rate gate wait for %s: %w", provider, err)
		}
	}

	var items []models.EvidenceItem
	run := func() error {
		found, err := a.searcher.Search(ctx, in.SubQuery.Text)
		if err != nil {
			return err
		}
		items = found
		return nil
	}

	var err error
	if a.breaker != nil {
		err = a.breaker.Execute(ctx, run)
	} else {
		err = run()
	}
	if err != nil {
		metrics.SearchCalls.WithLabelValues(provider, "error").Inc()
		metrics.FanOutFailures.Inc()
		a.logger.Warn("search call failed",
			zap.String("provider", provider),
			zap.String("sub_query_id", in.SubQuery.ID),
			zap.Error(err))
		return SearchResult{}, &search.ProviderError{Provider: provider, Err: err}
	}

	for i := range items {
		items[i].SubQueryID = in.SubQuery.ID
	}
	metrics.SearchCalls.WithLabelValues(provider, "ok").Inc()
	metrics.EvidenceGathered.Add(float64(len(items)))

	a.logger.Debug("search completed",
		zap.String("provider", provider),
		zap.String("sub_query_id", in.SubQuery.ID),
		zap.Int("results", len(items)))
	return SearchResult{Items: items, Provider: provider}, nil
}
