// Package search defines the search-provider contract and HTTP adapters for
// the supported providers.
package search

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/seekerlab/seeker/internal/models"
)

// Provider executes one search for a sub-query and returns zero or more
// evidence items. Implementations do not retry; retry policy, if any, lives
// in provider-specific wrappers outside the orchestration core.
type Provider interface {
	// Name identifies the provider for rate gating and metrics.
	Name() string
	Search(ctx context.Context, query string) ([]models.EvidenceItem, error)
}

// ProviderError wraps any failure from a search provider. Per-call failures
// are non-fatal upstream: the fan-out join absorbs them and only counts them.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("search provider %s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// perProviderResultCap bounds evidence per call; more snippets past this
// point add tokens without adding coverage.
const perProviderResultCap = 5

// sourceFromURL derives a stable source identifier (registrable host) from a
// result URL, falling back to the raw string.
func sourceFromURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return raw
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}
