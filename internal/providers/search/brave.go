package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/seekerlab/seeker/internal/models"
)

const braveEndpoint = "https://api.search.brave.com/res/v1/web/search"

// Brave calls the Brave Search API. The key is sent via X-Subscription-Token.
type Brave struct {
	apiKey   string
	endpoint string
	client   *http.Client
}

// NewBrave constructs a Brave provider.
func NewBrave(apiKey string) *Brave {
	return &Brave{
		apiKey:   apiKey,
		endpoint: braveEndpoint,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

// NewBraveWithClient constructs a Brave provider with a custom endpoint and
// HTTP client. Used by tests.
func NewBraveWithClient(apiKey, endpoint string, client *http.Client) *Brave {
	b := NewBrave(apiKey)
	if endpoint != "" {
		b.endpoint = endpoint
	}
	if client != nil {
		b.client = client
	}
	return b
}

func (b *Brave) Name() string { return "brave" }

type braveResponse struct {
	Web struct {
		Results []struct {
			Title       string `json:"title"`
			URL         string `json:"url"`
			Description string `json:"description"`
		} `json:"results"`
	} `json:"web"`
}

// Search issues a GET to the Brave web-search endpoint.
func (b *Brave) Search(ctx context.Context, query string) ([]models.EvidenceItem, error) {
	if strings.TrimSpace(b.apiKey) == "" {
		return nil, &ProviderError{Provider: b.Name(), Err: errors.New("API key is missing")}
	}

	u := b.endpoint + "?q=" + url.QueryEscape(query)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, &ProviderError{Provider: b.Name(), Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Subscription-Token", b.apiKey)

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, &ProviderError{Provider: b.Name(), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &ProviderError{Provider: b.Name(), Err: fmt.Errorf("http %d", resp.StatusCode)}
	}

	var body braveResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, &ProviderError{Provider: b.Name(), Err: fmt.Errorf("decode response: %w", err)}
	}

	items := make([]models.EvidenceItem, 0, len(body.Web.Results))
	for _, r := range body.Web.Results {
		if strings.TrimSpace(r.Description) == "" {
			continue
		}
		items = append(items, models.EvidenceItem{
			ID:      uuid.New().String(),
			Source:  sourceFromURL(r.URL),
			URL:     r.URL,
			Excerpt: r.Description,
		})
		if len(items) >= perProviderResultCap {
			break
		}
	}
	return items, nil
}
