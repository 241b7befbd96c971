package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/seekerlab/seeker/internal/models"
)

const tavilyEndpoint = "https://api.tavily.com/search"

// Tavily calls the Tavily search API.
type Tavily struct {
	apiKey   string
	depth    string // basic or advanced
	endpoint string
	client   *http.Client
}

// NewTavily constructs a Tavily provider.
func NewTavily(apiKey, depth string) *Tavily {
	if depth == "" {
		depth = "basic"
	}
	return &Tavily{
		apiKey:   apiKey,
		depth:    depth,
		endpoint: tavilyEndpoint,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

// NewTavilyWithClient constructs a Tavily provider with a custom endpoint and
// HTTP client. Used by tests.
func NewTavilyWithClient(apiKey, depth, endpoint string, client *http.Client) *Tavily {
	t := NewTavily(apiKey, depth)
	if endpoint != "" {
		t.endpoint = endpoint
	}
	if client != nil {
		t.client = client
	}
	return t
}

func (t *Tavily) Name() string { return "tavily" }

type tavilyRequest struct {
	Query       string `json:"query"`
	APIKey      string `json:"api_key"`
	SearchDepth string `json:"search_depth"`
}

type tavilyResponse struct {
	Results []struct {
		Title   string `json:"title"`
		URL     string `json:"url"`
		Content string `json:"content"`
	} `json:"results"`
}

// Search posts a query to Tavily and maps results to evidence items.
func (t *Tavily) Search(ctx context.Context, query string) ([]models.EvidenceItem, error) {
	if strings.TrimSpace(t.apiKey) == "" {
		return nil, &ProviderError{Provider: t.Name(), Err: errors.New("API key is missing")}
	}

	payload, err := json.Marshal(tavilyRequest{Query: query, APIKey: t.apiKey, SearchDepth: t.depth})
	if err != nil {
		return nil, &ProviderError{Provider: t.Name(), Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, &ProviderError{Provider: t.Name(), Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, &ProviderError{Provider: t.Name(), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &ProviderError{Provider: t.Name(), Err: fmt.Errorf("http %d", resp.StatusCode)}
	}

	var body tavilyResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, &ProviderError{Provider: t.Name(), Err: fmt.Errorf("decode response: %w", err)}
	}

	items := make([]models.EvidenceItem, 0, len(body.Results))
	for _, r := range body.Results {
		if strings.TrimSpace(r.Content) == "" {
			continue
		}
		items = append(items, models.EvidenceItem{
			ID:      uuid.New().String(),
			Source:  sourceFromURL(r.URL),
			URL:     r.URL,
			Excerpt: r.Content,
		})
		if len(items) >= perProviderResultCap {
			break
		}
	}
	return items, nil
}
