package search

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTavilySearchMapsResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)

		var req tavilyRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "go concurrency patterns", req.Query)
		assert.Equal(t, "test-key", req.APIKey)
		assert.Equal(t, "basic", req.SearchDepth)

		_ = json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]string{
				{"title": "Go blog", "url": "https://go.dev/blog/pipelines", "content": "Pipelines and cancellation."},
				{"title": "Empty", "url": "https://example.com/empty", "content": "  "},
				{"title": "Wiki", "url": "https://www.wikipedia.org/wiki/Go", "content": "Go is a language."},
			},
		})
	}))
	defer srv.Close()

	p := NewTavilyWithClient("test-key", "", srv.URL, srv.Client())
	items, err := p.Search(context.Background(), "go concurrency patterns")
	require.NoError(t, err)
	require.Len(t, items, 2, "blank excerpts are dropped")

	assert.Equal(t, "go.dev", items[0].Source)
	assert.Equal(t, "https://go.dev/blog/pipelines", items[0].URL)
	assert.Equal(t, "Pipelines and cancellation.", items[0].Excerpt)
	assert.NotEmpty(t, items[0].ID)
	assert.Equal(t, "wikipedia.org", items[1].Source, "www prefix stripped from source id")
}

func TestTavilySearchHTTPErrorIsProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	p := NewTavilyWithClient("test-key", "", srv.URL, srv.Client())
	_, err := p.Search(context.Background(), "anything")
	require.Error(t, err)

	var perr *ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "tavily", perr.Provider)
}

func TestTavilyMissingAPIKey(t *testing.T) {
	p := NewTavily("", "basic")
	_, err := p.Search(context.Background(), "anything")
	var perr *ProviderError
	require.ErrorAs(t, err, &perr)
}

func TestBraveSearchMapsResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("X-Subscription-Token"))
		assert.Equal(t, "research agents", r.URL.Query().Get("q"))

		_ = json.NewEncoder(w).Encode(map[string]any{
			"web": map[string]any{
				"results": []map[string]string{
					{"title": "Paper", "url": "https://arxiv.org/abs/1234", "description": "Agents survey."},
				},
			},
		})
	}))
	defer srv.Close()

	p := NewBraveWithClient("test-key", srv.URL, srv.Client())
	items, err := p.Search(context.Background(), "research agents")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "arxiv.org", items[0].Source)
	assert.Equal(t, "Agents survey.", items[0].Excerpt)
}

func TestBraveSearchServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream broken", http.StatusBadGateway)
	}))
	defer srv.Close()

	p := NewBraveWithClient("test-key", srv.URL, srv.Client())
	_, err := p.Search(context.Background(), "anything")
	var perr *ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "brave", perr.Provider)
}
