package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/seekerlab/seeker/internal/auth"
	"github.com/seekerlab/seeker/internal/models"
	"github.com/seekerlab/seeker/internal/streaming"
	"github.com/seekerlab/seeker/internal/workflows"
)

// fakeStarter publishes a canned event sequence as if a run executed.
type fakeStarter struct {
	streams *streaming.Manager
	runID   string
	fail    bool
}

func (f *fakeStarter) StartResearch(_ context.Context, q models.Query) (string, error) {
	if f.fail {
		return "", context.DeadlineExceeded
	}
	go func() {
		states := []string{
			workflows.StatePlanning, workflows.StateSearching,
			workflows.StateEvaluating, workflows.StateSummarizing,
		}
		for _, st := range states {
			f.streams.Publish(f.runID, streaming.Event{
				RunID: f.runID, State: st, Timestamp: time.Now().UTC(),
			})
		}
		f.streams.Publish(f.runID, streaming.Event{
			RunID: f.runID, State: workflows.StateDone,
			Message: "research complete", Report: "## Findings",
			Timestamp: time.Now().UTC(),
		})
	}()
	return f.runID, nil
}

func newTestServer(t *testing.T, starter RunStarter, streams *streaming.Manager, tokens *auth.JWTManager) *httptest.Server {
	t.Helper()
	srv := NewServer(starter, nil, tokens, nil, streams, zaptest.NewLogger(t))
	mux := http.NewServeMux()
	srv.RegisterRoutes(mux)
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t, &fakeStarter{}, streaming.NewManager(64), auth.NewJWTManager("k", time.Hour))

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestSessionsRequireAuth(t *testing.T) {
	ts := newTestServer(t, &fakeStarter{}, streaming.NewManager(64), auth.NewJWTManager("k", time.Hour))

	resp, err := http.Get(ts.URL + "/api/sessions")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAgentWSStreamsRunToCompletion(t *testing.T) {
	streams := streaming.NewManager(64)
	tokens := auth.NewJWTManager("test-key", time.Hour)
	starter := &fakeStarter{streams: streams, runID: "run-ws-1"}
	ts := newTestServer(t, starter, streams, tokens)

	token, err := tokens.GenerateToken("user-1", "a@b.test")
	require.NoError(t, err)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/agent?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(map[string]string{"query": "how does raft work"}))

	var states []string
	var final streaming.Event
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		var ev streaming.Event
		if err := conn.ReadJSON(&ev); err != nil {
			break
		}
		states = append(states, ev.State)
		if ev.State == workflows.StateDone {
			final = ev
			break
		}
	}

	assert.Equal(t, []string{
		workflows.StatePlanning, workflows.StateSearching,
		workflows.StateEvaluating, workflows.StateSummarizing,
		workflows.StateDone,
	}, states)
	assert.Equal(t, "## Findings", final.Report)
}

func TestAgentWSRejectsExpiredToken(t *testing.T) {
	streams := streaming.NewManager(64)
	tokens := auth.NewJWTManager("test-key", time.Hour)
	starter := &fakeStarter{streams: streams, runID: "run-ws-2"}
	ts := newTestServer(t, starter, streams, tokens)

	expired := auth.NewJWTManager("other-key", time.Hour)
	token, err := expired.GenerateToken("user-1", "a@b.test")
	require.NoError(t, err)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/agent?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	var msg map[string]string
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Contains(t, msg["error"], "credential expired")
}

func TestAgentWSRequiresQuery(t *testing.T) {
	streams := streaming.NewManager(64)
	tokens := auth.NewJWTManager("test-key", time.Hour)
	ts := newTestServer(t, &fakeStarter{streams: streams, runID: "r"}, streams, tokens)

	token, err := tokens.GenerateToken("user-1", "a@b.test")
	require.NoError(t, err)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/agent?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(map[string]string{"notquery": "x"}))

	var msg map[string]string
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Contains(t, msg["error"], "query")
}
