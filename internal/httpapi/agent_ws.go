package httpapi

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/seekerlab/seeker/internal/auth"
	"github.com/seekerlab/seeker/internal/models"
	"github.com/seekerlab/seeker/internal/workflows"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true }, // secure via proxy in prod
}

type agentRequest struct {
	Query string `json:"query"`
}

type wsError struct {
	Error string `json:"error"`
}

// handleAgentWS runs one research session over a websocket: the client
// authenticates, sends {"query": "..."}, and receives transition events
// until the terminal event carrying the report.
// GET /ws/agent?token=<jwt>
func (s *Server) handleAgentWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	// Credentials are checked before anything is scheduled: an expired
	// token aborts here with no partial run.
	raw := r.URL.Query().Get("token")
	if raw == "" {
		if h := r.Header.Get("Authorization"); h != "" {
			raw, _ = auth.ExtractBearerToken(h)
		}
	}
	user, err := s.tokens.ValidateToken(raw)
	if err != nil {
		_ = conn.WriteJSON(wsError{Error: "credential expired or invalid"})
		return
	}

	conn.SetReadLimit(4096)
	_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	var req agentRequest
	if err := conn.ReadJSON(&req); err != nil || req.Query == "" {
		_ = conn.WriteJSON(wsError{Error: "expected {\"query\": \"...\"} as the first message"})
		return
	}

	q := models.NewQuery(req.Query, user.UserID)
	runID, err := s.starter.StartResearch(r.Context(), q)
	if err != nil {
		s.logger.Error("failed to start research run", zap.Error(err))
		_ = conn.WriteJSON(wsError{Error: "failed to start research"})
		return
	}
	s.logger.Info("research run started",
		zap.String("run_id", runID),
		zap.String("user_id", user.UserID))

	ch := s.streams.Subscribe(runID, 256)
	defer s.streams.Unsubscribe(runID, ch)

	// Events published between start and subscribe come from the replay
	// buffer; the live channel continues from the last replayed seq.
	var lastSeq uint64
	for _, ev := range s.streams.ReplaySince(runID, 0) {
		if err := conn.WriteJSON(ev); err != nil {
			return
		}
		lastSeq = ev.Seq
		if isTerminal(ev.State) {
			return
		}
	}

	// Reader pump: detect client disconnect, discard further input.
	_ = conn.SetReadDeadline(time.Time{})
	clientGone := make(chan struct{})
	go func() {
		defer close(clientGone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(20 * time.Second)
	defer ping.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-clientGone:
			s.logger.Debug("websocket client disconnected", zap.String("run_id", runID))
			return
		case ev := <-ch:
			if ev.Seq <= lastSeq {
				continue
			}
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
			if isTerminal(ev.State) {
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(10*time.Second)); err != nil {
				return
			}
		}
	}
}

func isTerminal(state string) bool {
	return state == workflows.StateDone || state == workflows.StateFailed
}
