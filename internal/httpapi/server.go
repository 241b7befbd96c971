package httpapi

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/seekerlab/seeker/internal/auth"
	"github.com/seekerlab/seeker/internal/db"
	"github.com/seekerlab/seeker/internal/models"
	"github.com/seekerlab/seeker/internal/streaming"
)

// RunStarter launches a research run and returns its run id. The Temporal
// client satisfies this in production; tests plug in a stub.
type RunStarter interface {
	StartResearch(ctx context.Context, q models.Query) (string, error)
}

// Server exposes the HTTP surface: auth, archived sessions, and the
// research websocket/SSE streams.
type Server struct {
	starter  RunStarter
	authSvc  *auth.Service
	tokens   *auth.JWTManager
	sessions *db.SessionStore
	streams  *streaming.Manager
	logger   *zap.Logger
}

// NewServer wires the HTTP handlers. sessions may be nil when persistence
// is disabled; the session routes then return 404.
func NewServer(
	starter RunStarter,
	authSvc *auth.Service,
	tokens *auth.JWTManager,
	sessions *db.SessionStore,
	streams *streaming.Manager,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		starter:  starter,
		authSvc:  authSvc,
		tokens:   tokens,
		sessions: sessions,
		streams:  streams,
		logger:   logger,
	}
}

// RegisterRoutes registers all routes on the provided mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.HandleFunc("/auth/signup", s.handleSignup)
	mux.HandleFunc("/auth/signin", s.handleSignin)
	mux.HandleFunc("/ws/agent", s.handleAgentWS)
	mux.HandleFunc("/stream/sse", s.handleSSE)

	authed := auth.Middleware(s.tokens, s.logger)
	mux.Handle("/api/sessions", authed(http.HandlerFunc(s.handleSessions)))
	mux.Handle("/api/sessions/", authed(http.HandlerFunc(s.handleSessionByID)))
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
