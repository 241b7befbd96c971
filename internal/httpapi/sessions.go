package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/seekerlab/seeker/internal/auth"
	"github.com/seekerlab/seeker/internal/db"
)

// handleSessions lists the caller's archived research sessions.
// GET /api/sessions
func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	if s.sessions == nil {
		writeError(w, http.StatusNotFound, "session persistence disabled")
		return
	}
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	user, _ := auth.UserFromContext(r.Context())
	list, err := s.sessions.List(r.Context(), user.UserID, 50)
	if err != nil {
		s.logger.Error("session list failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list sessions")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"sessions": list})
}

// handleSessionByID fetches or deletes one archived session.
// GET|DELETE /api/sessions/{run_id}
func (s *Server) handleSessionByID(w http.ResponseWriter, r *http.Request) {
	if s.sessions == nil {
		writeError(w, http.StatusNotFound, "session persistence disabled")
		return
	}
	runID := strings.TrimPrefix(r.URL.Path, "/api/sessions/")
	if runID == "" || strings.Contains(runID, "/") {
		writeError(w, http.StatusBadRequest, "invalid session id")
		return
	}
	user, _ := auth.UserFromContext(r.Context())

	switch r.Method {
	case http.MethodGet:
		session, err := s.sessions.Get(r.Context(), user.UserID, runID)
		if errors.Is(err, db.ErrSessionNotFound) {
			writeError(w, http.StatusNotFound, "session not found")
			return
		}
		if err != nil {
			s.logger.Error("session get failed", zap.String("run_id", runID), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to load session")
			return
		}
		writeJSON(w, http.StatusOK, session)
	case http.MethodDelete:
		err := s.sessions.Delete(r.Context(), user.UserID, runID)
		if errors.Is(err, db.ErrSessionNotFound) {
			writeError(w, http.StatusNotFound, "session not found")
			return
		}
		if err != nil {
			s.logger.Error("session delete failed", zap.String("run_id", runID), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to delete session")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}
