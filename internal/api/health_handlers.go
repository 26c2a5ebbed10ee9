package api

import (
	"net/http"

	"github.com/vytor/flashplay/internal/logger"
)

// handleHealth is the liveness probe.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

type readyResponse struct {
	Status       string `json:"status"`
	LiveSessions int    `json:"live_sessions"`
	ScoringQueue int    `json:"scoring_queue"`
}

// handleReady checks the local store before reporting ready, along with
// the live session count and the scoring backlog.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.DB != nil {
		if err := s.DB.PingContext(r.Context()); err != nil {
			logger.FromContext(r.Context()).Warn("readiness check failed - database: %v", err)
			writeJSON(w, r, http.StatusServiceUnavailable, map[string]string{"status": "database unavailable"})
			return
		}
	}
	resp := readyResponse{Status: "ready"}
	if s.Play != nil {
		resp.LiveSessions = s.Play.LiveSessions()
	}
	if s.Scoring != nil {
		resp.ScoringQueue = s.Scoring.QueueSize()
	}
	writeJSON(w, r, http.StatusOK, resp)
}
