package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/vytor/flashplay/internal/errors"
	"github.com/vytor/flashplay/internal/game"
	"github.com/vytor/flashplay/internal/services"
)

type startSessionRequest struct {
	DeckID           int64          `json:"deck_id"`
	Mode             game.Mode      `json:"mode"`
	Challenge        game.Challenge `json:"challenge"`
	Direction        *string        `json:"direction"`
	HardMode         *bool          `json:"hard_mode"`
	TimeLimitSeconds *int           `json:"time_limit_seconds"`
	InitialLives     *int           `json:"initial_lives"`
}

type startSessionResponse struct {
	ID    string     `json:"id"`
	State game.State `json:"state"`
}

// inputResponse answers every player input. Accepted is false when the
// input was dropped, e.g. during feedback or after the session ended.
type inputResponse struct {
	Accepted bool           `json:"accepted"`
	Feedback *game.Feedback `json:"feedback,omitempty"`
	State    game.State     `json:"state"`
}

func (s *Server) engine(w http.ResponseWriter, r *http.Request) (*game.Engine, bool) {
	eng, err := s.Play.Engine(principal(r), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return nil, false
	}
	return eng, true
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	var req startSessionRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	if req.DeckID <= 0 {
		handleError(w, r, errors.NewValidationError("deck_id", "is required"))
		return
	}

	id, st, err := s.Play.Start(r.Context(), principal(r), services.StartRequest{
		DeckID:           req.DeckID,
		Mode:             req.Mode,
		Challenge:        req.Challenge,
		Direction:        req.Direction,
		HardMode:         req.HardMode,
		TimeLimitSeconds: req.TimeLimitSeconds,
		InitialLives:     req.InitialLives,
	})
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, startSessionResponse{ID: id, State: st})
}

func (s *Server) handleSessionState(w http.ResponseWriter, r *http.Request) {
	eng, ok := s.engine(w, r)
	if !ok {
		return
	}
	writeJSON(w, r, http.StatusOK, eng.State())
}

func (s *Server) handleStopSession(w http.ResponseWriter, r *http.Request) {
	if err := s.Play.Stop(principal(r), chi.URLParam(r, "id")); err != nil {
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAnswer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Correct *bool `json:"correct"`
	}
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	if req.Correct == nil {
		handleError(w, r, errors.NewValidationError("correct", "is required"))
		return
	}
	eng, ok := s.engine(w, r)
	if !ok {
		return
	}
	accepted := eng.SubmitAnswer(*req.Correct)
	writeJSON(w, r, http.StatusOK, inputResponse{Accepted: accepted, State: eng.State()})
}

func (s *Server) handleWrite(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	eng, ok := s.engine(w, r)
	if !ok {
		return
	}
	resp := inputResponse{}
	fb, accepted := eng.SubmitWrittenAnswer(r.Context(), req.Text)
	resp.Accepted = accepted
	if accepted {
		resp.Feedback = &fb
	}
	resp.State = eng.State()
	writeJSON(w, r, http.StatusOK, resp)
}

func (s *Server) handleChoice(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Index *int `json:"index"`
	}
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	if req.Index == nil {
		handleError(w, r, errors.NewValidationError("index", "is required"))
		return
	}
	eng, ok := s.engine(w, r)
	if !ok {
		return
	}
	accepted := eng.SelectChoice(*req.Index)
	writeJSON(w, r, http.StatusOK, inputResponse{Accepted: accepted, State: eng.State()})
}

func (s *Server) handleTile(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "index")
	index, err := strconv.Atoi(raw)
	if err != nil {
		handleError(w, r, errors.NewBadRequestError("invalid tile index: "+raw))
		return
	}
	eng, ok := s.engine(w, r)
	if !ok {
		return
	}
	accepted := eng.SelectTile(index)
	writeJSON(w, r, http.StatusOK, inputResponse{Accepted: accepted, State: eng.State()})
}

func (s *Server) handleEnd(w http.ResponseWriter, r *http.Request) {
	eng, ok := s.engine(w, r)
	if !ok {
		return
	}
	accepted := eng.EndSession()
	writeJSON(w, r, http.StatusOK, inputResponse{Accepted: accepted, State: eng.State()})
}

func (s *Server) handleRestart(w http.ResponseWriter, r *http.Request) {
	eng, ok := s.engine(w, r)
	if !ok {
		return
	}
	if err := eng.Restart(r.Context()); err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, eng.State())
}
