package api

import (
	"net/http"

	"github.com/vytor/flashplay/internal/errors"
	"github.com/vytor/flashplay/internal/models"
	"github.com/vytor/flashplay/internal/services"
)

type createDeckRequest struct {
	Title string `json:"title"`
}

type addCardsRequest struct {
	Cards []services.CardInput `json:"cards"`
}

type settingsRequest struct {
	Direction        string `json:"direction"`
	HardMode         bool   `json:"hard_mode"`
	TimeLimitSeconds int    `json:"time_limit_seconds"`
	InitialLives     int    `json:"initial_lives"`
}

func (s *Server) handleListDecks(w http.ResponseWriter, r *http.Request) {
	decks, err := s.Decks.ListDecks(r.Context(), principal(r).UserID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	if decks == nil {
		decks = []models.Deck{}
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"decks": decks})
}

func (s *Server) handleCreateDeck(w http.ResponseWriter, r *http.Request) {
	var req createDeckRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	deck, err := s.Decks.CreateDeck(r.Context(), principal(r).UserID, req.Title)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, deck)
}

func (s *Server) handleAddCards(w http.ResponseWriter, r *http.Request) {
	deckID, err := int64Param(r, "deckID")
	if err != nil {
		handleError(w, r, err)
		return
	}
	var req addCardsRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	cards, err := s.Decks.AddCards(r.Context(), principal(r).UserID, deckID, req.Cards)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, map[string]any{"cards": cards})
}

func (s *Server) handleDeckStats(w http.ResponseWriter, r *http.Request) {
	deckID, err := int64Param(r, "deckID")
	if err != nil {
		handleError(w, r, err)
		return
	}
	st, err := s.Decks.DeckStats(r.Context(), principal(r).UserID, deckID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, st)
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	deckID, err := int64Param(r, "deckID")
	if err != nil {
		handleError(w, r, err)
		return
	}
	ds, err := s.Decks.GetSettings(r.Context(), principal(r).UserID, deckID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, ds)
}

func (s *Server) handleSaveSettings(w http.ResponseWriter, r *http.Request) {
	deckID, err := int64Param(r, "deckID")
	if err != nil {
		handleError(w, r, err)
		return
	}
	var req settingsRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	if req.Direction == "" {
		handleError(w, r, errors.NewValidationError("direction", "is required"))
		return
	}
	ds, err := s.Decks.SaveSettings(r.Context(), models.DeckSettings{
		DeckID:           deckID,
		UserID:           principal(r).UserID,
		Direction:        req.Direction,
		HardMode:         req.HardMode,
		TimeLimitSeconds: req.TimeLimitSeconds,
		InitialLives:     req.InitialLives,
	})
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, ds)
}
