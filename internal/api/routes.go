package api

import (
	"net/http"
	"slices"

	"github.com/go-chi/chi/v5"
	"github.com/rs/cors"
)

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(recoveryMiddleware)
	r.Use(loggingMiddleware)
	r.Use(securityHeadersMiddleware)

	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)

	r.Route("/api", func(r chi.Router) {
		r.Use(s.authMiddleware)

		r.Get("/decks", s.handleListDecks)
		r.Post("/decks", s.handleCreateDeck)
		r.Route("/decks/{deckID}", func(r chi.Router) {
			r.Post("/cards", s.handleAddCards)
			r.Get("/stats", s.handleDeckStats)
			r.Get("/settings", s.handleGetSettings)
			r.Put("/settings", s.handleSaveSettings)
		})

		r.Post("/sessions", s.handleStartSession)
		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Get("/", s.handleSessionState)
			r.Delete("/", s.handleStopSession)
			r.Post("/answer", s.handleAnswer)
			r.Post("/write", s.handleWrite)
			r.Post("/choice", s.handleChoice)
			r.Post("/tiles/{index}", s.handleTile)
			r.Post("/end", s.handleEnd)
			r.Post("/restart", s.handleRestart)
			r.Get("/events", s.handleEvents)
		})
	})

	// Credentials are only shared with origins named in configuration.
	origins := s.CORSOrigins
	credentials := len(origins) > 0 && !slices.Contains(origins, "*")
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: credentials,
	})
	return c.Handler(r)
}
