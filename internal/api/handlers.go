package api

import (
	"github.com/vytor/flashplay/internal/auth"
	"github.com/vytor/flashplay/internal/db"
	"github.com/vytor/flashplay/internal/services"
)

// QueueReporter reports how many background jobs are waiting for a worker.
type QueueReporter interface {
	QueueSize() int
}

type Server struct {
	DB          *db.DB
	Decks       services.DeckService
	Play        *services.PlayService
	Scoring     QueueReporter // optional, reported by /ready
	Auth        *auth.JWTAuth // nil disables authentication
	CORSOrigins []string
}
