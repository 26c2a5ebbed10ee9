package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/vytor/flashplay/internal/game"
	"github.com/vytor/flashplay/internal/logger"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// handleEvents streams a state snapshot on connect and after every change.
// Slow readers only ever see the newest snapshot. An open stream counts as
// activity, so a watched session is not swept as idle.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	eng, ok := s.engine(w, r)
	if !ok {
		return
	}
	p, id := principal(r), chi.URLParam(r, "id")
	log := logger.FromContext(r.Context()).WithPrefix("events")

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn("websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	updates := make(chan game.State, 1)
	push := func(st game.State) {
		for {
			select {
			case updates <- st:
				return
			default:
			}
			select {
			case <-updates:
			default:
			}
		}
	}
	cancel := eng.Subscribe(push)
	defer cancel()
	push(eng.State())

	done := make(chan struct{})
	go func() {
		defer close(done)
		conn.SetReadLimit(512)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	log.Debug("event stream opened")
	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()
	for {
		select {
		case <-done:
			log.Debug("event stream closed by client")
			return
		case st := <-updates:
			_ = s.Play.Touch(p, id)
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(st); err != nil {
				log.Debug("event stream write failed: %v", err)
				return
			}
		case <-ping.C:
			if err := s.Play.Touch(p, id); err != nil {
				log.Debug("session gone, closing event stream: %v", err)
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
