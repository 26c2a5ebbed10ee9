package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"github.com/vytor/flashplay/internal/api"
	"github.com/vytor/flashplay/internal/auth"
	"github.com/vytor/flashplay/internal/game"
	"github.com/vytor/flashplay/internal/repository/sqlite"
	"github.com/vytor/flashplay/internal/services"
	"github.com/vytor/flashplay/internal/session"
	"github.com/vytor/flashplay/internal/testutil"
	"github.com/vytor/flashplay/internal/worker"
)

type APISuite struct {
	suite.Suite
	srv   *httptest.Server
	clock *testutil.FakeClock
	queue *worker.Pool
	jwt   *auth.JWTAuth
	token string
}

func (s *APISuite) setup(withAuth bool) {
	conn := testutil.NewTestDB(s.T())
	deckRepo := sqlite.NewDeckRepository(conn.DB)
	cards := sqlite.NewCardRepository(conn.DB)
	decks := services.NewDeckService(
		deckRepo, cards,
		sqlite.NewStatsRepository(conn.DB), sqlite.NewSettingsRepository(conn.DB),
		services.SettingsDefaults{},
	)
	provider := &services.LocalProvider{
		Decks:        deckRepo,
		Cards:        cards,
		Sessions:     sqlite.NewSessionRepository(conn.DB),
		Achievements: sqlite.NewAchievementRepository(conn.DB),
	}
	registry := session.NewRegistry[*game.Engine](time.Hour)
	s.T().Cleanup(registry.CloseAll)
	s.clock = testutil.NewFakeClock()
	s.queue = worker.NewPool(1, 4)

	server := &api.Server{
		DB:      conn,
		Decks:   decks,
		Scoring: s.queue,
		Play: services.NewPlayService(provider, decks, registry, services.PlayOptions{
			Tuning:     game.DefaultTuning(),
			Dispatcher: &testutil.InlineDispatcher{},
			Clock:      s.clock,
		}),
	}
	if withAuth {
		s.jwt = auth.NewJWTAuth("test-secret")
		server.Auth = s.jwt
		token, err := s.jwt.GenerateToken("u1", time.Hour)
		s.Require().NoError(err)
		s.token = token
	}
	s.srv = httptest.NewServer(server.Routes())
	s.T().Cleanup(s.srv.Close)
}

func (s *APISuite) SetupTest() {
	s.token = ""
	s.setup(false)
}

func (s *APISuite) do(method, path string, body any, out any) int {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, s.srv.URL+path, &buf)
	s.Require().NoError(err)
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	resp, err := http.DefaultClient.Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()
	if out != nil && resp.StatusCode != http.StatusNoContent {
		s.Require().NoError(json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

type apiError struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type inputResult struct {
	Accepted bool           `json:"accepted"`
	Feedback map[string]any `json:"feedback"`
	State    map[string]any `json:"state"`
}

func (s *APISuite) createDeck(cards ...string) int64 {
	var deck struct {
		ID int64 `json:"id"`
	}
	s.Require().Equal(http.StatusCreated, s.do(http.MethodPost, "/api/decks", map[string]string{"title": "Animals"}, &deck))
	if len(cards) > 0 {
		var in []services.CardInput
		for i := 0; i+1 < len(cards); i += 2 {
			in = append(in, services.CardInput{FrontText: cards[i], BackText: cards[i+1]})
		}
		s.Require().Equal(http.StatusCreated, s.do(http.MethodPost, fmt.Sprintf("/api/decks/%d/cards", deck.ID), map[string]any{"cards": in}, nil))
	}
	return deck.ID
}

func (s *APISuite) startSession(body map[string]any) (string, map[string]any) {
	var out struct {
		ID    string         `json:"id"`
		State map[string]any `json:"state"`
	}
	s.Require().Equal(http.StatusCreated, s.do(http.MethodPost, "/api/sessions", body, &out))
	return out.ID, out.State
}

type idleJob struct{}

func (idleJob) Name() string              { return "idle" }
func (idleJob) Run(context.Context) error { return nil }

func (s *APISuite) TestHealth() {
	var out map[string]string
	s.Assert().Equal(http.StatusOK, s.do(http.MethodGet, "/health", nil, &out))
	s.Assert().Equal("ok", out["status"])

	var ready map[string]any
	s.Require().Equal(http.StatusOK, s.do(http.MethodGet, "/ready", nil, &ready))
	s.Assert().Equal("ready", ready["status"])
	s.Assert().Equal(float64(0), ready["live_sessions"])
	s.Assert().Equal(float64(0), ready["scoring_queue"])

	s.startSession(map[string]any{"deck_id": s.createDeck("cat", "kedi")})
	s.Require().NoError(s.queue.Submit(idleJob{}))

	s.Require().Equal(http.StatusOK, s.do(http.MethodGet, "/ready", nil, &ready))
	s.Assert().Equal(float64(1), ready["live_sessions"])
	s.Assert().Equal(float64(1), ready["scoring_queue"])
}

func (s *APISuite) TestStandardSessionOverHTTP() {
	deckID := s.createDeck("cat", "kedi", "dog", "köpek", "bird", "kuş")

	id, st := s.startSession(map[string]any{"deck_id": deckID, "mode": "standard"})
	s.Assert().Equal("playing", st["phase"])
	s.Assert().Equal(float64(3), st["total"])

	for i := 0; i < 3; i++ {
		var res inputResult
		s.Require().Equal(http.StatusOK, s.do(http.MethodPost, "/api/sessions/"+id+"/answer", map[string]bool{"correct": i != 1}, &res))
		s.Assert().True(res.Accepted)
		s.clock.Advance(time.Second)
	}

	var st2 map[string]any
	s.Require().Equal(http.StatusOK, s.do(http.MethodGet, "/api/sessions/"+id, nil, &st2))
	s.Assert().Equal("summary", st2["phase"])
	summary := st2["summary"].(map[string]any)
	s.Assert().Equal(float64(67), summary["accuracy"])
	s.Assert().Equal("completed", summary["reason"])

	var res inputResult
	s.Require().Equal(http.StatusOK, s.do(http.MethodPost, "/api/sessions/"+id+"/answer", map[string]bool{"correct": true}, &res))
	s.Assert().False(res.Accepted)

	var stats map[string]any
	s.Require().Equal(http.StatusOK, s.do(http.MethodGet, fmt.Sprintf("/api/decks/%d/stats", deckID), nil, &stats))
	s.Assert().Equal(float64(1), stats["sessions"])
	s.Assert().Equal(float64(3), stats["total_cards"])

	s.Assert().Equal(http.StatusNoContent, s.do(http.MethodDelete, "/api/sessions/"+id, nil, nil))
	var e apiError
	s.Assert().Equal(http.StatusNotFound, s.do(http.MethodGet, "/api/sessions/"+id, nil, &e))
	s.Assert().Equal("NOT_FOUND", e.Error.Code)
}

func (s *APISuite) TestWriteChoiceAndMatchInputs() {
	deckID := s.createDeck("cat", "kedi", "dog", "köpek", "bird", "kuş", "fish", "balık")

	id, _ := s.startSession(map[string]any{"deck_id": deckID, "mode": "write", "direction": "reverse"})
	var res inputResult
	s.Require().Equal(http.StatusOK, s.do(http.MethodPost, "/api/sessions/"+id+"/write", map[string]string{"text": "   "}, &res))
	s.Assert().False(res.Accepted)
	s.Require().Equal(http.StatusOK, s.do(http.MethodPost, "/api/sessions/"+id+"/write", map[string]string{"text": "nope"}, &res))
	s.Assert().True(res.Accepted)
	s.Assert().Equal("wrong", res.Feedback["outcome"])

	id, st := s.startSession(map[string]any{"deck_id": deckID, "mode": "multiple_choice"})
	s.Assert().Len(st["options"], 4)
	s.Require().Equal(http.StatusOK, s.do(http.MethodPost, "/api/sessions/"+id+"/choice", map[string]int{"index": 9}, &res))
	s.Assert().False(res.Accepted)
	s.Require().Equal(http.StatusOK, s.do(http.MethodPost, "/api/sessions/"+id+"/choice", map[string]int{"index": 0}, &res))
	s.Assert().True(res.Accepted)
	s.Assert().NotNil(res.State["feedback"])

	id, st = s.startSession(map[string]any{"deck_id": deckID, "mode": "match", "challenge": "timed"})
	s.Assert().Len(st["tiles"], 8)
	s.Require().Equal(http.StatusOK, s.do(http.MethodPost, "/api/sessions/"+id+"/tiles/0", nil, &res))
	s.Assert().True(res.Accepted)
	s.Require().Equal(http.StatusOK, s.do(http.MethodPost, "/api/sessions/"+id+"/tiles/0", nil, &res))
	s.Assert().False(res.Accepted)

	var e apiError
	s.Assert().Equal(http.StatusBadRequest, s.do(http.MethodPost, "/api/sessions/"+id+"/tiles/x", nil, &e))
	s.Assert().Equal("BAD_REQUEST", e.Error.Code)

	s.Require().Equal(http.StatusOK, s.do(http.MethodPost, "/api/sessions/"+id+"/end", nil, &res))
	s.Assert().True(res.Accepted)
	s.Assert().Equal("summary", res.State["phase"])
	s.Require().Equal(http.StatusOK, s.do(http.MethodPost, "/api/sessions/"+id+"/end", nil, &res))
	s.Assert().False(res.Accepted)

	var restarted map[string]any
	s.Require().Equal(http.StatusOK, s.do(http.MethodPost, "/api/sessions/"+id+"/restart", nil, &restarted))
	s.Assert().Equal("playing", restarted["phase"])
	s.Assert().Equal("timed", restarted["challenge"])
}

func (s *APISuite) TestStartErrors() {
	deckID := s.createDeck("cat", "kedi")
	emptyDeck := s.createDeck()

	cases := []struct {
		name   string
		body   map[string]any
		status int
		code   string
	}{
		{"unknown mode", map[string]any{"deck_id": deckID, "mode": "poker"}, http.StatusBadRequest, "BAD_REQUEST"},
		{"missing deck", map[string]any{"mode": "standard"}, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"survival match", map[string]any{"deck_id": deckID, "mode": "match", "challenge": "survival"}, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"empty deck", map[string]any{"deck_id": emptyDeck, "mode": "standard"}, http.StatusUnprocessableEntity, "EMPTY_DECK"},
		{"unknown deck", map[string]any{"deck_id": 999, "mode": "standard"}, http.StatusNotFound, "NOT_FOUND"},
		{"bad lives", map[string]any{"deck_id": deckID, "challenge": "survival", "initial_lives": 0}, http.StatusBadRequest, "VALIDATION_ERROR"},
	}
	for _, tc := range cases {
		var e apiError
		s.Assert().Equal(tc.status, s.do(http.MethodPost, "/api/sessions", tc.body, &e), tc.name)
		s.Assert().Equal(tc.code, e.Error.Code, tc.name)
	}
}

func (s *APISuite) TestSettingsRoundTrip() {
	deckID := s.createDeck("cat", "kedi")
	path := fmt.Sprintf("/api/decks/%d/settings", deckID)

	var ds map[string]any
	s.Require().Equal(http.StatusOK, s.do(http.MethodGet, path, nil, &ds))
	s.Assert().Equal("normal", ds["direction"])
	s.Assert().Equal(float64(60), ds["time_limit_seconds"])

	s.Require().Equal(http.StatusOK, s.do(http.MethodPut, path, map[string]any{
		"direction": "reverse", "hard_mode": false, "time_limit_seconds": 45, "initial_lives": 2,
	}, &ds))
	s.Assert().Equal("reverse", ds["direction"])

	_, st := s.startSession(map[string]any{"deck_id": deckID, "challenge": "survival"})
	s.Assert().Equal("reverse", st["direction"])
	s.Assert().Equal(float64(2), st["lives_remaining"])

	var e apiError
	s.Assert().Equal(http.StatusBadRequest, s.do(http.MethodPut, path, map[string]any{
		"direction": "normal", "time_limit_seconds": 1, "initial_lives": 2,
	}, &e))
	s.Assert().Equal("VALIDATION_ERROR", e.Error.Code)
}

func (s *APISuite) TestAuthRequiredAndScoped() {
	s.setup(true)
	deckID := s.createDeck("cat", "kedi")
	id, _ := s.startSession(map[string]any{"deck_id": deckID})

	s.token = ""
	var e apiError
	s.Assert().Equal(http.StatusUnauthorized, s.do(http.MethodGet, "/api/decks", nil, &e))
	s.Assert().Equal("UNAUTHORIZED", e.Error.Code)

	s.token = "garbage"
	s.Assert().Equal(http.StatusUnauthorized, s.do(http.MethodGet, "/api/decks", nil, &e))

	other, err := s.jwt.GenerateToken("u2", time.Hour)
	s.Require().NoError(err)
	s.token = other
	s.Assert().Equal(http.StatusNotFound, s.do(http.MethodGet, "/api/sessions/"+id, nil, &e))
	s.Assert().Equal(http.StatusNotFound, s.do(http.MethodPost, "/api/sessions", map[string]any{"deck_id": deckID}, &e))
	s.Assert().Equal("NOT_FOUND", e.Error.Code)

	var decks struct {
		Decks []map[string]any `json:"decks"`
	}
	s.Require().Equal(http.StatusOK, s.do(http.MethodGet, "/api/decks", nil, &decks))
	s.Assert().Empty(decks.Decks)
}

func (s *APISuite) TestEventStream() {
	deckID := s.createDeck("cat", "kedi", "dog", "köpek")
	id, _ := s.startSession(map[string]any{"deck_id": deckID})

	url := "ws" + strings.TrimPrefix(s.srv.URL, "http") + "/api/sessions/" + id + "/events"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	s.Require().NoError(err)
	defer conn.Close()
	s.Require().NoError(conn.SetReadDeadline(time.Now().Add(5 * time.Second)))

	var first map[string]any
	s.Require().NoError(conn.ReadJSON(&first))
	s.Assert().Equal(float64(0), first["index"])

	var res inputResult
	s.Require().Equal(http.StatusOK, s.do(http.MethodPost, "/api/sessions/"+id+"/answer", map[string]bool{"correct": true}, &res))
	s.Require().True(res.Accepted)

	var next map[string]any
	s.Require().NoError(conn.ReadJSON(&next))
	s.Assert().Equal(float64(1), next["index"])
	s.Assert().Equal(float64(1), next["correct"])
}

func (s *APISuite) TestQueryTokenOnlyOnEventStream() {
	s.setup(true)
	id, _ := s.startSession(map[string]any{"deck_id": s.createDeck("cat", "kedi")})
	token := s.token
	s.token = ""

	var e apiError
	s.Assert().Equal(http.StatusUnauthorized, s.do(http.MethodGet, "/api/decks?token="+token, nil, &e))
	s.Assert().Equal(http.StatusUnauthorized, s.do(http.MethodGet, "/api/sessions/"+id+"?token="+token, nil, &e))

	url := "ws" + strings.TrimPrefix(s.srv.URL, "http") + "/api/sessions/" + id + "/events?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	s.Require().NoError(err)
	defer conn.Close()
	s.Require().NoError(conn.SetReadDeadline(time.Now().Add(5 * time.Second)))

	var first map[string]any
	s.Require().NoError(conn.ReadJSON(&first))
	s.Assert().Equal("playing", first["phase"])
}

func (s *APISuite) TestEventStreamUnknownSession() {
	url := "ws" + strings.TrimPrefix(s.srv.URL, "http") + "/api/sessions/nope/events"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	s.Require().Error(err)
	s.Require().NotNil(resp)
	s.Assert().Equal(http.StatusNotFound, resp.StatusCode)
}

func TestAPISuite(t *testing.T) {
	suite.Run(t, new(APISuite))
}

func TestCORSCredentialsNeedExplicitOrigins(t *testing.T) {
	request := func(srv *api.Server, origin string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("Origin", origin)
		rec := httptest.NewRecorder()
		srv.Routes().ServeHTTP(rec, req)
		return rec
	}

	open := request(&api.Server{}, "https://evil.example")
	assert.NotEmpty(t, open.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, open.Header().Get("Access-Control-Allow-Credentials"))

	wildcard := request(&api.Server{CORSOrigins: []string{"*"}}, "https://evil.example")
	assert.Empty(t, wildcard.Header().Get("Access-Control-Allow-Credentials"))

	named := &api.Server{CORSOrigins: []string{"https://app.example"}}
	allowed := request(named, "https://app.example")
	assert.Equal(t, "https://app.example", allowed.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", allowed.Header().Get("Access-Control-Allow-Credentials"))

	denied := request(named, "https://evil.example")
	assert.Empty(t, denied.Header().Get("Access-Control-Allow-Origin"))
}
