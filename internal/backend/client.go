package backend

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/vytor/flashplay/internal/auth"
	"github.com/vytor/flashplay/internal/errors"
	"github.com/vytor/flashplay/internal/game"
	"github.com/vytor/flashplay/internal/logger"
	"github.com/vytor/flashplay/internal/models"
	"github.com/vytor/flashplay/internal/services"
)

// Client talks to the flashcard backend over its JSON API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// StatusError is a non-2xx backend response.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend status %d: %s", e.Status, e.Body)
}

// UserClient acts on behalf of one caller, forwarding their bearer token.
// It implements both game.CardSource and game.ScoringService.
type UserClient struct {
	c     *Client
	token string
}

func (c *Client) ForUser(p auth.Principal) services.Collaborators {
	uc := &UserClient{c: c, token: p.Token}
	return services.Collaborators{Source: uc, Scoring: uc}
}

type cardsResp struct {
	Cards   []models.Flashcard              `json:"cards"`
	Choices map[int64][]models.ChoiceOption `json:"choices,omitempty"`
}

func (u *UserClient) FetchCards(ctx context.Context, deckID int64, mode game.Mode, hardMode bool) (game.Pool, error) {
	q := url.Values{}
	q.Set("mode", mode.String())
	q.Set("hard", strconv.FormatBool(hardMode))

	var out cardsResp
	err := u.do(ctx, http.MethodGet, fmt.Sprintf("/decks/%d/cards?%s", deckID, q.Encode()), nil, &out)
	if err != nil {
		var se *StatusError
		if stderrors.As(err, &se) && se.Status == http.StatusNotFound {
			return game.Pool{}, errors.NewNotFoundError("deck", deckID)
		}
		return game.Pool{}, err
	}
	return game.Pool{Cards: out.Cards, Choices: out.Choices}, nil
}

func (u *UserClient) ValidateWrittenAnswer(ctx context.Context, cardID int64, userText, correctText string) (game.Validation, error) {
	in := map[string]string{"user_answer": userText, "correct_answer": correctText}
	var out game.Validation
	err := u.do(ctx, http.MethodPost, fmt.Sprintf("/cards/%d/validate", cardID), in, &out)
	return out, err
}

func (u *UserClient) RecordCardOutcome(ctx context.Context, cardID int64, correct bool) error {
	in := map[string]bool{"correct": correct}
	return u.do(ctx, http.MethodPost, fmt.Sprintf("/cards/%d/outcome", cardID), in, nil)
}

func (u *UserClient) RecordSessionSummary(ctx context.Context, report game.SessionReport) error {
	return u.do(ctx, http.MethodPost, "/sessions", report, nil)
}

func (u *UserClient) EvaluateAchievements(ctx context.Context, q game.AchievementQuery) ([]models.Achievement, error) {
	var out struct {
		Achievements []models.Achievement `json:"achievements"`
	}
	if err := u.do(ctx, http.MethodPost, "/achievements/evaluate", q, &out); err != nil {
		return nil, err
	}
	if out.Achievements == nil {
		out.Achievements = []models.Achievement{}
	}
	return out.Achievements, nil
}

func (u *UserClient) do(ctx context.Context, method, path string, in, out any) error {
	log := logger.FromContext(ctx).WithPrefix("backend").WithField("path", path)
	start := time.Now()

	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.c.baseURL+path, body)
	if err != nil {
		log.Error("failed to create request: %v", err)
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if u.token != "" {
		req.Header.Set("Authorization", "Bearer "+u.token)
	}

	resp, err := u.c.httpClient.Do(req)
	if err != nil {
		log.Warn("request failed: %v", err)
		return err
	}
	defer resp.Body.Close()

	log.Debug("%s response received in %v, status=%d", method, time.Since(start), resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		log.Warn("request failed: status=%d, body=%s", resp.StatusCode, string(raw))
		return &StatusError{Status: resp.StatusCode, Body: string(raw)}
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		log.Error("failed to decode response: %v", err)
		return err
	}
	return nil
}

var (
	_ game.CardSource     = (*UserClient)(nil)
	_ game.ScoringService = (*UserClient)(nil)
	_ services.Provider   = (*Client)(nil)
)
