// Package cardcache keeps recently fetched card pools in Redis so repeated
// sessions on the same deck skip the card source.
package cardcache

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vytor/flashplay/internal/game"
	"github.com/vytor/flashplay/internal/logger"
	"github.com/vytor/flashplay/internal/models"
)

// ErrMiss is returned by a Store when the key is absent.
var ErrMiss = stderrors.New("cache miss")

type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// RedisStore is a Store over a go-redis client.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Connect parses a redis:// URL and pings the server.
func Connect(ctx context.Context, redisURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}
	return client, nil
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := s.client.Get(ctx, key).Bytes()
	if stderrors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	return b, err
}

func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.client.Set(ctx, key, value, ttl).Err()
}

type entry struct {
	Cards   []models.Flashcard              `json:"cards"`
	Choices map[int64][]models.ChoiceOption `json:"choices,omitempty"`
}

// CachedSource wraps a CardSource for one user. Hard-mode pools change with
// every graded card and always go to the wrapped source. Cache failures are
// logged and the wrapped source answers instead.
type CachedSource struct {
	next    game.CardSource
	store   Store
	ttl     time.Duration
	userID  string
	shuffle func(n int, swap func(i, j int))
}

func NewCachedSource(next game.CardSource, store Store, ttl time.Duration, userID string) *CachedSource {
	return &CachedSource{next: next, store: store, ttl: ttl, userID: userID, shuffle: rand.Shuffle}
}

// Key is the cache key of a pool.
func Key(userID string, deckID int64, mode game.Mode) string {
	return fmt.Sprintf("flashplay:cards:%s:%d:%s", userID, deckID, mode)
}

func (c *CachedSource) FetchCards(ctx context.Context, deckID int64, mode game.Mode, hardMode bool) (game.Pool, error) {
	if hardMode {
		return c.next.FetchCards(ctx, deckID, mode, hardMode)
	}

	log := logger.FromContext(ctx).WithPrefix("cardcache")
	key := Key(c.userID, deckID, mode)

	raw, err := c.store.Get(ctx, key)
	switch {
	case err == nil:
		var e entry
		if err := json.Unmarshal(raw, &e); err == nil {
			log.Debug("cache hit: key=%s, cards=%d", key, len(e.Cards))
			return c.reshuffle(game.Pool{Cards: e.Cards, Choices: e.Choices}), nil
		}
		log.Warn("discarding unreadable cache entry: key=%s", key)
	case stderrors.Is(err, ErrMiss):
		log.Debug("cache miss: key=%s", key)
	default:
		log.Warn("cache read failed: key=%s, error=%v", key, err)
	}

	pool, err := c.next.FetchCards(ctx, deckID, mode, hardMode)
	if err != nil || len(pool.Cards) == 0 {
		return pool, err
	}

	buf, err := json.Marshal(entry{Cards: pool.Cards, Choices: pool.Choices})
	if err == nil {
		err = c.store.Set(ctx, key, buf, c.ttl)
	}
	if err != nil {
		log.Warn("cache write failed: key=%s, error=%v", key, err)
	}
	return pool, nil
}

func (c *CachedSource) reshuffle(p game.Pool) game.Pool {
	c.shuffle(len(p.Cards), func(i, j int) { p.Cards[i], p.Cards[j] = p.Cards[j], p.Cards[i] })
	for _, opts := range p.Choices {
		c.shuffle(len(opts), func(i, j int) { opts[i], opts[j] = opts[j], opts[i] })
	}
	return p
}
