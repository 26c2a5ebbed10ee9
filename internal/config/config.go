package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr     string
	DBPath   string
	LogLevel string

	// BackendURL points at the remote flashcard backend. Empty means the
	// bundled SQLite store serves cards and scoring.
	BackendURL     string
	BackendTimeout time.Duration

	RedisURL     string
	CardCacheTTL time.Duration

	JWTSecret   string
	CORSOrigins []string

	ScoringWorkerCount int
	ScoringQueueSize   int
	SessionIdleTTL     time.Duration

	AnswerDebounce     time.Duration
	WriteAdvanceDelay  time.Duration
	ChoiceAdvanceDelay time.Duration
	MatchHitDelay      time.Duration
	MatchMissDelay     time.Duration
	AlmostThreshold    float64
	MatchPairs         int
	DefaultTimeLimit   time.Duration
	DefaultLives       int
}

// Load reads configuration from a .env file (if present) and environment variables,
// applying defaults when values are missing or invalid.
func Load() Config {
	// Ignore error so the app still starts when .env is absent in production.
	_ = godotenv.Load()

	return Config{
		Addr:               envOr("ADDR", ":8080"),
		DBPath:             envOr("DB_PATH", "file:flashplay.db"),
		LogLevel:           envOr("LOG_LEVEL", "INFO"),
		BackendURL:         strings.TrimRight(envOr("BACKEND_URL", ""), "/"),
		BackendTimeout:     envDurationOr("BACKEND_TIMEOUT", 10*time.Second),
		RedisURL:           envOr("REDIS_URL", ""),
		CardCacheTTL:       envDurationOr("CARD_CACHE_TTL", 5*time.Minute),
		JWTSecret:          envOr("JWT_SECRET", ""),
		CORSOrigins:        envListOr("CORS_ORIGINS", []string{"*"}),
		ScoringWorkerCount: envIntOr("SCORING_WORKER_COUNT", 2),
		ScoringQueueSize:   envIntOr("SCORING_QUEUE_SIZE", 256),
		SessionIdleTTL:     envDurationOr("SESSION_IDLE_TTL", 30*time.Minute),
		AnswerDebounce:     envDurationOr("ANSWER_DEBOUNCE", 400*time.Millisecond),
		WriteAdvanceDelay:  envDurationOr("WRITE_ADVANCE_DELAY", 1500*time.Millisecond),
		ChoiceAdvanceDelay: envDurationOr("CHOICE_ADVANCE_DELAY", time.Second),
		MatchHitDelay:      envDurationOr("MATCH_HIT_DELAY", 500*time.Millisecond),
		MatchMissDelay:     envDurationOr("MATCH_MISS_DELAY", time.Second),
		AlmostThreshold:    envFloatOr("ALMOST_THRESHOLD", 0.7),
		MatchPairs:         envIntOr("MATCH_PAIRS", 6),
		DefaultTimeLimit:   envDurationOr("DEFAULT_TIME_LIMIT", 60*time.Second),
		DefaultLives:       envIntOr("DEFAULT_LIVES", 3),
	}
}

// Validate checks that the configuration can run a server.
func (c Config) Validate() error {
	var problems []string

	if c.Addr == "" {
		problems = append(problems, "ADDR cannot be empty")
	}
	if c.DBPath == "" {
		problems = append(problems, "DB_PATH cannot be empty")
	}
	if c.BackendURL != "" && !strings.HasPrefix(c.BackendURL, "http://") && !strings.HasPrefix(c.BackendURL, "https://") {
		problems = append(problems, "BACKEND_URL must start with http:// or https://")
	}
	if c.ScoringWorkerCount < 1 {
		problems = append(problems, "SCORING_WORKER_COUNT must be at least 1")
	}
	if c.ScoringQueueSize < 1 {
		problems = append(problems, "SCORING_QUEUE_SIZE must be at least 1")
	}
	if c.SessionIdleTTL <= 0 {
		problems = append(problems, "SESSION_IDLE_TTL must be positive")
	}
	if c.RedisURL != "" && c.CardCacheTTL <= 0 {
		problems = append(problems, "CARD_CACHE_TTL must be positive when REDIS_URL is set")
	}
	if c.AlmostThreshold <= 0 || c.AlmostThreshold > 1 {
		problems = append(problems, "ALMOST_THRESHOLD must be in (0, 1]")
	}
	if c.MatchPairs < 1 {
		problems = append(problems, "MATCH_PAIRS must be at least 1")
	}
	if c.DefaultTimeLimit < time.Second {
		problems = append(problems, "DEFAULT_TIME_LIMIT must be at least 1s")
	}
	if c.DefaultLives < 1 {
		problems = append(problems, "DEFAULT_LIVES must be at least 1")
	}
	for name, d := range map[string]time.Duration{
		"ANSWER_DEBOUNCE":      c.AnswerDebounce,
		"WRITE_ADVANCE_DELAY":  c.WriteAdvanceDelay,
		"CHOICE_ADVANCE_DELAY": c.ChoiceAdvanceDelay,
		"MATCH_HIT_DELAY":      c.MatchHitDelay,
		"MATCH_MISS_DELAY":     c.MatchMissDelay,
	} {
		if d < 0 {
			problems = append(problems, name+" cannot be negative")
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntOr(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
		log.Printf("invalid value for %s=%q, using default %d", key, v, def)
	}
	return def
}

func envFloatOr(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
		log.Printf("invalid value for %s=%q, using default %g", key, v, def)
	}
	return def
}

func envDurationOr(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		log.Printf("invalid value for %s=%q, using default %s", key, v, def)
	}
	return def
}

func envListOr(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
