package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vytor/flashplay/internal/api"
	"github.com/vytor/flashplay/internal/auth"
	"github.com/vytor/flashplay/internal/backend"
	"github.com/vytor/flashplay/internal/cardcache"
	"github.com/vytor/flashplay/internal/config"
	"github.com/vytor/flashplay/internal/db"
	"github.com/vytor/flashplay/internal/game"
	"github.com/vytor/flashplay/internal/logger"
	"github.com/vytor/flashplay/internal/repository/sqlite"
	"github.com/vytor/flashplay/internal/services"
	"github.com/vytor/flashplay/internal/session"
	"github.com/vytor/flashplay/internal/worker"
)

func main() {
	cfg := config.Load()

	log := logger.New(
		logger.WithLevel(logger.ParseLevel(cfg.LogLevel)),
		logger.WithColors(true),
	)
	logger.SetDefault(log)

	log.Info("===========================================")
	log.Info("FlashPlay Server Starting")
	log.Info("===========================================")
	if err := cfg.Validate(); err != nil {
		log.Error("%v", err)
		os.Exit(1)
	}
	log.Info("configuration loaded")
	log.Debug("addr=%s", cfg.Addr)
	log.Debug("db_path=%s", cfg.DBPath)
	log.Debug("log_level=%s", cfg.LogLevel)
	log.Debug("backend_url=%s", cfg.BackendURL)
	log.Debug("card_cache=%v, ttl=%s", cfg.RedisURL != "", cfg.CardCacheTTL)
	log.Debug("auth_enabled=%v", cfg.JWTSecret != "")
	log.Debug("scoring_worker_count=%d", cfg.ScoringWorkerCount)
	log.Debug("scoring_queue_size=%d", cfg.ScoringQueueSize)
	log.Debug("session_idle_ttl=%s", cfg.SessionIdleTTL)

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		log.Error("failed to open database: %v", err)
		os.Exit(1)
	}
	defer func() {
		log.Debug("closing database connection")
		database.Close()
	}()

	deckRepo := sqlite.NewDeckRepository(database.DB)
	cards := sqlite.NewCardRepository(database.DB)
	decks := services.NewDeckService(
		deckRepo,
		cards,
		sqlite.NewStatsRepository(database.DB),
		sqlite.NewSettingsRepository(database.DB),
		services.SettingsDefaults{TimeLimit: cfg.DefaultTimeLimit, InitialLives: cfg.DefaultLives},
	)

	var provider services.Provider = &services.LocalProvider{
		Decks:        deckRepo,
		Cards:        cards,
		Sessions:     sqlite.NewSessionRepository(database.DB),
		Achievements: sqlite.NewAchievementRepository(database.DB),
	}
	if cfg.BackendURL != "" {
		log.Info("using flashcard backend at %s", cfg.BackendURL)
		provider = backend.New(cfg.BackendURL, cfg.BackendTimeout)
	} else {
		log.Info("using local SQLite collaborators")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var decorate services.SourceDecorator
	if cfg.RedisURL != "" {
		client, err := cardcache.Connect(ctx, cfg.RedisURL)
		if err != nil {
			log.Error("failed to connect to Redis: %v", err)
			os.Exit(1)
		}
		defer client.Close()
		store := cardcache.NewRedisStore(client)
		decorate = func(src game.CardSource, p auth.Principal) game.CardSource {
			return cardcache.NewCachedSource(src, store, cfg.CardCacheTTL, p.UserID)
		}
		log.Info("card cache enabled")
	}

	scoringPool := worker.NewPool(cfg.ScoringWorkerCount, cfg.ScoringQueueSize)
	scoringPool.Start(ctx)

	registry := session.NewRegistry[*game.Engine](cfg.SessionIdleTTL)
	go registry.Run(ctx, sweepInterval(cfg.SessionIdleTTL))

	play := services.NewPlayService(provider, decks, registry, services.PlayOptions{
		Tuning: game.Tuning{
			AnswerDebounce:     cfg.AnswerDebounce,
			WriteAdvanceDelay:  cfg.WriteAdvanceDelay,
			ChoiceAdvanceDelay: cfg.ChoiceAdvanceDelay,
			MatchHitDelay:      cfg.MatchHitDelay,
			MatchMissDelay:     cfg.MatchMissDelay,
			AlmostThreshold:    cfg.AlmostThreshold,
			MatchPairs:         cfg.MatchPairs,
		},
		Dispatcher: scoringPool,
		Decorate:   decorate,
	})

	srv := &api.Server{
		DB:          database,
		Decks:       decks,
		Play:        play,
		Scoring:     scoringPool,
		CORSOrigins: cfg.CORSOrigins,
	}
	if cfg.JWTSecret != "" {
		srv.Auth = auth.NewJWTAuth(cfg.JWTSecret)
	}

	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      srv.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("HTTP server listening on %s", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error: %v", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	sig := <-stop

	log.Info("received signal %v, initiating graceful shutdown", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	log.Debug("shutting down HTTP server")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error: %v", err)
	}

	log.Debug("closing live sessions")
	registry.CloseAll()

	log.Debug("stopping scoring pool")
	scoringPool.Stop()
	cancel()

	log.Info("===========================================")
	log.Info("FlashPlay Server Stopped")
	log.Info("===========================================")
}

func sweepInterval(ttl time.Duration) time.Duration {
	if d := ttl / 4; d > 0 && d < time.Minute {
		return d
	}
	return time.Minute
}
