package app

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/matchpulse/match-sync/external/provider"
	"github.com/matchpulse/match-sync/internal/config"
	"github.com/matchpulse/match-sync/internal/domain/match"
	"github.com/matchpulse/match-sync/internal/infrastructure/account/sentinel"
	"github.com/matchpulse/match-sync/internal/infrastructure/repository/memory"
	"github.com/matchpulse/match-sync/internal/infrastructure/repository/postgres"
	"github.com/matchpulse/match-sync/internal/interfaces/httpapi"
	"github.com/matchpulse/match-sync/internal/platform/cache"
	"github.com/matchpulse/match-sync/internal/platform/logging"
	"github.com/matchpulse/match-sync/internal/platform/resilience"
	"github.com/matchpulse/match-sync/internal/usecase"
)

// NewHTTPServer wires the repositories, services, and HTTP layer into a
// ready-to-run server. The returned close function releases the database
// connection pool when one was opened.
func NewHTTPServer(cfg config.Config, logger *slog.Logger) (*http.Server, func() error, error) {
	closeFn := func() error { return nil }

	var repo match.Repository
	if cfg.DBURL != "" {
		db, err := openDatabase(cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("open database: %w", err)
		}
		repo = postgres.NewMatchRepository(db)
		closeFn = db.Close
		logger.Info("match store ready", "backend", "postgres")
	} else {
		repo = memory.NewMatchRepository()
		logger.Info("match store ready", "backend", "memory")
	}

	var boardCache *cache.Store
	if cfg.CacheEnabled {
		boardCache = cache.NewStore(cfg.CacheTTL)
	}

	feedClient := provider.NewClient(provider.ClientConfig{
		BaseURL:     cfg.FeedBaseURL,
		APIKey:      cfg.FeedAPIKey,
		Timeout:     cfg.FeedTimeout,
		MaxAttempts: cfg.FeedMaxAttempts,
		BackoffBase: cfg.FeedBackoffBase,
		Logger:      logging.Default(),
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.FeedCircuitEnabled,
			FailureThreshold: cfg.FeedCircuitFailureCount,
			OpenTimeout:      cfg.FeedCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.FeedCircuitHalfOpenMaxReq,
		},
	})

	syncSvc := usecase.NewSyncService(feedClient, repo, usecase.SyncConfig{
		Enabled:     cfg.SyncEnabled,
		FetchLimit:  cfg.SyncFetchLimit,
		WorkerCount: cfg.SyncWorkerCount,
	}, logging.Default())
	marketsSvc := usecase.NewMarketsService(repo, boardCache, logging.Default())

	sentinelClient := sentinel.NewClient(
		&http.Client{Timeout: cfg.SentinelTimeout},
		cfg.SentinelBaseURL,
		cfg.SentinelIntrospectPath,
		logger,
	)

	handler := httpapi.NewHandler(syncSvc, marketsSvc, logger)
	router := httpapi.NewRouter(handler, sentinelClient, logger, cfg.CORSAllowedOrigins, cfg.CronSecret)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	if server.Addr == "" {
		closeErr := closeFn()
		if closeErr != nil {
			logger.Warn("close match store", "error", closeErr)
		}
		return nil, nil, fmt.Errorf("http server addr cannot be empty")
	}

	return server, closeFn, nil
}
