// Package main is the entry point for the sitesmith server. It loads
// configuration, opens the backing stores, wires the site builder, and
// starts the HTTP server with graceful shutdown support.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"sitesmith/internal/ai"
	"sitesmith/internal/builder"
	"sitesmith/internal/cache"
	"sitesmith/internal/config"
	"sitesmith/internal/database"
	"sitesmith/internal/handlers"
	"sitesmith/internal/locker"
	"sitesmith/internal/middleware"
	"sitesmith/internal/publish"
	"sitesmith/internal/router"
	"sitesmith/internal/site"
	"sitesmith/internal/state"
	"sitesmith/internal/storage"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
		"state_backend", cfg.StateBackend,
	)

	// Per-user state: a single bolt file by default, Postgres when
	// configured for multi-instance deployments.
	var stateStore state.Store
	switch cfg.StateBackend {
	case "postgres":
		db, err := database.Connect(cfg.DSN())
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		if err := database.Migrate(db); err != nil {
			slog.Error("failed to run migrations", "error", err)
			os.Exit(1)
		}

		// Seed development data (no-op if data already exists).
		if cfg.IsDev() {
			if err := database.Seed(db); err != nil {
				slog.Error("failed to seed database", "error", err)
				os.Exit(1)
			}
		}
		stateStore = state.NewPostgresStore(db)
	default:
		bolt, err := state.NewBoltStore(cfg.BoltPath)
		if err != nil {
			slog.Error("failed to open state database", "error", err, "path", cfg.BoltPath)
			os.Exit(1)
		}
		defer bolt.Close()
		stateStore = bolt
	}

	// Redis is optional. With it, per-user locks hold across processes
	// and the preview cache is shared; without it both stay in-process.
	var sharedLocks locker.SharedLocker
	var previews cache.PreviewCache
	if cfg.RedisEnabled() {
		redisClient, err := cache.ConnectRedis(cfg.RedisHost, cfg.RedisPort, cfg.RedisPassword)
		if err != nil {
			slog.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		defer redisClient.Close()

		sharedLocks = locker.NewRedisLocker(redisClient, cfg.LockTTL, cfg.LockWait)
		previews = cache.NewRedisPreviewCache(redisClient, cache.DefaultPreviewTTL)
	} else {
		previews, err = cache.NewMemoryPreviewCache(0, cache.DefaultPreviewTTL)
		if err != nil {
			slog.Error("failed to initialize preview cache", "error", err)
			os.Exit(1)
		}
		slog.Info("redis not configured, using in-process locks and preview cache")
	}

	locks := locker.NewManager(cfg.LockWait, sharedLocks)

	sitesRoot := filepath.Join(cfg.DataDir, "sites")
	siteStore, err := site.NewStore(sitesRoot)
	if err != nil {
		slog.Error("failed to initialize site store", "error", err)
		os.Exit(1)
	}

	// AI provider registry with all configured providers.
	aiRegistry := ai.NewRegistry(cfg.AIProvider, map[string]ai.ProviderConfig{
		"openai":  {APIKey: cfg.OpenAIKey, Model: cfg.OpenAIModel, BaseURL: cfg.OpenAIBaseURL},
		"gemini":  {APIKey: cfg.GeminiKey, Model: cfg.GeminiModel, BaseURL: cfg.GeminiBaseURL},
		"claude":  {APIKey: cfg.ClaudeKey, Model: cfg.ClaudeModel, BaseURL: cfg.ClaudeBaseURL},
		"mistral": {APIKey: cfg.MistralKey, Model: cfg.MistralModel, BaseURL: cfg.MistralBaseURL},
	})

	slog.Info("ai providers initialized",
		"active", aiRegistry.ActiveName(),
		"available", aiRegistry.Available(),
	)

	siteBuilder := builder.New(stateStore, siteStore, aiRegistry, locks, cfg.GenTimeout)

	// S3-compatible export mirror (optional).
	exports, err := storage.New(cfg.S3Endpoint, cfg.S3Region, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3Bucket)
	if err != nil {
		slog.Error("failed to initialize s3 exports", "error", err)
		os.Exit(1)
	}
	if exports == nil {
		slog.Warn("s3 storage not configured, exports stream directly")
	}

	// Git publishing (optional). The remote URL may embed credentials,
	// so only the branch is logged.
	var publisher publish.Publisher = publish.Noop{}
	if cfg.PublishRemote != "" {
		publisher = publish.NewGit(sitesRoot, cfg.PublishRemote, cfg.PublishBranch)
		slog.Info("git publishing enabled", "branch", cfg.PublishBranch)
	}

	apiHandlers := handlers.NewAPI(siteBuilder, siteStore, previews, exports, publisher, cfg.MaxUploadMB)

	limiter := middleware.NewRateLimiter(120, time.Minute)
	defer limiter.Stop()

	r := router.New(apiHandlers, limiter, cfg.APITokenHash)

	// WriteTimeout must accommodate generation calls that wait on LLM
	// responses, and image batches where vision calls run four at a time.
	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	// Start the server in a goroutine so we can listen for shutdown signals.
	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown: wait for SIGINT or SIGTERM, then drain connections.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig)

	// Give active requests up to 30 seconds to complete.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped gracefully")
}
