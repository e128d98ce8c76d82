// Package main is the entry point for the video catalog server.
// It loads configuration, connects the selected catalog backend and the
// optional snapshot mirror, sets up routing, and starts the HTTP server
// with graceful shutdown support.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"vidcatalog/internal/cache"
	"vidcatalog/internal/config"
	"vidcatalog/internal/database"
	"vidcatalog/internal/handlers"
	"vidcatalog/internal/middleware"
	"vidcatalog/internal/router"
	"vidcatalog/internal/snapshot"
	"vidcatalog/internal/store"
)

func main() {
	// Structured logger for the whole process.
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	// Load configuration from environment variables.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
		"backend", cfg.Backend,
		"cache_ttl", cfg.CacheTTL.String(),
	)

	ctx := context.Background()

	// Select the authoritative catalog backend.
	var catalog store.Catalog
	switch cfg.Backend {
	case config.BackendPostgres:
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
		catalog = store.NewPostgres(db)

	case config.BackendDynamo:
		catalog, err = store.NewDynamo(ctx, cfg.DynamoRegion, cfg.DynamoTable, cfg.DynamoEndpoint)
		if err != nil {
			slog.Error("failed to initialize dynamodb catalog", "error", err)
			os.Exit(1)
		}
		slog.Info("dynamodb catalog connected", "table", cfg.DynamoTable, "region", cfg.DynamoRegion)

	case config.BackendS3:
		catalog, err = store.NewS3(cfg.S3Endpoint, cfg.S3Region, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3Bucket, cfg.S3Key)
		if err != nil {
			slog.Error("failed to initialize s3 catalog", "error", err)
			os.Exit(1)
		}
		slog.Info("s3 catalog connected", "bucket", cfg.S3Bucket, "key", cfg.S3Key)

	default:
		slog.Warn("using in-memory catalog — data will not survive restarts")
		catalog = store.NewMemory()
	}

	// Seed from a snapshot file when the store has never been populated.
	if cfg.SnapshotFile != "" {
		if err := seedFromSnapshot(ctx, catalog, cfg.SnapshotFile); err != nil {
			slog.Error("failed to seed catalog from snapshot", "file", cfg.SnapshotFile, "error", err)
			os.Exit(1)
		}
	}

	// Connect the optional Valkey mirror: the last successfully loaded
	// collection survives restarts, so a fresh process can still serve
	// the catalog while the store is down.
	var mirror *cache.Mirror
	if cfg.MirrorEnabled() {
		valkeyClient, err := cache.ConnectValkey(cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword)
		if err != nil {
			slog.Error("failed to connect to valkey", "error", err)
			os.Exit(1)
		}
		defer valkeyClient.Close()
		mirror = cache.NewMirror(valkeyClient)
	} else {
		slog.Warn("valkey mirror not configured — last-known fallback limited to process lifetime")
	}

	// The read-through cache fronts every handler.
	catalogCache := cache.NewCatalogCache(catalog, mirror, cfg.CacheTTL)

	// Rate limiter for the mutating routes.
	var writeLimiter *middleware.RateLimiter
	if cfg.WriteRateLimit > 0 {
		writeLimiter = middleware.NewRateLimiter(cfg.WriteRateLimit, time.Minute)
		defer writeLimiter.Stop()
	}

	videoHandlers := handlers.NewVideos(catalogCache)
	r := router.New(videoHandlers, writeLimiter)

	// Create the HTTP server with sensible timeouts.
	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
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
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped gracefully")
}

// seedFromSnapshot imports a snapshot file into the store if the store
// has never been populated. An existing dataset is left alone: the
// authoritative copy always wins over a seed file.
func seedFromSnapshot(ctx context.Context, catalog store.Catalog, path string) error {
	existing, err := catalog.ListAll(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		slog.Info("catalog already populated, skipping snapshot seed", "videos", len(existing))
		return nil
	}

	videos, err := snapshot.ReadFile(path)
	if err != nil {
		return err
	}
	if err := snapshot.Import(ctx, catalog, videos); err != nil {
		return err
	}

	slog.Info("catalog seeded from snapshot", "file", path, "videos", len(videos))
	return nil
}
