package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/valpere/skycast/internal/api"
	"github.com/valpere/skycast/internal/config"
	"github.com/valpere/skycast/internal/database"
	"github.com/valpere/skycast/internal/services"
	"github.com/valpere/skycast/internal/store"
	"github.com/valpere/skycast/internal/version"
	"github.com/valpere/skycast/pkg/metrics"
)

func main() {
	// Command-line flags
	versionFlag := flag.Bool("version", false, "Print version information and exit")
	flag.Parse()

	// Handle version flag
	if *versionFlag {
		info := version.GetInfo()
		fmt.Println(info.String())
		os.Exit(0)
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := setupLogger(&cfg.Logging)
	logger.Info().Str("version", version.Version).Msg("Starting SkyCast")

	// Create application context
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rdb, err := database.ConnectRedis(&cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to Redis")
	}

	st, err := buildStore(cfg, rdb)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize storage backend")
	}
	logger.Info().Str("backend", cfg.Storage.Backend).Msg("Storage backend ready")

	m := metrics.New()
	svcs := services.New(ctx, cfg, st, rdb, &logger, m)

	server := api.NewServer(&cfg.Server, svcs, &logger, m)

	// Background favorite refresh
	go svcs.StartRefresh(ctx)

	// Start HTTP server in goroutine
	go func() {
		if err := server.Start(); err != nil {
			logger.Fatal().Err(err).Msg("Failed to start HTTP server")
		}
	}()

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info().Msg("Shutting down SkyCast...")
	cancel()
	svcs.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Error during shutdown")
	}

	logger.Info().Msg("SkyCast stopped gracefully")
}

func setupLogger(cfg *config.LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		level = zerolog.InfoLevel
	}

	var logger zerolog.Logger
	if cfg.Format == "console" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level)
	} else {
		logger = zerolog.New(os.Stderr).Level(level)
	}
	return logger.With().Timestamp().Logger()
}

// buildStore selects the persistence backend for the saved-location
// registry and search history. Redis is shared with the weather cache;
// postgres gets its own connection.
func buildStore(cfg *config.Config, rdb *redis.Client) (store.Store, error) {
	switch cfg.Storage.Backend {
	case "memory":
		return store.NewMemoryStore(), nil
	case "redis":
		return store.NewRedisStore(rdb), nil
	case "postgres":
		db, err := database.Connect(&cfg.Database)
		if err != nil {
			return nil, err
		}
		return store.NewGormStore(db)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}
