package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"martcli/internal/auth"
	"martcli/internal/cache"
	"martcli/internal/catalog"
	"martcli/internal/config"
	"martcli/internal/console"
	"martcli/internal/export"
	"martcli/internal/ledger"
	"martcli/internal/logger"
	"martcli/internal/store"
	"martcli/internal/store/csvfile"
	pgstore "martcli/internal/store/postgres"
)

func main() {
	// A missing .env is fine; the environment and defaults still apply.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}
	if err := validateSessionConfig(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.NewZapLogger(logger.ZapLoggerConfig{
		Level:       cfg.LogLevel,
		Encoding:    cfg.LogEncoding,
		OutputPaths: cfg.LogOutputs(),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, os.Stdin, os.Stdout, log); err != nil {
		log.Error("martcli stopped", zap.Error(err))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// run wires storage, cache and components for cfg and drives the console on
// in and out until the user exits.
func run(ctx context.Context, cfg config.Config, in io.Reader, out io.Writer, log *zap.Logger) error {
	log = logger.OrNop(log)

	setupCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var repo store.Repository
	closers := make([]func() error, 0, 2)
	defer func() {
		for _, closeFn := range closers {
			if err := closeFn(); err != nil {
				log.Warn("close error", zap.Error(err))
			}
		}
	}()

	if cfg.DatabaseURL != "" {
		pg, err := pgstore.New(setupCtx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("postgres unavailable and DATABASE_URL is set: %w", err)
		}
		repo = pg
		closers = append(closers, pg.Close)
		log.Info("repository: postgres")
	} else {
		files, err := csvfile.New(cfg.DataDir)
		if err != nil {
			return err
		}
		repo = files
		log.Info("repository: csv files", zap.String("dir", cfg.DataDir))
	}

	reportCache := cache.ReportCache(cache.NoopReportCache{})
	if cfg.RedisAddr != "" {
		redisCache, err := cache.NewRedisReportCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return err
		}
		if err := redisCache.Ping(setupCtx); err != nil {
			log.Warn("redis unavailable, using noop cache", zap.Error(err))
			_ = redisCache.Close()
		} else {
			reportCache = redisCache
			closers = append(closers, redisCache.Close)
			log.Info("cache: redis")
		}
	} else {
		log.Info("cache: noop")
	}

	authenticator, err := auth.NewAuthenticator(repo, repo, cfg.SessionSecret,
		time.Duration(cfg.SessionTTLMinutes)*time.Minute, log)
	if err != nil {
		return err
	}

	app := console.New(in, out, console.Deps{
		Auth:      authenticator,
		Catalog:   catalog.New(repo, log),
		Ledger:    ledger.New(repo, reportCache, time.Duration(cfg.ReportCacheTTLSeconds)*time.Second, log),
		Purchases: repo,
		Exporter:  export.NewExporter(cfg.ExportDir, log),
		Log:       log,
	})
	return app.Run(ctx)
}

// validateSessionConfig accepts an empty secret, which gets a random
// per-process key, or one of at least 32 characters.
func validateSessionConfig(cfg config.Config) error {
	if cfg.SessionSecret != "" && len(cfg.SessionSecret) < 32 {
		return fmt.Errorf("SESSION_SECRET must be empty or at least 32 characters")
	}
	if cfg.SessionTTLMinutes <= 0 {
		return fmt.Errorf("SESSION_TTL_MINUTES must be positive")
	}
	return nil
}
