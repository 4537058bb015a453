// Command phoneauth runs the phone-number account and session service.
//
// Configuration is read from an optional YAML file, a .env file, the
// environment and flags; see internal/config. Run with -help for flags.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/MrEthical07/phoneauth"
	"github.com/MrEthical07/phoneauth/internal/config"
	"github.com/MrEthical07/phoneauth/internal/httpapi"
	"github.com/MrEthical07/phoneauth/internal/logging"
	"github.com/MrEthical07/phoneauth/metrics/export/prometheus"
	"github.com/MrEthical07/phoneauth/users"
	"github.com/redis/go-redis/v9"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "phoneauth: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := config.Load(args)
	if err != nil {
		return err
	}

	logger := logging.New(os.Stdout, cfg.Log.Format, cfg.Log.Level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	engineCfg, err := cfg.Engine()
	if err != nil {
		return fmt.Errorf("auth config: %w", err)
	}

	rdb := redis.NewClient(cfg.RedisOptions())
	defer func() { _ = rdb.Close() }()

	db, err := users.Open(ctx, cfg.PostgresDSN())
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	if cfg.Postgres.Migrate {
		if err := users.Migrate(ctx, db); err != nil {
			return err
		}
		logger.Info(ctx, "migrations applied")
	}

	engine, err := phoneauth.New().
		WithConfig(engineCfg).
		WithRedis(rdb).
		WithUserStore(users.NewPostgresRepository(db)).
		WithLogger(logger.Slog()).
		Build()
	if err != nil {
		return fmt.Errorf("build engine: %w", err)
	}
	defer engine.Close()

	if err := engine.Ping(ctx); err != nil {
		return fmt.Errorf("redis: %w", err)
	}

	deps := httpapi.Deps{
		Engine:      engine,
		Database:    db,
		Logger:      logger,
		CORSOrigins: cfg.HTTP.CORSOrigins,
	}
	if cfg.Metrics.Enabled {
		deps.Metrics = prometheus.NewPrometheusExporter(engine).Handler()
	}

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      httpapi.NewRouter(deps),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info(ctx, "listening", "addr", srv.Addr, "debug", cfg.HTTP.Debug)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info(context.Background(), "shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
