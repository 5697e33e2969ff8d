package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"

	"github.com/Erradzan/Bank-Root/internal/api"
	"github.com/Erradzan/Bank-Root/internal/events"
	"github.com/Erradzan/Bank-Root/internal/events/kafka"
	"github.com/Erradzan/Bank-Root/internal/infra/logging"
	"github.com/Erradzan/Bank-Root/internal/infra/pgutils"
	accountsvc "github.com/Erradzan/Bank-Root/internal/services/accounts"
	txsvc "github.com/Erradzan/Bank-Root/internal/services/transactions"
	"github.com/Erradzan/Bank-Root/pkg/envconf"
	"github.com/Erradzan/Bank-Root/pkg/shutdownqueue"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := run(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error running api: %v", err)
		//nolint:gocritic
		os.Exit(1)
	}
}

func run(ctx context.Context) (retErr error) {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := new(apiConfig)

	err := envconf.Load(cfg)
	if err != nil {
		return fmt.Errorf("init config: %w", err)
	}

	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}

	logging.SetupJSON(cfg.LogLevel)

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		serr := shutdownqueue.Shutdown(shutdownCtx)
		if serr != nil {
			retErr = errors.Join(retErr, serr)
		}
	}()

	// --- Infra ---
	dbConns, err := pgutils.OpenDB(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}

	var rdb *redis.Client

	if cfg.Redis.Addr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})

		_, err = rdb.Ping(ctx).Result()
		if err != nil {
			return fmt.Errorf("ping redis: %w", err)
		}

		shutdownqueue.Add(func(context.Context) error {
			return rdb.Close()
		})
	}

	var pub events.Publisher

	if len(cfg.Kafka.Brokers) > 0 {
		kp := kafka.NewPublisher(cfg.Kafka.Brokers)
		pub = kp

		shutdownqueue.Add(func(context.Context) error {
			return kp.Close()
		})
	}

	txService := txsvc.New(dbConns, pub)
	acctService := accountsvc.New(dbConns)

	// --- HTTP server ---
	srv := api.NewServer(cfg.Port, txService, acctService, rdb)

	// Register HTTP server graceful shutdown
	shutdownqueue.Add(func(c context.Context) error {
		slog.Info("Shut down server")

		err := srv.Shutdown(c)
		if err != nil {
			return fmt.Errorf("shutdown srv: %w", err)
		}

		return nil
	})

	// Run server
	errCh := make(chan error, 1)

	go func() {
		serr := srv.ListenAndServe()
		// http.ErrServerClosed is the normal path during Shutdown
		if serr != nil && !errors.Is(serr, http.ErrServerClosed) {
			errCh <- serr
			return
		}

		errCh <- nil
	}()

	slog.Info("API started", "port", cfg.Port)

	// --- Wait until either context cancels or server errors out ---
	select {
	case <-ctx.Done():
		// graceful path; deferred shutdownqueue.Shutdown will run
		return nil
	case serr := <-errCh:
		if serr != nil {
			return fmt.Errorf("server error: %w", serr)
		}

		return nil
	}
}
