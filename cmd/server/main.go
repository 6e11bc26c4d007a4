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

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"landmark-tour-service/internal/adapters/cache"
	"landmark-tour-service/internal/adapters/events"
	"landmark-tour-service/internal/adapters/narration"
	"landmark-tour-service/internal/adapters/repositories"
	"landmark-tour-service/internal/adapters/routing"
	"landmark-tour-service/internal/adapters/session"
	"landmark-tour-service/internal/api"
	"landmark-tour-service/internal/config"
	"landmark-tour-service/internal/navigation"
	"landmark-tour-service/internal/platform/db"
	"landmark-tour-service/internal/platform/logging"
	"landmark-tour-service/internal/platform/telemetry"
	"landmark-tour-service/internal/ports"
	"landmark-tour-service/internal/services"
)

// main is the application composition root.
// It wires concrete adapters (Postgres, Redis, NATS, ORS) behind ports and starts the HTTP server.
func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	if err := run(); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.OTLPAddr)
		if err != nil {
			return err
		}
		defer shutdown()
	}

	pg, err := db.Open(cfg.Database.URL)
	if err != nil {
		return err
	}
	defer pg.Close()

	if err := repositories.InitSchema(ctx, pg); err != nil {
		return err
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping %s: %w", cfg.Redis.Addr, err)
	}

	var (
		publisher ports.EventPublisher = events.LogPublisher{}
		positions ports.PositionStream
	)
	if cfg.NATS.Enabled {
		nc, err := events.Connect(cfg.NATS.URL)
		if err != nil {
			return err
		}
		defer nc.Drain()

		pub, err := events.NewNATSPublisher(nc)
		if err != nil {
			return err
		}
		publisher = pub
		positions = events.NewNATSPositionStream(nc)
	}

	ors, err := routing.NewORSRouter(routing.Options{
		APIKey:      cfg.ORS.APIKey,
		BaseURL:     cfg.ORS.BaseURL,
		Timeout:     cfg.ORS.Timeout,
		MaxAttempts: cfg.ORS.MaxAttempts,
	})
	if err != nil {
		return err
	}
	router := routing.NewCachedRouter(ors, cache.NewSQLSegmentCache(pg))

	policy, err := navigation.PolicyFromConfig(cfg.Navigation)
	if err != nil {
		return err
	}

	opts := []services.TourOption{
		services.WithMatrix(ors),
		services.WithNarratorFactory(func(sessionID string) ports.Narrator {
			return narration.NewRelay(publisher, sessionID)
		}),
	}
	if positions != nil {
		opts = append(opts, services.WithPositionStream(positions))
	}

	places := services.NewPlaceService(repositories.NewPostgresPlaceRepository(pg), cfg.Places.IdentifyRadius)
	tours := services.NewTourService(
		session.NewRedisTourStore(rdb, cfg.Redis.SessionTTL),
		router,
		publisher,
		policy,
		cfg.Sequencer.Metric,
		opts...,
	)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           api.NewRouter(places, tours),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", srv.Addr, "nats", cfg.NATS.Enabled, "metric", cfg.Sequencer.Metric)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("listen: %w", err)
		}
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	tours.Shutdown(shutdownCtx)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
