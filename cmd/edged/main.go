// Command edged runs the dashboard's edge server: the route gate in front
// of every navigation, the session lifecycle surface, and the probes.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/invenly/dashboard-session/internal/api"
	"github.com/invenly/dashboard-session/internal/api/middleware"
	"github.com/invenly/dashboard-session/internal/bridge"
	"github.com/invenly/dashboard-session/internal/core/ports"
	"github.com/invenly/dashboard-session/internal/core/service"
	"github.com/invenly/dashboard-session/internal/infrastructure/apiclient"
	"github.com/invenly/dashboard-session/internal/infrastructure/config"
	"github.com/invenly/dashboard-session/internal/infrastructure/store"
	"github.com/invenly/dashboard-session/pkg/logger"
)

const shutdownTimeout = 5 * time.Second

func main() {
	if err := run(); err != nil {
		log.Fatalf("edged: %v", err)
	}
}

func run() error {
	cfg := config.Load()
	lg := logger.New(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		credStore ports.WatchableStore
		rdb       *redis.Client
	)
	switch cfg.Store.Backend {
	case "redis":
		client, err := store.ConnectRedis(ctx, store.RedisConfig{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer func() { _ = client.Close() }()
		rdb = client
		credStore = store.NewRedisStore(client, cfg.Store.Profile, lg)
	default:
		fs, err := store.NewFileStore(cfg.Store.File, lg)
		if err != nil {
			return fmt.Errorf("open credential store: %w", err)
		}
		credStore = fs
	}

	sess := service.NewSession(credStore, lg)

	sink := bridge.CookieSinkFunc(func(c *http.Cookie) {
		lg.Debug().Bool("token_present", c.Value != "").Msg("edged: gate cookie re-derived")
	})
	br := bridge.New(credStore, sess, sink, lg)
	br.Start(ctx)
	sess.Hydrate()

	refresher := apiclient.NewRefresher(cfg.RefreshURL, lg)
	client := apiclient.New(cfg.APIBaseURL, credStore, refresher, lg)

	e := api.NewRouter(api.RouterDeps{
		Session: sess,
		API:     client,
		Gate:    middleware.GateConfig{LandingPath: cfg.LandingPath},
		Redis:   rdb,
		Log:     lg,
	})

	server := &http.Server{Addr: ":" + cfg.Port, Handler: e}

	errCh := make(chan error, 1)
	go func() {
		lg.Info().Str("addr", server.Addr).Str("store", cfg.Store.Backend).Msg("edged: listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	lg.Info().Msg("edged: stopped")
	return nil
}
