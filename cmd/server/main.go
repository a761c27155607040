package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/ishmeet5ingh/tracking-backend/internal/api"
	"github.com/ishmeet5ingh/tracking-backend/internal/api/handler"
	"github.com/ishmeet5ingh/tracking-backend/internal/core/ports"
	"github.com/ishmeet5ingh/tracking-backend/internal/core/service"
	"github.com/ishmeet5ingh/tracking-backend/internal/infrastructure/config"
	mongodb "github.com/ishmeet5ingh/tracking-backend/internal/infrastructure/db/mongo"
	redisdb "github.com/ishmeet5ingh/tracking-backend/internal/infrastructure/db/redis"
	"github.com/ishmeet5ingh/tracking-backend/internal/infrastructure/queue"
	"github.com/ishmeet5ingh/tracking-backend/internal/realtime"
	"github.com/ishmeet5ingh/tracking-backend/pkg/logger"
)

const serviceName = "tracking-backend"

// @title                       Tracking API
// @version                     1.0
// @description                 JWT authentication and real-time location tracking.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", serviceName, err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: serviceName,
	})

	// --- Storage ---
	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
		AppName:  serviceName,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := mongodb.Disconnect(mongoClient, cfg.ShutdownTimeout); err != nil {
			log.Error().Err(err).Msg("mongodb disconnect")
		}
	}()
	log.Info().Str("database", cfg.Mongo.Database).Msg("mongodb connected")

	users := mongodb.NewUserRepository(db, cfg.Mongo.Timeout)
	if err := users.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("ensure indexes: %w", err)
	}

	readiness := map[string]handler.Pinger{"mongodb": handler.MongoPinger(db)}

	var denylist ports.TokenDenylist
	if cfg.Redis.Addr != "" {
		rdb, err := redisdb.Connect(ctx, redisdb.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return err
		}
		defer rdb.Close()
		denylist = redisdb.NewTokenDenylist(rdb)
		readiness["redis"] = handler.RedisPinger(rdb)
		log.Info().Str("addr", cfg.Redis.Addr).Msg("redis connected, token revocation enabled")
	} else {
		log.Warn().Msg("REDIS_ADDR not set, logout will not revoke tokens")
	}

	// --- Services ---
	tokens, err := service.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		return err
	}
	authService := service.NewAuthService(users, tokens, denylist, cfg.Auth.BcryptCost, log)
	locationService := service.NewLocationService(users, log)

	// --- Realtime ---
	hub := realtime.NewHub(locationService, log)
	workersCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()
	dispatcher := queue.NewDispatcher(cfg.Realtime.Workers, hub, log)
	dispatcher.Start(workersCtx)

	e, err := api.NewRouter(api.Deps{
		Auth:                authService,
		Tokens:              tokens,
		Denylist:            denylist,
		Locations:           locationService,
		Hub:                 hub,
		Events:              dispatcher,
		Readiness:           readiness,
		CORSOrigins:         cfg.CORSOrigins,
		RealtimeRequireAuth: cfg.Realtime.RequireAuth,
		Log:                 log,
	})
	if err != nil {
		return fmt.Errorf("build router: %w", err)
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Addr()).Str("env", cfg.Env).Msg("server listening")
		if err := e.Start(cfg.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	hub.Close()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	stopWorkers()
	log.Info().Msg("server stopped")
	return nil
}
