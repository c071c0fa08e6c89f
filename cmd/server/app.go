package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	gomongo "go.mongodb.org/mongo-driver/mongo"

	"github.com/medihub/health-portal/internal/api"
	"github.com/medihub/health-portal/internal/api/metrics"
	"github.com/medihub/health-portal/internal/core/ports"
	"github.com/medihub/health-portal/internal/core/service"
	"github.com/medihub/health-portal/internal/infrastructure/db/file"
	"github.com/medihub/health-portal/internal/infrastructure/db/mongo"
	"github.com/medihub/health-portal/internal/infrastructure/db/redis"
	"github.com/medihub/health-portal/internal/pkg/config"
	"github.com/medihub/health-portal/pkg/logger"
)

type credentialDirectory interface {
	ports.CredentialStore
	ports.IdentityLister
}

type app struct {
	cfg     *config.Config
	log     zerolog.Logger
	echo    *echo.Echo
	gate    *service.SessionGate
	cleanup []func(context.Context) error
}

// newApp connects the configured backends, builds the session gate and
// rehydrates it before any route is served.
func newApp(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*app, error) {
	a := &app{cfg: cfg, log: log}

	var (
		db  *gomongo.Database
		rdb *goredis.Client
	)

	var directory credentialDirectory = service.NewMockDirectory()
	if cfg.Session.CredentialSource == config.CredentialsMongo {
		client, database, err := mongo.Connect(ctx, mongo.Config{
			URI:      cfg.Mongo.URI,
			Database: cfg.Mongo.Database,
			AppName:  "health-portal",
		})
		if err != nil {
			return nil, err
		}
		a.cleanup = append(a.cleanup, client.Disconnect)
		db = database

		repo := mongo.NewCredentialRepository(db)
		if err := repo.EnsureIndexes(ctx); err != nil {
			a.close(ctx)
			return nil, err
		}
		if err := repo.Seed(ctx, service.MockCandidates, service.MockPasswords); err != nil {
			a.close(ctx)
			return nil, err
		}
		directory = repo
		log.Info().Str("database", cfg.Mongo.Database).Msg("mongo credential directory ready")
	}

	var store ports.IdentityStore
	switch cfg.Session.Store {
	case config.StoreRedis:
		client, err := redis.Connect(ctx, redis.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			a.close(ctx)
			return nil, err
		}
		a.cleanup = append(a.cleanup, func(context.Context) error { return client.Close() })
		rdb = client
		store = redis.NewIdentityStore(client, cfg.Session.StorageKey)
		log.Info().Str("addr", cfg.Redis.Addr).Msg("redis identity store ready")
	default:
		fs := file.NewIdentityStore(cfg.Session.Dir, cfg.Session.StorageKey)
		store = fs
		log.Info().Str("path", fs.Path()).Msg("file identity store ready")
	}

	a.gate = service.NewSessionGate(directory, store, cfg.Session.LoginDelay, logger.Component("session"))
	outcome := a.gate.Init(ctx)
	metrics.ObserveRestore(outcome, a.gate.IsAuthenticated())
	log.Info().
		Str("outcome", string(outcome)).
		Str("state", string(a.gate.Snapshot().State)).
		Msg("session resolved")

	a.echo = api.NewRouter(api.Deps{
		Gate:  a.gate,
		Users: directory,
		Mongo: db,
		Redis: rdb,
		Log:   logger.Component("http"),
	})
	return a, nil
}

func (a *app) run() error {
	addr := ":" + a.cfg.Port
	a.log.Info().Str("addr", addr).Msg("http server listening")
	if err := a.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

func (a *app) shutdown(ctx context.Context) error {
	err := a.echo.Shutdown(ctx)
	a.close(ctx)
	return err
}

func (a *app) close(ctx context.Context) {
	for i := len(a.cleanup) - 1; i >= 0; i-- {
		if err := a.cleanup[i](ctx); err != nil {
			a.log.Warn().Err(err).Msg("cleanup failed")
		}
	}
	a.cleanup = nil
}
