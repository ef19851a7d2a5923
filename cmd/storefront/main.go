// Command storefront runs the storefront client: it restores the persisted
// session, then serves every client view as JSON over HTTP.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/tiendita/storefront/internal/api"
	"github.com/tiendita/storefront/internal/api/handler"
	"github.com/tiendita/storefront/internal/api/screen"
	"github.com/tiendita/storefront/internal/core/ports"
	"github.com/tiendita/storefront/internal/core/session"
	"github.com/tiendita/storefront/internal/infrastructure/apiclient"
	"github.com/tiendita/storefront/internal/infrastructure/config"
	mongostore "github.com/tiendita/storefront/internal/infrastructure/db/mongo"
	redisstore "github.com/tiendita/storefront/internal/infrastructure/db/redis"
	"github.com/tiendita/storefront/internal/infrastructure/storage/file"
	"github.com/tiendita/storefront/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	decimal.MarshalJSONWithoutQuotes = true

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		bootLog := logger.Init(logger.Options{})
		bootLog.Fatal().Err(err).Msg("failed to load configuration")
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "storefront",
	})

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("storefront stopped")
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	storage, storageCheck, closeStorage, err := openSessionStorage(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStorage()

	client := apiclient.New(apiclient.Config{
		BaseURL:   cfg.API.BaseURL,
		Timeout:   cfg.API.Timeout,
		RateLimit: cfg.API.RateLimit,
	}, log)

	sessions := session.NewStore(client, storage, log)
	restored := sessions.Restore(ctx)
	log.Info().
		Str("backend", cfg.Session.Backend).
		Str("session", restored.State().String()).
		Msg("session restored")

	screens := screen.New(ctx, screen.Deps{
		Catalog: client,
		Orders:  client,
		Session: sessions,
	}, log, screen.WithRedirectDelay(cfg.OrderRedirectDelay))
	defer screens.Close()

	e := api.NewRouter(api.Deps{
		Sessions: sessions,
		Catalog:  client,
		Screens:  screens,
		Checks: map[string]handler.Check{
			"session_store": storageCheck,
			"remote_api": func(ctx context.Context) error {
				_, err := client.ListProducts(ctx)
				return err
			},
		},
	}, log)

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.ListenAddr).Msg("view server listening")
		if err := e.Start(cfg.ListenAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

// openSessionStorage selects the configured backend. It returns the storage,
// a readiness check and a func releasing the connection.
func openSessionStorage(ctx context.Context, cfg *config.Config) (ports.SessionStorage, handler.Check, func(), error) {
	switch cfg.Session.Backend {
	case config.BackendRedis:
		rdb, err := redisstore.Connect(ctx, redisConfig(cfg))
		if err != nil {
			return nil, nil, nil, err
		}
		check := func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
		return redisstore.NewSessionStorage(rdb, cfg.Redis.SessionKey), check, func() { _ = rdb.Close() }, nil

	case config.BackendMongo:
		client, db, err := mongostore.Connect(ctx, mongostore.Config{
			URI:      cfg.Mongo.URI,
			Database: cfg.Mongo.Database,
			AppName:  "storefront",
		})
		if err != nil {
			return nil, nil, nil, err
		}
		check := func(ctx context.Context) error { return client.Ping(ctx, nil) }
		release := func() { _ = client.Disconnect(context.Background()) }
		return mongostore.NewSessionStorage(db, ""), check, release, nil

	default:
		storage := file.NewSessionStorage(cfg.Session.File)
		check := func(context.Context) error {
			_, err := os.Stat(filepath.Dir(storage.Path()))
			if errors.Is(err, os.ErrNotExist) {
				return nil
			}
			return err
		}
		return storage, check, func() {}, nil
	}
}

func redisConfig(cfg *config.Config) redisstore.Config {
	return redisstore.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}
}
