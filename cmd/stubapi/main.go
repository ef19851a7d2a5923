// Command stubapi serves an in-memory implementation of the remote shop API
// for local development and end-to-end runs of the storefront.
package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/tiendita/storefront/internal/infrastructure/config"
	"github.com/tiendita/storefront/internal/stubapi"
	"github.com/tiendita/storefront/pkg/logger"
)

const (
	tokenTTL        = 24 * time.Hour
	devJWTSecret    = "dev-only-secret"
	shutdownTimeout = 10 * time.Second
)

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
		Service: "stubapi",
	})

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("stub api stopped")
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	secret := cfg.StubAPI.JWTSecret
	if secret == "" {
		if !cfg.IsDevelopment() {
			return errors.New("JWT_SECRET is required outside development")
		}
		log.Warn().Msg("JWT_SECRET not set, using the development secret")
		secret = devJWTSecret
	}

	seed := stubapi.DefaultSeed()
	if cfg.StubAPI.SeedFile != "" {
		loaded, err := stubapi.LoadSeed(cfg.StubAPI.SeedFile)
		if err != nil {
			return err
		}
		seed = loaded
	}

	store := stubapi.NewStore()
	auth := stubapi.NewAuthService(store, secret, tokenTTL)
	if err := seed.Apply(ctx, store, auth); err != nil {
		return err
	}
	log.Info().
		Int("users", len(seed.Users)).
		Int("products", len(seed.Products)).
		Msg("store seeded")

	e := stubapi.NewServer(store, auth, secret, log)
	addr := net.JoinHostPort("", cfg.StubAPI.Port)

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("stub api listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
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
