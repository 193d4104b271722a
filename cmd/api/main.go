package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/gestaozabele/farmdesk/internal/auth"
	"github.com/gestaozabele/farmdesk/internal/config"
	"github.com/gestaozabele/farmdesk/internal/farmdata"
	internalhttp "github.com/gestaozabele/farmdesk/internal/http"
	"github.com/gestaozabele/farmdesk/internal/session"
	"github.com/gestaozabele/farmdesk/internal/store"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("api encerrada com erro")
	}
}

func run() error {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	zerolog.SetGlobalLevel(cfg.LogLevel)

	ctx := context.Background()

	adapter, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return fmt.Errorf("store: %w", err)
	}
	defer adapter.Close()
	log.Info().Str("kind", string(adapter.Kind())).Msg("backend de dados pronto")

	provider, err := auth.NewProvider(string(cfg.AuthKind), auth.Deps{
		Profiles:      adapter,
		HostedURL:     cfg.HostedURL,
		HostedAPIKey:  cfg.HostedAPIKey,
		AllowedDomain: cfg.AllowedDomain,
	})
	if err != nil {
		return fmt.Errorf("auth: %w", err)
	}
	manager := auth.NewManager(provider)

	sessionOpts := session.Options{Secret: cfg.SessionSecret, TTL: cfg.SessionTTL, Secure: cfg.SecureCookies()}
	var (
		sessions    session.Backend
		redisClient *redis.Client
	)
	switch cfg.SessionBackend {
	case config.SessionRedis:
		redisOpts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("redis parse: %w", err)
		}
		redisClient = redis.NewClient(redisOpts)
		defer redisClient.Close()
		sessions = session.NewRedisBackend(redisClient, sessionOpts)
	default:
		sessions = session.NewCookieBackend(sessionOpts)
	}

	handler, err := internalhttp.NewRouter(cfg, farmdata.New(adapter), manager, sessions, redisClient)
	if err != nil {
		return fmt.Errorf("router: %w", err)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("auth", string(manager.Kind())).Msgf("API ouvindo em :%d", cfg.Port)
		errCh <- srv.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("encerrando...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
