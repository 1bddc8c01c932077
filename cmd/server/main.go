package main

import (
	"context"
	"errors"
	stdhttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/vncsmyrnk/campuspoll/internal/adapters/api"
	"github.com/vncsmyrnk/campuspoll/internal/adapters/cache"
	"github.com/vncsmyrnk/campuspoll/internal/adapters/handler/http"
	"github.com/vncsmyrnk/campuspoll/internal/adapters/oauth/supabase"
	"github.com/vncsmyrnk/campuspoll/internal/config"
	"github.com/vncsmyrnk/campuspoll/internal/core/ports"
	"github.com/vncsmyrnk/campuspoll/internal/core/services"
)

func init() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout})
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("An error occurred when loading settings.")
	}
	zerolog.SetGlobalLevel(cfg.LogLevel)

	client, err := api.NewClient(cfg.APIURL,
		api.WithTimeout(cfg.Timeout),
		api.WithLogger(log.Logger),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("An error occurred when creating the api client.")
	}

	var provider ports.AuthProvider
	if cfg.AuthEnabled() {
		p, err := supabase.NewProvider(cfg.Auth.URL, cfg.Auth.AnonKey,
			supabase.WithOAuthProvider(cfg.Auth.Provider),
			supabase.WithLogger(log.Logger),
		)
		if err != nil {
			log.Fatal().Err(err).Msg("An error occurred when configuring sign in.")
		}
		provider = p
	} else {
		log.Warn().Msg("auth.url is not set, sign in is disabled.")
	}

	users, err := cache.NewUserCache(4096)
	if err != nil {
		log.Fatal().Err(err).Msg("An error occurred when creating the user cache.")
	}
	defer users.Close()

	sessions := services.NewSessionService(client, provider,
		services.WithUserCache(users, 5*time.Minute),
		services.WithSessionLogger(log.Logger),
	)

	cookies := http.CookieConfig{
		Domain:   cfg.HTTP.CookieDomain,
		Secure:   cfg.HTTP.SecureCookies,
		SameSite: stdhttp.SameSiteLaxMode,
	}
	handler := http.NewHandler(
		http.NewAuthHandler(sessions, provider, cfg.FrontendURL, cookies, log.Logger),
		http.NewUserHandler(sessions, cookies),
		http.NewPollHandler(
			func(tokens ports.TokenStore) http.Backend { return client.For(tokens) },
			sessions, cfg.FrontendURL, cookies, log.Logger,
		),
		log.Logger,
	)
	server := &stdhttp.Server{Addr: cfg.HTTP.Addr, Handler: handler}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info().Str("addr", cfg.HTTP.Addr).Msg("Gateway listening.")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			log.Fatal().Err(err).Msg("An error occurred when serving.")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Gracefully shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("An error occurred when shutting down.")
	}
	sessions.Wait()
}
