package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/vncsmyrnk/campuspoll/internal/adapters/api"
	"github.com/vncsmyrnk/campuspoll/internal/adapters/cli"
	"github.com/vncsmyrnk/campuspoll/internal/adapters/oauth/supabase"
	"github.com/vncsmyrnk/campuspoll/internal/adapters/storage"
	"github.com/vncsmyrnk/campuspoll/internal/config"
	"github.com/vncsmyrnk/campuspoll/internal/core/ports"
	"github.com/vncsmyrnk/campuspoll/internal/core/services"
)

func init() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("An error occurred when loading settings.")
	}
	zerolog.SetGlobalLevel(cfg.LogLevel)

	tokenPath := cfg.TokenFile
	if tokenPath == "" {
		if tokenPath, err = storage.DefaultTokenPath(); err != nil {
			log.Fatal().Err(err).Msg("An error occurred when locating the token file.")
		}
	}
	tokens := storage.NewFileStore(tokenPath)

	client, err := api.NewClient(cfg.APIURL,
		api.WithTimeout(cfg.Timeout),
		api.WithTokenStore(tokens),
		api.WithLogger(log.Logger),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("An error occurred when creating the api client.")
	}

	opts := []cli.Option{
		cli.WithIO(os.Stdin, os.Stdout, os.Stderr),
		cli.WithLogger(log.Logger),
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
		opts = append(opts, cli.WithProvider(p))
	}

	sessions := services.NewSessionService(client, provider, services.WithSessionLogger(log.Logger))
	app := cli.New(client, sessions, tokens, cfg.FrontendURL, opts...)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err = app.Run(ctx, os.Args[1:])
	stop()
	sessions.Wait()

	switch {
	case err == nil:
	case errors.Is(err, cli.ErrUsage):
		os.Exit(2)
	default:
		log.Error().Err(err).Msg("Command failed.")
		os.Exit(1)
	}
}
