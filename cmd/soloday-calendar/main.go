package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/ignission/soloday-sub001/internal/config"
	"github.com/ignission/soloday-sub001/internal/crypto"
	"github.com/ignission/soloday-sub001/internal/domain"
	"github.com/ignission/soloday-sub001/internal/provider"
	"github.com/ignission/soloday-sub001/internal/secrets"
	"github.com/ignission/soloday-sub001/internal/settings"
	"github.com/ignission/soloday-sub001/internal/syncer"
	"github.com/ignission/soloday-sub001/internal/token"
)

const usage = `usage: soloday-calendar <command> [flags]

commands:
  auth-url    print a Google consent URL
  connect     exchange an authorization code and set up the account's calendars
  disconnect  remove an account's tokens and calendars
  calendars   list configured calendars
  events      list upcoming events from configured calendars`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := run(ctx, os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New(usage)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level(cfg.LogLevel)}))
	slog.SetDefault(logger)

	key, err := cfg.MasterKeyBytes()
	if err != nil {
		return err
	}
	cipher, err := crypto.NewCipher(key)
	if err != nil {
		return err
	}

	store, err := settings.Open(ctx, cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer store.Close()

	sec := secrets.New(store, cipher)
	manager := token.NewManager(token.Config{
		Provider: domain.TypeGoogle,
		OAuth:    googleOAuthConfig(cfg),
		Skew:     cfg.TokenSkew,
		Timeout:  cfg.RequestTimeout,
	}, sec, logger)

	factory := func(t domain.ProviderType, accountID string) (provider.CalendarProvider, error) {
		return provider.New(t, provider.Options{
			Tokens:    manager,
			AccountID: accountID,
			Timeout:   cfg.RequestTimeout,
			ICSURL:    cfg.ICSFeedURL,
			ICSName:   cfg.ICSFeedName,
		})
	}

	c := &cli{
		cfg:      cfg,
		secrets:  sec,
		settings: store,
		manager:  manager,
		sync:     syncer.New(sec, store, factory, logger),
		factory:  factory,
		log:      logger,
		out:      os.Stdout,
	}
	return c.dispatch(ctx, args)
}

func googleOAuthConfig(cfg config.Config) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  cfg.GoogleRedirectURL,
		Scopes:       []string{"https://www.googleapis.com/auth/calendar.readonly"},
		Endpoint:     google.Endpoint,
	}
}

func level(v string) slog.Level {
	switch v {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
