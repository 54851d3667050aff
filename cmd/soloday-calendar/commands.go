package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/ignission/soloday-sub001/internal/config"
	"github.com/ignission/soloday-sub001/internal/domain"
	"github.com/ignission/soloday-sub001/internal/secrets"
	"github.com/ignission/soloday-sub001/internal/settings"
	"github.com/ignission/soloday-sub001/internal/syncer"
	"github.com/ignission/soloday-sub001/internal/token"
)

type cli struct {
	cfg      config.Config
	secrets  *secrets.Store
	settings *settings.Store
	manager  *token.Manager
	sync     *syncer.Service
	factory  syncer.Factory
	log      *slog.Logger
	out      io.Writer
}

func (c *cli) dispatch(ctx context.Context, args []string) error {
	switch args[0] {
	case "auth-url":
		return c.authURL(args[1:])
	case "connect":
		return c.connect(ctx, args[1:])
	case "disconnect":
		return c.disconnect(ctx, args[1:])
	case "calendars":
		return c.calendars(ctx, args[1:])
	case "events":
		return c.events(ctx, args[1:])
	case "help", "-h", "--help":
		fmt.Fprintln(c.out, usage)
		return nil
	default:
		return fmt.Errorf("unknown command %q\n%s", args[0], usage)
	}
}

func (c *cli) authURL(args []string) error {
	fs := flag.NewFlagSet("auth-url", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if c.cfg.GoogleClientID == "" || c.cfg.GoogleClientSecret == "" {
		return errors.New("google client credentials are not configured")
	}
	state := token.NewState()
	fmt.Fprintf(c.out, "state: %s\n%s\n", state, c.manager.AuthURL(state))
	return nil
}

func (c *cli) connect(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("connect", flag.ContinueOnError)
	providerName := fs.String("provider", "google", "provider type: google or ical")
	account := fs.String("account", "", "account identifier, e.g. the account email")
	code := fs.String("code", "", "authorization code; omit to catch the redirect on localhost")
	verifier := fs.String("verifier", "", "PKCE code verifier, when one was used")
	if err := fs.Parse(args); err != nil {
		return err
	}

	t, err := domain.ParseProviderType(*providerName)
	if err != nil {
		return err
	}
	if *account == "" {
		return errors.New("--account is required")
	}

	var tokens domain.OAuthTokens
	if t == domain.TypeGoogle {
		tokens, err = c.googleTokens(ctx, *code, *verifier)
		if err != nil {
			return err
		}
	}

	res, err := c.sync.AutoSetup(ctx, t, *account, tokens)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "connected %s account %s: %d calendars added, %d configured\n",
		t, *account, res.Added, len(res.Calendars))
	return nil
}

// googleTokens exchanges the supplied authorization code, or runs the
// browser flow: print the consent URL, catch the redirect locally, exchange
// the code it carries.
func (c *cli) googleTokens(ctx context.Context, code, verifier string) (domain.OAuthTokens, error) {
	if code != "" {
		return c.manager.Exchange(ctx, code, verifier)
	}
	if c.cfg.GoogleClientID == "" || c.cfg.GoogleClientSecret == "" {
		return domain.OAuthTokens{}, errors.New("google client credentials are not configured")
	}

	state := token.NewState()
	srv, err := token.NewCallbackServer(c.cfg.GoogleRedirectURL, state, c.log)
	if err != nil {
		return domain.OAuthTokens{}, err
	}
	fmt.Fprintf(c.out, "open this link in your browser to authorize:\n%s\n", c.manager.AuthURL(state))
	code, err = srv.Wait(ctx)
	if err != nil {
		return domain.OAuthTokens{}, err
	}
	return c.manager.Exchange(ctx, code, verifier)
}

func (c *cli) disconnect(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("disconnect", flag.ContinueOnError)
	providerName := fs.String("provider", "google", "provider type: google or ical")
	account := fs.String("account", "", "account identifier used at connect time")
	if err := fs.Parse(args); err != nil {
		return err
	}

	t, err := domain.ParseProviderType(*providerName)
	if err != nil {
		return err
	}
	if *account == "" {
		return errors.New("--account is required")
	}

	removed, err := c.sync.Disconnect(ctx, t, *account)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "disconnected %s account %s: %d calendars removed\n", t, *account, removed)
	return nil
}

func (c *cli) calendars(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("calendars", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	configs, err := syncer.LoadConfigs(ctx, c.settings)
	if err != nil {
		return err
	}
	if len(configs) == 0 {
		fmt.Fprintln(c.out, "no calendars configured; run connect first")
		return nil
	}
	for _, cal := range configs {
		state := "off"
		if cal.Enabled {
			state = "on"
		}
		fmt.Fprintf(c.out, "%-7s %-3s %-30s %s\n", cal.Type, state, cal.Name, cal.ID)
	}
	return nil
}

func (c *cli) events(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("events", flag.ContinueOnError)
	calendarID := fs.String("calendar", "", "limit to one calendar configuration id")
	from := fs.String("from", "", "range start, YYYY-MM-DD or RFC3339 (default: now)")
	to := fs.String("to", "", "range end, YYYY-MM-DD or RFC3339 (default: one week out)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	now := time.Now()
	start, err := parseTimeFlag(*from, now)
	if err != nil {
		return fmt.Errorf("--from: %w", err)
	}
	end, err := parseTimeFlag(*to, now.AddDate(0, 0, 7))
	if err != nil {
		return fmt.Errorf("--to: %w", err)
	}
	rng, err := domain.NewTimeRange(start, end)
	if err != nil {
		return err
	}

	configs, err := syncer.LoadConfigs(ctx, c.settings)
	if err != nil {
		return err
	}
	selected := selectCalendars(configs, *calendarID)
	if len(selected) == 0 {
		fmt.Fprintln(c.out, "no matching enabled calendars")
		return nil
	}

	for _, cal := range selected {
		stored, err := c.secrets.LoadTokens(ctx, cal.Type, cal.ProviderAccountID)
		if err != nil {
			return err
		}
		tokens, connected := stored.Get()
		if !connected && cal.Type == domain.TypeGoogle {
			return fmt.Errorf("account %s is not connected", cal.ProviderAccountID)
		}

		prov, err := c.factory(cal.Type, cal.ProviderAccountID)
		if err != nil {
			return err
		}
		events, err := prov.ListEvents(ctx, tokens, cal.ProviderCalendarID, rng)
		if err != nil {
			return err
		}
		for _, ev := range events {
			when := ev.Start.Format(time.RFC3339)
			if ev.AllDay {
				when = ev.Start.Format("2006-01-02") + " (all day)"
			}
			fmt.Fprintf(c.out, "%s  %s  [%s]\n", when, ev.Title, ev.Source.CalendarName)
		}
	}
	return nil
}

// selectCalendars picks the calendars an events run should query: a single
// one by configuration id, or every enabled one.
func selectCalendars(configs []domain.CalendarConfig, id string) []domain.CalendarConfig {
	var out []domain.CalendarConfig
	for _, cal := range configs {
		if id != "" {
			if cal.ID == id {
				out = append(out, cal)
			}
			continue
		}
		if cal.Enabled {
			out = append(out, cal)
		}
	}
	return out
}

func parseTimeFlag(v string, fallback time.Time) (time.Time, error) {
	if v == "" {
		return fallback, nil
	}
	if t, err := time.Parse("2006-01-02", v); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, v)
}
