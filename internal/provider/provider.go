// Package provider abstracts calendar backends behind one read interface
// and maps their failures onto a common taxonomy.
package provider

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"google.golang.org/api/option"

	"github.com/ignission/soloday-sub001/internal/domain"
)

const defaultTimeout = 15 * time.Second

// CalendarProvider is the read surface every calendar backend implements.
// Token sets travel as arguments; implementations hold no mutable token
// state.
type CalendarProvider interface {
	Type() domain.ProviderType
	ListCalendars(ctx context.Context, tokens domain.OAuthTokens) ([]domain.ProviderCalendar, error)
	ListEvents(ctx context.Context, tokens domain.OAuthTokens, calendarID string, rng domain.TimeRange) ([]domain.CalendarEvent, error)
}

// TokenValidator refreshes an expired token set before a provider call.
type TokenValidator interface {
	EnsureValid(ctx context.Context, accountID string, t domain.OAuthTokens) (domain.OAuthTokens, error)
}

// Options carries the collaborators a backend draws from. Fields a backend
// does not use are ignored.
type Options struct {
	// Tokens validates token sets before API calls. Required for google.
	Tokens TokenValidator
	// AccountID is the account the token sets belong to.
	AccountID string
	// Timeout bounds each provider call. Zero means 15s.
	Timeout time.Duration

	// ICSURL is the feed address for the ical backend.
	ICSURL string
	// ICSName labels the feed's synthetic calendar.
	ICSName string
	// HTTPClient overrides the ical feed client.
	HTTPClient HTTPDoer

	// GoogleOpts are appended to the Calendar API client options.
	GoogleOpts []option.ClientOption
}

// New returns the backend for t. Adding a provider means one implementation
// and one case here.
func New(t domain.ProviderType, opts Options) (CalendarProvider, error) {
	switch t {
	case domain.TypeGoogle:
		if opts.Tokens == nil {
			return nil, fmt.Errorf("google provider requires a token validator")
		}
		return NewGoogleProvider(opts.Tokens, opts.AccountID, opts.Timeout, opts.GoogleOpts...), nil
	case domain.TypeICal:
		if opts.ICSURL == "" {
			return nil, fmt.Errorf("ical provider requires a feed url")
		}
		client := opts.HTTPClient
		if client == nil && opts.Timeout > 0 {
			client = &http.Client{Timeout: opts.Timeout}
		}
		return NewICSProvider(opts.ICSURL, opts.ICSName, client), nil
	default:
		return nil, fmt.Errorf("unknown provider type: %q", t)
	}
}
