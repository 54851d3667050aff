package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/ignission/soloday-sub001/internal/domain"
)

const (
	googlePageSize      = 250
	defaultCalendarName = "Unknown"
	defaultEventTitle   = "(no title)"
)

// GoogleProvider reads calendars and events from the Google Calendar API.
// Every call validates the token set first and builds a fresh API client
// from the result.
type GoogleProvider struct {
	tokens     TokenValidator
	accountID  string
	timeout    time.Duration
	clientOpts []option.ClientOption
}

func NewGoogleProvider(tokens TokenValidator, accountID string, timeout time.Duration, clientOpts ...option.ClientOption) *GoogleProvider {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &GoogleProvider{tokens: tokens, accountID: accountID, timeout: timeout, clientOpts: clientOpts}
}

func (g *GoogleProvider) Type() domain.ProviderType { return domain.TypeGoogle }

// service builds a Calendar API client around a static token source.
// Refresh is the token validator's job, not the transport's.
func (g *GoogleProvider) service(ctx context.Context, t domain.OAuthTokens) (*calendar.Service, error) {
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: t.AccessToken, TokenType: "Bearer"})
	opts := append([]option.ClientOption{option.WithHTTPClient(oauth2.NewClient(ctx, src))}, g.clientOpts...)
	svc, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, NetworkError{Op: "create calendar client", Err: err}
	}
	return svc, nil
}

func (g *GoogleProvider) ListCalendars(ctx context.Context, tokens domain.OAuthTokens) ([]domain.ProviderCalendar, error) {
	tokens, err := g.tokens.EnsureValid(ctx, g.accountID, tokens)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	svc, err := g.service(ctx, tokens)
	if err != nil {
		return nil, err
	}

	var out []domain.ProviderCalendar
	pageToken := ""
	for {
		call := svc.CalendarList.List().MaxResults(googlePageSize)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		list, err := call.Context(ctx).Do()
		if err != nil {
			return nil, mapGoogleError("list calendars", g.accountID, err)
		}
		for _, item := range list.Items {
			name := item.Summary
			if name == "" {
				name = defaultCalendarName
			}
			out = append(out, domain.ProviderCalendar{
				ID:      item.Id,
				Name:    name,
				Primary: item.Primary,
				Color:   item.BackgroundColor,
			})
		}
		pageToken = list.NextPageToken
		if pageToken == "" {
			return out, nil
		}
	}
}

func (g *GoogleProvider) ListEvents(ctx context.Context, tokens domain.OAuthTokens, calendarID string, rng domain.TimeRange) ([]domain.CalendarEvent, error) {
	if calendarID == "" {
		return nil, fmt.Errorf("calendar id is required")
	}
	tokens, err := g.tokens.EnsureValid(ctx, g.accountID, tokens)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	svc, err := g.service(ctx, tokens)
	if err != nil {
		return nil, err
	}
	calendarName := g.calendarName(ctx, svc, calendarID)

	var out []domain.CalendarEvent
	pageToken := ""
	for {
		call := svc.Events.List(calendarID).
			MaxResults(googlePageSize).
			SingleEvents(true).
			OrderBy("startTime").
			TimeMin(rng.Start.Format(time.RFC3339)).
			TimeMax(rng.End.Format(time.RFC3339))
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		list, err := call.Context(ctx).Do()
		if err != nil {
			return nil, mapGoogleError("list events", g.accountID, err)
		}
		for _, item := range list.Items {
			if ev, ok := g.mapEvent(item, calendarID, calendarName); ok {
				out = append(out, ev)
			}
		}
		pageToken = list.NextPageToken
		if pageToken == "" {
			return out, nil
		}
	}
}

// calendarName resolves the calendar's display name for event attribution.
// Name lookup is cosmetic: on failure the id doubles as the name.
func (g *GoogleProvider) calendarName(ctx context.Context, svc *calendar.Service, calendarID string) string {
	entry, err := svc.CalendarList.Get(calendarID).Context(ctx).Do()
	if err != nil || entry.Summary == "" {
		return calendarID
	}
	return entry.Summary
}

// mapEvent converts one API event. Events without a usable start are
// dropped. An event is all-day exactly when the API reports a date-only
// start.
func (g *GoogleProvider) mapEvent(item *calendar.Event, calendarID, calendarName string) (domain.CalendarEvent, bool) {
	if item == nil || item.Start == nil {
		return domain.CalendarEvent{}, false
	}
	allDay := item.Start.Date != ""
	start, err := parseGoogleTime(item.Start)
	if err != nil {
		return domain.CalendarEvent{}, false
	}
	end := start
	if item.End != nil {
		if t, err := parseGoogleTime(item.End); err == nil {
			end = t
		}
	}
	title := item.Summary
	if title == "" {
		title = defaultEventTitle
	}
	return domain.CalendarEvent{
		ID:          item.Id,
		CalendarID:  calendarID,
		Title:       title,
		Description: item.Description,
		Location:    item.Location,
		Start:       start,
		End:         end,
		AllDay:      allDay,
		Source: domain.EventSource{
			Type:         domain.TypeGoogle,
			CalendarName: calendarName,
			AccountID:    g.accountID,
		},
	}, true
}

func parseGoogleTime(dt *calendar.EventDateTime) (time.Time, error) {
	if dt.Date != "" {
		return time.Parse("2006-01-02", dt.Date)
	}
	return time.Parse(time.RFC3339, dt.DateTime)
}

// mapGoogleError folds API failures onto the provider taxonomy: 401/403
// mean the account must reauthorize, other API statuses are APIErrors, and
// anything without a response is a NetworkError.
func mapGoogleError(op, account string, err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		if apiErr.Code == http.StatusUnauthorized || apiErr.Code == http.StatusForbidden {
			return AuthExpiredError{Account: account, Reason: "reauthorization required"}
		}
		msg := apiErr.Message
		if msg == "" {
			msg = apiErr.Error()
		}
		return APIError{StatusCode: apiErr.Code, Message: msg}
	}
	return NetworkError{Op: op, Err: err}
}
