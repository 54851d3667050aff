package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"google.golang.org/api/option"

	"github.com/ignission/soloday-sub001/internal/domain"
)

type fakeValidator struct {
	calls   int
	account string
	err     error
}

func (f *fakeValidator) EnsureValid(_ context.Context, accountID string, t domain.OAuthTokens) (domain.OAuthTokens, error) {
	f.calls++
	f.account = accountID
	if f.err != nil {
		return domain.OAuthTokens{}, f.err
	}
	return t, nil
}

func testTokens() domain.OAuthTokens {
	return domain.OAuthTokens{AccessToken: "access", RefreshToken: "refresh", ExpiresAt: time.Now().Add(time.Hour)}
}

func testRange(t *testing.T) domain.TimeRange {
	t.Helper()
	rng, err := domain.NewTimeRange(
		time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	)
	if err != nil {
		t.Fatal(err)
	}
	return rng
}

func newTestGoogle(t *testing.T, handler http.Handler) (*GoogleProvider, *fakeValidator) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	v := &fakeValidator{}
	p := NewGoogleProvider(v, "a@example.com", 10*time.Second, option.WithEndpoint(srv.URL))
	return p, v
}

func TestGoogleListCalendars(t *testing.T) {
	t.Parallel()
	mux := http.NewServeMux()
	mux.HandleFunc("/users/me/calendarList", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"items":[
			{"id":"primary","summary":"Work","primary":true,"backgroundColor":"#9fe1e7"},
			{"id":"xyz","summary":"Team"},
			{"id":"anon"}
		]}`)
	})
	p, v := newTestGoogle(t, mux)

	cals, err := p.ListCalendars(context.Background(), testTokens())
	if err != nil {
		t.Fatalf("ListCalendars: %v", err)
	}
	if v.calls != 1 || v.account != "a@example.com" {
		t.Fatalf("token validation calls=%d account=%q", v.calls, v.account)
	}
	if len(cals) != 3 {
		t.Fatalf("expected 3 calendars, got %d", len(cals))
	}
	if !cals[0].Primary || cals[0].Name != "Work" || cals[0].Color != "#9fe1e7" {
		t.Fatalf("unexpected primary calendar: %+v", cals[0])
	}
	if cals[1].Primary {
		t.Fatalf("xyz should not be primary: %+v", cals[1])
	}
	if cals[2].Name != "Unknown" {
		t.Fatalf("missing summary should default to Unknown, got %q", cals[2].Name)
	}
}

func TestGoogleListCalendarsPagination(t *testing.T) {
	t.Parallel()
	mux := http.NewServeMux()
	mux.HandleFunc("/users/me/calendarList", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("pageToken") == "page-2" {
			fmt.Fprint(w, `{"items":[{"id":"c3","summary":"Three"}]}`)
			return
		}
		fmt.Fprint(w, `{"items":[{"id":"c1","summary":"One"},{"id":"c2","summary":"Two"}],"nextPageToken":"page-2"}`)
	})
	p, _ := newTestGoogle(t, mux)

	cals, err := p.ListCalendars(context.Background(), testTokens())
	if err != nil {
		t.Fatal(err)
	}
	if len(cals) != 3 || cals[2].ID != "c3" {
		t.Fatalf("pagination lost entries: %+v", cals)
	}
}

func TestGoogleListEvents(t *testing.T) {
	t.Parallel()
	var gotTimeMin, gotTimeMax, gotSingle, gotOrder string
	mux := http.NewServeMux()
	mux.HandleFunc("/users/me/calendarList/primary", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id":"primary","summary":"Work"}`)
	})
	mux.HandleFunc("/calendars/primary/events", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		gotTimeMin, gotTimeMax = q.Get("timeMin"), q.Get("timeMax")
		gotSingle, gotOrder = q.Get("singleEvents"), q.Get("orderBy")
		fmt.Fprint(w, `{"items":[
			{"id":"ev1","summary":"Standup","location":"Room 1","start":{"dateTime":"2026-02-12T10:00:00Z"},"end":{"dateTime":"2026-02-12T10:15:00Z"}},
			{"id":"ev2","start":{"date":"2026-02-13"},"end":{"date":"2026-02-14"}},
			{"id":"ev3","summary":"No start"}
		]}`)
	})
	p, _ := newTestGoogle(t, mux)

	events, err := p.ListEvents(context.Background(), testTokens(), "primary", testRange(t))
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	if gotSingle != "true" || gotOrder != "startTime" {
		t.Fatalf("query singleEvents=%q orderBy=%q", gotSingle, gotOrder)
	}
	if gotTimeMin == "" || gotTimeMax == "" {
		t.Fatal("time range not forwarded")
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events (ev3 has no start), got %d", len(events))
	}

	timed := events[0]
	if timed.AllDay || timed.Title != "Standup" || timed.Location != "Room 1" {
		t.Fatalf("unexpected timed event: %+v", timed)
	}
	if timed.Source.Type != domain.TypeGoogle || timed.Source.AccountID != "a@example.com" || timed.Source.CalendarName != "Work" {
		t.Fatalf("unexpected event source: %+v", timed.Source)
	}

	allDay := events[1]
	if !allDay.AllDay {
		t.Fatal("date-only start should mark the event all-day")
	}
	if allDay.Title != "(no title)" {
		t.Fatalf("missing summary should default, got %q", allDay.Title)
	}
	if allDay.Start.Format("2006-01-02") != "2026-02-13" {
		t.Fatalf("unexpected all-day start: %v", allDay.Start)
	}
}

func TestGoogleAuthErrorMapping(t *testing.T) {
	t.Parallel()
	mux := http.NewServeMux()
	mux.HandleFunc("/users/me/calendarList", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":{"code":401,"message":"Invalid Credentials"}}`)
	})
	p, _ := newTestGoogle(t, mux)

	_, err := p.ListCalendars(context.Background(), testTokens())
	if !errors.Is(err, ErrAuthExpired) {
		t.Fatalf("expected auth expired, got %v", err)
	}
	var aerr AuthExpiredError
	if !errors.As(err, &aerr) || aerr.Account != "a@example.com" {
		t.Fatalf("expected AuthExpiredError with account, got %#v", err)
	}
}

func TestGoogleAPIErrorMapping(t *testing.T) {
	t.Parallel()
	mux := http.NewServeMux()
	mux.HandleFunc("/users/me/calendarList", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprint(w, `{"error":{"code":503,"message":"Backend Error"}}`)
	})
	p, _ := newTestGoogle(t, mux)

	_, err := p.ListCalendars(context.Background(), testTokens())
	if !errors.Is(err, ErrAPI) {
		t.Fatalf("expected api error, got %v", err)
	}
	var apiErr APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %#v", err)
	}
}

func TestGoogleNetworkErrorMapping(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	v := &fakeValidator{}
	p := NewGoogleProvider(v, "a@example.com", 2*time.Second, option.WithEndpoint(url))
	_, err := p.ListCalendars(context.Background(), testTokens())
	if !errors.Is(err, ErrNetwork) {
		t.Fatalf("expected network error, got %v", err)
	}
}

func TestGoogleTokenValidationShortCircuits(t *testing.T) {
	t.Parallel()
	called := false
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) { called = true })
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	v := &fakeValidator{err: AuthExpiredError{Account: "a@example.com", Reason: "refresh failed"}}
	p := NewGoogleProvider(v, "a@example.com", 2*time.Second, option.WithEndpoint(srv.URL))

	if _, err := p.ListCalendars(context.Background(), testTokens()); !errors.Is(err, ErrAuthExpired) {
		t.Fatalf("expected the validator error, got %v", err)
	}
	if _, err := p.ListEvents(context.Background(), testTokens(), "primary", testRange(t)); !errors.Is(err, ErrAuthExpired) {
		t.Fatalf("expected the validator error, got %v", err)
	}
	if called {
		t.Fatal("no API call should happen when token validation fails")
	}
}

func TestGoogleListEventsRequiresCalendarID(t *testing.T) {
	t.Parallel()
	p := NewGoogleProvider(&fakeValidator{}, "a@example.com", time.Second)
	if _, err := p.ListEvents(context.Background(), testTokens(), "", testRange(t)); err == nil {
		t.Fatal("expected error for empty calendar id")
	}
}
