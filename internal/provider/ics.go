package provider

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/ignission/soloday-sub001/internal/domain"
)

// HTTPDoer is the slice of *http.Client the ICS provider needs.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

const icsCalendarID = "ics-default"

// ICSProvider reads events from a single ICS feed URL. Feeds carry no OAuth
// state, so the token arguments are accepted and ignored.
type ICSProvider struct {
	url    string
	name   string
	client HTTPDoer
}

func NewICSProvider(url, name string, client HTTPDoer) *ICSProvider {
	if name == "" {
		name = "ICS Feed"
	}
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	return &ICSProvider{url: url, name: name, client: client}
}

func (p *ICSProvider) Type() domain.ProviderType { return domain.TypeICal }

// ListCalendars reports the one synthetic calendar a feed represents.
func (p *ICSProvider) ListCalendars(context.Context, domain.OAuthTokens) ([]domain.ProviderCalendar, error) {
	return []domain.ProviderCalendar{{ID: icsCalendarID, Name: p.name, Primary: true}}, nil
}

func (p *ICSProvider) ListEvents(ctx context.Context, _ domain.OAuthTokens, calendarID string, rng domain.TimeRange) ([]domain.CalendarEvent, error) {
	if calendarID == "" {
		calendarID = icsCalendarID
	}
	body, err := p.fetch(ctx)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	cal, err := ical.ParseCalendar(body)
	if err != nil {
		return nil, APIError{Message: fmt.Sprintf("parse ics feed: %v", err)}
	}

	var out []domain.CalendarEvent
	for _, ve := range cal.Events() {
		ev, ok := p.mapEvent(ve, calendarID)
		if !ok {
			continue
		}
		if !rng.Start.IsZero() && ev.End.Before(rng.Start) {
			continue
		}
		if !rng.End.IsZero() && ev.Start.After(rng.End) {
			continue
		}
		out = append(out, ev)
	}
	return out, nil
}

func (p *ICSProvider) fetch(ctx context.Context) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return nil, NetworkError{Op: "build feed request", Err: err}
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, NetworkError{Op: "fetch feed", Err: err}
	}
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		resp.Body.Close()
		return nil, AuthExpiredError{Reason: fmt.Sprintf("feed returned status %d", resp.StatusCode)}
	case resp.StatusCode != http.StatusOK:
		resp.Body.Close()
		return nil, APIError{StatusCode: resp.StatusCode, Message: "unexpected feed status"}
	}
	return resp.Body, nil
}

// mapEvent converts one VEVENT. Events without a UID or a parseable start
// are dropped. All-day detection follows the DTSTART shape: a VALUE=DATE
// parameter or a value without a time part.
func (p *ICSProvider) mapEvent(ve *ical.VEvent, calendarID string) (domain.CalendarEvent, bool) {
	uid := ve.GetProperty(ical.ComponentPropertyUniqueId)
	if uid == nil || uid.Value == "" {
		return domain.CalendarEvent{}, false
	}
	start, err := ve.GetStartAt()
	if err != nil {
		return domain.CalendarEvent{}, false
	}
	end, err := ve.GetEndAt()
	if err != nil {
		end = start
	}

	allDay := false
	if dtstart := ve.GetProperty(ical.ComponentPropertyDtStart); dtstart != nil {
		if params := dtstart.ICalParameters; params != nil {
			if vs, ok := params["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
				allDay = true
			}
		}
		if !strings.Contains(dtstart.Value, "T") {
			allDay = true
		}
	}

	var title, description, location string
	if prop := ve.GetProperty(ical.ComponentPropertySummary); prop != nil {
		title = prop.Value
	}
	if title == "" {
		title = defaultEventTitle
	}
	if prop := ve.GetProperty(ical.ComponentPropertyDescription); prop != nil {
		description = prop.Value
	}
	if prop := ve.GetProperty(ical.ComponentPropertyLocation); prop != nil {
		location = prop.Value
	}

	return domain.CalendarEvent{
		ID:          uid.Value,
		CalendarID:  calendarID,
		Title:       title,
		Description: description,
		Location:    location,
		Start:       start,
		End:         end,
		AllDay:      allDay,
		Source: domain.EventSource{
			Type:         domain.TypeICal,
			CalendarName: p.name,
		},
	}, true
}
