package domain

import (
	"fmt"
	"strings"
	"time"
)

// ProviderType identifies a calendar backend.
type ProviderType string

const (
	TypeGoogle ProviderType = "google"
	TypeICal   ProviderType = "ical"
)

func (t ProviderType) String() string { return string(t) }

// ParseProviderType normalizes and validates a provider type string.
func ParseProviderType(v string) (ProviderType, error) {
	switch t := ProviderType(strings.ToLower(strings.TrimSpace(v))); t {
	case TypeGoogle, TypeICal:
		return t, nil
	default:
		return "", fmt.Errorf("unknown provider type: %q", v)
	}
}

// OAuthTokens is one account's OAuth credential set. It is replaced as a
// whole on refresh, never field by field, and is only ever persisted
// encrypted.
type OAuthTokens struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// ProviderCalendar is a calendar as the provider reports it. It is not
// persisted; the syncer turns it into a CalendarConfig.
type ProviderCalendar struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Primary bool   `json:"primary"`
	Color   string `json:"color,omitempty"`
}

// CalendarConfig is one entry of the persisted calendar configuration list.
type CalendarConfig struct {
	ID                 string       `json:"id"`
	Type               ProviderType `json:"type"`
	Name               string       `json:"name"`
	Enabled            bool         `json:"enabled"`
	Color              string       `json:"color,omitempty"`
	ProviderAccountID  string       `json:"provider_account_id,omitempty"`
	ProviderCalendarID string       `json:"provider_calendar_id,omitempty"`
}

// EventSource records where an event came from.
type EventSource struct {
	Type         ProviderType `json:"type"`
	CalendarName string       `json:"calendar_name"`
	AccountID    string       `json:"account_id,omitempty"`
}

type CalendarEvent struct {
	ID          string      `json:"id"`
	CalendarID  string      `json:"calendar_id"`
	Title       string      `json:"title"`
	Description string      `json:"description,omitempty"`
	Location    string      `json:"location,omitempty"`
	Start       time.Time   `json:"start"`
	End         time.Time   `json:"end"`
	AllDay      bool        `json:"all_day"`
	Source      EventSource `json:"source"`
}

// TimeRange is a closed interval with Start <= End.
type TimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func NewTimeRange(start, end time.Time) (TimeRange, error) {
	if end.Before(start) {
		return TimeRange{}, fmt.Errorf("time range end %s is before start %s", end.Format(time.RFC3339), start.Format(time.RFC3339))
	}
	return TimeRange{Start: start, End: end}, nil
}
