// Package syncer wires freshly connected accounts into the calendar
// configuration stored in settings.
package syncer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/ignission/soloday-sub001/internal/domain"
	"github.com/ignission/soloday-sub001/internal/option"
	"github.com/ignission/soloday-sub001/internal/provider"
)

// SettingKey is where the calendar configuration list lives.
const SettingKey = "calendars"

// Step names carried by SyncError.
const (
	StepPersistTokens = "persist_tokens"
	StepListCalendars = "list_calendars"
	StepLoadConfig    = "load_config"
	StepSaveConfig    = "save_config"
	StepDeleteTokens  = "delete_tokens"
)

// SyncError reports which setup step failed.
type SyncError struct {
	Step string
	Err  error
}

func (e SyncError) Error() string { return fmt.Sprintf("sync %s: %v", e.Step, e.Err) }

func (e SyncError) Unwrap() error { return e.Err }

// Settings is the slice of the settings store the syncer needs.
type Settings interface {
	Get(ctx context.Context, key string) (option.Option[string], error)
	Set(ctx context.Context, key, value string) error
}

// TokenStore persists and removes a connected account's token set.
type TokenStore interface {
	SaveTokens(ctx context.Context, t domain.ProviderType, accountID string, tokens domain.OAuthTokens) error
	DeleteTokens(ctx context.Context, t domain.ProviderType, accountID string) error
}

// Factory builds the provider for an account.
type Factory func(t domain.ProviderType, accountID string) (provider.CalendarProvider, error)

// Service runs post-connect calendar setup.
type Service struct {
	secrets  TokenStore
	settings Settings
	factory  Factory
	log      *slog.Logger
}

func New(secrets TokenStore, settings Settings, factory Factory, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{secrets: secrets, settings: settings, factory: factory, log: log}
}

// Result summarizes one AutoSetup run.
type Result struct {
	// Added counts configurations appended by this run.
	Added int
	// Calendars is the full configuration list after the run.
	Calendars []domain.CalendarConfig
}

// AutoSetup persists the account's tokens, lists its calendars, and appends
// a configuration entry for every calendar not yet configured. Existing
// entries are never touched, so user edits survive reconnects. Reruns with
// an unchanged calendar list write nothing.
func (s *Service) AutoSetup(ctx context.Context, t domain.ProviderType, accountID string, tokens domain.OAuthTokens) (Result, error) {
	if err := s.secrets.SaveTokens(ctx, t, accountID, tokens); err != nil {
		return Result{}, SyncError{Step: StepPersistTokens, Err: err}
	}

	prov, err := s.factory(t, accountID)
	if err != nil {
		return Result{}, SyncError{Step: StepListCalendars, Err: err}
	}
	available, err := prov.ListCalendars(ctx, tokens)
	if err != nil {
		return Result{}, SyncError{Step: StepListCalendars, Err: err}
	}

	configs, err := LoadConfigs(ctx, s.settings)
	if err != nil {
		return Result{}, SyncError{Step: StepLoadConfig, Err: err}
	}

	known := make(map[string]bool, len(configs))
	for _, c := range configs {
		known[c.ID] = true
	}

	added := 0
	for _, pc := range available {
		id := domain.CalendarConfigID(t, accountID, pc.ID)
		if known[id] {
			continue
		}
		configs = append(configs, domain.CalendarConfig{
			ID:                 id,
			Type:               t,
			Name:               pc.Name,
			Enabled:            pc.Primary,
			Color:              pc.Color,
			ProviderAccountID:  accountID,
			ProviderCalendarID: pc.ID,
		})
		known[id] = true
		added++
	}

	if added == 0 {
		s.log.Info("calendar setup unchanged", "provider", t, "account", accountID)
		return Result{Added: 0, Calendars: configs}, nil
	}

	raw, err := json.Marshal(configs)
	if err != nil {
		return Result{}, SyncError{Step: StepSaveConfig, Err: err}
	}
	if err := s.settings.Set(ctx, SettingKey, string(raw)); err != nil {
		return Result{}, SyncError{Step: StepSaveConfig, Err: err}
	}

	s.log.Info("calendar setup updated", "provider", t, "account", accountID, "added", added, "total", len(configs))
	return Result{Added: added, Calendars: configs}, nil
}

// Disconnect deletes the account's stored tokens and drops its calendar
// configurations. Configurations belonging to other accounts are untouched.
// It returns how many configurations were removed.
func (s *Service) Disconnect(ctx context.Context, t domain.ProviderType, accountID string) (int, error) {
	if err := s.secrets.DeleteTokens(ctx, t, accountID); err != nil {
		return 0, SyncError{Step: StepDeleteTokens, Err: err}
	}

	configs, err := LoadConfigs(ctx, s.settings)
	if err != nil {
		return 0, SyncError{Step: StepLoadConfig, Err: err}
	}

	kept := make([]domain.CalendarConfig, 0, len(configs))
	removed := 0
	for _, c := range configs {
		if c.Type == t && c.ProviderAccountID == accountID {
			removed++
			continue
		}
		kept = append(kept, c)
	}
	if removed == 0 {
		return 0, nil
	}

	raw, err := json.Marshal(kept)
	if err != nil {
		return 0, SyncError{Step: StepSaveConfig, Err: err}
	}
	if err := s.settings.Set(ctx, SettingKey, string(raw)); err != nil {
		return 0, SyncError{Step: StepSaveConfig, Err: err}
	}

	s.log.Info("account disconnected", "provider", t, "account", accountID, "removed", removed)
	return removed, nil
}

// LoadConfigs reads the configured calendar list. A missing setting is an
// empty list; a setting that fails to parse is an error.
func LoadConfigs(ctx context.Context, settings Settings) ([]domain.CalendarConfig, error) {
	stored, err := settings.Get(ctx, SettingKey)
	if err != nil {
		return nil, err
	}
	var configs []domain.CalendarConfig
	if err := json.Unmarshal([]byte(stored.GetOr("[]")), &configs); err != nil {
		return nil, fmt.Errorf("parse %s setting: %w", SettingKey, err)
	}
	return configs, nil
}
