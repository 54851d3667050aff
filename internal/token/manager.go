// Package token manages the OAuth token lifecycle: exchanging authorization
// codes, detecting expiry and refreshing expired tokens.
package token

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/ignission/soloday-sub001/internal/domain"
	"github.com/ignission/soloday-sub001/internal/provider"
)

const (
	// DefaultSkew is how long before its recorded expiry a token is already
	// treated as expired.
	DefaultSkew = 5 * time.Minute

	defaultTimeout = 15 * time.Second
)

// Expired reports whether tokens must be refreshed before use at the given
// instant. A token with no recorded expiry counts as expired.
func Expired(t domain.OAuthTokens, now time.Time, skew time.Duration) bool {
	if t.ExpiresAt.IsZero() {
		return true
	}
	return !now.Before(t.ExpiresAt.Add(-skew))
}

// TokenStore persists refreshed token sets.
type TokenStore interface {
	SaveTokens(ctx context.Context, t domain.ProviderType, accountID string, tokens domain.OAuthTokens) error
}

// Config carries the provider identity and lifecycle knobs for a Manager.
type Config struct {
	Provider domain.ProviderType
	OAuth    *oauth2.Config
	Skew     time.Duration
	Timeout  time.Duration
}

// Manager implements the token lifecycle against one OAuth provider.
type Manager struct {
	cfg     Config
	secrets TokenStore
	log     *slog.Logger
	now     func() time.Time
}

// NewManager wires a token manager. Zero Skew and Timeout fall back to the
// defaults; a nil logger falls back to slog.Default().
func NewManager(cfg Config, secrets TokenStore, log *slog.Logger) *Manager {
	if cfg.Provider == "" {
		cfg.Provider = domain.TypeGoogle
	}
	if cfg.Skew <= 0 {
		cfg.Skew = DefaultSkew
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if log == nil {
		log = slog.Default()
	}
	return &Manager{cfg: cfg, secrets: secrets, log: log, now: time.Now}
}

// NewState returns a fresh opaque state nonce for the consent redirect.
func NewState() string { return uuid.NewString() }

// AuthURL returns the provider consent URL. Offline access is requested so
// the exchange yields a refresh token.
func (m *Manager) AuthURL(state string) string {
	return m.cfg.OAuth.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// Exchange trades an authorization code for a token set. verifier is the
// PKCE code verifier when the consent flow used one; empty skips PKCE.
// Exchange does not persist anything.
func (m *Manager) Exchange(ctx context.Context, code, verifier string) (domain.OAuthTokens, error) {
	ctx, cancel := context.WithTimeout(ctx, m.cfg.Timeout)
	defer cancel()

	var opts []oauth2.AuthCodeOption
	if verifier != "" {
		opts = append(opts, oauth2.VerifierOption(verifier))
	}
	tok, err := m.cfg.OAuth.Exchange(ctx, code, opts...)
	if err != nil {
		return domain.OAuthTokens{}, provider.AuthExpiredError{Reason: fmt.Sprintf("code exchange failed: %v", err)}
	}
	return fromOAuth2(tok, ""), nil
}

// EnsureValid returns a token set that is safe to use for an API call,
// refreshing it first when expired. A refreshed set is persisted
// best-effort: when persisting fails, the failure is logged and the fresh
// tokens are still returned. Concurrent calls for one account may both
// refresh; the last persisted set wins.
func (m *Manager) EnsureValid(ctx context.Context, accountID string, t domain.OAuthTokens) (domain.OAuthTokens, error) {
	if !Expired(t, m.now(), m.cfg.Skew) {
		return t, nil
	}
	if t.RefreshToken == "" {
		return domain.OAuthTokens{}, provider.AuthExpiredError{Account: accountID, Reason: "no refresh token"}
	}

	m.log.Info("refreshing access token", "account", accountID)
	rctx, cancel := context.WithTimeout(ctx, m.cfg.Timeout)
	defer cancel()

	fresh, err := m.cfg.OAuth.TokenSource(rctx, &oauth2.Token{RefreshToken: t.RefreshToken}).Token()
	if err != nil {
		return domain.OAuthTokens{}, provider.AuthExpiredError{Account: accountID, Reason: fmt.Sprintf("refresh failed: %v", err)}
	}

	next := fromOAuth2(fresh, t.RefreshToken)
	if err := m.secrets.SaveTokens(ctx, m.cfg.Provider, accountID, next); err != nil {
		m.log.Warn("persisting refreshed tokens failed, continuing with fresh tokens",
			"account", accountID, "error", err)
	}
	return next, nil
}

// fromOAuth2 converts an oauth2 token, keeping the previous refresh token
// when the response omits one.
func fromOAuth2(t *oauth2.Token, previousRefresh string) domain.OAuthTokens {
	out := domain.OAuthTokens{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		ExpiresAt:    t.Expiry,
	}
	if out.RefreshToken == "" {
		out.RefreshToken = previousRefresh
	}
	return out
}
