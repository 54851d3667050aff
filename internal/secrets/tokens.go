package secrets

import (
	"context"
	"encoding/json"

	"github.com/ignission/soloday-sub001/internal/domain"
	"github.com/ignission/soloday-sub001/internal/option"
)

// SaveTokens seals and persists an account's OAuth tokens.
func (s *Store) SaveTokens(ctx context.Context, t domain.ProviderType, accountID string, tokens domain.OAuthTokens) error {
	key := TokenKey(t, accountID)
	plaintext, err := json.Marshal(tokens)
	if err != nil {
		return StoreError{Op: "save_tokens", Key: key, Err: err}
	}
	return s.Set(ctx, key, plaintext)
}

// LoadTokens returns an account's OAuth tokens, or None when the account has
// never connected.
func (s *Store) LoadTokens(ctx context.Context, t domain.ProviderType, accountID string) (option.Option[domain.OAuthTokens], error) {
	none := option.None[domain.OAuthTokens]()
	key := TokenKey(t, accountID)

	sealed, err := s.Get(ctx, key)
	if err != nil {
		return none, err
	}
	raw, ok := sealed.Get()
	if !ok {
		return none, nil
	}
	var tokens domain.OAuthTokens
	if err := json.Unmarshal(raw, &tokens); err != nil {
		return none, StoreError{Op: "load_tokens", Key: key, Err: err}
	}
	return option.Some(tokens), nil
}

// DeleteTokens removes an account's stored OAuth tokens.
func (s *Store) DeleteTokens(ctx context.Context, t domain.ProviderType, accountID string) error {
	return s.Delete(ctx, TokenKey(t, accountID))
}
