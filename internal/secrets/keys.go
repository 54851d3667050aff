package secrets

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ignission/soloday-sub001/internal/domain"
)

// ErrInvalidKey reports a storage key outside the known namespace.
var ErrInvalidKey = errors.New("invalid secret key")

const (
	tokenSuffix  = "oauth-tokens"
	llmPrefix    = "llm"
	apiKeySuffix = "api-key"
)

// llmProviders are the LLM backends the application stores API keys for.
var llmProviders = map[string]bool{
	"openai":    true,
	"anthropic": true,
	"gemini":    true,
}

// TokenKey returns the storage key for an account's OAuth tokens:
// <provider>:<account>:oauth-tokens.
func TokenKey(t domain.ProviderType, accountID string) string {
	return fmt.Sprintf("%s:%s:%s", t, accountID, tokenSuffix)
}

// APIKeyKey returns the storage key for an LLM provider API key:
// llm:<provider>:api-key.
func APIKeyKey(provider string) string {
	return fmt.Sprintf("%s:%s:%s", llmPrefix, provider, apiKeySuffix)
}

// ValidateKey accepts only the two known key shapes and rejects everything
// else.
func ValidateKey(key string) error {
	parts := strings.Split(key, ":")
	if len(parts) != 3 || parts[1] == "" {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	if parts[0] == llmPrefix {
		if !llmProviders[parts[1]] || parts[2] != apiKeySuffix {
			return fmt.Errorf("%w: %q", ErrInvalidKey, key)
		}
		return nil
	}
	if _, err := domain.ParseProviderType(parts[0]); err != nil || parts[2] != tokenSuffix {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}
