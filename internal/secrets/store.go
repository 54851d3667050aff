// Package secrets persists secrets encrypted at rest. Values are sealed
// before they reach the settings layer and only ever leave it sealed.
package secrets

import (
	"context"
	"fmt"

	"github.com/ignission/soloday-sub001/internal/crypto"
	"github.com/ignission/soloday-sub001/internal/option"
)

// Settings is the slice of the settings store this package needs.
type Settings interface {
	Get(ctx context.Context, key string) (option.Option[string], error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Store is the encrypted key-value store for credentials.
type Store struct {
	settings Settings
	cipher   *crypto.Cipher
}

func New(settings Settings, cipher *crypto.Cipher) *Store {
	return &Store{settings: settings, cipher: cipher}
}

// StoreError reports a failed secret-store operation.
type StoreError struct {
	Op  string
	Key string
	Err error
}

func (e StoreError) Error() string {
	return fmt.Sprintf("secrets: %s %q: %v", e.Op, e.Key, e.Err)
}

func (e StoreError) Unwrap() error { return e.Err }

// Set seals plaintext and persists it under key.
func (s *Store) Set(ctx context.Context, key string, plaintext []byte) error {
	if err := ValidateKey(key); err != nil {
		return StoreError{Op: "set", Key: key, Err: err}
	}
	blob, err := s.cipher.Encrypt(plaintext)
	if err != nil {
		return StoreError{Op: "set", Key: key, Err: err}
	}
	if err := s.settings.Set(ctx, key, blob.String()); err != nil {
		return StoreError{Op: "set", Key: key, Err: err}
	}
	return nil
}

// Get returns the decrypted secret under key, or None when nothing is
// stored. A stored value that fails to parse or authenticate is an error,
// never None.
func (s *Store) Get(ctx context.Context, key string) (option.Option[[]byte], error) {
	none := option.None[[]byte]()
	if err := ValidateKey(key); err != nil {
		return none, StoreError{Op: "get", Key: key, Err: err}
	}
	stored, err := s.settings.Get(ctx, key)
	if err != nil {
		return none, StoreError{Op: "get", Key: key, Err: err}
	}
	raw, ok := stored.Get()
	if !ok {
		return none, nil
	}
	blob, err := crypto.ParseBlob(raw)
	if err != nil {
		return none, StoreError{Op: "get", Key: key, Err: err}
	}
	plaintext, err := s.cipher.Decrypt(blob)
	if err != nil {
		return none, StoreError{Op: "get", Key: key, Err: err}
	}
	return option.Some(plaintext), nil
}

// Delete removes the secret under key. Deleting an absent key is a no-op.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ValidateKey(key); err != nil {
		return StoreError{Op: "delete", Key: key, Err: err}
	}
	if err := s.settings.Delete(ctx, key); err != nil {
		return StoreError{Op: "delete", Key: key, Err: err}
	}
	return nil
}
