// Package crypto seals secrets with AES-256-GCM before they touch storage.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	// KeySize is the AES-256 key length in bytes.
	KeySize = 32

	ivSize  = 12
	tagSize = 16
)

var (
	// ErrKeyImport reports key material that cannot become a usable key.
	ErrKeyImport = errors.New("invalid key material")
	// ErrDecryptFailed reports ciphertext that could not be parsed or
	// authenticated. Deliberately generic: the caller learns nothing about
	// which check failed.
	ErrDecryptFailed = errors.New("decrypt failed")
)

// Cipher seals and opens secrets with AES-256-GCM. Safe for concurrent use.
type Cipher struct {
	aead cipher.AEAD
}

// NewCipher builds a Cipher from a 32-byte key.
func NewCipher(key []byte) (*Cipher, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: need %d bytes, got %d", ErrKeyImport, KeySize, len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyImport, err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyImport, err)
	}
	return &Cipher{aead: aead}, nil
}

// ImportKey decodes a 64-character hex master key.
func ImportKey(hexKey string) ([]byte, error) {
	key, err := hex.DecodeString(strings.TrimSpace(hexKey))
	if err != nil {
		return nil, fmt.Errorf("%w: not hex: %v", ErrKeyImport, err)
	}
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: need %d bytes, got %d", ErrKeyImport, KeySize, len(key))
	}
	return key, nil
}

// KeyFromPassphrase derives a master key from a passphrase with Argon2id.
// The salt must stay stable across runs or previously sealed secrets become
// unreadable.
func KeyFromPassphrase(passphrase, salt string) []byte {
	return argon2.IDKey([]byte(passphrase), []byte(salt), 3, 64*1024, 4, KeySize)
}

// Encrypt seals plaintext under a fresh random IV. Empty plaintext is valid.
func (c *Cipher) Encrypt(plaintext []byte) (Blob, error) {
	iv := make([]byte, ivSize)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return Blob{}, fmt.Errorf("generate iv: %w", err)
	}
	sealed := c.aead.Seal(nil, iv, plaintext, nil)
	split := len(sealed) - tagSize
	return Blob{
		Version:    blobVersion,
		IV:         iv,
		Ciphertext: sealed[:split],
		Tag:        sealed[split:],
	}, nil
}

// Decrypt opens a sealed blob. Any modification of the IV, ciphertext or tag
// fails authentication.
func (c *Cipher) Decrypt(b Blob) ([]byte, error) {
	if b.Version != blobVersion || len(b.IV) != ivSize || len(b.Tag) != tagSize {
		return nil, ErrDecryptFailed
	}
	sealed := make([]byte, 0, len(b.Ciphertext)+tagSize)
	sealed = append(append(sealed, b.Ciphertext...), b.Tag...)
	plaintext, err := c.aead.Open(nil, b.IV, sealed, nil)
	if err != nil {
		return nil, ErrDecryptFailed
	}
	return plaintext, nil
}
