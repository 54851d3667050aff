package crypto

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// blobVersion is the current sealed format: AES-256-GCM with a 96-bit IV and
// a 128-bit tag, serialized as v1:<iv>:<ciphertext>:<tag> in base64.
const blobVersion = 1

const versionPrefix = "v1"

// Blob is one sealed secret.
type Blob struct {
	Version    int
	IV         []byte
	Ciphertext []byte
	Tag        []byte
}

// String serializes the blob. The output carries no plaintext material.
func (b Blob) String() string {
	enc := base64.StdEncoding
	return strings.Join([]string{
		versionPrefix,
		enc.EncodeToString(b.IV),
		enc.EncodeToString(b.Ciphertext),
		enc.EncodeToString(b.Tag),
	}, ":")
}

// ParseBlob parses the form produced by Blob.String. Malformed input and
// unknown versions fail with ErrDecryptFailed.
func ParseBlob(s string) (Blob, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 4 {
		return Blob{}, fmt.Errorf("%w: malformed blob", ErrDecryptFailed)
	}
	if parts[0] != versionPrefix {
		return Blob{}, fmt.Errorf("%w: unsupported version %q", ErrDecryptFailed, parts[0])
	}
	enc := base64.StdEncoding
	iv, err := enc.DecodeString(parts[1])
	if err != nil {
		return Blob{}, fmt.Errorf("%w: iv not base64", ErrDecryptFailed)
	}
	ciphertext, err := enc.DecodeString(parts[2])
	if err != nil {
		return Blob{}, fmt.Errorf("%w: ciphertext not base64", ErrDecryptFailed)
	}
	tag, err := enc.DecodeString(parts[3])
	if err != nil {
		return Blob{}, fmt.Errorf("%w: tag not base64", ErrDecryptFailed)
	}
	return Blob{Version: blobVersion, IV: iv, Ciphertext: ciphertext, Tag: tag}, nil
}
