package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/nacl/secretbox"
)

const nonceSize = 24

// Sealer provides authenticated encryption for cookie payloads using NaCl
// secretbox. Sealed values are confidential and tamper-evident: a modified
// cookie fails to open rather than yielding garbage.
type Sealer struct {
	key [32]byte
}

// NewSealer derives a fixed-size sealing key from the configured secret
func NewSealer(secret []byte) Sealer {
	return Sealer{key: sha256.Sum256(secret)}
}

// Seal encrypts plaintext and returns a base64 URL-encoded token with the
// nonce prepended
func (s *Sealer) Seal(plaintext string) (string, error) {
	var nonce [nonceSize]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := secretbox.Seal(nonce[:], []byte(plaintext), &nonce, &s.key)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Open decrypts and authenticates a token produced by Seal
func (s *Sealer) Open(token string) (string, error) {
	sealed, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return "", fmt.Errorf("failed to decode sealed value: %w", err)
	}
	if len(sealed) < nonceSize {
		return "", fmt.Errorf("sealed value too short")
	}

	var nonce [nonceSize]byte
	copy(nonce[:], sealed[:nonceSize])

	plaintext, ok := secretbox.Open(nil, sealed[nonceSize:], &nonce, &s.key)
	if !ok {
		return "", fmt.Errorf("failed to open sealed value")
	}
	return string(plaintext), nil
}
