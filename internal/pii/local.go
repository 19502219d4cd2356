package pii

import (
	"context"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

// ErrMalformedCiphertext is returned by Unseal for tokens that are too short or fail authentication.
var ErrMalformedCiphertext = errors.New("malformed ciphertext")

// LocalSealer seals with XChaCha20-Poly1305 under a key held in process configuration.
// Intended for development and tests where no KMS key is reachable.
// Token layout: base64(nonce || ciphertext).
type LocalSealer struct {
	aead cipher.AEAD
}

// NewLocalSealer builds a sealer from a 32-byte key.
func NewLocalSealer(key []byte) (*LocalSealer, error) {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("init aead: %w", err)
	}
	return &LocalSealer{aead: aead}, nil
}

// NewLocalSealerFromHex builds a sealer from a hex encoded 32-byte key.
func NewLocalSealerFromHex(keyHex string) (*LocalSealer, error) {
	key, err := hex.DecodeString(keyHex)
	if err != nil {
		return nil, fmt.Errorf("decode key: %w", err)
	}
	if len(key) != chacha20poly1305.KeySize {
		return nil, fmt.Errorf("key must be %d bytes, got %d", chacha20poly1305.KeySize, len(key))
	}
	return NewLocalSealer(key)
}

// Seal encrypts plaintext under a fresh random nonce.
func (s *LocalSealer) Seal(_ context.Context, plaintext string) (string, error) {
	nonce := make([]byte, s.aead.NonceSize(), s.aead.NonceSize()+len(plaintext)+s.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("nonce: %w", err)
	}
	out := s.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(out), nil
}

// Unseal reverses Seal.
func (s *LocalSealer) Unseal(_ context.Context, token string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return "", fmt.Errorf("decode ciphertext: %w", err)
	}
	if len(raw) < s.aead.NonceSize()+s.aead.Overhead() {
		return "", ErrMalformedCiphertext
	}
	nonce, body := raw[:s.aead.NonceSize()], raw[s.aead.NonceSize():]
	plain, err := s.aead.Open(nil, nonce, body, nil)
	if err != nil {
		return "", ErrMalformedCiphertext
	}
	return string(plain), nil
}
