// Package crypto seals short-lived values handed to untrusted callers.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"io"
)

// Sealer authenticates and encrypts small payloads with AES-256-GCM.
type Sealer struct {
	aead cipher.AEAD
}

// NewSealer creates a Sealer from a 32-byte hex-encoded key.
func NewSealer(keyHex string) (*Sealer, error) {
	key, err := hex.DecodeString(keyHex)
	if err != nil {
		return nil, errors.New("STATE_SECRET must be hex-encoded")
	}
	if len(key) != 32 {
		return nil, errors.New("STATE_SECRET must be 32 bytes (64 hex chars)")
	}
	return newSealer(key)
}

// NewRandomSealer creates a Sealer with a key that lives only as long as the
// process. Values it seals cannot be opened after a restart.
func NewRandomSealer() (*Sealer, error) {
	key := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, err
	}
	return newSealer(key)
}

func newSealer(key []byte) (*Sealer, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &Sealer{aead: gcm}, nil
}

// Seal encrypts plaintext. Output format: [nonce(12) | ciphertext+tag].
func (s *Sealer) Seal(plaintext []byte) ([]byte, error) {
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return s.aead.Seal(nonce, nonce, plaintext, nil), nil
}

// Open reverses Seal, failing on any tampering.
func (s *Sealer) Open(data []byte) ([]byte, error) {
	nonceSize := s.aead.NonceSize()
	if len(data) < nonceSize {
		return nil, errors.New("ciphertext too short")
	}
	nonce, ciphertext := data[:nonceSize], data[nonceSize:]
	return s.aead.Open(nil, nonce, ciphertext, nil)
}
