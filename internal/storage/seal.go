package storage

import (
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

// sealedMarker prefixes sealed values. Plain records are JSON objects and
// always start with '{'.
const sealedMarker byte = 0x01

var (
	ErrInvalidKey     = errors.New("storage: encryption key must be 32 bytes")
	ErrSealedNoKey    = errors.New("storage: record is sealed but no encryption key is configured")
	ErrUnsealFailed   = errors.New("storage: unseal failed - wrong key or corrupted data")
	errSealedTooShort = errors.New("storage: sealed value too short")
)

// sealer provides ChaCha20-Poly1305 authenticated encryption of record
// values. The record id is bound as additional data so a value cannot be
// moved under another key.
type sealer struct {
	aead cipher.AEAD
}

func newSealer(key []byte) (*sealer, error) {
	if len(key) != chacha20poly1305.KeySize {
		return nil, ErrInvalidKey
	}
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("storage: init cipher: %w", err)
	}
	return &sealer{aead: aead}, nil
}

// seal returns marker || nonce || ciphertext.
func (s *sealer) seal(plaintext, id []byte) ([]byte, error) {
	nonceSize := s.aead.NonceSize()
	out := make([]byte, 1+nonceSize, 1+nonceSize+len(plaintext)+s.aead.Overhead())
	out[0] = sealedMarker
	if _, err := rand.Read(out[1:]); err != nil {
		return nil, fmt.Errorf("storage: generate nonce: %w", err)
	}
	return s.aead.Seal(out, out[1:], plaintext, id), nil
}

func (s *sealer) open(value, id []byte) ([]byte, error) {
	nonceSize := s.aead.NonceSize()
	if len(value) < 1+nonceSize+s.aead.Overhead() {
		return nil, errSealedTooShort
	}
	nonce := value[1 : 1+nonceSize]
	plaintext, err := s.aead.Open(nil, nonce, value[1+nonceSize:], id)
	if err != nil {
		return nil, ErrUnsealFailed
	}
	return plaintext, nil
}

func isSealed(value []byte) bool {
	return len(value) > 0 && value[0] == sealedMarker
}
