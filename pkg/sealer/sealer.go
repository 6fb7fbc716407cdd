// Package sealer issues opaque booking references: the booking id and the student's email
// sealed with AES-GCM, so a link in an email identifies exactly one booking without an account.
package sealer

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
)

var ErrInvalidToken = errors.New("invalid booking reference")

var additionalData = []byte("mentorhub/booking-ref/v1")

type Sealer struct {
	aead cipher.AEAD
}

// New builds a Sealer from a base64-encoded 32 byte key.
func New(encodedKey string) (*Sealer, error) {
	key, err := base64.StdEncoding.DecodeString(encodedKey)
	if err != nil {
		return nil, fmt.Errorf("failed to decode sealing key: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("sealing key must be 32 bytes, got %d", len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &Sealer{aead: aead}, nil
}

func (s *Sealer) Seal(bookingID, email string) (string, error) {
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	plaintext := []byte(bookingID + ":" + email)
	ct := s.aead.Seal(nonce, nonce, plaintext, additionalData)
	return base64.RawURLEncoding.EncodeToString(ct), nil
}

// Open returns the booking id and email sealed into token.
func (s *Sealer) Open(token string) (string, string, error) {
	data, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return "", "", ErrInvalidToken
	}

	nonceSize := s.aead.NonceSize()
	if len(data) < nonceSize+s.aead.Overhead() {
		return "", "", ErrInvalidToken
	}

	pt, err := s.aead.Open(nil, data[:nonceSize], data[nonceSize:], additionalData)
	if err != nil {
		return "", "", ErrInvalidToken
	}

	bookingID, email, ok := strings.Cut(string(pt), ":")
	if !ok || bookingID == "" {
		return "", "", ErrInvalidToken
	}
	return bookingID, email, nil
}
