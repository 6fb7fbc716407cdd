package sealer

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"testing"
)

func newKey(t *testing.T) string {
	t.Helper()
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		t.Fatalf("rand: %v", err)
	}
	return base64.StdEncoding.EncodeToString(key)
}

func TestSealAndOpen(t *testing.T) {
	s, err := New(newKey(t))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	token, err := s.Seal("665f1c2e9b1d4a0012345678", "student@example.com")
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}

	id, email, err := s.Open(token)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if id != "665f1c2e9b1d4a0012345678" || email != "student@example.com" {
		t.Errorf("unexpected payload %s / %s", id, email)
	}

	again, _ := s.Seal("665f1c2e9b1d4a0012345678", "student@example.com")
	if again == token {
		t.Error("tokens should use a fresh nonce")
	}
}

func TestOpen_Rejects(t *testing.T) {
	s, _ := New(newKey(t))
	other, _ := New(newKey(t))
	foreign, _ := other.Seal("abc", "x@y.z")

	for name, token := range map[string]string{
		"not base64":  "%%%",
		"too short":   "AAAA",
		"foreign key": foreign,
		"empty":       "",
	} {
		t.Run(name, func(t *testing.T) {
			if _, _, err := s.Open(token); !errors.Is(err, ErrInvalidToken) {
				t.Errorf("expected ErrInvalidToken, got %v", err)
			}
		})
	}
}

func TestNew_RejectsBadKeys(t *testing.T) {
	if _, err := New("not-base64!"); err == nil {
		t.Error("expected decode error")
	}
	if _, err := New(base64.StdEncoding.EncodeToString([]byte("short"))); err == nil {
		t.Error("expected key length error")
	}
}
