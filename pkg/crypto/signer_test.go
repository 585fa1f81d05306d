package crypto

import (
	"errors"
	"strings"
	"testing"
)

func TestSignerRoundTrip(t *testing.T) {
	s := NewSigner("top-secret", nil)
	body := []byte(`{"account_id":"ACC-1","amount":"100"}`)

	sig := s.Sign(body)
	if len(sig) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(sig))
	}
	if err := s.Verify(body, sig); err != nil {
		t.Fatalf("expected valid signature, got %v", err)
	}
	if err := s.Verify(body, strings.ToUpper(sig)); err != nil {
		t.Fatalf("upper-case hex should verify, got %v", err)
	}
}

func TestSignerRejectsTamperedBody(t *testing.T) {
	s := NewSigner("top-secret", nil)
	sig := s.Sign([]byte(`{"amount":"100"}`))

	if err := s.Verify([]byte(`{"amount":"100000"}`), sig); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
}

func TestSignerRejectsOtherKeyAndGarbage(t *testing.T) {
	body := []byte("payload")
	sig := NewSigner("key-a", nil).Sign(body)

	s := NewSigner("key-b", nil)
	if err := s.Verify(body, sig); !errors.Is(err, ErrInvalidSignature) {
		t.Errorf("expected ErrInvalidSignature for other key, got %v", err)
	}
	if err := s.Verify(body, "not-hex"); !errors.Is(err, ErrInvalidSignature) {
		t.Errorf("expected ErrInvalidSignature for garbage, got %v", err)
	}
	if err := s.Verify(body, ""); !errors.Is(err, ErrMissingSignature) {
		t.Errorf("expected ErrMissingSignature, got %v", err)
	}
}
