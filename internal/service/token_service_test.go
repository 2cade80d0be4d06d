package service

import (
	"errors"
	"testing"
	"time"
)

func TestTokenService_RoundTrip(t *testing.T) {
	svc := NewTokenService("secret", time.Hour)

	token, err := svc.Sign("provider|abc")
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	subject, err := svc.Parse(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if subject != "provider|abc" {
		t.Fatalf("expected subject preserved, got %q", subject)
	}
}

func TestTokenService_RejectsWrongSecret(t *testing.T) {
	signer := NewTokenService("secret-a", time.Hour)
	verifier := NewTokenService("secret-b", time.Hour)

	token, err := signer.Sign("provider|abc")
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := verifier.Parse(token); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestTokenService_RejectsExpired(t *testing.T) {
	svc := NewTokenService("secret", time.Hour)
	svc.ttl = -time.Minute

	token, err := svc.Sign("provider|abc")
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := svc.Parse(token); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestTokenService_RejectsGarbage(t *testing.T) {
	svc := NewTokenService("secret", time.Hour)
	for _, token := range []string{"", "   ", "not-a-jwt"} {
		if _, err := svc.Parse(token); !errors.Is(err, ErrTokenInvalid) {
			t.Fatalf("token %q: expected ErrTokenInvalid, got %v", token, err)
		}
	}
	if _, err := svc.Sign(""); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected empty subject rejection, got %v", err)
	}
}
