package auth

import (
	"errors"
	"testing"
	"time"

	"finsync/internal/core"
)

func TestGenerateAndVerify(t *testing.T) {
	tm := NewTokenManager("test-secret", "finsync", time.Hour)

	token, err := tm.Generate(Identity{
		Subject: "auth0|123",
		Email:   "u@example.com",
		Name:    "U",
		Role:    core.RoleUser,
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	id, err := tm.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if id.Subject != "auth0|123" || id.Email != "u@example.com" || id.Role != core.RoleUser {
		t.Fatalf("unexpected identity: %+v", id)
	}
}

func TestVerifyAdminRole(t *testing.T) {
	tm := NewTokenManager("test-secret", "finsync", time.Hour)
	token, err := tm.Generate(Identity{Subject: "auth0|admin", Role: core.RoleAdmin})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	id, err := tm.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if id.Role != core.RoleAdmin {
		t.Fatalf("role = %q, want admin", id.Role)
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	tm := NewTokenManager("secret-a", "finsync", time.Hour)
	other := NewTokenManager("secret-b", "finsync", time.Hour)

	token, err := tm.Generate(Identity{Subject: "auth0|123"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := other.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("err = %v, want ErrInvalidToken", err)
	}
}

func TestVerifyRejectsExpired(t *testing.T) {
	tm := NewTokenManager("test-secret", "finsync", -time.Minute)
	token, err := tm.Generate(Identity{Subject: "auth0|123"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := tm.Verify(token); !errors.Is(err, ErrExpiredToken) {
		t.Fatalf("err = %v, want ErrExpiredToken", err)
	}
}

func TestVerifyRejectsWrongIssuer(t *testing.T) {
	tm := NewTokenManager("test-secret", "someone-else", time.Hour)
	verifier := NewTokenManager("test-secret", "finsync", time.Hour)

	token, err := tm.Generate(Identity{Subject: "auth0|123"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := verifier.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("err = %v, want ErrInvalidToken", err)
	}
}

func TestVerifyGarbage(t *testing.T) {
	tm := NewTokenManager("test-secret", "finsync", time.Hour)
	if _, err := tm.Verify("not.a.token"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("err = %v, want ErrInvalidToken", err)
	}
}
