package service

import (
	"encoding/base64"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ishmeet5ingh/tracking-backend/internal/core/domain"
)

func TestTokenService_RoundTrip(t *testing.T) {
	t.Parallel()

	svc, err := NewTokenService("super-secret", 0)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}

	tok, err := svc.Issue("64b7f0c2a1e4d3f2b1c0a987")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	claims, err := svc.Verify(tok)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.UserID != "64b7f0c2a1e4d3f2b1c0a987" {
		t.Fatalf("userID mismatch: got %q", claims.UserID)
	}
	if claims.TokenID == "" {
		t.Fatalf("expected a token id")
	}
	if !claims.ExpiresAt.IsZero() {
		t.Fatalf("ttl=0 must not set an expiry, got %v", claims.ExpiresAt)
	}
}

func TestTokenService_UniqueTokenIDs(t *testing.T) {
	t.Parallel()

	svc, _ := NewTokenService("secret", time.Hour)
	a, _ := svc.Issue("u1")
	b, _ := svc.Issue("u1")

	ca, err := svc.Verify(a)
	if err != nil {
		t.Fatalf("verify a: %v", err)
	}
	cb, err := svc.Verify(b)
	if err != nil {
		t.Fatalf("verify b: %v", err)
	}
	if ca.TokenID == cb.TokenID {
		t.Fatalf("expected distinct token ids, both %q", ca.TokenID)
	}
	if ca.ExpiresAt.IsZero() {
		t.Fatalf("expected expiry with ttl set")
	}
}

func TestTokenService_WrongSecret(t *testing.T) {
	t.Parallel()

	issuer, _ := NewTokenService("right-secret", time.Hour)
	verifier, _ := NewTokenService("wrong-secret", time.Hour)

	tok, err := issuer.Issue("u2")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := verifier.Verify(tok); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestTokenService_TamperedPayload(t *testing.T) {
	t.Parallel()

	svc, _ := NewTokenService("secret", time.Hour)
	tok, _ := svc.Issue("victim")

	parts := strings.Split(tok, ".")
	if len(parts) != 3 {
		t.Fatalf("unexpected token shape: %q", tok)
	}
	parts[1] = base64.RawURLEncoding.EncodeToString([]byte(`{"userId":"attacker"}`))

	if _, err := svc.Verify(strings.Join(parts, ".")); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestTokenService_Expired(t *testing.T) {
	t.Parallel()

	svc, _ := NewTokenService("secret", time.Minute)
	svc.now = func() time.Time { return time.Now().Add(-2 * time.Minute) }
	tok, err := svc.Issue("u3")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	svc.now = time.Now
	if _, err := svc.Verify(tok); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestTokenService_RejectsOtherAlgorithms(t *testing.T) {
	t.Parallel()

	svc, _ := NewTokenService("secret", time.Hour)
	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"userId": "u4"})
	tok, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}
	if _, err := svc.Verify(tok); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestTokenService_Malformed(t *testing.T) {
	t.Parallel()

	svc, _ := NewTokenService("secret", time.Hour)
	for _, tok := range []string{"", "not-a-token", "a.b.c"} {
		if _, err := svc.Verify(tok); !errors.Is(err, domain.ErrInvalidToken) {
			t.Fatalf("Verify(%q): expected ErrInvalidToken, got %v", tok, err)
		}
	}
}

func TestTokenService_MissingUserID(t *testing.T) {
	t.Parallel()

	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "x"}).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	svc, _ := NewTokenService("secret", time.Hour)
	if _, err := svc.Verify(tok); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestNewTokenService_EmptySecret(t *testing.T) {
	t.Parallel()

	if _, err := NewTokenService("", time.Hour); err == nil {
		t.Fatalf("expected error for empty secret")
	}
}
