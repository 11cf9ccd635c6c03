package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"budget/internal/core"
)

func TestHashAndVerify(t *testing.T) {
	if _, err := HashPassword("short"); !errors.Is(err, core.ErrPasswordTooShort) {
		t.Fatalf("HashPassword(short) error = %v", err)
	}

	h, err := HashPassword("secret1")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	acc := core.Account{Username: "alice", PasswordHash: h}

	upgrade, err := Verify(acc, "secret1")
	if err != nil || upgrade {
		t.Fatalf("Verify(correct) = %v, %v", upgrade, err)
	}
	if _, err := Verify(acc, "wrong-password"); !errors.Is(err, core.ErrInvalidCredentials) {
		t.Fatalf("Verify(wrong) error = %v", err)
	}
}

func TestVerifyLegacy(t *testing.T) {
	// sha256("password")
	acc := core.Account{Username: "bob", LegacyPassword: "5e884898da28047151d0e56f8dc6292773603d0d6aabbdd62a11ef721d1542d8"}

	upgrade, err := Verify(acc, "password")
	if err != nil || !upgrade {
		t.Fatalf("Verify(legacy) = %v, %v; want upgrade", upgrade, err)
	}
	if _, err := Verify(acc, "Password"); !errors.Is(err, core.ErrInvalidCredentials) {
		t.Fatalf("Verify(legacy wrong) error = %v", err)
	}
	if _, err := Verify(core.Account{Username: "empty"}, ""); !errors.Is(err, core.ErrInvalidCredentials) {
		t.Fatalf("Verify(no hash) error = %v", err)
	}
}

func TestTokens(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	tokens := NewTokens("s3cret", time.Hour)
	tokens.now = func() time.Time { return now }

	signed, claims, err := tokens.Issue("alice")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if claims.SessionID() == "" {
		t.Fatal("empty session id")
	}

	got, err := tokens.Parse(signed)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got.Username != "alice" || got.SessionID() != claims.SessionID() {
		t.Fatalf("Parse = %+v, want %+v", got, claims)
	}

	other := NewTokens("other", time.Hour)
	other.now = tokens.now
	if _, err := other.Parse(signed); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("wrong secret error = %v", err)
	}

	now = now.Add(2 * time.Hour)
	if _, err := tokens.Parse(signed); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expired error = %v", err)
	}
}

func TestTokensRejectNoneAlgorithm(t *testing.T) {
	tokens := NewTokens("s3cret", time.Hour)
	tok := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        "x",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Username: "mallory",
	})
	s, err := tok.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := tokens.Parse(s); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("none alg error = %v", err)
	}
}
