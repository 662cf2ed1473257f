package auth

import (
	"errors"
	"testing"
	"time"
)

func newTestAuthenticator() *JWTAuthenticator {
	return NewJWTAuthenticator("access-secret", "refresh-secret", "accessimaps", "accessimaps", time.Hour, 24*time.Hour)
}

func TestGenerateAndValidate(t *testing.T) {
	a := newTestAuthenticator()

	access, refresh, err := a.GenerateTokens(42, true)
	if err != nil {
		t.Fatal(err)
	}

	claims, err := a.ValidateAccessToken(access)
	if err != nil {
		t.Fatalf("access token rejected: %v", err)
	}
	id, err := claims.UserID()
	if err != nil || id != 42 || !claims.IsAdmin {
		t.Fatalf("unexpected claims %+v (%v)", claims, err)
	}

	claims, err = a.ValidateRefreshToken(refresh)
	if err != nil {
		t.Fatalf("refresh token rejected: %v", err)
	}
	if id, _ := claims.UserID(); id != 42 {
		t.Fatalf("expected subject 42 got %d", id)
	}
}

func TestTokensAreNotInterchangeable(t *testing.T) {
	a := newTestAuthenticator()
	access, refresh, err := a.GenerateTokens(1, false)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := a.ValidateAccessToken(refresh); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("refresh token accepted as access token: %v", err)
	}
	if _, err := a.ValidateRefreshToken(access); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("access token accepted as refresh token: %v", err)
	}
}

func TestExpiredToken(t *testing.T) {
	a := newTestAuthenticator()
	issued := time.Now().Add(-2 * time.Hour)
	a.now = func() time.Time { return issued }

	access, _, err := a.GenerateTokens(1, false)
	if err != nil {
		t.Fatal(err)
	}

	a.now = time.Now
	if _, err := a.ValidateAccessToken(access); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected expired token to be rejected, got %v", err)
	}
}

func TestTamperedToken(t *testing.T) {
	a := newTestAuthenticator()
	access, _, _ := a.GenerateTokens(1, false)

	other := NewJWTAuthenticator("another-secret", "refresh-secret", "accessimaps", "accessimaps", time.Hour, time.Hour)
	if _, err := other.ValidateAccessToken(access); err == nil {
		t.Fatal("token signed with another secret was accepted")
	}
}
