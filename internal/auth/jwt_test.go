package auth

import (
	"testing"
	"time"

	"calldata-platform/internal/config"
)

func TestIssueAndVerifyAccessToken(t *testing.T) {
	m, err := NewManager(config.AuthConfig{
		JWTSecret:       "secret",
		JWTIssuer:       "issuer",
		JWTAudience:     "aud",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 24 * time.Hour,
	})
	if err != nil {
		t.Fatalf("manager: %v", err)
	}

	now := time.Unix(1700000000, 0).UTC()
	pair, err := m.IssuePair(now, "user-1", "tenant-1", "member")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatalf("expected token strings")
	}

	claims, err := m.Verify(pair.AccessToken, TokenTypeAccess, now.Add(1*time.Minute))
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.UserID != "user-1" || claims.TenantID != "tenant-1" || claims.Role != "member" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestVerifyRejectsWrongTokenType(t *testing.T) {
	m, _ := NewManager(config.AuthConfig{JWTSecret: "secret", AccessTokenTTL: time.Minute, RefreshTokenTTL: time.Hour})
	p, err := m.IssuePair(time.Now(), "u", "w", "r")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := m.Verify(p.RefreshToken, TokenTypeAccess, time.Now()); err == nil {
		t.Fatalf("expected token_type mismatch")
	}
}

func TestVerifyUsesCallerClock(t *testing.T) {
	m, _ := NewManager(config.AuthConfig{JWTSecret: "secret", AccessTokenTTL: 15 * time.Minute, RefreshTokenTTL: time.Hour})
	issued := time.Unix(1700000000, 0).UTC()
	p, err := m.IssuePair(issued, "u", "t", "viewer")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := m.Verify(p.AccessToken, TokenTypeAccess, issued.Add(14*time.Minute)); err != nil {
		t.Fatalf("expected valid token inside ttl, got %v", err)
	}
	if _, err := m.Verify(p.AccessToken, TokenTypeAccess, issued.Add(16*time.Minute)); err == nil {
		t.Fatalf("expected expiry against caller clock")
	}
	if _, err := m.Verify(p.AccessToken, TokenTypeAccess, issued.Add(-5*time.Minute)); err == nil {
		t.Fatalf("expected error for token issued in the future")
	}
}

func TestVerifyRejectsForeignSecret(t *testing.T) {
	a, _ := NewManager(config.AuthConfig{JWTSecret: "secret-a", AccessTokenTTL: time.Minute, RefreshTokenTTL: time.Hour})
	b, _ := NewManager(config.AuthConfig{JWTSecret: "secret-b", AccessTokenTTL: time.Minute, RefreshTokenTTL: time.Hour})
	now := time.Now()
	p, err := a.IssuePair(now, "u", "t", "viewer")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := b.Verify(p.AccessToken, TokenTypeAccess, now); err == nil {
		t.Fatalf("expected signature error")
	}
}

func TestVerifyChecksAudience(t *testing.T) {
	a, _ := NewManager(config.AuthConfig{JWTSecret: "s", JWTAudience: "dash", AccessTokenTTL: time.Minute, RefreshTokenTTL: time.Hour})
	b, _ := NewManager(config.AuthConfig{JWTSecret: "s", JWTAudience: "ops", AccessTokenTTL: time.Minute, RefreshTokenTTL: time.Hour})
	now := time.Now()
	p, _ := a.IssuePair(now, "u", "t", "viewer")
	if _, err := b.Verify(p.AccessToken, TokenTypeAccess, now); err == nil {
		t.Fatalf("expected audience mismatch")
	}
}
