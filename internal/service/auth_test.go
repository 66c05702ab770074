package service

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/ticket-rag/backend/internal/config"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestTokenServiceRoundTrip(t *testing.T) {
	svc, err := NewTokenService(config.ServerConfig{JWTSecret: testSecret, TokenTTL: time.Hour})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	issued, err := svc.Issue("dashboard")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if issued.ExpiresIn != 3600 {
		t.Fatalf("ExpiresIn = %d, want 3600", issued.ExpiresIn)
	}
	client, err := svc.Parse(issued.AccessToken)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if client.Subject != "dashboard" {
		t.Fatalf("Subject = %q", client.Subject)
	}
}

func TestTokenServiceRejects(t *testing.T) {
	svc, _ := NewTokenService(config.ServerConfig{JWTSecret: testSecret, TokenTTL: time.Hour})
	other, _ := NewTokenService(config.ServerConfig{JWTSecret: strings.Repeat("z", 32), TokenTTL: time.Hour})
	foreign, _ := other.Issue("dashboard")

	expiredSvc, _ := NewTokenService(config.ServerConfig{JWTSecret: testSecret, TokenTTL: time.Minute})
	expiredSvc.now = func() time.Time { return time.Now().Add(-time.Hour) }
	expired, _ := expiredSvc.Issue("dashboard")

	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: "x", Issuer: tokenIssuer})
	unsigned, _ := none.SignedString(jwt.UnsafeAllowNoneSignatureType)

	tests := []struct {
		name  string
		token string
	}{
		{name: "garbage", token: "not-a-token"},
		{name: "wrong secret", token: foreign.AccessToken},
		{name: "expired", token: expired.AccessToken},
		{name: "alg none", token: unsigned},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Parse(tt.token); !errors.Is(err, ErrInvalidToken) {
				t.Fatalf("expected ErrInvalidToken, got %v", err)
			}
		})
	}
}

func TestTokenServiceDisabled(t *testing.T) {
	svc, err := NewTokenService(config.ServerConfig{})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if svc.Enabled() {
		t.Fatalf("expected disabled service")
	}
	if _, err := svc.Issue("x"); !errors.Is(err, ErrTokensDisabled) {
		t.Fatalf("expected ErrTokensDisabled, got %v", err)
	}
}

func TestNewTokenServiceShortSecret(t *testing.T) {
	if _, err := NewTokenService(config.ServerConfig{JWTSecret: "short"}); err == nil {
		t.Fatalf("expected error for short secret")
	}
}
