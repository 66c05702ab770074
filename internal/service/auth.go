package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/ticket-rag/backend/internal/config"
	"github.com/ticket-rag/backend/internal/model"
)

var (
	ErrInvalidToken   = errors.New("invalid token")
	ErrTokensDisabled = errors.New("API_JWT_SECRET is not set")
	ErrInvalidSubject = errors.New("subject is required")
)

const (
	defaultTokenTTL    = 24 * time.Hour
	tokenIssuer        = "ticket-rag"
	minJWTSecretLength = 32
)

// TokenService issues and verifies the HS256 bearer tokens guarding /api/v1.
// 시크릿이 비어 있으면 비활성 상태이며 미들웨어는 모든 요청을 통과시킵니다.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

type tokenClaims struct {
	jwt.RegisteredClaims
}

func NewTokenService(cfg config.ServerConfig) (*TokenService, error) {
	secret := strings.TrimSpace(cfg.JWTSecret)
	if secret != "" && len(secret) < minJWTSecretLength {
		return nil, fmt.Errorf("API_JWT_SECRET must be at least %d characters", minJWTSecretLength)
	}
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	return &TokenService{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

func (s *TokenService) Enabled() bool {
	return s != nil && len(s.secret) > 0
}

// Issue returns a signed token for subject and its lifetime in seconds.
func (s *TokenService) Issue(subject string) (*model.TokenResponse, error) {
	if !s.Enabled() {
		return nil, ErrTokensDisabled
	}
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return nil, ErrInvalidSubject
	}

	now := s.now()
	claims := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, err
	}
	return &model.TokenResponse{AccessToken: signed, ExpiresIn: int64(s.ttl.Seconds())}, nil
}

func (s *TokenService) Parse(tokenStr string) (*model.APIClient, error) {
	if !s.Enabled() {
		return nil, ErrTokensDisabled
	}
	claims := &tokenClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	}, jwt.WithIssuer(tokenIssuer), jwt.WithTimeFunc(s.now))
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return &model.APIClient{Subject: claims.Subject}, nil
}
