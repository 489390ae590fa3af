package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken   = errors.New("invalid or expired token")
	ErrAuthDisabled   = errors.New("api token secret not configured")
	ErrMissingSubject = errors.New("token subject is required")
)

// AuthService mints and verifies the HS256 bearer tokens that guard the API.
type AuthService struct {
	secret string
	expiry time.Duration
	now    func() time.Time
}

func NewAuthService(secret string, expiry time.Duration) *AuthService {
	return &AuthService{secret: secret, expiry: expiry, now: time.Now}
}

// Enabled reports whether a secret is configured.
func (s *AuthService) Enabled() bool {
	return s.secret != ""
}

// GenerateToken issues a token for subject, e.g. a tutor's name or a device.
func (s *AuthService) GenerateToken(subject string) (string, error) {
	if !s.Enabled() {
		return "", ErrAuthDisabled
	}
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return "", ErrMissingSubject
	}

	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.expiry)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.secret))
}

// VerifyToken returns the token subject.
func (s *AuthService) VerifyToken(tokenString string) (string, error) {
	if !s.Enabled() {
		return "", ErrAuthDisabled
	}

	var claims jwt.RegisteredClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.secret), nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}
	if claims.Subject == "" {
		return "", ErrInvalidToken
	}

	return claims.Subject, nil
}
