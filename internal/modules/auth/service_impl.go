package auth

import (
	"context"
	"crypto/subtle"
	"fmt"
	"time"

	"github.com/dgrijalva/jwt-go"
	"golang.org/x/crypto/bcrypt"
)

const tokenTTL = 24 * time.Hour

type service struct {
	username     string
	passwordHash []byte
	jwtKey       []byte
	now          func() time.Time
}

// NewService creates an auth service for a single admin account. An empty
// passwordHash disables the check.
func NewService(username, passwordHash, jwtSecret string) Service {
	return &service{
		username:     username,
		passwordHash: []byte(passwordHash),
		jwtKey:       []byte(jwtSecret),
		now:          time.Now,
	}
}

func (s *service) Enabled() bool { return len(s.passwordHash) > 0 }

func (s *service) Login(ctx context.Context, username, password string) (string, error) {
	if !s.Enabled() {
		return "", ErrInvalidCredentials
	}
	if subtle.ConstantTimeCompare([]byte(username), []byte(s.username)) != 1 {
		return "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	claims := &jwt.StandardClaims{
		Subject:   username,
		IssuedAt:  s.now().Unix(),
		ExpiresAt: s.now().Add(tokenTTL).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtKey)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return token, nil
}

// Verify checks the token signature and expiry and returns its subject.
func (s *service) Verify(tokenString string) (string, error) {
	claims := &jwt.StandardClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.jwtKey, nil
	})
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}
	if claims.Subject != s.username {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}
