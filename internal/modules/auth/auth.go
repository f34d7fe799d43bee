package auth

import (
	"context"
	"errors"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
)

// Service defines the admin login check and session tokens.
type Service interface {
	// Enabled reports whether an admin password is configured. When it is
	// not, mutations are left open.
	Enabled() bool
	Login(ctx context.Context, username, password string) (string, error)
	Verify(token string) (string, error)
}
