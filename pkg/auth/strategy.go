package auth

import (
	"context"
	"errors"

	"ai-chat-be/internal/entity"
)

// ErrInvalidCredentials is returned by every strategy for every failure mode
// (unknown user, missing hash, wrong password). Collapsing the cases keeps
// the login surface from confirming which accounts exist.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Credentials is the raw login submission. The demo pair arrives as
// Username/Password, regular accounts as Email/Password.
type Credentials struct {
	Username string
	Email    string
	Password string
}

// Strategy resolves a login submission to a verified user identity.
// Implementations form a closed set; the broker selects one by request shape.
type Strategy interface {
	Name() string
	Authorize(ctx context.Context, creds Credentials) (*entity.User, error)
}
