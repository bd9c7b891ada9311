package service

import "errors"

// Sentinel errors the controllers translate into HTTP statuses.
var (
	ErrEmailTaken    = errors.New("email already registered")
	ErrUserNotFound  = errors.New("user not found")
	ErrChatNotFound  = errors.New("chat not found")
	ErrWrongPassword = errors.New("old password is incorrect")
	ErrNoPassword    = errors.New("account has no password set")
)
