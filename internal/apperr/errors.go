package apperr

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrNoSession    = errors.New("no session credential")
	ErrInvalidToken = errors.New("invalid session token")
	ErrConfirmation = errors.New("confirmation token missing or expired")
)
