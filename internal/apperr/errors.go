package apperr

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrAlreadyExists      = errors.New("already exists")
	ErrInvalidInput       = errors.New("invalid input")
	ErrMalformedFilter    = errors.New("malformed filter")
	ErrStoreUnavailable   = errors.New("store unavailable")
	ErrCorruptBackup      = errors.New("corrupt backup")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrForbidden          = errors.New("forbidden")
)
