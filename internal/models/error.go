package models

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure conditions
var (
	ErrNotFound       = errors.New("resource not found")
	ErrConflict       = errors.New("resource already exists")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrBadRequest     = errors.New("bad request")
	ErrInternalServer = errors.New("internal server error")
)

// Authentication failures. Every one of them matches ErrUnauthorized under
// errors.Is so callers can collapse them into a single generic 401.
var (
	ErrAccountNotFound         = fmt.Errorf("%w: account not found", ErrUnauthorized)
	ErrCredentialsMissing      = fmt.Errorf("%w: credentials missing", ErrUnauthorized)
	ErrInvalidToken            = fmt.Errorf("%w: invalid login token", ErrUnauthorized)
	ErrInvalidCredentials      = fmt.Errorf("%w: invalid credentials", ErrUnauthorized)
	ErrInvalidOrExpiredSession = fmt.Errorf("%w: invalid or expired session credential", ErrUnauthorized)
)

// ErrWeakPassword is returned when a new permanent password fails strength rules
var ErrWeakPassword = fmt.Errorf("%w: password does not meet requirements", ErrBadRequest)
