package domain

import "errors"

// Authentication failures collapse to ErrInvalidCredentials at the API edge so
// responses never reveal whether an email exists, a password was wrong, or an
// account is suspended. The finer-grained sentinels exist for server-side
// logging and tests only.
var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountSuspended   = errors.New("account suspended")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("access forbidden")
	ErrUserNotFound       = errors.New("user not found")
	ErrTooManyAttempts    = errors.New("too many login attempts")

	ErrUnknownPermission        = errors.New("unknown permission code")
	ErrBulkRequiresEditOrDelete = errors.New("bulk permission requires edit or delete")
)
