package auth

import "errors"

var (
	// ErrInvalidCredentials is returned for both unknown identifiers and
	// wrong passwords, so responses never reveal which check failed
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserExists is returned when a username or email is already taken
	ErrUserExists = errors.New("username or email already exists")
	// ErrGuestNotFound is returned when upgrading a user that is not an active guest
	ErrGuestNotFound = errors.New("guest user not found")
	// ErrNotGuest is returned when a registered user calls a guest-only operation
	ErrNotGuest = errors.New("user is not a guest")
	// ErrUserNotFound is returned when a password change targets a missing or guest user
	ErrUserNotFound = errors.New("user not found")
	// ErrIncorrectPassword is returned when the current password does not verify
	ErrIncorrectPassword = errors.New("current password is incorrect")
	// ErrTokenInvalid is returned when a token is malformed, expired or wrongly signed
	ErrTokenInvalid = errors.New("invalid token")
	// ErrInvalidSession is returned when a cryptographically valid token no
	// longer resolves to a live session
	ErrInvalidSession = errors.New("invalid session")
	// ErrRefreshFailed is returned when the token presented for refresh fails validation
	ErrRefreshFailed = errors.New("failed to refresh token")
	// ErrSessionCreation is returned when session issuance fails
	ErrSessionCreation = errors.New("failed to create session")
	// ErrGuestCreation is returned when guest creation fails
	ErrGuestCreation = errors.New("failed to create guest user")
)
