package user

import "errors"

// User module errors.
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrPasswordTooShort   = errors.New("password too short")
	ErrInvalidRefresh     = errors.New("invalid refresh token")
	ErrAvatarTooLarge     = errors.New("avatar too large")
)
