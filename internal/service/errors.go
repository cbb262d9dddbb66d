package service

import "errors"

// Sentinel errors for the service layer. Handlers map these to HTTP status
// codes with errors.Is; anything not listed here surfaces as a generic 500.
//
// ErrInvalidCredentials is deliberately shared between "no such email" and
// "wrong password" so login failures cannot be used for account enumeration.
// A deactivated account presenting a still-valid access or refresh token gets
// the same ErrInvalidToken as any garbage token, for the same reason.
var (
	ErrInvalidCredentials   = errors.New("invalid email or password")
	ErrInvalidRole          = errors.New("invalid user role")
	ErrTwoFactorRequired    = errors.New("2FA code required")
	ErrInvalidTwoFactorCode = errors.New("invalid 2FA code")
	ErrInvalidToken         = errors.New("invalid refresh token")
	ErrInvalidUser          = errors.New("invalid user")

	ErrUserNotFound       = errors.New("user not found")
	ErrEmailExists        = errors.New("email already exists")
	ErrEmailDeactivated   = errors.New("email belongs to a deactivated user, reactivate the existing account instead")
	ErrUserAlreadyDeleted = errors.New("user already deactivated")
	ErrUserAlreadyActive  = errors.New("user is already active")

	ErrBillNotFound     = errors.New("bill not found")
	ErrMenuItemNotFound = errors.New("menu item not found")

	ErrInvalidBillItem = errors.New("item total does not match price and quantity")
	ErrNegativeAmount  = errors.New("amounts must be non-negative")
)
