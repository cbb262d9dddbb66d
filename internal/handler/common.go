package handler

import (
	"errors"
	"net/http"

	"posserver/internal/service"
)

// statusFor maps service sentinel errors to HTTP status codes. Unknown
// errors become a 500 with no detail leaked to the caller.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrTwoFactorRequired),
		errors.Is(err, service.ErrInvalidTwoFactorCode),
		errors.Is(err, service.ErrInvalidToken),
		errors.Is(err, service.ErrInvalidUser):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrInvalidRole):
		return http.StatusForbidden
	case errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrBillNotFound),
		errors.Is(err, service.ErrMenuItemNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrEmailExists),
		errors.Is(err, service.ErrEmailDeactivated):
		return http.StatusConflict
	case errors.Is(err, service.ErrUserAlreadyDeleted),
		errors.Is(err, service.ErrUserAlreadyActive),
		errors.Is(err, service.ErrInvalidBillItem),
		errors.Is(err, service.ErrNegativeAmount):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// message returns the caller-visible error text for a mapped error.
func message(err error, status int) string {
	if status == http.StatusInternalServerError {
		return "Internal server error"
	}
	return err.Error()
}
