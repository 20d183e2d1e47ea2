// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// Codes are lowercase snake_case and stable; clients branch on them rather
// than on messages. Service sentinels are mapped to a status and code by
// statusFor.
package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/prompt-vault/internal/http/middleware"
	"github.com/tbourn/prompt-vault/internal/services"
)

const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeInvalidInput     = "invalid_input"
	ErrCodeUnauthenticated  = "unauthenticated"
	ErrCodeForbidden        = "forbidden"
	ErrCodeNotFound         = "not_found"
	ErrCodeConflict         = "conflict"
	ErrCodeRateLimited      = "rate_limited"
	ErrCodeInternal         = "internal_error"
	ErrCodeMethodNotAllowed = "method_not_allowed"
)

// statusFor maps a service error to (HTTP status, code, message). Unknown
// errors become a generic 500 so storage details never reach clients.
func statusFor(err error) (int, string, string) {
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		msg := strings.TrimPrefix(err.Error(), services.ErrInvalidInput.Error()+": ")
		return http.StatusBadRequest, ErrCodeInvalidInput, msg
	case errors.Is(err, services.ErrNotFound),
		errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrRatingNotFound):
		return http.StatusNotFound, ErrCodeNotFound, err.Error()
	case errors.Is(err, services.ErrUnauthorized),
		errors.Is(err, services.ErrAccessDenied),
		errors.Is(err, services.ErrPurchaseRequired),
		errors.Is(err, services.ErrSelfPurchase),
		errors.Is(err, services.ErrSelfRating):
		return http.StatusForbidden, ErrCodeForbidden, err.Error()
	case errors.Is(err, services.ErrAlreadyExists),
		errors.Is(err, services.ErrAlreadyPurchased),
		errors.Is(err, services.ErrAlreadyLiked),
		errors.Is(err, services.ErrNotLiked):
		return http.StatusConflict, ErrCodeConflict, err.Error()
	}
	return http.StatusInternalServerError, ErrCodeInternal, "internal error"
}

// failErr writes the envelope for a service error. The raw error of a 500 is
// attached to the Gin context so the access log carries it.
func failErr(c *gin.Context, err error) {
	status, code, msg := statusFor(err)
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
		middleware.LoggerFrom(c).Error().Err(err).Msg("marketplace operation failed")
	}
	fail(c, status, code, msg)
}
