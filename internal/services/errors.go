// Package services defines the business logic of the prompt marketplace.
// This file centralizes the service-level error values so that they can be
// consistently returned by service methods and checked by callers.
//
// Translation into HTTP status codes is performed at the handler layer. The
// error text is user-facing and is returned verbatim in response envelopes.
package services

import (
	"errors"

	"github.com/tbourn/prompt-vault/internal/validation"
)

// ErrInvalidInput is wrapped by every validation failure; the wrapping error
// carries the descriptive message of the first rule broken.
var ErrInvalidInput = validation.ErrInvalid

// User errors.
var (
	// ErrAlreadyExists is returned when the caller already has a user record.
	ErrAlreadyExists = errors.New("User already exists")

	// ErrUserNotFound indicates no user record exists for the identity.
	ErrUserNotFound = errors.New("User not found")
)

// Prompt and trade errors.
var (
	ErrNotFound         = errors.New("Prompt not found")
	ErrUnauthorized     = errors.New("Unauthorized")
	ErrSelfPurchase     = errors.New("Cannot purchase your own prompt")
	ErrAlreadyPurchased = errors.New("Prompt already purchased")
	ErrAccessDenied     = errors.New("Access denied. Purchase required.")
	ErrAlreadyLiked     = errors.New("Prompt already liked")
	ErrNotLiked         = errors.New("Prompt was not liked")
	ErrSelfRating       = errors.New("Cannot rate your own prompt")
	ErrPurchaseRequired = errors.New("Must purchase prompt to rate it")

	// ErrRatingNotFound is returned when the caller has not rated the prompt.
	ErrRatingNotFound = errors.New("Rating not found")
)

// errUserRequired is ErrUserNotFound with the hint shown to authors who try
// to publish before registering.
var errUserRequired = userRequiredError{}

type userRequiredError struct{}

func (userRequiredError) Error() string { return "User not found. Please create a user first." }
func (userRequiredError) Unwrap() error { return ErrUserNotFound }

// resultLabel maps an operation outcome to a bounded metric label.
func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrUserNotFound), errors.Is(err, ErrRatingNotFound):
		return "not_found"
	case errors.Is(err, ErrUnauthorized), errors.Is(err, ErrAccessDenied),
		errors.Is(err, ErrSelfPurchase), errors.Is(err, ErrSelfRating), errors.Is(err, ErrPurchaseRequired):
		return "forbidden"
	case errors.Is(err, ErrAlreadyExists), errors.Is(err, ErrAlreadyPurchased),
		errors.Is(err, ErrAlreadyLiked), errors.Is(err, ErrNotLiked):
		return "conflict"
	default:
		return "error"
	}
}
