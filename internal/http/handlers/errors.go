// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// Codes are lowercase snake_case and give clients a stable, machine-readable
// taxonomy next to the human-readable message. Facade failures carry a
// domain.ErrorKind; statusFor maps each kind onto a status and code so
// handlers never branch on individual sentinels.
//
// Example response:
//
//	{
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "invalid_state",
//	  "message": "friend request is no longer pending"
//	}
package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/tbourn/go-challenge-backend/internal/domain"
)

const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeUnauthorized     = "unauthorized"
	ErrCodeNotFound         = "not_found"
	ErrCodeRateLimited      = "too_many_requests"
	ErrCodeInternal         = "internal_error"
	ErrCodeMethodNotAllowed = "method_not_allowed"
	ErrCodeTimeout          = "timeout"

	// Domain-specific:
	ErrCodeInvalidState = "invalid_state"
	ErrCodeInvalidInput = "invalid_input"
)

// statusClientClosed is nginx's "client closed request".
const statusClientClosed = 499

// statusFor classifies a facade error. Unknown errors are internal.
func statusFor(err error) (status int, code string) {
	switch domain.KindOf(err) {
	case domain.KindNotFound:
		return http.StatusNotFound, ErrCodeNotFound
	case domain.KindInvalidState:
		return http.StatusConflict, ErrCodeInvalidState
	case domain.KindUnauthorized:
		return http.StatusUnauthorized, ErrCodeUnauthorized
	case domain.KindInvalid:
		return http.StatusBadRequest, ErrCodeInvalidInput
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, ErrCodeTimeout
	case errors.Is(err, context.Canceled):
		return statusClientClosed, ErrCodeTimeout
	}
	return http.StatusInternalServerError, ErrCodeInternal
}
