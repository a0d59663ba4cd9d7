package dto

import (
	"net/http"
	"strings"
)

// General error codes
const (
	// ErrCodeUnknown is used when the error type is unknown
	ErrCodeUnknown = "UNKNOWN"
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "INTERNAL_ERROR"
	// ErrCodeValidation is used for request binding and validation failures
	ErrCodeValidation = "VALIDATION_ERROR"
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "BAD_REQUEST"
)

// Authentication and account error codes
const (
	ErrCodeUnauthorized    = "UNAUTHORIZED"
	ErrCodeForbidden       = "FORBIDDEN"
	ErrCodeTokenExpired    = "TOKEN_EXPIRED"
	ErrCodeInvalidToken    = "INVALID_TOKEN"
	ErrCodeCredentials     = "INVALID_CREDENTIALS"
	ErrCodeAccountLocked   = "ACCOUNT_LOCKED"
	ErrCodeAccountDisabled = "ACCOUNT_DISABLED"
)

// Resource error codes
const (
	ErrCodeNotFound            = "NOT_FOUND"
	ErrCodeAlreadyExists       = "ALREADY_EXISTS"
	ErrCodeConflict            = "CONFLICT"
	ErrCodeConcurrencyConflict = "CONCURRENCY_CONFLICT"
)

// Business rule error codes
const (
	ErrCodeInvalidState   = "INVALID_STATE"
	ErrCodeSyncInProgress = "SYNC_IN_PROGRESS"
)

// Upstream dependency error codes
const (
	ErrCodeSyncFailed          = "SYNC_FAILED"
	ErrCodeReviewFailed        = "REVIEW_FAILED"
	ErrCodeReconcileFailed     = "RECONCILE_FAILED"
	ErrCodeUpstreamUnavailable = "UPSTREAM_UNAVAILABLE"
	ErrCodeRenderingDisabled   = "RENDERING_DISABLED"
)

// Rate limiting error codes
const (
	ErrCodeRateLimited = "RATE_LIMITED"
)

// ErrorCodeHTTPStatus maps domain error codes to HTTP status codes.
// Codes not listed here fall through to the prefix rules in GetHTTPStatus.
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeUnknown:    http.StatusInternalServerError,
	ErrCodeInternal:   http.StatusInternalServerError,
	ErrCodeValidation: http.StatusBadRequest,
	ErrCodeBadRequest: http.StatusBadRequest,

	ErrCodeUnauthorized:    http.StatusUnauthorized,
	ErrCodeForbidden:       http.StatusForbidden,
	ErrCodeTokenExpired:    http.StatusUnauthorized,
	ErrCodeInvalidToken:    http.StatusUnauthorized,
	ErrCodeCredentials:     http.StatusUnauthorized,
	ErrCodeAccountLocked:   http.StatusLocked,
	ErrCodeAccountDisabled: http.StatusForbidden,

	ErrCodeNotFound:            http.StatusNotFound,
	"NO_DOCUMENT":              http.StatusNotFound,
	"NO_ARTIFACT":              http.StatusNotFound,
	ErrCodeAlreadyExists:       http.StatusConflict,
	ErrCodeConflict:            http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,
	ErrCodeSyncInProgress:      http.StatusConflict,

	ErrCodeInvalidState: http.StatusUnprocessableEntity,
	"COMMENT_REQUIRED":  http.StatusUnprocessableEntity,
	"EMPTY_DOCUMENT":    http.StatusUnprocessableEntity,
	"EMPTY_REDLINE":     http.StatusUnprocessableEntity,
	"NO_TEXT":           http.StatusUnprocessableEntity,
	"NOT_GRANTED":       http.StatusUnprocessableEntity,
	"ALREADY_GRANTED":   http.StatusUnprocessableEntity,
	"UNKNOWN_DASHBOARD": http.StatusBadRequest,

	ErrCodeSyncFailed:          http.StatusBadGateway,
	ErrCodeReviewFailed:        http.StatusBadGateway,
	ErrCodeReconcileFailed:     http.StatusBadGateway,
	ErrCodeUpstreamUnavailable: http.StatusBadGateway,
	ErrCodeRenderingDisabled:   http.StatusServiceUnavailable,

	ErrCodeRateLimited: http.StatusTooManyRequests,
}

// GetHTTPStatus returns the HTTP status code for a domain error code.
// Unlisted INVALID_* codes map to 400 and unlisted ALREADY_* codes to 422;
// everything else defaults to 500.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	if strings.HasPrefix(code, "INVALID_") {
		return http.StatusBadRequest
	}
	if strings.HasPrefix(code, "ALREADY_") {
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}
