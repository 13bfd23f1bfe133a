package util

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
)

// Error codes surfaced in the errorCode field of every error response.
const (
	CodeMissingToken       = "MISSING_TOKEN"
	CodeMalformedToken     = "MALFORMED_TOKEN"
	CodeInvalidSignature   = "INVALID_SIGNATURE"
	CodeTokenExpired       = "TOKEN_EXPIRED"
	CodePrincipalNotFound  = "PRINCIPAL_NOT_FOUND"
	CodeUnauthenticated    = "UNAUTHENTICATED"
	CodeForbidden          = "FORBIDDEN"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeDuplicateIdentity  = "DUPLICATE_IDENTITY"
	CodeValidationFailed   = "VALIDATION_FAILED"
	CodeNotFound           = "NOT_FOUND"
	CodeConflict           = "CONFLICT"
	CodeTooManyAttempts    = "TOO_MANY_ATTEMPTS"
	CodeRateLimited        = "RATE_LIMITED"
	CodeInternal           = "INTERNAL_ERROR"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is matches on Code so callers can compare against the sentinel values below.
func (e *DomainError) Is(target error) bool {
	var other *DomainError
	if !errors.As(target, &other) {
		return false
	}
	return e.Code == other.Code
}

// Wrap returns a copy of the error carrying err as its internal cause.
func (e *DomainError) Wrap(err error) *DomainError {
	clone := *e
	clone.Err = err
	return &clone
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status}
}

// Sentinels for the authentication pipeline. Compare with errors.Is.
var (
	ErrMissingToken       = NewDomainError(CodeMissingToken, "authentication token is required", http.StatusUnauthorized)
	ErrMalformedToken     = NewDomainError(CodeMalformedToken, "authentication token is malformed", http.StatusUnauthorized)
	ErrInvalidSignature   = NewDomainError(CodeInvalidSignature, "authentication token signature is invalid", http.StatusUnauthorized)
	ErrTokenExpired       = NewDomainError(CodeTokenExpired, "authentication token has expired", http.StatusUnauthorized)
	ErrPrincipalNotFound  = NewDomainError(CodePrincipalNotFound, "authenticated member no longer exists", http.StatusUnauthorized)
	ErrUnauthenticated    = NewDomainError(CodeUnauthenticated, "authentication required", http.StatusUnauthorized)
	ErrForbidden          = NewDomainError(CodeForbidden, "insufficient role", http.StatusForbidden)
	ErrInvalidCredentials = NewDomainError(CodeInvalidCredentials, "invalid username or password", http.StatusUnauthorized)
	ErrDuplicateIdentity  = NewDomainError(CodeDuplicateIdentity, "username already registered", http.StatusConflict)
	ErrTooManyAttempts    = NewDomainError(CodeTooManyAttempts, "too many sign-in attempts, try again later", http.StatusTooManyRequests)
	ErrRateLimited        = NewDomainError(CodeRateLimited, "too many requests", http.StatusTooManyRequests)
)

func NewValidationError(message string) error {
	return NewDomainError(CodeValidationFailed, message, http.StatusBadRequest)
}

func NewNotFound(resource string) error {
	return NewDomainError(CodeNotFound, fmt.Sprintf("%s not found", resource), http.StatusNotFound)
}

func NewForbidden(message string) error {
	return NewDomainError(CodeForbidden, message, http.StatusForbidden)
}

func NewConflict(message string) error {
	return NewDomainError(CodeConflict, message, http.StatusConflict)
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts generic errors to DomainError. Anything unrecognized
// collapses to INTERNAL_ERROR so no detail reaches the client.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return fromFiberError(fiberErr)
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return NewNotFound("resource").(*DomainError)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &DomainError{
			Code:       CodeInternal,
			Message:    "request timed out",
			HTTPStatus: http.StatusServiceUnavailable,
			Err:        err,
		}
	}
	return NewInternalError(err).(*DomainError)
}

func fromFiberError(err *fiber.Error) *DomainError {
	switch {
	case err.Code == http.StatusNotFound:
		return NewDomainError(CodeNotFound, "route not found", http.StatusNotFound)
	case err.Code == http.StatusUnauthorized:
		return ErrUnauthenticated
	case err.Code == http.StatusForbidden:
		return ErrForbidden
	case err.Code >= 400 && err.Code < 500:
		return NewDomainError(CodeValidationFailed, err.Message, err.Code)
	default:
		return NewInternalError(err).(*DomainError)
	}
}

// MapError converts generic errors to DomainError.
func MapError(err error) error {
	return ToDomainError(err)
}
