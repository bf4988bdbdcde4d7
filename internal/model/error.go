package model

import "errors"

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error         string `json:"error"`
	CorrelationID string `json:"correlationId,omitempty"`
}

// Standard error codes for API responses
const (
	ErrCodeInvalidRequest      = "INVALID_REQUEST"
	ErrCodeEmptyCart           = "EMPTY_CART"
	ErrCodeCartTooLarge        = "CART_TOO_LARGE"
	ErrCodeUpstreamUnavailable = "UPSTREAM_UNAVAILABLE"
	ErrCodeInvalidSignature    = "INVALID_SIGNATURE"
	ErrCodeMalformedEvent      = "MALFORMED_EVENT"
	ErrCodePersistenceFailure  = "PERSISTENCE_FAILURE"
	ErrCodeDuplicateEvent      = "DUPLICATE_EVENT"
	ErrCodeUnauthorised        = "UNAUTHORIZED"
	ErrCodeInternalError       = "INTERNAL_ERROR"
)

// Domain errors for business logic
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors. Callers wrap these with %w and classify with errors.Is.
var (
	ErrInvalidRequest      = NewDomainError(ErrCodeInvalidRequest, "Invalid request")
	ErrEmptyCart           = NewDomainError(ErrCodeEmptyCart, "Cart has no purchasable items")
	ErrCartTooLarge        = NewDomainError(ErrCodeCartTooLarge, "Cart has too many distinct items")
	ErrUpstreamUnavailable = NewDomainError(ErrCodeUpstreamUnavailable, "Payment provider unavailable")
	ErrInvalidSignature    = NewDomainError(ErrCodeInvalidSignature, "Event signature verification failed")
	ErrMalformedEvent      = NewDomainError(ErrCodeMalformedEvent, "Event payload is malformed")
	ErrPersistenceFailure  = NewDomainError(ErrCodePersistenceFailure, "Failed to persist order")
	ErrDuplicateEvent      = NewDomainError(ErrCodeDuplicateEvent, "Event already processed")
)

// IsValidationError reports whether err is user-correctable.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrEmptyCart) || errors.Is(err, ErrCartTooLarge) || errors.Is(err, ErrInvalidRequest)
}
