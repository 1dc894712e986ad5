// Package errors defines the domain error type shared by every service.
//
// Each service keeps its own sentinel values in an errors.go file; those
// sentinels are *DomainError values so callers can match them with the
// standard errors.Is and classify them with KindOf.
package errors

import (
	stderrors "errors"
	"net/http"
)

// Kind classifies how an error propagates through the transfer pipeline.
type Kind string

const (
	KindValidation          Kind = "VALIDATION"
	KindBusiness            Kind = "BUSINESS"
	KindReservationFailure  Kind = "RESERVATION_FAILURE"
	KindExternalRailFailure Kind = "EXTERNAL_RAIL_FAILURE"
	KindConcurrencyConflict Kind = "CONCURRENCY_CONFLICT"
	KindNotFound            Kind = "NOT_FOUND"
	KindConflict            Kind = "CONFLICT"
	KindUnauthorized        Kind = "UNAUTHORIZED"
	KindInternal            Kind = "INTERNAL"
)

// DomainError carries a stable code next to a human-readable message.
type DomainError struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is matches on Code so a wrapped copy still equals its sentinel.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// New builds a DomainError.
func New(kind Kind, code, message string) *DomainError {
	return &DomainError{Kind: kind, Code: code, Message: message}
}

// Wrap returns a copy of e with a cause attached.
func (e *DomainError) Wrap(cause error) *DomainError {
	return &DomainError{Kind: e.Kind, Code: e.Code, Message: e.Message, Err: cause}
}

// WithMessage returns a copy of e with a different message and the same code.
func (e *DomainError) WithMessage(message string) *DomainError {
	return &DomainError{Kind: e.Kind, Code: e.Code, Message: message, Err: e.Err}
}

// KindOf returns the kind of the first DomainError in err's chain,
// or KindInternal when there is none.
func KindOf(err error) Kind {
	var de *DomainError
	if stderrors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

// CodeOf returns the code of the first DomainError in err's chain.
func CodeOf(err error) string {
	var de *DomainError
	if stderrors.As(err, &de) {
		return de.Code
	}
	return "INTERNAL_ERROR"
}

// HTTPStatus maps an error kind to the status the transport layer answers with.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindBusiness, KindReservationFailure:
		return http.StatusUnprocessableEntity
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict, KindConcurrencyConflict:
		return http.StatusConflict
	case KindExternalRailFailure:
		return http.StatusBadGateway
	case KindUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
