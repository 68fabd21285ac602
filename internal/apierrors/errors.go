// Package apierrors defines the error taxonomy shared by every component of
// the quote engine and the HTTP status each kind maps to.
package apierrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind identifies a class of failure, independent of where it occurred.
type Kind string

const (
	KindInputInvalid             Kind = "InputInvalid"
	KindConfigInvalid            Kind = "ConfigInvalid"
	KindRpcFailure                Kind = "RpcFailure"
	KindSnapshotInconsistent     Kind = "SnapshotInconsistent"
	KindSnapshotTooNarrow        Kind = "SnapshotTooNarrow"
	KindReferencePriceUnavailable Kind = "ReferencePriceUnavailable"
	KindBridgeUnavailable        Kind = "BridgeUnavailable"
	KindArithmeticOverflow       Kind = "ArithmeticOverflow"
	KindNoConvergence            Kind = "NoConvergence"
	KindDeadlineExceeded         Kind = "DeadlineExceeded"
	KindPoolExhausted            Kind = "PoolExhausted"
	KindInsufficientLiquidity    Kind = "InsufficientLiquidity"
)

// httpStatus maps each kind to the status code it surfaces as, per spec.md §7.
var httpStatus = map[Kind]int{
	KindInputInvalid:              http.StatusBadRequest,
	KindConfigInvalid:             http.StatusInternalServerError,
	KindRpcFailure:                http.StatusBadGateway,
	KindSnapshotInconsistent:      http.StatusBadGateway,
	KindSnapshotTooNarrow:         http.StatusBadGateway,
	KindReferencePriceUnavailable: http.StatusBadGateway,
	KindBridgeUnavailable:         http.StatusBadGateway,
	KindArithmeticOverflow:        http.StatusInternalServerError,
	KindNoConvergence:             http.StatusInternalServerError,
	KindDeadlineExceeded:          http.StatusGatewayTimeout,
	KindPoolExhausted:             http.StatusServiceUnavailable,
	KindInsufficientLiquidity:     http.StatusBadGateway,
}

// Error is an opaque, user-safe error carrying a Kind and a human message.
// Internal detail (wrapped causes) is available via Unwrap for logging but is
// never rendered to the caller.
type Error struct {
	Kind    Kind
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// HTTPStatus returns the status code this error kind maps to.
func (e *Error) HTTPStatus() int {
	if s, ok := httpStatus[e.Kind]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// New constructs an Error with no wrapped cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap constructs an Error carrying an underlying cause for logs.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, cause: cause}
}

// As extracts an *Error from err, if any wraps one.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// HTTPStatusFor returns the status code for any error, defaulting to 500 for
// errors that never went through this package.
func HTTPStatusFor(err error) int {
	if e, ok := As(err); ok {
		return e.HTTPStatus()
	}
	return http.StatusInternalServerError
}
