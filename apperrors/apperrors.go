package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for the request boundary
type Kind int

// Error kinds understood by the request boundary
const (
	Internal Kind = iota
	Unauthenticated
	Unauthorized
	ForbiddenJurisdiction
	NotFound
	InvalidStateTransition
	PrerequisiteNotMet
	ValidationError
	IncompleteProfile
	Conflict
)

var kindNames = map[Kind]string{
	Internal:               "Internal",
	Unauthenticated:        "Unauthenticated",
	Unauthorized:           "Unauthorized",
	ForbiddenJurisdiction:  "ForbiddenJurisdiction",
	NotFound:               "NotFound",
	InvalidStateTransition: "InvalidStateTransition",
	PrerequisiteNotMet:     "PrerequisiteNotMet",
	ValidationError:        "ValidationError",
	IncompleteProfile:      "IncompleteProfile",
	Conflict:               "Conflict",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Error is an error carrying a Kind and a message that is safe to show to users
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an error of the given kind
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf creates an error of the given kind with a formatted message
func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and user-facing message to a lower level error
func Wrap(err error, kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf returns the kind of err, Internal when err was not created by this package
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// Is reports whether err is of the given kind
func Is(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// Message returns the user-facing message for err. Errors that were not
// classified get a generic message so internals never leak to clients.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != Internal {
		return e.Message
	}
	return "internal server error"
}

// HTTPStatus maps err to the status code returned at the request boundary
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case Unauthenticated:
		return http.StatusUnauthorized
	case Unauthorized, ForbiddenJurisdiction:
		return http.StatusForbidden
	case NotFound:
		return http.StatusNotFound
	case InvalidStateTransition, PrerequisiteNotMet, ValidationError, IncompleteProfile:
		return http.StatusBadRequest
	case Conflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
