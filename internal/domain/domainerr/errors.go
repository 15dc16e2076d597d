// Package domainerr defines the error kinds raised by the identity domain and
// the single table that maps them onto transport status codes.
package domainerr

import (
	"errors"
	"net/http"
)

// Kind classifies a domain failure.
type Kind string

const (
	KindValidation     Kind = "validation"
	KindConflict       Kind = "conflict"
	KindAuthentication Kind = "authentication"
	KindAuthorization  Kind = "authorization"
	KindNotFound       Kind = "not_found"
)

var httpStatus = map[Kind]int{
	KindValidation:     http.StatusBadRequest,
	KindConflict:       http.StatusConflict,
	KindAuthentication: http.StatusUnauthorized,
	KindAuthorization:  http.StatusForbidden,
	KindNotFound:       http.StatusNotFound,
}

var titles = map[Kind]string{
	KindValidation:     "Validation Error",
	KindConflict:       "Conflict Error",
	KindAuthentication: "Authentication Error",
	KindAuthorization:  "Authorization Error",
	KindNotFound:       "Not Found Error",
}

// HTTPStatus returns the status code for the kind, 500 for unknown kinds.
func (k Kind) HTTPStatus() int {
	if s, ok := httpStatus[k]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// Title is the short human label used in error envelopes.
func (k Kind) Title() string {
	if t, ok := titles[k]; ok {
		return t
	}
	return "Internal Server Error"
}

// Error is a domain error with a kind and a message safe to show to callers.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Cause }

// Is matches target when both the kind and the message agree, so distinct
// sentinels of one kind stay distinguishable. A target with an empty message
// (see Of) matches every error of its kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || t == nil || e.Kind != t.Kind {
		return false
	}
	return t.Message == "" || t.Message == e.Message
}

// Of returns a kind-only target for errors.Is.
func Of(kind Kind) *Error {
	return &Error{Kind: kind}
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

func Validation(message string) *Error     { return New(KindValidation, message) }
func Conflict(message string) *Error       { return New(KindConflict, message) }
func Authentication(message string) *Error { return New(KindAuthentication, message) }
func Authorization(message string) *Error  { return New(KindAuthorization, message) }
func NotFound(message string) *Error       { return New(KindNotFound, message) }

// KindOf extracts the kind of the first domain error in err's chain.
func KindOf(err error) (Kind, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind, true
	}
	return "", false
}

// IsKind reports whether err carries a domain error of the given kind.
func IsKind(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
