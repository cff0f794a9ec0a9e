package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies recoverable business errors so handlers can map them to
// HTTP status codes without inspecting message strings.
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindCycle
)

// Error is a kinded business error. All four kinds are recoverable by the
// caller; none is fatal to the process.
type Error struct {
	Kind    Kind
	Message string
	Err     error // optional cause
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Err }

func newError(kind Kind, format string, args ...interface{}) *Error {
	var cause error
	for _, a := range args {
		if err, ok := a.(error); ok {
			cause = err
		}
	}
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: cause}
}

// Validation reports malformed input (name too short, bad tax code format).
func Validation(format string, args ...interface{}) error {
	return newError(KindValidation, format, args...)
}

// NotFound reports a referenced node, grant, or plan that does not exist.
func NotFound(format string, args ...interface{}) error {
	return newError(KindNotFound, format, args...)
}

// Conflict reports duplicate roots, delete-with-children, and uniqueness races.
func Conflict(format string, args ...interface{}) error {
	return newError(KindConflict, format, args...)
}

// Cycle reports a move whose destination is a descendant of the moved node.
func Cycle(format string, args ...interface{}) error {
	return newError(KindCycle, format, args...)
}

// KindOf extracts the kind of err, or KindUnknown for plain errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsKind reports whether err carries the given kind anywhere in its chain.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// HTTPStatus maps an error to the status code the API layer responds with.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict, KindCycle:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
