// Package apperr holds the typed errors services return. Handlers translate
// them into responses with HTTPStatus and never inspect messages.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindValidation
	// KindReference marks a broker, region or user id that does not resolve.
	KindReference
	KindConflict
	KindForbidden
	KindUnauthorized
	KindBadRequest
	// KindInternal covers persistence and infrastructure failures.
	KindInternal
)

var statusByKind = map[Kind]int{
	KindNotFound:     http.StatusNotFound,
	KindValidation:   http.StatusBadRequest,
	KindReference:    http.StatusBadRequest,
	KindConflict:     http.StatusConflict,
	KindForbidden:    http.StatusForbidden,
	KindUnauthorized: http.StatusUnauthorized,
	KindBadRequest:   http.StatusBadRequest,
	KindInternal:     http.StatusInternalServerError,
}

// Error is safe to show to clients except for Err, which only reaches logs.
type Error struct {
	Kind    Kind
	Message string
	Op      string
	Err     error
	Details any
}

// ConflictDetails names the unique fields a write collided on.
type ConflictDetails struct {
	Fields []string `json:"fields"`
}

func (e *Error) Error() string {
	if e.Op == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// HTTPStatus defaults to 400 for kinds without an explicit mapping.
func (e *Error) HTTPStatus() int {
	if status, ok := statusByKind[e.Kind]; ok {
		return status
	}
	return http.StatusBadRequest
}

func (e *Error) WithOp(op string) *Error {
	e.Op = op
	return e
}

func (e *Error) WithDetails(details any) *Error {
	e.Details = details
	return e
}

func (e *Error) WithErr(err error) *Error {
	e.Err = err
	return e
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap keeps err as the cause of a new typed error.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func NotFound(message string) *Error     { return New(KindNotFound, message) }
func Validation(message string) *Error   { return New(KindValidation, message) }
func Reference(message string) *Error    { return New(KindReference, message) }
func Conflict(message string) *Error     { return New(KindConflict, message) }
func Forbidden(message string) *Error    { return New(KindForbidden, message) }
func Unauthorized(message string) *Error { return New(KindUnauthorized, message) }
func BadRequest(message string) *Error   { return New(KindBadRequest, message) }
func Internal(message string) *Error     { return New(KindInternal, message) }

// ConflictFields reports a uniqueness collision on the named fields.
func ConflictFields(message string, fields ...string) *Error {
	return Conflict(message).WithDetails(ConflictDetails{Fields: fields})
}

// GetKind returns the kind of the first *Error in err's chain, or KindUnknown.
func GetKind(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

func Is(err error, kind Kind) bool {
	return GetKind(err) == kind
}
