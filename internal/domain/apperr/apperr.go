// Package apperr carries the error taxonomy shared by every usecase.
//
// Each error renders as "[CODE] message" so callers that only see the
// string (logs, webhook replies) can still recover the machine code.
package apperr

import (
	"errors"
	"fmt"
	"regexp"
)

type Kind string

const (
	KindUnauthorized      Kind = "unauthorized"
	KindForbidden         Kind = "forbidden"
	KindNotFound          Kind = "not_found"
	KindInvalidTransition Kind = "invalid_transition"
	KindInvalidParameters Kind = "invalid_parameters"
	KindConflict          Kind = "conflict"
	KindInternal          Kind = "internal"
)

// Error is a classified domain failure.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	// Allowed lists the statuses a client may move to; set on invalid transitions.
	Allowed []string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on Kind and Code so sentinel values below work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Code != "" && t.Code != e.Code {
		return false
	}
	return t.Kind == e.Kind
}

// Kind sentinels for errors.Is.
var (
	ErrUnauthorized      = &Error{Kind: KindUnauthorized}
	ErrForbidden         = &Error{Kind: KindForbidden}
	ErrNotFound          = &Error{Kind: KindNotFound}
	ErrInvalidTransition = &Error{Kind: KindInvalidTransition}
	ErrInvalidParameters = &Error{Kind: KindInvalidParameters}
	ErrConflict          = &Error{Kind: KindConflict}
	ErrInternal          = &Error{Kind: KindInternal}
)

func Unauthorized(code, msg string) *Error {
	return &Error{Kind: KindUnauthorized, Code: code, Message: msg}
}

// Forbidden is for an identified actor whose role does not allow the action.
func Forbidden(code, msg string) *Error {
	return &Error{Kind: KindForbidden, Code: code, Message: msg}
}

func NotFound(code, msg string) *Error {
	return &Error{Kind: KindNotFound, Code: code, Message: msg}
}

func InvalidParameters(code, msg string) *Error {
	return &Error{Kind: KindInvalidParameters, Code: code, Message: msg}
}

func InvalidTransition(msg string, allowed []string) *Error {
	return &Error{Kind: KindInvalidTransition, Code: "INVALID_STATUS_TRANSITION", Message: msg, Allowed: allowed}
}

func Conflict(code, msg string) *Error {
	return &Error{Kind: KindConflict, Code: code, Message: msg}
}

// Internal wraps an unexpected datastore or collaborator failure.
func Internal(code, msg string, err error) *Error {
	return &Error{Kind: KindInternal, Code: code, Message: msg, Err: err}
}

// KindOf classifies err; anything unclassified is internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// As returns the classified error inside err, if any.
func As(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}

var reCode = regexp.MustCompile(`\[([A-Z0-9_]+)\]`)

// CodeOf extracts the first "[CODE]" marker from err's message.
func CodeOf(err error) string {
	if err == nil {
		return ""
	}
	if e, ok := As(err); ok && e.Code != "" {
		return e.Code
	}
	m := reCode.FindStringSubmatch(err.Error())
	if len(m) < 2 {
		return ""
	}
	return m[1]
}
