package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failed operation.
type ErrorKind string

const (
	// KindNotFound: an identifier does not resolve to an entity.
	KindNotFound ErrorKind = "not_found"
	// KindInvalidState: the entity is not in the lifecycle state the operation requires.
	KindInvalidState ErrorKind = "invalid_state"
	// KindUnauthorized: there is no resolvable identity, or the actor may not decide.
	KindUnauthorized ErrorKind = "unauthorized"
	// KindInvalid: the input failed validation.
	KindInvalid ErrorKind = "invalid"
)

// ErrUserNotFound is shared by every layer that resolves user ids.
var ErrUserNotFound = NewError(KindNotFound, "user not found")

// Error is the structured failure returned by every facade operation.
type Error struct {
	Kind ErrorKind
	Msg  string
}

// NewError builds an *Error.
func NewError(kind ErrorKind, msg string) *Error { return &Error{Kind: kind, Msg: msg} }

// Errorf builds an *Error with a formatted message.
func Errorf(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func (e *Error) Error() string { return e.Msg }

// Is matches another *Error of the same kind and message, so sentinel values
// keep working with errors.Is after being wrapped.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Msg == "" || t.Msg == e.Msg)
}

// KindOf returns the kind of the first *Error in err's chain, or "" when err
// is nil or carries no kind.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind ErrorKind) bool { return err != nil && KindOf(err) == kind }
