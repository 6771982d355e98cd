package garden

import (
	"errors"
	"fmt"
)

// Kind classifies errors surfaced to callers of the action boundary.
type Kind int

const (
	KindUnknown Kind = iota
	// KindNotFound: the garden, seed or plant does not exist.
	KindNotFound
	// KindPreconditionFailed: the action is not allowed in the current state.
	// Nothing was changed.
	KindPreconditionFailed
	// KindPersistenceFailure: loading or saving the garden failed. The
	// returned state, if any, must not be treated as saved.
	KindPersistenceFailure
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindPreconditionFailed:
		return "precondition_failed"
	case KindPersistenceFailure:
		return "persistence_failure"
	default:
		return "unknown"
	}
}

// Error is the typed error returned by Service methods.
type Error struct {
	Kind Kind
	Op   string
	Msg  string
	// Suggestion is a close existing id when a lookup missed.
	Suggestion string
	Err        error
}

// Sentinels for errors.Is matching by kind.
var (
	ErrNotFound           = &Error{Kind: KindNotFound}
	ErrPreconditionFailed = &Error{Kind: KindPreconditionFailed}
	ErrPersistenceFailure = &Error{Kind: KindPersistenceFailure}
)

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.Suggestion != "" {
		msg = fmt.Sprintf("%s (did you mean %q?)", msg, e.Suggestion)
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// KindOf returns the Kind of err, or KindUnknown if err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

func notFound(op, format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Op: op, Msg: fmt.Sprintf(format, args...)}
}

func preconditionFailed(op, format string, args ...any) *Error {
	return &Error{Kind: KindPreconditionFailed, Op: op, Msg: fmt.Sprintf(format, args...)}
}

func persistenceFailure(op string, err error) *Error {
	return &Error{Kind: KindPersistenceFailure, Op: op, Msg: "persistence failed", Err: err}
}
