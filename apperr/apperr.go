// Package apperr defines the typed error kinds surfaced by the core
// service layer and the one-to-one mapping transport adapters use to
// translate them into HTTP responses.
package apperr

import "fmt"

// Kind is the closed set of error categories the core ever returns.
type Kind string

const (
	Unauthorized      Kind = "unauthorized"
	Forbidden         Kind = "forbidden"
	NotFound          Kind = "not_found"
	Validation        Kind = "validation"
	InsufficientFunds Kind = "insufficient_funds"
	Conflict          Kind = "conflict"
	DeadlineExpired   Kind = "deadline_expired"
	Internal          Kind = "internal"
)

// Error is the core's error type. Services never return bare errors for
// anything the caller needs to act on; they wrap them in an *Error so the
// transport layer can map Kind to an HTTP status without inspecting text.
type Error struct {
	Kind    Kind
	Ident   string // NotFound: the id that failed to resolve
	Field   string // Validation: the offending field
	Message string
	cause   error
}

func (e *Error) Error() string {
	switch e.Kind {
	case NotFound:
		return fmt.Sprintf("not found: %s", e.Ident)
	case Validation:
		return fmt.Sprintf("validation: %s: %s", e.Field, e.Message)
	default:
		if e.Message != "" {
			return fmt.Sprintf("%s: %s", e.Kind, e.Message)
		}
		return string(e.Kind)
	}
}

func (e *Error) Unwrap() error { return e.cause }

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, cause: cause}
}

func NotFoundErr(ident string) *Error {
	return &Error{Kind: NotFound, Ident: ident}
}

func ValidationErr(field, message string) *Error {
	return &Error{Kind: Validation, Field: field, Message: message}
}

// ForbiddenErr takes the failed permission/action name for logs; per
// spec.md §7 the transport layer never echoes it back to the caller.
func ForbiddenErr(action string) *Error {
	return &Error{Kind: Forbidden, Message: action}
}

func UnauthorizedErr() *Error {
	return &Error{Kind: Unauthorized}
}

func ConflictErr(message string) *Error {
	return &Error{Kind: Conflict, Message: message}
}

func DeadlineExpiredErr(message string) *Error {
	return &Error{Kind: DeadlineExpired, Message: message}
}

func InsufficientFundsErr() *Error {
	return &Error{Kind: InsufficientFunds}
}

func InternalErr(cause error) *Error {
	return &Error{Kind: Internal, cause: cause, Message: "internal error"}
}

// As extracts an *Error from err, reporting ok=false for plain errors —
// callers treat those as Internal.
func As(err error) (*Error, bool) {
	if err == nil {
		return nil, false
	}
	if e, ok := err.(*Error); ok {
		return e, true
	}
	return nil, false
}
