package sharing

import (
	"errors"
	"fmt"
)

// Error kinds. Match with errors.Is.
var (
	ErrValidation      = errors.New("validation failed")
	ErrNotFound        = errors.New("not found")
	ErrInvalidState    = errors.New("invalid state")
	ErrForbidden       = errors.New("forbidden")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrPersistence     = errors.New("persistence failure")
)

// GenericMessage is shown to users for store failures and anything unclassified.
const GenericMessage = "Something went wrong, please try again."

// Error is a classified failure from the reconciler. Msg is safe to show
// to the user; Err carries the underlying cause, if any.
type Error struct {
	Kind error
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Is(target error) bool { return target == e.Kind }

func (e *Error) Unwrap() error { return e.Err }

func validationf(format string, args ...any) error {
	return &Error{Kind: ErrValidation, Msg: fmt.Sprintf(format, args...)}
}

func notFound(msg string) error {
	return &Error{Kind: ErrNotFound, Msg: msg}
}

func invalidState(msg string) error {
	return &Error{Kind: ErrInvalidState, Msg: msg}
}

func forbidden(msg string) error {
	return &Error{Kind: ErrForbidden, Msg: msg}
}

func unauthenticated() error {
	return &Error{Kind: ErrUnauthenticated, Msg: "Sign in to continue."}
}

// persistence wraps a store failure. Already classified errors pass through.
func persistence(op string, err error) error {
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return &Error{Kind: ErrPersistence, Msg: op, Err: err}
}

// UserMessage returns the text to show for err.
func UserMessage(err error) string {
	var e *Error
	if !errors.As(err, &e) || e.Kind == ErrPersistence {
		return GenericMessage
	}
	return e.Msg
}

// Reason names the kind of err for logs and metrics labels.
func Reason(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidState):
		return "invalid_state"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrUnauthenticated):
		return "unauthenticated"
	default:
		return "persistence"
	}
}
