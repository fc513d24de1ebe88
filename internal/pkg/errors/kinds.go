package errors

import (
	stderrors "errors"
	"fmt"

	pkgerrors "github.com/pkg/errors"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindAuth
	KindUpstream
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuth:
		return "auth"
	case KindUpstream:
		return "upstream"
	default:
		return "internal"
	}
}

// Error tags a cause with one of the closed set of kinds.
type Error struct {
	Kind Kind
	Op   string
	// Status is the HTTP status returned by Zoom, if any.
	Status int
	Err    error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: %s error (status %d): %v", e.Op, e.Kind, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %s error: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func Validation(op, message string) error {
	return &Error{Kind: KindValidation, Op: op, Err: pkgerrors.New(message)}
}

func Auth(op string, err error) error {
	return &Error{Kind: KindAuth, Op: op, Err: pkgerrors.WithStack(err)}
}

func Upstream(op string, status int, err error) error {
	return &Error{Kind: KindUpstream, Op: op, Status: status, Err: pkgerrors.WithStack(err)}
}

// KindOf returns KindInternal for errors that carry no kind.
func KindOf(err error) Kind {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// MessageOf returns the innermost message of a kinded error.
func MessageOf(err error) string {
	var e *Error
	if stderrors.As(err, &e) && e.Err != nil {
		return pkgerrors.Cause(e.Err).Error()
	}
	return err.Error()
}
