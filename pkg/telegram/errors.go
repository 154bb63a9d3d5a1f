package telegram

import (
	"errors"
	"fmt"
)

// ErrorKind is a coarse classification of client failures.
type ErrorKind string

const (
	KindUnknown          ErrorKind = "unknown"
	KindNotFound         ErrorKind = "not_found"
	KindPermissionDenied ErrorKind = "permission_denied"
	KindRateLimited      ErrorKind = "rate_limited"
	KindTransient        ErrorKind = "transient"
	KindInvalid          ErrorKind = "invalid"
)

// Error is a categorized failure raised by a Client or by request validation.
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return string(e.Kind)
	}

	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}

	return e.Err
}

// NewError wraps err with a kind and the operation that produced it.
func NewError(kind ErrorKind, op string, err error) error {
	if err == nil {
		return nil
	}

	return &Error{Kind: kind, Op: op, Err: err}
}

// Invalidf builds an Invalid error from a format string.
func Invalidf(op string, format string, args ...any) error {
	return &Error{Kind: KindInvalid, Op: op, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}

	var categorized *Error
	if errors.As(err, &categorized) {
		return categorized.Kind
	}

	return KindUnknown
}
