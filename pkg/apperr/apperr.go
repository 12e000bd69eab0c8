package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies failures of the swap pipeline
type Kind string

const (
	KindValidation    Kind = "VALIDATION_ERROR"
	KindQuoteFetch    Kind = "QUOTE_FETCH_ERROR"
	KindSigningFailed Kind = "SIGNING_FAILED"
	KindSubmission    Kind = "SUBMISSION_ERROR"
	KindTransport     Kind = "TRANSPORT_ERROR"
)

// Sentinels for errors.Is matching by kind.
var (
	ErrValidation    = &Error{Kind: KindValidation}
	ErrQuoteFetch    = &Error{Kind: KindQuoteFetch}
	ErrSigningFailed = &Error{Kind: KindSigningFailed}
	ErrSubmission    = &Error{Kind: KindSubmission}
	ErrTransport     = &Error{Kind: KindTransport}
)

// Error is a classified pipeline error
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Message != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	case e.Message != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	default:
		return string(e.Kind)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is a sentinel of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Message == "" && t.Err == nil && t.Kind == e.Kind
}

func Validation(format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func QuoteFetch(message string, err error) *Error {
	return &Error{Kind: KindQuoteFetch, Message: message, Err: err}
}

func SigningFailed(err error) *Error {
	return &Error{Kind: KindSigningFailed, Err: err}
}

func Submission(message string) *Error {
	return &Error{Kind: KindSubmission, Message: message}
}

func Transport(message string, err error) *Error {
	return &Error{Kind: KindTransport, Message: message, Err: err}
}

// KindOf returns the kind of the first classified error in the chain, or "" if none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
