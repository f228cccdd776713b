// Package errs defines the fatal error kinds surfaced by this module's
// pipeline. Every run-ending error carries one of these kinds so the CLI
// entrypoint can report it uniformly and exit non-zero.
package errs

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies a fatal error. All kinds are terminal: there is no local
// recovery or retry above the collaborator that raised them.
type Kind string

const (
	// InvalidInput covers malformed expansions, an unknown build variant,
	// a missing required generator var, or an unresolved ${id} expansion.
	InvalidInput Kind = "InvalidInput"
	// InvalidSuiteConfig covers a suite document that isn't a mapping at
	// its root or under executor, or that fails to parse at all.
	InvalidSuiteConfig Kind = "InvalidSuiteConfig"
	// ExternalProcess covers a non-zero exit or unparseable stdout from
	// the test-runner probe subprocess.
	ExternalProcess Kind = "ExternalProcess"
	// RemoteService covers a failure from the CI service's REST client.
	RemoteService Kind = "RemoteService"
	// IO covers a file read or write failure.
	IO Kind = "Io"
)

// Error wraps an underlying cause with a Kind and the task/suite/variant
// context a user needs to find the offending generator.
type Error struct {
	Kind    Kind
	Subject string // e.g. "task=foo_gen variant=bar"
	cause   error
}

func (e *Error) Error() string {
	if e.Subject == "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.cause)
	}
	return fmt.Sprintf("%s (%s): %s", e.Kind, e.Subject, e.cause)
}

func (e *Error) Unwrap() error { return e.cause }

// New builds a fatal Error of the given kind, wrapping cause with pkg/errors
// so a stack trace is attached at the point of origin.
func New(kind Kind, subject string, cause error) *Error {
	return &Error{Kind: kind, Subject: subject, cause: errors.WithStack(cause)}
}

// Newf is like New but builds cause from a format string.
func Newf(kind Kind, subject, format string, args ...interface{}) *Error {
	return New(kind, subject, errors.Errorf(format, args...))
}

// Wrap annotates cause with msg before attaching kind and subject.
func Wrap(kind Kind, subject string, cause error, msg string) *Error {
	return New(kind, subject, errors.Wrap(cause, msg))
}

// As reports whether err is (or wraps) an *Error of the given kind.
func As(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}
