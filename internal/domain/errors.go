package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures so callers can branch on them without string
// matching. It replaces the loosely typed success/error dictionaries the
// upstream providers speak.
type ErrorKind string

const (
	// KindInvalidInput covers malformed references and empty transcripts.
	// No external call is ever attempted for these.
	KindInvalidInput ErrorKind = "invalid_input"
	// KindNotFound covers missing entities and owner mismatches.
	KindNotFound ErrorKind = "not_found"
	// KindUpstream covers any transcript-source or generator failure.
	KindUpstream ErrorKind = "upstream_unavailable"
	// KindConflict covers store-level constraint violations.
	KindConflict ErrorKind = "conflict"
)

type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func Invalid(message string) error {
	return &Error{Kind: KindInvalidInput, Message: message}
}

func Invalidf(format string, args ...any) error {
	return &Error{Kind: KindInvalidInput, Message: fmt.Sprintf(format, args...)}
}

func NotFound(message string) error {
	return &Error{Kind: KindNotFound, Message: message}
}

func NotFoundf(format string, args ...any) error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// Upstream wraps a provider failure, keeping the failing stage's message.
func Upstream(stage string, err error) error {
	return &Error{Kind: KindUpstream, Message: stage, Err: err}
}

func Conflict(message string, err error) error {
	return &Error{Kind: KindConflict, Message: message, Err: err}
}

// KindOf reports the classification of err, or an empty kind for errors that
// did not originate from this package.
func KindOf(err error) ErrorKind {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Kind
	}
	return ""
}

func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}
