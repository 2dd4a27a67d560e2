package domain

import (
	"context"
	"errors"
	"fmt"
)

// Kind is the stable error classification reported to tool callers.
type Kind string

const (
	KindValidation        Kind = "ValidationError"
	KindTransport         Kind = "TransportError"
	KindNotFound          Kind = "NotFoundError"
	KindStatement         Kind = "StatementError"
	KindStatementCanceled Kind = "StatementCanceled"
	KindDecode            Kind = "DecodeError"
	KindTimeout           Kind = "TimeoutError"
	KindInternal          Kind = "InternalError"
)

var (
	ErrUnknownTool     = errors.New("unknown tool")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrMissingHost     = errors.New("workspace host is required")
	ErrMissingToken    = errors.New("workspace token is required")
)

type Error struct {
	Kind    Kind
	Op      string
	Message string
	Cause   error

	// Remote failure details, set for errors raised from a remote response.
	StatusCode  int
	RemoteCode  string
	Unreachable bool
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Message
	if msg == "" && e.Cause != nil {
		msg = e.Cause.Error()
	}
	if e.Op == "" {
		if msg == "" {
			return string(e.Kind)
		}
		return fmt.Sprintf("%s: %s", e.Kind, msg)
	}
	if msg == "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, msg)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func E(kind Kind, op, msg string, cause error) *Error {
	if msg == "" && cause != nil {
		msg = cause.Error()
	}
	return &Error{
		Kind:    kind,
		Op:      op,
		Message: msg,
		Cause:   cause,
	}
}

// Wrap classifies err under kind unless it already carries a classification,
// in which case the existing kind is kept and op is filled in when missing.
func Wrap(kind Kind, op string, err error) *Error {
	if err == nil {
		return nil
	}
	var existing *Error
	if errors.As(err, &existing) {
		if existing.Op != "" || op == "" {
			return existing
		}
		clone := *existing
		clone.Op = op
		return &clone
	}
	return E(kind, op, "", err)
}

// KindFrom reports the classification of err. Context deadlines map to
// KindTimeout; anything unclassified reports false.
func KindFrom(err error) (Kind, bool) {
	if err == nil {
		return "", false
	}
	var domainErr *Error
	if errors.As(err, &domainErr) && domainErr.Kind != "" {
		return domainErr.Kind, true
	}
	switch {
	case errors.Is(err, ErrUnknownTool), errors.Is(err, ErrInvalidArgument):
		return KindValidation, true
	case errors.Is(err, context.DeadlineExceeded):
		return KindTimeout, true
	default:
		return "", false
	}
}

// IsKind reports whether err is classified as kind.
func IsKind(err error, kind Kind) bool {
	got, ok := KindFrom(err)
	return ok && got == kind
}

// Message returns the caller-facing message for err without the op prefix.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var domainErr *Error
	if errors.As(err, &domainErr) {
		if domainErr.Message != "" {
			return domainErr.Message
		}
		if domainErr.Cause != nil {
			return domainErr.Cause.Error()
		}
		return string(domainErr.Kind)
	}
	return err.Error()
}
