package domain

import (
	"context"
	"errors"
	"fmt"
)

type ErrorCode string

const (
	CodeNotFound        ErrorCode = "NOT_FOUND"
	CodeUpstreamTimeout ErrorCode = "UPSTREAM_TIMEOUT"
	CodeUpstreamFailure ErrorCode = "UPSTREAM_FAILURE"
	CodeInvalidRequest  ErrorCode = "INVALID_REQUEST"
	CodeInternal        ErrorCode = "INTERNAL"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidRequest  = errors.New("invalid request")
	ErrUnknownTool     = errors.New("unknown tool")
	ErrUnknownMethod   = errors.New("unknown method")
	ErrUpstreamTimeout = errors.New("upstream timeout")
	ErrMissingAPIKey   = errors.New("missing api key")
)

// Meta keys attached to upstream errors.
const (
	MetaSource = "source"
	MetaKind   = "kind"
	MetaStatus = "status"
)

type Error struct {
	Code    ErrorCode
	Op      string
	Message string
	Cause   error
	Meta    map[string]string
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
			return string(e.Code)
		}
		return fmt.Sprintf("%s: %s", e.Code, msg)
	}
	if msg == "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Code)
	}
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Code, msg)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// WithMeta returns a copy of e carrying the extra key/value.
func (e *Error) WithMeta(key, value string) *Error {
	if e == nil {
		return nil
	}
	meta := make(map[string]string, len(e.Meta)+1)
	for k, v := range e.Meta {
		meta[k] = v
	}
	meta[key] = value
	clone := *e
	clone.Meta = meta
	return &clone
}

func E(code ErrorCode, op, msg string, cause error) *Error {
	if msg == "" && cause != nil {
		msg = cause.Error()
	}
	return &Error{
		Code:    code,
		Op:      op,
		Message: msg,
		Cause:   cause,
	}
}

func Wrap(code ErrorCode, op string, err error) *Error {
	if err == nil {
		return nil
	}
	var existing *Error
	if errors.As(err, &existing) {
		if existing.Op != "" || op == "" {
			return existing
		}
		return &Error{
			Code:    existing.Code,
			Op:      op,
			Message: existing.Message,
			Cause:   existing.Cause,
			Meta:    existing.Meta,
		}
	}
	return E(code, op, "", err)
}

func CodeFrom(err error) (ErrorCode, bool) {
	if err == nil {
		return "", false
	}
	var domainErr *Error
	if errors.As(err, &domainErr) && domainErr.Code != "" {
		return domainErr.Code, true
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return CodeNotFound, true
	case errors.Is(err, ErrInvalidRequest), errors.Is(err, ErrUnknownTool), errors.Is(err, ErrUnknownMethod):
		return CodeInvalidRequest, true
	case errors.Is(err, ErrUpstreamTimeout), errors.Is(err, context.DeadlineExceeded):
		return CodeUpstreamTimeout, true
	case errors.Is(err, ErrMissingAPIKey):
		return CodeUpstreamFailure, true
	default:
		return "", false
	}
}

// MessageFrom returns the human-facing part of err without op and code prefixes.
func MessageFrom(err error) string {
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
		return string(domainErr.Code)
	}
	return err.Error()
}
