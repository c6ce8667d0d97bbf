// Package http holds the pieces shared by the outbound model and
// transcription clients: the typed error taxonomy the rest of the system
// maps onto HTTP status codes.
package http

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ErrorType represents the category of error that occurred upstream.
type ErrorType int

const (
	ErrTypeAuthentication ErrorType = iota
	ErrTypeRateLimit
	ErrTypeServiceUnavailable
	ErrTypeInvalidRequest
	ErrTypeTimeout
	ErrTypeConnection
	ErrTypeNoTextContent
	ErrTypeUnknown
)

// String returns a human-readable description of the error type.
func (e ErrorType) String() string {
	switch e {
	case ErrTypeAuthentication:
		return "authentication error"
	case ErrTypeRateLimit:
		return "rate limit exceeded"
	case ErrTypeServiceUnavailable:
		return "service unavailable"
	case ErrTypeInvalidRequest:
		return "invalid request"
	case ErrTypeTimeout:
		return "timeout"
	case ErrTypeConnection:
		return "connection failed"
	case ErrTypeNoTextContent:
		return "no text content in reply"
	default:
		return "unknown error"
	}
}

// Error represents an upstream client error with enough context to map it to
// a response status without exposing provider internals to callers.
type Error struct {
	Type       ErrorType
	Message    string
	StatusCode int
	Provider   string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %s (status: %d)", e.Provider, e.Type.String(), e.Message, e.StatusCode)
}

// Is implements error equality checking for errors.Is, matching on type.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// FromStatus maps an upstream HTTP status code to a typed error.
func FromStatus(provider string, statusCode int, message string) *Error {
	errType := ErrTypeUnknown
	switch {
	case statusCode == 401 || statusCode == 403:
		errType = ErrTypeAuthentication
	case statusCode == 429:
		errType = ErrTypeRateLimit
	case statusCode == 400:
		errType = ErrTypeInvalidRequest
	case statusCode == 408:
		errType = ErrTypeTimeout
	case statusCode >= 500:
		errType = ErrTypeServiceUnavailable
	}
	return &Error{
		Type:       errType,
		Message:    message,
		StatusCode: statusCode,
		Provider:   provider,
	}
}

// FromTransport classifies a request that never produced a response. Timeouts
// keep their own type so logs tell a slow upstream apart from an unreachable
// one (DNS failure, connection refused).
func FromTransport(provider string, err error) *Error {
	errType := ErrTypeConnection
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		errType = ErrTypeTimeout
	}
	return &Error{
		Type:     errType,
		Message:  err.Error(),
		Provider: provider,
	}
}
