package http_test

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"

	llmhttp "github.com/bkyoung/ideaminer/internal/adapter/llm/http"
	"github.com/stretchr/testify/assert"
)

func TestFromStatus(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		expected llmhttp.ErrorType
	}{
		{"unauthorized", 401, llmhttp.ErrTypeAuthentication},
		{"forbidden", 403, llmhttp.ErrTypeAuthentication},
		{"rate limited", 429, llmhttp.ErrTypeRateLimit},
		{"bad request", 400, llmhttp.ErrTypeInvalidRequest},
		{"timeout", 408, llmhttp.ErrTypeTimeout},
		{"server error", 500, llmhttp.ErrTypeServiceUnavailable},
		{"overloaded", 529, llmhttp.ErrTypeServiceUnavailable},
		{"teapot", 418, llmhttp.ErrTypeUnknown},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := llmhttp.FromStatus("anthropic", tc.status, "boom")
			assert.Equal(t, tc.expected, err.Type)
			assert.Equal(t, tc.status, err.StatusCode)
		})
	}
}

func TestFromTransport(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected llmhttp.ErrorType
	}{
		{"deadline exceeded", context.DeadlineExceeded, llmhttp.ErrTypeTimeout},
		{"wrapped deadline", fmt.Errorf("do request: %w", context.DeadlineExceeded), llmhttp.ErrTypeTimeout},
		{"net timeout", &net.DNSError{Err: "i/o timeout", IsTimeout: true}, llmhttp.ErrTypeTimeout},
		{"dns failure", &net.DNSError{Err: "no such host"}, llmhttp.ErrTypeConnection},
		{"connection refused", errors.New("dial tcp 127.0.0.1:443: connect: connection refused"), llmhttp.ErrTypeConnection},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := llmhttp.FromTransport("anthropic", tc.err)
			assert.Equal(t, tc.expected, err.Type)
			assert.Equal(t, "anthropic", err.Provider)
		})
	}
}

func TestError_Is(t *testing.T) {
	err := llmhttp.FromStatus("anthropic", 429, "slow down")

	assert.True(t, errors.Is(err, &llmhttp.Error{Type: llmhttp.ErrTypeRateLimit}))
	assert.False(t, errors.Is(err, &llmhttp.Error{Type: llmhttp.ErrTypeAuthentication}))
}

func TestError_MessageIncludesProviderAndType(t *testing.T) {
	err := llmhttp.FromStatus("openai", 503, "down")
	assert.Contains(t, err.Error(), "openai")
	assert.Contains(t, err.Error(), "service unavailable")
}
