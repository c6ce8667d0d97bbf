package anthropic

import (
	"errors"
	"sync"
)

// ErrNotConfigured is returned when the model client is requested but no API
// key is configured. It is a named error so callers can map it to a
// service-unavailable response instead of a cryptic downstream failure.
var ErrNotConfigured = errors.New("anthropic: api key not configured")

var (
	defaultOnce   sync.Once
	defaultClient *Client
	defaultErr    error
)

// Default returns the process-wide client, constructing it on first use.
// Construction validates configuration exactly once; every later call
// returns the same client or the same configuration error. The client is
// stateless per call, so no teardown is needed.
func Default(cfg Config) (*Client, error) {
	defaultOnce.Do(func() {
		if cfg.APIKey == "" {
			defaultErr = ErrNotConfigured
			return
		}
		defaultClient = New(cfg)
	})
	return defaultClient, defaultErr
}

// resetDefault clears the singleton. Test hook only.
func resetDefault() {
	defaultOnce = sync.Once{}
	defaultClient = nil
	defaultErr = nil
}
