// Package anthropic implements the model client against the Anthropic
// Messages API. The client is stateless between calls; the process-wide
// default instance is built lazily and fails fast with ErrNotConfigured when
// credentials are absent.
package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	llmhttp "github.com/bkyoung/ideaminer/internal/adapter/llm/http"
	"github.com/bkyoung/ideaminer/internal/llm"
	"go.uber.org/zap"
)

const (
	defaultBaseURL          = "https://api.anthropic.com"
	defaultTimeout          = 60 * time.Second
	defaultMaxTokens        = 4096
	defaultAnthropicVersion = "2023-06-01"

	providerName = "anthropic"
)

// Config holds everything needed to construct a client.
type Config struct {
	APIKey    string
	Model     string
	MaxTokens int
	Timeout   time.Duration
	Logger    *zap.Logger
}

// Client is an HTTP client for the Anthropic Messages API.
type Client struct {
	apiKey    string
	model     string
	maxTokens int
	baseURL   string
	client    *http.Client
	logger    *zap.Logger
}

// New creates a new client. It does not validate credentials; use Default
// for the fail-fast singleton path.
func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		apiKey:    cfg.APIKey,
		model:     cfg.Model,
		maxTokens: maxTokens,
		baseURL:   defaultBaseURL,
		client:    &http.Client{Timeout: timeout},
		logger:    logger,
	}
}

// SetBaseURL sets a custom base URL (for testing).
func (c *Client) SetBaseURL(url string) {
	c.baseURL = url
}

// Invoke sends one user message to the Messages API and returns the first
// text content block. A reply with no text block is an explicit typed error,
// not an empty string. There is no retry: transient upstream failures
// surface to the caller, which decides whether the flow can recover.
func (c *Client) Invoke(ctx context.Context, req llm.Request) (*llm.Reply, error) {
	model := req.Model
	if model == "" {
		model = c.model
	}
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = c.maxTokens
	}

	body := MessagesRequest{
		Model:     model,
		MaxTokens: maxTokens,
		System:    req.System,
		Messages:  []Message{{Role: "user", Content: req.User}},
	}

	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/messages", bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", defaultAnthropicVersion)

	start := time.Now()
	c.logger.Debug("model request",
		zap.String("provider", providerName),
		zap.String("model", model),
		zap.Int("prompt_chars", len(req.User)),
	)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, llmhttp.FromTransport(providerName, err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, c.errorFromResponse(resp.StatusCode, bodyBytes)
	}

	var messagesResp MessagesResponse
	if err := json.Unmarshal(bodyBytes, &messagesResp); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	text, ok := firstTextBlock(messagesResp.Content)
	if !ok {
		return nil, &llmhttp.Error{
			Type:     llmhttp.ErrTypeNoTextContent,
			Message:  "reply contained no text content block",
			Provider: providerName,
		}
	}

	c.logger.Debug("model response",
		zap.String("provider", providerName),
		zap.String("model", messagesResp.Model),
		zap.Duration("duration", time.Since(start)),
		zap.Int("tokens_in", messagesResp.Usage.InputTokens),
		zap.Int("tokens_out", messagesResp.Usage.OutputTokens),
		zap.String("stop_reason", messagesResp.StopReason),
	)

	return &llm.Reply{
		Text:       text,
		TokensIn:   messagesResp.Usage.InputTokens,
		TokensOut:  messagesResp.Usage.OutputTokens,
		Model:      messagesResp.Model,
		StopReason: messagesResp.StopReason,
	}, nil
}

// firstTextBlock returns the first type=="text" block in the content list.
func firstTextBlock(blocks []ContentBlock) (string, bool) {
	for _, block := range blocks {
		if block.Type == "text" {
			return block.Text, true
		}
	}
	return "", false
}

// errorFromResponse maps an error status to the shared typed error, keeping
// the provider's message for server-side logs.
func (c *Client) errorFromResponse(statusCode int, body []byte) error {
	message := fmt.Sprintf("HTTP %d", statusCode)
	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Message != "" {
		message = errResp.Error.Message
	}
	return llmhttp.FromStatus(providerName, statusCode, message)
}
