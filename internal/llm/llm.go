// Package llm defines the model invocation port. Use cases depend on this
// interface; the anthropic adapter implements it.
package llm

import "context"

// Request describes one model invocation. Model and MaxTokens may be zero,
// in which case the implementation applies its configured defaults.
type Request struct {
	Model     string
	MaxTokens int
	System    string
	User      string
}

// Reply is the parsed model reply: the first text-typed content block plus
// usage metadata.
type Reply struct {
	Text       string
	TokensIn   int
	TokensOut  int
	Model      string
	StopReason string
}

// Invoker sends one request to the model and returns its reply. A reply
// without a text block is an error, never an empty Reply.
type Invoker interface {
	Invoke(ctx context.Context, req Request) (*Reply, error)
}
