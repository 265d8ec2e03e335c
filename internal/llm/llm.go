// Package llm abstracts the text completion providers behind the AI tools.
package llm

import (
	"context"
	"errors"
)

// Client turns a system instruction and a user prompt into plain text.
type Client interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// ErrNotImplemented is returned by the placeholder client.
var ErrNotImplemented = errors.New("LLM not implemented")

// PlaceholderClient is used when no provider is configured.
type PlaceholderClient struct{}

// Complete returns ErrNotImplemented.
func (PlaceholderClient) Complete(ctx context.Context, system, user string) (string, error) {
	_ = ctx
	_ = system
	_ = user
	return "", ErrNotImplemented
}

// ClientFunc adapts a function to Client.
type ClientFunc func(ctx context.Context, system, user string) (string, error)

func (f ClientFunc) Complete(ctx context.Context, system, user string) (string, error) {
	return f(ctx, system, user)
}
