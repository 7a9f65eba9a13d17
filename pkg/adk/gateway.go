package adk

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Response is what the model gateway hands back for one prompt. Text is opaque.
type Response struct {
	Text string `json:"text"`
}

// LLMProvider defines the interface for different AI models
type LLMProvider interface {
	Generate(ctx context.Context, prompt string) (string, error)
	ListModels(ctx context.Context) ([]string, error)
}

// GatewayOptions bounds each model call
type GatewayOptions struct {
	Timeout time.Duration // per attempt, 0 disables
	Retries int           // extra attempts after the first failure
	Backoff time.Duration // multiplied by the attempt number
}

// Gateway wraps a provider with per-call timeouts and retries
type Gateway struct {
	llm  LLMProvider
	opts GatewayOptions
}

// NewGateway creates a gateway around the given LLM provider
func NewGateway(llm LLMProvider, opts GatewayOptions) *Gateway {
	if opts.Backoff <= 0 {
		opts.Backoff = time.Second
	}
	if opts.Retries < 0 {
		opts.Retries = 0
	}
	return &Gateway{llm: llm, opts: opts}
}

// Generate sends one prompt and returns the raw response text
func (g *Gateway) Generate(ctx context.Context, prompt string) (Response, error) {
	var lastErr error
	for attempt := 0; attempt <= g.opts.Retries; attempt++ {
		if attempt > 0 {
			Debugf("retrying model call (attempt %d/%d): %v", attempt+1, g.opts.Retries+1, lastErr)
			select {
			case <-ctx.Done():
				return Response{}, ctx.Err()
			case <-time.After(g.opts.Backoff * time.Duration(attempt)):
			}
		}

		text, err := g.call(ctx, prompt)
		if err == nil {
			return Response{Text: text}, nil
		}
		lastErr = err

		// The caller gave up; retrying cannot help.
		if ctx.Err() != nil {
			return Response{}, ctx.Err()
		}
	}
	return Response{}, fmt.Errorf("model call failed after %d attempt(s): %w", g.opts.Retries+1, lastErr)
}

func (g *Gateway) call(ctx context.Context, prompt string) (string, error) {
	if g.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.opts.Timeout)
		defer cancel()
	}
	text, err := g.llm.Generate(ctx, prompt)
	if errors.Is(err, context.DeadlineExceeded) {
		return "", fmt.Errorf("model call timed out after %s: %w", g.opts.Timeout, err)
	}
	return text, err
}
