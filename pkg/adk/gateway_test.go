package adk

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type stubProvider struct {
	calls    atomic.Int32
	generate func(ctx context.Context, attempt int) (string, error)
}

func (s *stubProvider) Generate(ctx context.Context, prompt string) (string, error) {
	n := s.calls.Add(1)
	return s.generate(ctx, int(n))
}

func (s *stubProvider) ListModels(ctx context.Context) ([]string, error) {
	return []string{"stub-1"}, nil
}

func TestGatewayRetriesThenSucceeds(t *testing.T) {
	llm := &stubProvider{generate: func(ctx context.Context, attempt int) (string, error) {
		if attempt < 3 {
			return "", errors.New("503 overloaded")
		}
		return "[]", nil
	}}
	gw := NewGateway(llm, GatewayOptions{Retries: 2, Backoff: time.Millisecond})

	resp, err := gw.Generate(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("Expected success on third attempt, got %v", err)
	}
	if resp.Text != "[]" {
		t.Errorf("Expected raw text, got %q", resp.Text)
	}
	if llm.calls.Load() != 3 {
		t.Errorf("Expected 3 calls, got %d", llm.calls.Load())
	}
}

func TestGatewayGivesUp(t *testing.T) {
	boom := errors.New("invalid api key")
	llm := &stubProvider{generate: func(ctx context.Context, attempt int) (string, error) {
		return "", boom
	}}
	gw := NewGateway(llm, GatewayOptions{Retries: 1, Backoff: time.Millisecond})

	_, err := gw.Generate(context.Background(), "prompt")
	if !errors.Is(err, boom) {
		t.Errorf("Expected wrapped provider error, got %v", err)
	}
	if llm.calls.Load() != 2 {
		t.Errorf("Expected 2 calls, got %d", llm.calls.Load())
	}
}

func TestGatewayPerAttemptTimeout(t *testing.T) {
	llm := &stubProvider{generate: func(ctx context.Context, attempt int) (string, error) {
		if attempt == 1 {
			<-ctx.Done()
			return "", ctx.Err()
		}
		return "ok", nil
	}}
	gw := NewGateway(llm, GatewayOptions{Timeout: 20 * time.Millisecond, Retries: 1, Backoff: time.Millisecond})

	resp, err := gw.Generate(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("Expected retry after timeout to succeed, got %v", err)
	}
	if resp.Text != "ok" {
		t.Errorf("Expected 'ok', got %q", resp.Text)
	}
}

func TestGatewayTimeoutError(t *testing.T) {
	llm := &stubProvider{generate: func(ctx context.Context, attempt int) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}}
	gw := NewGateway(llm, GatewayOptions{Timeout: 10 * time.Millisecond})

	_, err := gw.Generate(context.Background(), "prompt")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected deadline exceeded, got %v", err)
	}
}

func TestGatewayStopsWhenCallerCancels(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	llm := &stubProvider{generate: func(c context.Context, attempt int) (string, error) {
		cancel()
		return "", errors.New("connection reset")
	}}
	gw := NewGateway(llm, GatewayOptions{Retries: 5, Backoff: time.Millisecond})

	_, err := gw.Generate(ctx, "prompt")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if llm.calls.Load() != 1 {
		t.Errorf("Expected no retries after cancellation, got %d calls", llm.calls.Load())
	}
}
