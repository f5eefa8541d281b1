package ai

import (
	"context"
	"errors"
	"time"

	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
	"github.com/custodia-labs/docchat/internal/logger"
)

// Ensure the decorators implement the interfaces.
var (
	_ driven.EmbeddingService = (*ResilientEmbedding)(nil)
	_ driven.LLMService       = (*ResilientLLM)(nil)
)

// RetryPolicy controls retries of transient and throttled provider failures.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// PolicyFromSettings builds a RetryPolicy from retry settings.
func PolicyFromSettings(s domain.RetrySettings) RetryPolicy {
	return RetryPolicy{
		MaxAttempts: s.MaxAttempts,
		BaseDelay:   s.BaseDelay,
		MaxDelay:    s.MaxDelay,
	}
}

// Delay returns the backoff before retry number attempt (0-based):
// BaseDelay << attempt, capped at MaxDelay.
func (p RetryPolicy) Delay(attempt int) time.Duration {
	if p.BaseDelay <= 0 {
		return 0
	}
	// Past 30 shifts the duration overflows.
	if attempt > 30 {
		attempt = 30
	}
	d := p.BaseDelay << attempt
	if d <= 0 || (p.MaxDelay > 0 && d > p.MaxDelay) {
		return p.MaxDelay
	}
	return d
}

// Retry runs call until it succeeds, fails with a non-retryable error or
// MaxAttempts is reached. limiter may be nil.
func Retry(ctx context.Context, op string, p RetryPolicy, limiter *RateLimiter, call func(context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		if limiter != nil {
			if werr := limiter.Wait(ctx); werr != nil {
				return werr
			}
		}

		err = call(ctx)
		if err == nil || !domain.IsRetryable(err) || attempt == attempts-1 {
			return err
		}

		delay := p.Delay(attempt)
		if limiter != nil && errors.Is(err, domain.ErrThrottled) {
			limiter.Backoff(delay)
		}
		logger.Warn("%s failed (%s), attempt %d/%d, retrying in %s",
			op, domain.ErrorKind(err), attempt+1, attempts, delay)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return err
}

// ResilientEmbedding wraps an embedding service with retries and rate limiting.
type ResilientEmbedding struct {
	next    driven.EmbeddingService
	policy  RetryPolicy
	limiter *RateLimiter
}

// NewResilientEmbedding decorates next.
func NewResilientEmbedding(next driven.EmbeddingService, policy RetryPolicy, limiter *RateLimiter) *ResilientEmbedding {
	return &ResilientEmbedding{next: next, policy: policy, limiter: limiter}
}

// Embed generates an embedding for one text.
func (r *ResilientEmbedding) Embed(ctx context.Context, text string) ([]float32, error) {
	var out []float32
	err := Retry(ctx, "embed", r.policy, r.limiter, func(ctx context.Context) error {
		var err error
		out, err = r.next.Embed(ctx, text)
		return err
	})
	return out, err
}

// EmbedBatch generates embeddings for texts in one provider call per attempt.
func (r *ResilientEmbedding) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	var out [][]float32
	err := Retry(ctx, "embed batch", r.policy, r.limiter, func(ctx context.Context) error {
		var err error
		out, err = r.next.EmbedBatch(ctx, texts)
		return err
	})
	return out, err
}

// ModelName returns the wrapped model name.
func (r *ResilientEmbedding) ModelName() string { return r.next.ModelName() }

// Ping checks the wrapped service once, without retries.
func (r *ResilientEmbedding) Ping(ctx context.Context) error { return r.next.Ping(ctx) }

// Close closes the wrapped service.
func (r *ResilientEmbedding) Close() error { return r.next.Close() }

// ResilientLLM wraps an LLM service with retries and rate limiting.
type ResilientLLM struct {
	next    driven.LLMService
	policy  RetryPolicy
	limiter *RateLimiter
}

// NewResilientLLM decorates next.
func NewResilientLLM(next driven.LLMService, policy RetryPolicy, limiter *RateLimiter) *ResilientLLM {
	return &ResilientLLM{next: next, policy: policy, limiter: limiter}
}

// Chat sends the messages, retrying transient failures.
func (r *ResilientLLM) Chat(ctx context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	var out string
	err := Retry(ctx, "chat", r.policy, r.limiter, func(ctx context.Context) error {
		var err error
		out, err = r.next.Chat(ctx, messages, opts)
		return err
	})
	return out, err
}

// ModelName returns the wrapped model name.
func (r *ResilientLLM) ModelName() string { return r.next.ModelName() }

// Ping checks the wrapped service once, without retries.
func (r *ResilientLLM) Ping(ctx context.Context) error { return r.next.Ping(ctx) }

// Close closes the wrapped service.
func (r *ResilientLLM) Close() error { return r.next.Close() }
