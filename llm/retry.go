package llm

import (
	"context"
	"math"
	"time"

	"github.com/voocel/litellm"

	"github.com/voocel/mas/schema"
)

// RetryConfig bounds StreamWithRetry's backoff. MaxRetries of zero
// disables retrying entirely.
type RetryConfig struct {
	MaxRetries int
	// OnRetry, if set, is notified before each retry sleep (for hook
	// observability); it never blocks the retry itself.
	OnRetry func(attempt int, delay time.Duration, err error)
}

// StreamWithRetry calls model.Stream, retrying the whole call (not
// mid-stream) when litellm classifies the error as retryable, with
// exponential backoff capped at 30s and honoring a provider's
// Retry-After when present. A non-retryable error, or exhausting
// MaxRetries, returns immediately.
func StreamWithRetry(ctx context.Context, model Model, prompt []schema.Msg, toolSchemas []ToolSchema, opts Options, cfg RetryConfig) (<-chan ReasoningFragment, error) {
	if cfg.MaxRetries <= 0 {
		return model.Stream(ctx, prompt, toolSchemas, opts)
	}

	var lastErr error
	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		ch, err := model.Stream(ctx, prompt, toolSchemas, opts)
		if err == nil {
			return ch, nil
		}
		lastErr = err

		if !litellm.IsRetryableError(err) || attempt == cfg.MaxRetries {
			return nil, err
		}

		delay := retryDelay(err, attempt)
		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt+1, delay, err)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
	return nil, lastErr
}

// retryDelay computes exponential backoff (1s, 2s, 4s, ... capped at
// 30s), deferring to a provider-supplied Retry-After when present.
func retryDelay(err error, attempt int) time.Duration {
	if after := litellm.GetRetryAfter(err); after > 0 {
		d := time.Duration(after) * time.Second
		if d > 30*time.Second {
			d = 30 * time.Second
		}
		return d
	}
	d := time.Duration(math.Pow(2, float64(attempt))) * time.Second
	if d > 30*time.Second {
		d = 30 * time.Second
	}
	return d
}
