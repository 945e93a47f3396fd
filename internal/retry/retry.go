package retry

import (
	"context"
	"math"
	"math/rand"
	"time"
)

// Config holds retry configuration
type Config struct {
	// MaxAttempts is the maximum number of attempts (including initial attempt)
	MaxAttempts int
	// InitialDelay is the delay before first retry
	InitialDelay time.Duration
	// MaxDelay is the maximum delay between retries
	MaxDelay time.Duration
	// Multiplier is the backoff multiplier (typically 2 for exponential backoff)
	Multiplier float64
	// Jitter adds randomness to backoff to prevent thundering herd
	// Jitter = 0.0 (no jitter) to 1.0 (full jitter)
	Jitter float64
	// RetryableErrors returns true if error should be retried
	RetryableErrors func(err error) bool
	// OnRetry is called before each retry attempt
	OnRetry func(attempt int, delay time.Duration, err error)
}

// DefaultConfig returns sensible default retry configuration
func DefaultConfig() Config {
	return Config{
		MaxAttempts:  3,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     10 * time.Second,
		Multiplier:   2.0,
		Jitter:       0.3,
		RetryableErrors: func(err error) bool {
			return err != nil
		},
	}
}

// Retry executes fn with exponential backoff retry logic
func Retry(ctx context.Context, config Config, fn func() error) error {
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 1
	}
	if config.InitialDelay == 0 {
		config.InitialDelay = 100 * time.Millisecond
	}
	if config.MaxDelay == 0 {
		config.MaxDelay = 30 * time.Second
	}
	if config.Multiplier == 0 {
		config.Multiplier = 2.0
	}
	if config.Jitter < 0 {
		config.Jitter = 0
	}
	if config.Jitter > 1 {
		config.Jitter = 1
	}
	if config.RetryableErrors == nil {
		config.RetryableErrors = func(err error) bool {
			return err != nil
		}
	}

	var lastErr error

	for attempt := 1; attempt <= config.MaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		err := fn()
		if err == nil {
			return nil
		}

		lastErr = err

		if !config.RetryableErrors(err) {
			return err
		}

		if attempt >= config.MaxAttempts {
			break
		}

		delay := calculateDelay(attempt, config)

		if config.OnRetry != nil {
			config.OnRetry(attempt, delay, err)
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return lastErr
}

// calculateDelay calculates delay with exponential backoff and jitter
func calculateDelay(attempt int, config Config) time.Duration {
	backoff := float64(config.InitialDelay) * math.Pow(config.Multiplier, float64(attempt-1))

	if backoff > float64(config.MaxDelay) {
		backoff = float64(config.MaxDelay)
	}

	if config.Jitter > 0 {
		jitterAmount := backoff * config.Jitter
		backoff = backoff - jitterAmount + (rand.Float64() * jitterAmount * 2)
	}

	return time.Duration(backoff)
}
