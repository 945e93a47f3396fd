package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fastConfig() Config {
	return Config{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2.0,
	}
}

func TestRetry_SucceedsAfterFailures(t *testing.T) {
	attempts := 0
	err := Retry(context.Background(), fastConfig(), func() error {
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Retry failed: %v", err)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestRetry_ExhaustsAttempts(t *testing.T) {
	attempts := 0
	sentinel := errors.New("always failing")
	err := Retry(context.Background(), fastConfig(), func() error {
		attempts++
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Errorf("err = %v, want last failure", err)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestRetry_StopsOnNonRetryable(t *testing.T) {
	cfg := fastConfig()
	cfg.RetryableErrors = func(err error) bool { return false }

	attempts := 0
	err := Retry(context.Background(), cfg, func() error {
		attempts++
		return errors.New("permanent")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1", attempts)
	}
}

func TestRetry_RespectsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	attempts := 0
	err := Retry(ctx, fastConfig(), func() error {
		attempts++
		return errors.New("transient")
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if attempts != 0 {
		t.Errorf("attempts = %d, want 0", attempts)
	}
}

func TestCalculateDelay_CappedAtMax(t *testing.T) {
	cfg := Config{
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     time.Second,
		Multiplier:   2.0,
	}
	for attempt := 1; attempt <= 10; attempt++ {
		if d := calculateDelay(attempt, cfg); d > cfg.MaxDelay {
			t.Errorf("delay at attempt %d = %v exceeds max %v", attempt, d, cfg.MaxDelay)
		}
	}
}
