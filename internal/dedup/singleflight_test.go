package dedup

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestDoContext_CoalescesConcurrentCalls(t *testing.T) {
	sf := NewSingleflight()

	var calls atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res := sf.DoContext(context.Background(), "key", func() (interface{}, error) {
				calls.Add(1)
				time.Sleep(50 * time.Millisecond)
				return "value", nil
			})
			if res.Err != nil || res.Val != "value" {
				t.Errorf("res = %+v", res)
			}
		}()
	}
	wg.Wait()

	if got := calls.Load(); got != 1 {
		t.Errorf("fn ran %d times, want 1", got)
	}
}

func TestDoContext_CancelledWaiter(t *testing.T) {
	sf := NewSingleflight()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := sf.DoContext(ctx, "key", func() (interface{}, error) {
		t.Error("fn must not run for an already cancelled context")
		return nil, nil
	})
	if !errors.Is(res.Err, context.Canceled) {
		t.Errorf("Err = %v, want context.Canceled", res.Err)
	}
}

func TestDoContext_NoStaleEntryAfterOwnerCancels(t *testing.T) {
	sf := NewSingleflight()

	started := make(chan struct{})
	release := make(chan struct{})
	ctx, cancel := context.WithCancel(context.Background())

	results := make(chan Result, 1)
	go func() {
		results <- sf.DoContext(ctx, "key", func() (interface{}, error) {
			close(started)
			<-release
			return "first", nil
		})
	}()

	<-started
	cancel()
	res := <-results
	if !errors.Is(res.Err, context.Canceled) {
		t.Fatalf("Err = %v, want context.Canceled", res.Err)
	}

	// Let the abandoned work finish; its entry must be cleared so later
	// callers execute fresh instead of receiving the stale result.
	close(release)
	deadline := time.Now().Add(time.Second)
	for sf.Stats()["in_flight_calls"].(int) != 0 {
		if time.Now().After(deadline) {
			t.Fatal("completed call left in the in-flight map")
		}
		time.Sleep(5 * time.Millisecond)
	}

	fresh := sf.DoContext(context.Background(), "key", func() (interface{}, error) {
		return "second", nil
	})
	if fresh.Err != nil {
		t.Fatalf("fresh call failed: %v", fresh.Err)
	}
	if fresh.Val != "second" {
		t.Errorf("Val = %v, want fresh execution, not the abandoned result", fresh.Val)
	}
	if fresh.Shared {
		t.Error("fresh call should not be marked shared")
	}
}

func TestForget(t *testing.T) {
	sf := NewSingleflight()

	block := make(chan struct{})
	go sf.DoContext(context.Background(), "key", func() (interface{}, error) {
		<-block
		return "old", nil
	})

	deadline := time.Now().Add(time.Second)
	for sf.Stats()["in_flight_calls"].(int) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("call never registered")
		}
		time.Sleep(time.Millisecond)
	}

	sf.Forget("key")
	if got := sf.Stats()["in_flight_calls"].(int); got != 0 {
		t.Errorf("in_flight_calls = %d after Forget, want 0", got)
	}
	close(block)
}
