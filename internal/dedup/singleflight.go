package dedup

import (
	"context"
	"sync"
	"time"
)

// Singleflight coalesces concurrent calls for the same key. When several
// clients ask for metadata of the same URL at once, only one yt-dlp
// invocation runs; the others wait for and share its result.
type Singleflight struct {
	mu    sync.Mutex
	calls map[string]*call
}

// call represents an in-flight or completed Do call
type call struct {
	wg  sync.WaitGroup
	val interface{}
	err error

	deadline time.Time
}

// Result represents the result of a Do call
type Result struct {
	Val    interface{}
	Err    error
	Shared bool // Whether the result was shared with other callers
}

// NewSingleflight creates a new Singleflight instance
func NewSingleflight() *Singleflight {
	sf := &Singleflight{
		calls: make(map[string]*call),
	}

	go sf.cleanup()

	return sf
}

// DoContext executes fn, ensuring only one execution is in-flight for a
// given key at a time, and respects context cancellation on the waiting
// side. The underlying work is never cancelled by a waiter's context since
// other waiters may still want the result.
func (sf *Singleflight) DoContext(ctx context.Context, key string, fn func() (interface{}, error)) Result {
	select {
	case <-ctx.Done():
		return Result{Err: ctx.Err(), Shared: false}
	default:
	}

	sf.mu.Lock()

	if c, ok := sf.calls[key]; ok {
		sf.mu.Unlock()

		done := make(chan struct{})
		go func() {
			c.wg.Wait()
			close(done)
		}()

		select {
		case <-done:
			return Result{Val: c.val, Err: c.err, Shared: true}
		case <-ctx.Done():
			return Result{Err: ctx.Err(), Shared: true}
		}
	}

	// First caller for this key
	c := &call{
		deadline: time.Now().Add(5 * time.Minute),
	}
	c.wg.Add(1)
	sf.calls[key] = c
	sf.mu.Unlock()

	resultCh := make(chan struct{})
	go func() {
		c.val, c.err = fn()

		// Clear the entry here, not in the waiting branch below: the first
		// caller may have given up on its context, and a finished call left
		// in the map would be served to later callers as a stale result.
		sf.mu.Lock()
		if cur, ok := sf.calls[key]; ok && cur == c {
			delete(sf.calls, key)
		}
		sf.mu.Unlock()

		c.wg.Done()
		close(resultCh)
	}()

	select {
	case <-resultCh:
		return Result{Val: c.val, Err: c.err, Shared: false}
	case <-ctx.Done():
		return Result{Err: ctx.Err(), Shared: false}
	}
}

// Forget removes a key from the in-flight calls map, forcing the next
// caller to execute fresh.
func (sf *Singleflight) Forget(key string) {
	sf.mu.Lock()
	delete(sf.calls, key)
	sf.mu.Unlock()
}

// cleanup periodically removes stale entries (defensive)
func (sf *Singleflight) cleanup() {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		now := time.Now()
		sf.mu.Lock()
		for key, c := range sf.calls {
			if now.After(c.deadline) {
				delete(sf.calls, key)
			}
		}
		sf.mu.Unlock()
	}
}

// Stats returns statistics about in-flight calls
func (sf *Singleflight) Stats() map[string]interface{} {
	sf.mu.Lock()
	defer sf.mu.Unlock()

	return map[string]interface{}{
		"in_flight_calls": len(sf.calls),
	}
}
