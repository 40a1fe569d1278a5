package utils

import (
	"context"
	"math/rand"
	"time"
)

// Backoff retries with exponential delay plus jitter.
type Backoff struct {
	base       time.Duration
	jitter     time.Duration
	maxRetries int
}

func NewBackoff(base time.Duration, maxRetries int) Backoff {
	return Backoff{base: base, jitter: base + base/2, maxRetries: maxRetries}
}

// Delay is the wait after attempt i (0-based), without jitter.
func (b Backoff) Delay(i int) time.Duration { return time.Duration(1<<i) * b.base }

// Do runs fn until it succeeds, the retries run out or ctx is done. It
// returns the last error from fn.
func (b Backoff) Do(ctx context.Context, fn func(i int) error) error {
	var err error
	for i := 0; i <= b.maxRetries; i++ {
		if err = fn(i); err == nil {
			return nil
		}
		if i == b.maxRetries {
			break
		}
		// backoff exponencial + jitter
		t := b.Delay(i)
		if b.jitter > 0 {
			t += time.Duration(rand.Int63n(int64(b.jitter)))
		}
		select {
		case <-ctx.Done():
			return err
		case <-time.After(t):
		}
	}
	return err
}
