package cache

import (
	"context"
	"errors"
	"time"
)

// ErrUnavailable is returned when a cache backend cannot be reached.
// Hosts treat it as a reason to fall back to another backend.
var ErrUnavailable = errors.New("cache backend unavailable")

// retryAttempts and retryDelay bound withRetry. Tests shorten the delay.
var (
	retryAttempts = 3
	retryDelay    = 100 * time.Millisecond
)

// withRetry calls fn until it succeeds or returns an error that transient
// rejects. Transient errors are retried up to retryAttempts times with a
// doubling delay.
func withRetry(ctx context.Context, transient func(error) bool, fn func() error) error {
	delay := retryDelay
	var err error
	for attempt := 1; ; attempt++ {
		if err = fn(); err == nil || !transient(err) || attempt == retryAttempts {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
			delay *= 2
		}
	}
}
