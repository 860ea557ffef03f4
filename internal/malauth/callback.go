package malauth

import (
	"context"
	"errors"
	"time"
)

// ErrAuthTimeout means the authorization code never arrived within the
// configured wait window.
var ErrAuthTimeout = errors.New("malauth: authorization timed out")

// CodeWaiter hands an authorization code from the HTTP callback to whoever
// is blocked waiting for it, with a bounded cancellable wait instead of a
// sleep-and-poll loop.
type CodeWaiter struct {
	codes chan string
}

func NewCodeWaiter() *CodeWaiter {
	return &CodeWaiter{codes: make(chan string, 1)}
}

// Deliver hands off a received code. Extra deliveries while one is pending
// are dropped.
func (w *CodeWaiter) Deliver(code string) {
	select {
	case w.codes <- code:
	default:
	}
}

// Wait blocks until a code arrives, the timeout elapses, or ctx is
// cancelled.
func (w *CodeWaiter) Wait(ctx context.Context, timeout time.Duration) (string, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case code := <-w.codes:
		return code, nil
	case <-timer.C:
		return "", ErrAuthTimeout
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
