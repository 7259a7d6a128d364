// Package context provides small helpers for bounding and classifying
// context lifetimes around blocking operations such as Redis round trips.
package context

import (
	"context"
	"time"
)

// WithTimeoutOrCancel bounds an operation by timeout while still honoring
// the parent's cancellation, whichever trips first. A non-positive timeout
// degrades to plain cancellation propagation.
func WithTimeoutOrCancel(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, timeout)
}

// IsCanceled reports whether the context's done channel has closed, for
// any reason.
func IsCanceled(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

// IsTimedOut reports whether the context ended because its deadline
// passed, as opposed to an explicit cancel.
func IsTimedOut(ctx context.Context) bool {
	return ctx.Err() == context.DeadlineExceeded
}
