package graph

import (
	"context"
	"time"
)

// cancelToken is polled at every recursive call of the search. Once it
// reports expiry it keeps doing so, and the search unwinds by returning
// TIMEOUT up the stack.
//
// The deadline is derived from the engine timeout:
//   - NoTimeout: no deadline, only ctx cancellation expires the token
//   - 0: the token is expired from the start
//   - otherwise: now + timeout
type cancelToken struct {
	ctx         context.Context
	deadline    time.Time
	hasDeadline bool
	expired     bool
}

func newCancelToken(ctx context.Context, timeout time.Duration) *cancelToken {
	t := &cancelToken{ctx: ctx}
	switch {
	case timeout == 0:
		t.expired = true
	case timeout > 0:
		t.deadline = time.Now().Add(timeout)
		t.hasDeadline = true
	}
	return t
}

// Expired reports whether the search must stop.
func (t *cancelToken) Expired() bool {
	if t.expired {
		return true
	}
	if t.ctx != nil {
		select {
		case <-t.ctx.Done():
			t.expired = true
			return true
		default:
		}
	}
	if t.hasDeadline && !time.Now().Before(t.deadline) {
		t.expired = true
	}
	return t.expired
}
