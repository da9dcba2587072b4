// ABOUTME: Single-slot request queue that serializes mutating backend calls
// ABOUTME: Acquire blocks until the slot frees or the context ends

package chat

import (
	"context"
	"sync"
)

// RequestQueue lets one send, edit, delete or session delete run at a time.
// Waiters are admitted roughly in arrival order.
type RequestQueue struct {
	slot chan struct{}
}

func NewRequestQueue() *RequestQueue {
	return &RequestQueue{slot: make(chan struct{}, 1)}
}

// Acquire waits for the slot. The returned release func is safe to call more than once.
func (q *RequestQueue) Acquire(ctx context.Context) (func(), error) {
	select {
	case q.slot <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() { <-q.slot })
	}, nil
}

// Busy reports whether a request currently holds the slot.
func (q *RequestQueue) Busy() bool {
	return len(q.slot) > 0
}
