// Package queue carries campaign dispatch items from the campaign engine to
// the send workers over a bounded in-memory channel.
package queue

import (
	"context"
	"sync"

	"github.com/prsim/prsim/pkg/metrics"
)

const defaultCapacity = 10000

// Dispatch is one personalized email waiting to be sent.
type Dispatch struct {
	CampaignID  string
	RecipientID string
	Email       string
	Subject     string
	Body        string
}

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a dispatch item. Returns false when the queue is full
	// or closed.
	Enqueue(ctx context.Context, d Dispatch) bool

	// Dequeue returns the channel workers consume. It is closed when the
	// queue closes.
	Dequeue(ctx context.Context) <-chan Dispatch

	// Len returns the number of queued items.
	Len(ctx context.Context) int

	// Close stops the queue; no further enqueues are accepted.
	Close() error
}

// InMemoryQueue implements Queue over a buffered channel.
type InMemoryQueue struct {
	items    chan Dispatch
	capacity int

	mu     sync.RWMutex
	closed bool
}

// NewInMemoryQueue creates a queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.items = make(chan Dispatch, q.capacity)

	metrics.UpdateDispatchQueueCapacity(q.capacity)
	metrics.UpdateDispatchQueueSize(0)
	return q
}

func (q *InMemoryQueue) Enqueue(_ context.Context, d Dispatch) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return false
	}
	select {
	case q.items <- d:
		metrics.UpdateDispatchQueueSize(len(q.items))
		return true
	default:
		return false
	}
}

func (q *InMemoryQueue) Dequeue(_ context.Context) <-chan Dispatch {
	return q.items
}

func (q *InMemoryQueue) Len(_ context.Context) int {
	return len(q.items)
}

func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil
	}
	q.closed = true
	close(q.items)
	return nil
}
