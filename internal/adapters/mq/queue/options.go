package queue

// Option configures the InMemoryQueue.
type Option func(*InMemoryQueue)

// WithCapacity sets the queue's buffered capacity.
func WithCapacity(n int) Option {
	return func(q *InMemoryQueue) {
		if n > 0 {
			q.capacity = n
		}
	}
}
