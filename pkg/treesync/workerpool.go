package treesync

// BoundedQueue is a fixed-capacity MPSC queue used by a Transport
// implementation to buffer inbound or outbound records between its own
// I/O goroutines and the dispatcher's single model-thread drain (§5: "the
// transport hands inbound records across a bounded MPSC queue"). Adapted
// from the teacher's worker-pool channel plumbing — same bounded-channel
// shape, repurposed here as a record queue instead of a task queue.
type BoundedQueue[T any] struct {
	ch chan T
}

// NewBoundedQueue constructs a BoundedQueue with room for capacity
// records before a Push reports backpressure.
func NewBoundedQueue[T any](capacity int) *BoundedQueue[T] {
	return &BoundedQueue[T]{ch: make(chan T, capacity)}
}

// Push enqueues v without blocking. ok is false if the queue is full; the
// caller decides what to do with the record (transport/nats's subscription
// handlers log a warning and drop it).
func (q *BoundedQueue[T]) Push(v T) (ok bool) {
	select {
	case q.ch <- v:
		return true
	default:
		return false
	}
}

// Chan exposes the receive side for a Dispatcher's Tick to drain, or for
// a Transport's own forwarding goroutine.
func (q *BoundedQueue[T]) Chan() <-chan T {
	return q.ch
}

// Close closes the underlying channel. Calling Push after Close panics,
// same as sending on any closed channel — the caller (the Transport that
// owns this queue) is responsible for sequencing shutdown so no producer
// races a Close.
func (q *BoundedQueue[T]) Close() {
	close(q.ch)
}
