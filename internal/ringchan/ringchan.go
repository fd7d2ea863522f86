// Package ringchan provides a bounded channel with overwrite-oldest
// semantics, used as the out-of-band event queue feeding the hub's single
// dispatcher. Producers (upload batcher, source notifications) never block:
// if the buffer is full, the oldest event is discarded and counted.
package ringchan

import "sync/atomic"

// Ring wraps a buffered channel and ensures producers never block
// indefinitely: if the buffer is full, the oldest element is discarded.
//
// Writers use Send or TrySend. Readers can use C() for a normal <-chan T,
// or Receive()/TryReceive() for metric tracking.
type Ring[T any] struct {
	ch      chan T
	metrics Metrics // lock-free metrics tracking
}

// New creates a Ring with the given capacity.
func New[T any](capacity int) *Ring[T] {
	if capacity <= 0 {
		panic("ringchan: capacity must be > 0")
	}
	return &Ring[T]{ch: make(chan T, capacity)}
}

// C returns the underlying receive-only channel.
// Consumers can range over this until it's closed.
//
// Reading from the returned channel bypasses metrics tracking; the Processed
// counter is only incremented by Receive and TryReceive.
func (r *Ring[T]) C() <-chan T {
	return r.ch
}

// Send inserts an item, discarding the oldest one if the buffer is full.
// It never blocks and reports whether an element was dropped.
func (r *Ring[T]) Send(v T) bool {
	dropped := false

	select {
	case r.ch <- v:
		r.metrics.addWritten(1)
	default:
		select {
		case <-r.ch: // drop oldest
			r.metrics.addOverwritten(1)
			dropped = true
		default:
		}
		r.ch <- v
		r.metrics.addWritten(1)
	}

	return dropped
}

// TrySend attempts to insert without blocking.
// Returns true if successful, false if the buffer is full.
func (r *Ring[T]) TrySend(v T) bool {
	select {
	case r.ch <- v:
		r.metrics.addWritten(1)
		return true
	default:
		return false
	}
}

// Receive blocks until a value is available or the channel is closed.
// The ok result is false if the channel is closed.
func (r *Ring[T]) Receive() (v T, ok bool) {
	v, ok = <-r.ch
	if ok {
		r.metrics.addProcessed(1)
	}
	return
}

// TryReceive attempts a non-blocking receive.
// Returns (zero, false) if no value is ready.
func (r *Ring[T]) TryReceive() (v T, ok bool) {
	select {
	case v, ok = <-r.ch:
		if ok {
			r.metrics.addProcessed(1)
		}
		return
	default:
		var zero T
		return zero, false
	}
}

// Len returns the number of buffered elements.
func (r *Ring[T]) Len() int {
	return len(r.ch)
}

// Cap returns the channel capacity.
func (r *Ring[T]) Cap() int {
	return cap(r.ch)
}

// Close closes the underlying channel. After this, Send panics.
func (r *Ring[T]) Close() {
	close(r.ch)
}

// GetMetrics returns a snapshot of current metrics values.
// All reads are atomic and thread-safe.
func (r *Ring[T]) GetMetrics() Metrics {
	return Metrics{
		Processed:   atomic.LoadInt64(&r.metrics.Processed),
		Written:     atomic.LoadInt64(&r.metrics.Written),
		Overwritten: atomic.LoadInt64(&r.metrics.Overwritten),
	}
}

// Metrics provides lock-free metrics tracking for Ring.
//
// All fields use atomic operations for thread-safe access
type Metrics struct {
	Processed   int64
	Written     int64
	Overwritten int64
}

func (m *Metrics) addProcessed(n int) {
	atomic.AddInt64(&m.Processed, int64(n))
}

func (m *Metrics) addWritten(n int) {
	atomic.AddInt64(&m.Written, int64(n))
}

func (m *Metrics) addOverwritten(n int) {
	atomic.AddInt64(&m.Overwritten, int64(n))
}
