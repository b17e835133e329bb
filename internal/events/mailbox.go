// Package events provides the one-way, never-blocking message plumbing between
// long-running workers (automation engine, recorders) and their consumers.
package events

import "sync"

// Sink receives messages from a producer. Implementations must not block.
type Sink[T any] interface {
	Send(msg T)
}

// SinkFunc adapts a function to a Sink.
type SinkFunc[T any] func(msg T)

// Send calls f(msg).
func (f SinkFunc[T]) Send(msg T) { f(msg) }

// Discard is a Sink that drops everything.
func Discard[T any]() Sink[T] {
	return SinkFunc[T](func(T) {})
}

// Mailbox is an unbounded FIFO. Send never blocks, so a slow or absent consumer
// cannot stall a producer. Consumers wait on Ready and then Drain.
type Mailbox[T any] struct {
	mu     sync.Mutex
	items  []T
	ready  chan struct{}
	closed bool
}

// NewMailbox creates an empty mailbox.
func NewMailbox[T any]() *Mailbox[T] {
	return &Mailbox[T]{ready: make(chan struct{}, 1)}
}

// Send appends msg. Sends after Close are dropped.
func (m *Mailbox[T]) Send(msg T) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.items = append(m.items, msg)
	m.mu.Unlock()

	select {
	case m.ready <- struct{}{}:
	default:
	}
}

// Ready is signalled (at least once) after one or more Sends.
func (m *Mailbox[T]) Ready() <-chan struct{} {
	return m.ready
}

// Drain removes and returns everything queued so far, oldest first.
func (m *Mailbox[T]) Drain() []T {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := m.items
	m.items = nil
	return items
}

// Len reports the number of queued messages.
func (m *Mailbox[T]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

// Close stops accepting messages. Already queued messages can still be drained.
func (m *Mailbox[T]) Close() {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
}
