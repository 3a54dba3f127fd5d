package session

import "sync"

// ChannelSink is a Sink backed by a buffered channel, suitable for a
// handler that blocks on a single outcome delivery. Send and Close are
// safe to call concurrently.
type ChannelSink struct {
	mu     sync.Mutex
	ch     chan string
	closed bool
}

// NewChannelSink creates a sink with room for one buffered outcome
func NewChannelSink() *ChannelSink {
	return &ChannelSink{ch: make(chan string, 1)}
}

// Send delivers message without blocking. Returns ErrSinkClosed after
// Close, or when the buffer is already occupied.
func (s *ChannelSink) Send(message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSinkClosed
	}
	select {
	case s.ch <- message:
		return nil
	default:
		return ErrSinkClosed
	}
}

// Close releases the sink; the outcome channel is closed so a blocked
// reader unblocks. Safe to call more than once.
func (s *ChannelSink) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.ch)
}

// Outcomes returns the delivery channel. It yields at most one message
// and is closed when the sink is closed.
func (s *ChannelSink) Outcomes() <-chan string {
	return s.ch
}
