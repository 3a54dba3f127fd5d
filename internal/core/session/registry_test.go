package session

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPushWithoutWaiter(t *testing.T) {
	r := NewRegistry()

	err := r.Push("ORD1", "SUCCESS")

	assert.ErrorIs(t, err, ErrNoWaiter)
	assert.False(t, r.Active("ORD1"))
}

func TestPushDeliversAndConsumesSession(t *testing.T) {
	r := NewRegistry()
	sink := NewChannelSink()
	r.Register("ORD1", sink)

	require.NoError(t, r.Push("ORD1", "SUCCESS"))
	assert.Equal(t, "SUCCESS", <-sink.Outcomes())

	// Session is consumed by the first delivery
	assert.False(t, r.Active("ORD1"))
	assert.ErrorIs(t, r.Push("ORD1", "SUCCESS"), ErrNoWaiter)
}

func TestRegisterSupersedes(t *testing.T) {
	r := NewRegistry()
	first := NewChannelSink()
	second := NewChannelSink()

	r.Register("ORD1", first)
	r.Register("ORD1", second)

	require.NoError(t, r.Push("ORD1", "SUCCESS"))

	// Only the current waiter receives the outcome
	assert.Equal(t, "SUCCESS", <-second.Outcomes())
	select {
	case message := <-first.Outcomes():
		t.Fatalf("superseded sink received %q", message)
	default:
	}
}

func TestDeregisterOnlyRemovesOwnSink(t *testing.T) {
	r := NewRegistry()
	first := NewChannelSink()
	second := NewChannelSink()

	r.Register("ORD1", first)
	r.Register("ORD1", second)

	// The superseded waiter disconnecting must not evict its replacement
	r.Deregister("ORD1", first)
	assert.True(t, r.Active("ORD1"))

	r.Deregister("ORD1", second)
	assert.False(t, r.Active("ORD1"))
}

func TestDeregisterIsIdempotent(t *testing.T) {
	r := NewRegistry()
	sink := NewChannelSink()

	r.Deregister("ORD1", sink)

	r.Register("ORD1", sink)
	r.Deregister("ORD1", sink)
	r.Deregister("ORD1", sink)
	assert.False(t, r.Active("ORD1"))
}

func TestPushToClosedSinkRemovesMapping(t *testing.T) {
	r := NewRegistry()
	sink := NewChannelSink()
	r.Register("ORD1", sink)
	sink.Close()

	err := r.Push("ORD1", "SUCCESS")

	assert.ErrorIs(t, err, ErrSinkClosed)
	// The dead mapping is gone; the next push is a clean miss
	assert.ErrorIs(t, r.Push("ORD1", "SUCCESS"), ErrNoWaiter)
}

// Concurrent register and push on a fresh id must yield exactly one of:
// delivered to the new sink, or dropped — never a crash or a delivery to
// a stale sink.
func TestConcurrentRegisterAndPush(t *testing.T) {
	r := NewRegistry()

	const iterations = 200
	for i := 0; i < iterations; i++ {
		sink := NewChannelSink()
		var pushErr error
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			r.Register("ORD1", sink)
		}()
		go func() {
			defer wg.Done()
			pushErr = r.Push("ORD1", "SUCCESS")
		}()
		wg.Wait()

		if pushErr == nil {
			// Delivered: the sink must hold exactly the pushed outcome
			assert.Equal(t, "SUCCESS", <-sink.Outcomes())
		} else {
			require.ErrorIs(t, pushErr, ErrNoWaiter)
		}
		r.Deregister("ORD1", sink)
		sink.Close()
	}
}

func TestConcurrentPushesDifferentOrders(t *testing.T) {
	r := NewRegistry()
	const orders = 50

	sinks := make([]*ChannelSink, orders)
	for i := range sinks {
		sinks[i] = NewChannelSink()
		r.Register(orderID(i), sinks[i])
	}

	var wg sync.WaitGroup
	for i := 0; i < orders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, r.Push(orderID(i), "SUCCESS"))
		}(i)
	}
	wg.Wait()

	for i := range sinks {
		assert.Equal(t, "SUCCESS", <-sinks[i].Outcomes())
	}
}

func orderID(i int) string {
	return fmt.Sprintf("ORDER%03d", i)
}
