// Package queue implements the bounded FIFO string queue that connects
// adjacent pipeline stages.
//
// Channel is a single-shot ring buffer with deep-copy ownership
// semantics: Put copies its argument into the ring, Get transfers
// ownership of the ring's copy to the caller, and a dedicated Gate
// signals stream termination independently of emptiness. It is the
// Go-native shape of original_source/plugins/sync/consumer_producer.c's
// consumer_producer_t, generalized the way
// modules/framesupplier/internal/supplier.go generalizes a single-slot
// mailbox: one struct, one embedded mutex, explicit Gates instead of
// raw pthread_cond_t waits.
package queue

import (
	"sync"

	"github.com/itayaharoni2/lineflow/gate"
	"github.com/itayaharoni2/lineflow/internal/errs"
)

// Terminator is the sentinel line that triggers orderly pipeline
// shutdown. Every stage forwards it unchanged without passing it to its
// transform, so it is never itself transformed.
const Terminator = "<END>"

// Channel is a bounded, ordered queue of owned strings with blocking
// Put/Get and a separate finished signal.
//
// The zero value is not ready to use; call New. A Channel is safe for
// concurrent use by multiple producers and multiple consumers, though
// the pipeline only ever wires one of each per Channel.
type Channel struct {
	mu sync.Mutex

	capacity int
	ring     []string
	count    int
	head     int
	tail     int
	closed   bool

	notFull  *gate.Gate
	notEmpty *gate.Gate
	finished *gate.Gate
}

// New allocates a Channel with the given capacity. capacity must be at
// least 1.
func New(capacity int) (*Channel, error) {
	if capacity < 1 {
		return nil, errs.ErrInvalidArgument
	}
	return &Channel{
		capacity: capacity,
		ring:     make([]string, capacity),
		notFull:  gate.New(),
		notEmpty: gate.New(),
		finished: gate.New(),
	}, nil
}

// Put enqueues item, blocking while the Channel is full. Put deep-copies
// into the ring: the Channel never aliases the caller's string value
// beyond the call, and Get later hands an independently owned copy to
// its caller.
func (c *Channel) Put(item string) error {
	c.mu.Lock()
	for c.count == c.capacity {
		c.notFull.Reset()
		c.mu.Unlock()
		c.notFull.Wait()
		c.mu.Lock()
	}
	if c.closed {
		c.mu.Unlock()
		return errs.ErrShutdownDuringWait
	}

	c.ring[c.tail] = item
	c.tail = (c.tail + 1) % c.capacity
	c.count++

	c.notEmpty.Signal()
	c.mu.Unlock()
	return nil
}

// Get dequeues the oldest item, blocking while the Channel is empty.
// Returns errs.ErrShutdownDuringWait if the Channel is closed while a
// consumer is blocked waiting for an item.
func (c *Channel) Get() (string, error) {
	for {
		c.mu.Lock()
		if c.count > 0 {
			item := c.ring[c.head]
			c.ring[c.head] = ""
			c.head = (c.head + 1) % c.capacity
			c.count--
			c.notFull.Signal()
			c.mu.Unlock()
			return item, nil
		}
		if c.closed {
			c.mu.Unlock()
			return "", errs.ErrShutdownDuringWait
		}
		c.notEmpty.Reset()
		c.mu.Unlock()

		c.notEmpty.Wait()
	}
}

// SignalFinished signals the Channel's finished Gate. Idempotent.
func (c *Channel) SignalFinished() {
	c.finished.Signal()
}

// WaitFinished blocks until SignalFinished has been called.
func (c *Channel) WaitFinished() {
	c.finished.Wait()
}

// Len reports the number of items currently buffered. Intended for
// diagnostics and tests, not for flow-control decisions by callers.
func (c *Channel) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.count
}

// Close releases the Channel's resources. Close expects no active
// producers or consumers; calling it while a Put or Get is blocked wakes
// that caller with errs.ErrShutdownDuringWait rather than leaving it
// blocked forever.
func (c *Channel) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	for i := range c.ring {
		c.ring[i] = ""
	}
	c.count, c.head, c.tail = 0, 0, 0
	c.mu.Unlock()

	c.notFull.Signal()
	c.notEmpty.Signal()
}
