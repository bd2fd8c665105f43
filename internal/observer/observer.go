// Package observer implements the per-client bounded mailbox the
// Republisher dispatches events into. Unlike the teacher's channel-based
// event bus (which drops the newest event when a subscriber's buffer is
// full), an Observer's drop policy is oldest-first: a slow client loses
// stale data rather than losing the ability to ever catch up to live
// traffic.
package observer

import (
	"regexp"
	"sync"
	"sync/atomic"
)

// Event is an immutable (channel, payload) pair as dispatched by the
// Republisher. Payloads are shared by reference across every observer
// that matches; nothing in this package mutates Payload.
type Event struct {
	Channel string
	Payload []byte
}

// Observer is a bounded FIFO of Events gated by a channel-name regex.
// The zero value is not usable; construct with New.
type Observer struct {
	re       *regexp.Regexp // nil if the supplied pattern failed to compile
	capacity int

	mu    sync.Mutex
	queue []Event

	enqueued atomic.Int64
	dequeued atomic.Int64
	dropped  atomic.Int64
}

// New builds an Observer with the given bounded capacity and a
// channel-name filter compiled from pattern. A malformed pattern is not
// an error here: Match degrades to returning false for every channel,
// matching the source's defensive "observer sees nothing" behavior
// rather than failing the connection outright. The caller is expected
// to log the compile failure once, at construction time.
func New(pattern string, capacity int) (*Observer, error) {
	if capacity < 1 {
		capacity = 1
	}
	o := &Observer{capacity: capacity}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return o, err
	}
	// Leftmost-longest matching, so Match finds a full-length match even
	// when an earlier alternative matches a shorter prefix ("A|AB" vs "AB").
	re.Longest()
	o.re = re
	return o, nil
}

// Match reports whether channel fully matches the observer's compiled
// pattern. Total: never panics, returns false if the pattern failed to
// compile.
func (o *Observer) Match(channel string) bool {
	if o.re == nil {
		return false
	}
	loc := o.re.FindStringIndex(channel)
	return loc != nil && loc[0] == 0 && loc[1] == len(channel)
}

// Enqueue adds an event to the mailbox, never blocking. If the mailbox
// is at capacity, the oldest queued event is evicted to make room —
// the slow-consumer policy mandated for this bridge (trading freshness
// for a producer that never stalls).
func (o *Observer) Enqueue(ev Event) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if len(o.queue) >= o.capacity {
		o.queue = o.queue[1:]
		o.dropped.Add(1)
	}
	o.queue = append(o.queue, ev)
	o.enqueued.Add(1)
}

// Get performs a non-blocking dequeue. ok is false if the mailbox is
// currently empty; callers handle that by yielding (sleeping briefly)
// rather than treating it as an error.
func (o *Observer) Get() (ev Event, ok bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if len(o.queue) == 0 {
		return Event{}, false
	}
	ev = o.queue[0]
	o.queue = o.queue[1:]
	return ev, true
}

// Drain removes and returns every currently queued event, in FIFO
// order, leaving the mailbox empty. Used by the coalescing drain loop,
// which wants "everything pending right now" rather than one at a time.
func (o *Observer) Drain() []Event {
	o.mu.Lock()
	defer o.mu.Unlock()

	if len(o.queue) == 0 {
		return nil
	}
	out := o.queue
	o.queue = nil
	return out
}

// TaskDone is an advisory diagnostic counter that callers increment
// after handling dequeued work; Get and Drain do not touch it, and
// Stats reports its count as dequeued. It never gates correctness —
// nothing blocks on it.
func (o *Observer) TaskDone() {
	o.dequeued.Add(1)
}

// Stats reports the mailbox's lifetime enqueue/dequeue/drop counters,
// for diagnostics and tests.
func (o *Observer) Stats() (enqueued, dequeued, dropped int64) {
	return o.enqueued.Load(), o.dequeued.Load(), o.dropped.Load()
}

// Len reports the number of events currently queued.
func (o *Observer) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.queue)
}
