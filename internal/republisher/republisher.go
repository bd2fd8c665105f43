// Package republisher owns the single LCM subscriber thread and fans
// out every received (channel, payload) event to the current set of
// observers. It is the one piece of this module an observer, a handler,
// or a slow client can never be allowed to stall.
package republisher

import (
	"log/slog"
	"sync"
	"time"

	"github.com/mbari-org/lcm-websocket-server/internal/lcmbus"
	"github.com/mbari-org/lcm-websocket-server/internal/observer"
)

// pollInterval bounds how long Stop can take to take effect: the read
// loop blocks for at most this long per iteration before re-checking
// the stop flag, resolving the "how do you interrupt an indefinitely
// blocked handle() call" question with a deadline poll instead of a
// wakeup signal.
const pollInterval = 100 * time.Millisecond

// Source is the subset of lcmbus.Conn the Republisher depends on,
// narrowed to an interface so the dispatch/subscription logic can be
// tested without a real multicast socket.
type Source interface {
	ReadMessage(deadline time.Duration) (lcmbus.Message, bool, error)
	Close() error
}

// Republisher owns the upstream LCM subscription and the live set of
// observers it fans events out to.
type Republisher struct {
	source Source
	logger *slog.Logger

	mu   sync.RWMutex
	subs map[*observer.Observer]struct{}

	stop chan struct{}
	done chan struct{}
}

// New constructs a Republisher reading from source. Start must be
// called to begin the dispatch loop.
func New(source Source, logger *slog.Logger) *Republisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Republisher{
		source: source,
		logger: logger,
		subs:   make(map[*observer.Observer]struct{}),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Start spawns the background read/dispatch loop. Calling Start twice
// on the same Republisher is undefined, as with the source design this
// is modeled on — callers must not do it.
func (r *Republisher) Start() {
	go r.run()
}

// run is the Republisher's single dedicated OS thread: read one LCM
// message (bounded by pollInterval so Stop is bounded too), dispatch it
// to every matching observer, repeat until Stop is requested.
func (r *Republisher) run() {
	defer close(r.done)

	for {
		select {
		case <-r.stop:
			return
		default:
		}

		msg, timedOut, err := r.source.ReadMessage(pollInterval)
		if err != nil {
			if lcmbus.IsDecodeError(err) {
				// A malformed or out-of-scope datagram (e.g. a stray
				// fragmented-format packet) — skip it and keep reading.
				// The real bus will carry traffic this bridge doesn't
				// speak; that must never stall the consumer loop.
				r.logger.Debug("republisher: dropping malformed datagram", "error", err)
				continue
			}
			// The socket is gone (closed by Stop, or a real I/O failure).
			// Either way the loop cannot continue; exit rather than spin.
			r.logger.Debug("republisher: read loop exiting", "error", err)
			return
		}
		if timedOut {
			continue
		}

		r.dispatch(msg.Channel, msg.Payload)
	}
}

// Stop requests the read loop to exit and blocks until it has. It
// closes the underlying source so a blocked read returns promptly
// rather than waiting out the remainder of its poll interval, and is
// safe to call unconditionally on every shutdown path (signal, listener
// error, or normal exit) — the rewrite's resolution to the upstream
// open question about leaving the Republisher running past shutdown.
func (r *Republisher) Stop() {
	select {
	case <-r.stop:
		return // already stopped
	default:
		close(r.stop)
	}
	_ = r.source.Close()
	<-r.done
}

// Subscribe registers an observer to receive future dispatches. Safe to
// call concurrently with dispatch.
func (r *Republisher) Subscribe(o *observer.Observer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subs[o] = struct{}{}
}

// Unsubscribe removes an observer. Safe to call concurrently with
// dispatch; an in-flight dispatch snapshot taken before Unsubscribe may
// still deliver one more event to o, per the documented snapshot
// semantics.
func (r *Republisher) Unsubscribe(o *observer.Observer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.subs, o)
}

// Inject synchronously dispatches (channel, payload) to every matching
// observer as if it had arrived from the LCM bus. Used exclusively by
// the Spy Collector to publish its statistics frame on LWS_LCM_SPY.
func (r *Republisher) Inject(channel string, payload []byte) {
	r.dispatch(channel, payload)
}

// dispatch snapshots the subscriber set under the lock, releases it,
// then enqueues the event into every matching observer outside the
// lock — the rule that keeps a slow client's full mailbox from ever
// blocking the dispatch of a single message to anyone else.
func (r *Republisher) dispatch(channel string, payload []byte) {
	r.mu.RLock()
	snapshot := make([]*observer.Observer, 0, len(r.subs))
	for o := range r.subs {
		snapshot = append(snapshot, o)
	}
	r.mu.RUnlock()

	ev := observer.Event{Channel: channel, Payload: payload}
	for _, o := range snapshot {
		if o.Match(channel) {
			o.Enqueue(ev)
		}
	}
}
