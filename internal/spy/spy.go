// Package spy implements the Spy Collector: a privileged Observer that
// watches every dispatched event, maintains per-channel rate/bandwidth/
// jitter/decode-success statistics, and once per aggregation window
// injects them back through the Republisher on the reserved channel
// LWS_LCM_SPY so ordinary WebSocket clients receive them through the
// same transport as everything else.
package spy

import (
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/mbari-org/lcm-websocket-server/internal/lcmtypes"
	"github.com/mbari-org/lcm-websocket-server/internal/lcmtypes/spytypes"
	"github.com/mbari-org/lcm-websocket-server/internal/observer"
)

// SpyChannel is the reserved virtual channel the collector injects its
// statistics frame on. It MUST NOT originate from the real LCM bus;
// this module doesn't enforce that (the bus is an external
// collaborator), it merely documents the contract.
const SpyChannel = "LWS_LCM_SPY"

// inboundMailboxSize is larger than an ordinary client's, since the
// collector observes every dispatched channel rather than a filtered
// subset.
const inboundMailboxSize = 4096

// injector is the subset of *republisher.Republisher the collector
// needs, narrowed to an interface so it can be tested without a real
// Republisher.
type injector interface {
	Subscribe(o *observer.Observer)
	Unsubscribe(o *observer.Observer)
	Inject(channel string, payload []byte)
}

// channelState is the mutable per-channel accounting the collector
// updates on every observed message and folds into a ChannelStats
// record once per window.
type channelState struct {
	typeName    string
	numMsgs     int64
	undecodable int64

	haveLastArrival bool
	lastArrival     time.Time

	haveInterval bool
	minInterval  time.Duration
	maxInterval  time.Duration

	bytesInWindow int64
	msgsInWindow  int64
}

// Collector is the Spy Collector. Construct with New, then Start/Stop
// it alongside the Republisher.
type Collector struct {
	registry    *lcmtypes.Registry
	republisher injector
	interval    time.Duration
	logger      *slog.Logger

	obs *observer.Observer

	mu       sync.Mutex
	channels map[string]*channelState

	stop chan struct{}
	done chan struct{}
}

// New builds a Collector. interval is the aggregation window (the spec
// default is 1 second).
func New(registry *lcmtypes.Registry, rep injector, interval time.Duration, logger *slog.Logger) *Collector {
	if logger == nil {
		logger = slog.Default()
	}
	if interval <= 0 {
		interval = time.Second
	}
	obs, _ := observer.New(".*", inboundMailboxSize)
	return &Collector{
		registry:    registry,
		republisher: rep,
		interval:    interval,
		logger:      logger,
		obs:         obs,
		channels:    make(map[string]*channelState),
		stop:        make(chan struct{}),
		done:        make(chan struct{}),
	}
}

// Start subscribes the collector's observer to the Republisher and
// spawns its drain and tick loops.
func (c *Collector) Start() {
	c.republisher.Subscribe(c.obs)
	go c.run()
}

// Stop unsubscribes the collector and stops its loops, blocking until
// both have exited.
func (c *Collector) Stop() {
	select {
	case <-c.stop:
		return
	default:
		close(c.stop)
	}
	c.republisher.Unsubscribe(c.obs)
	<-c.done
}

// run hosts both the drain loop (recording arrivals as they're
// observed) and the 1 Hz aggregation tick, on a single goroutine —
// the collector's "tick thread" from the source design, here doubling
// as its own mailbox consumer since it is implemented as an ordinary
// Observer rather than a second raw LCM subscription.
func (c *Collector) run() {
	defer close(c.done)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	const drainPoll = 5 * time.Millisecond
	drainTick := time.NewTicker(drainPoll)
	defer drainTick.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.publish()
		case <-drainTick.C:
			for _, ev := range c.obs.Drain() {
				c.observe(ev.Channel, ev.Payload)
			}
			c.obs.TaskDone()
		}
	}
}

// observe records one message's arrival against its channel's rolling
// statistics. The first inter-arrival sample for a channel is skipped
// (it only seeds lastArrival); subsequent intervals drive the window's
// min/max.
func (c *Collector) observe(channel string, payload []byte) {
	now := time.Now()

	c.mu.Lock()
	st, ok := c.channels[channel]
	if !ok {
		st = &channelState{}
		c.channels[channel] = st
	}
	c.mu.Unlock()

	_, td, decoded := c.registry.Decode(payload)

	c.mu.Lock()
	defer c.mu.Unlock()

	st.numMsgs++
	st.bytesInWindow += int64(len(payload))
	st.msgsInWindow++

	if decoded && td != nil {
		st.typeName = td.Name
	} else {
		st.undecodable++
		if fp, ok := lcmtypes.FingerprintOf(payload); ok {
			st.typeName = fp.String()
		}
	}

	if st.haveLastArrival {
		interval := now.Sub(st.lastArrival)
		if !st.haveInterval {
			st.minInterval, st.maxInterval = interval, interval
			st.haveInterval = true
		} else {
			if interval < st.minInterval {
				st.minInterval = interval
			}
			if interval > st.maxInterval {
				st.maxInterval = interval
			}
		}
	}
	st.lastArrival = now
	st.haveLastArrival = true
}

// publish computes each channel's window statistics, resets the
// rolling min/max, and injects the resulting channel_stats_list on
// SpyChannel.
func (c *Collector) publish() {
	c.mu.Lock()
	records := make([]spytypes.ChannelStats, 0, len(c.channels))
	windowSeconds := c.interval.Seconds()

	for name, st := range c.channels {
		hz := float64(st.msgsInWindow) / windowSeconds
		invHz := math.Inf(1)
		if hz > 0 {
			invHz = 1 / hz
		}
		bandwidth := float64(st.bytesInWindow) / windowSeconds

		var jitter float64
		if st.haveInterval {
			jitter = (st.maxInterval - st.minInterval).Seconds()
		}

		records = append(records, spytypes.ChannelStats{
			Channel:     name,
			Type:        st.typeName,
			NumMsgs:     st.numMsgs,
			Hz:          hz,
			InvHz:       invHz,
			Jitter:      jitter,
			Bandwidth:   bandwidth,
			Undecodable: st.undecodable,
		})

		st.msgsInWindow = 0
		st.bytesInWindow = 0
		st.haveInterval = false
	}
	c.mu.Unlock()

	payload := spytypes.EncodeList(records)
	c.republisher.Inject(SpyChannel, payload)
}

// Snapshot returns the current cumulative per-channel stats without
// waiting for the next tick. Exported for tests and diagnostics.
func (c *Collector) Snapshot() []spytypes.ChannelStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]spytypes.ChannelStats, 0, len(c.channels))
	for name, st := range c.channels {
		out = append(out, spytypes.ChannelStats{
			Channel:     name,
			Type:        st.typeName,
			NumMsgs:     st.numMsgs,
			Undecodable: st.undecodable,
		})
	}
	return out
}
