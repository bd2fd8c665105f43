// Package spytypes defines the channel_stats and channel_stats_list LCM
// types the Spy Collector injects on the reserved LWS_LCM_SPY channel.
// Unlike stdlcm and senlcm, these types are always registered — a
// client subscribed to LWS_LCM_SPY must be able to decode them
// regardless of which type packages the operator passed on the CLI.
package spytypes

import "github.com/mbari-org/lcm-websocket-server/internal/lcmtypes"

// ChannelStatsFingerprint identifies a single-channel stats record.
var ChannelStatsFingerprint = lcmtypes.NewFingerprint(0x9c11e2a0573fb86d)

// ChannelStatsListFingerprint identifies the wrapping list message
// actually injected on LWS_LCM_SPY.
var ChannelStatsListFingerprint = lcmtypes.NewFingerprint(0x6d4a92e81bf0c357)

func init() {
	lcmtypes.RegisterPackage("spy", &lcmtypes.TypeDescriptor{
		Fingerprint: ChannelStatsListFingerprint,
		Name:        "spytypes.channel_stats_list",
		Fields: []lcmtypes.FieldDescriptor{
			{Name: "num_channels"},
			{Name: "stats", Dimension: "num_channels"},
		},
		Decode: decodeChannelStatsList,
	})
}

// ChannelStats is the per-channel record the Spy Collector computes
// once per aggregation window.
type ChannelStats struct {
	Channel     string
	Type        string
	NumMsgs     int64
	Hz          float64
	InvHz       float64
	Jitter      float64
	Bandwidth   float64
	Undecodable int64
}

// EncodeList serializes a full stats table as a channel_stats_list
// payload, ready for Republisher.Inject on LWS_LCM_SPY.
func EncodeList(stats []ChannelStats) []byte {
	w := lcmtypes.NewWriter(ChannelStatsListFingerprint)
	w.Int32(int32(len(stats)))
	for _, s := range stats {
		w.String(s.Channel)
		w.String(s.Type)
		w.Int64(s.NumMsgs)
		w.Float64(s.Hz)
		w.Float64(s.InvHz)
		w.Float64(s.Jitter)
		w.Float64(s.Bandwidth)
		w.Int64(s.Undecodable)
	}
	return w.Payload()
}

func decodeChannelStatsList(payload []byte) (lcmtypes.Value, bool) {
	r := lcmtypes.NewReader(payload)

	n, err := r.Int32()
	if err != nil || n < 0 {
		return lcmtypes.Value{}, false
	}

	records := make([]lcmtypes.Value, 0, n)
	for i := int32(0); i < n; i++ {
		channel, err := r.String()
		if err != nil {
			return lcmtypes.Value{}, false
		}
		typ, err := r.String()
		if err != nil {
			return lcmtypes.Value{}, false
		}
		numMsgs, err := r.Int64()
		if err != nil {
			return lcmtypes.Value{}, false
		}
		hz, err := r.Float64()
		if err != nil {
			return lcmtypes.Value{}, false
		}
		invHz, err := r.Float64()
		if err != nil {
			return lcmtypes.Value{}, false
		}
		jitter, err := r.Float64()
		if err != nil {
			return lcmtypes.Value{}, false
		}
		bandwidth, err := r.Float64()
		if err != nil {
			return lcmtypes.Value{}, false
		}
		undecodable, err := r.Int64()
		if err != nil {
			return lcmtypes.Value{}, false
		}

		records = append(records, lcmtypes.NewStruct([]lcmtypes.Field{
			{Name: "channel", Value: lcmtypes.NewScalar(channel)},
			{Name: "type", Value: lcmtypes.NewScalar(typ)},
			{Name: "num_msgs", Value: lcmtypes.NewScalar(numMsgs)},
			{Name: "hz", Value: lcmtypes.NewScalar(hz)},
			{Name: "inv_hz", Value: lcmtypes.NewScalar(invHz)},
			{Name: "jitter", Value: lcmtypes.NewScalar(jitter)},
			{Name: "bandwidth", Value: lcmtypes.NewScalar(bandwidth)},
			{Name: "undecodable", Value: lcmtypes.NewScalar(undecodable)},
		}))
	}

	return lcmtypes.NewStruct([]lcmtypes.Field{
		{Name: "num_channels", Value: lcmtypes.NewScalar(n)},
		{Name: "stats", Value: lcmtypes.NewList(records)},
	}), true
}
