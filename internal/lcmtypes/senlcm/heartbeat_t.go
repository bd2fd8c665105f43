// Package senlcm registers sensor-platform LCM types beyond the
// standard image_t — currently just heartbeat_t, a minimal liveness
// beacon many MBARI sensor processes publish.
package senlcm

import "github.com/mbari-org/lcm-websocket-server/internal/lcmtypes"

// HeartbeatTFingerprint is the wire fingerprint for heartbeat_t.
var HeartbeatTFingerprint = lcmtypes.NewFingerprint(0x2f7b0a93c4e1d608)

func init() {
	lcmtypes.RegisterPackage("senlcm", &lcmtypes.TypeDescriptor{
		Fingerprint: HeartbeatTFingerprint,
		Name:        "senlcm.heartbeat_t",
		Fields: []lcmtypes.FieldDescriptor{
			{Name: "utime"},
			{Name: "sender"},
		},
		Decode: decodeHeartbeat,
	})
}

func decodeHeartbeat(payload []byte) (lcmtypes.Value, bool) {
	r := lcmtypes.NewReader(payload)

	utime, err := r.Int64()
	if err != nil {
		return lcmtypes.Value{}, false
	}
	sender, err := r.String()
	if err != nil {
		return lcmtypes.Value{}, false
	}

	return lcmtypes.NewStruct([]lcmtypes.Field{
		{Name: "utime", Value: lcmtypes.NewScalar(utime)},
		{Name: "sender", Value: lcmtypes.NewScalar(sender)},
	}), true
}
