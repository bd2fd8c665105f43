package handler

import (
	"bytes"
	"encoding/binary"
	"log/slog"

	"github.com/mbari-org/lcm-websocket-server/internal/lcmtypes"
	"github.com/mbari-org/lcm-websocket-server/internal/lcmtypes/stdlcm"
)

// DialHandler emits image_t events as a binary Dial-specific hybrid
// frame (lcmlog Header + channel name + JPEG bytes) and delegates every
// other event to a JSONHandler, emitted as a text frame.
type DialHandler struct {
	jpeg             *JPEGHandler
	json             *JSONHandler
	imageFingerprint lcmtypes.Fingerprint
	logger           *slog.Logger
}

// NewDialHandler builds a DialHandler. imageFingerprint identifies
// which events are treated as images rather than delegated to JSON.
func NewDialHandler(jpeg *JPEGHandler, json *JSONHandler, imageFingerprint lcmtypes.Fingerprint, logger *slog.Logger) *DialHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if imageFingerprint == (lcmtypes.Fingerprint{}) {
		imageFingerprint = stdlcm.ImageTFingerprint
	}
	return &DialHandler{jpeg: jpeg, json: json, imageFingerprint: imageFingerprint, logger: logger}
}

// Handle implements Handler.
func (h *DialHandler) Handle(channel string, payload []byte) (Frame, bool) {
	fp, ok := lcmtypes.FingerprintOf(payload)
	if !ok {
		return Frame{}, false
	}

	if fp != h.imageFingerprint {
		return h.json.Handle(channel, payload)
	}

	jpegBytes, utime, err := h.jpeg.toJPEG(payload)
	if err != nil {
		h.logger.Warn("dial handler: dropped image message", "channel", channel, "error", err)
		return Frame{}, false
	}

	frame := encodeDialFrame(utime, channel, len(payload), jpegBytes)
	return Frame{Kind: FrameBinary, Data: frame}, true
}

// encodeDialFrame assembles the lcmlog-style Header plus channel name
// plus JPEG bytes: event-number (uint64, always 0 here — this bridge
// has no log index), timestamp (int64, the inner image_t's utime),
// channel-name length (int32), and original payload length (int32),
// all big-endian, followed by the channel name in UTF-8 and the JPEG
// stream.
func encodeDialFrame(timestamp int64, channel string, origPayloadLen int, jpegBytes []byte) []byte {
	var buf bytes.Buffer
	var eventNumber uint64 = 0
	binary.Write(&buf, binary.BigEndian, eventNumber)
	binary.Write(&buf, binary.BigEndian, timestamp)
	binary.Write(&buf, binary.BigEndian, int32(len(channel)))
	binary.Write(&buf, binary.BigEndian, int32(origPayloadLen))
	buf.WriteString(channel)
	buf.Write(jpegBytes)
	return buf.Bytes()
}

// DialHeaderSize is the fixed byte length of the Header preceding the
// channel name in a Dial binary frame.
const DialHeaderSize = 8 + 8 + 4 + 4

// DecodeDialHeader parses the fixed Header prefix of a Dial binary
// frame. Exported for tests that assert on the wire layout (S5).
func DecodeDialHeader(frame []byte) (eventNumber uint64, timestamp int64, channelLen, payloadLen int32, ok bool) {
	if len(frame) < DialHeaderSize {
		return 0, 0, 0, 0, false
	}
	eventNumber = binary.BigEndian.Uint64(frame[0:8])
	timestamp = int64(binary.BigEndian.Uint64(frame[8:16]))
	channelLen = int32(binary.BigEndian.Uint32(frame[16:20]))
	payloadLen = int32(binary.BigEndian.Uint32(frame[20:24]))
	return eventNumber, timestamp, channelLen, payloadLen, true
}
