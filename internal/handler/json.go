package handler

import (
	"log/slog"

	"github.com/mbari-org/lcm-websocket-server/internal/lcmtypes"
)

// JSONHandler decodes an event through the type registry and emits the
// {"channel","fingerprint","event"} JSON envelope as a text frame.
// Unknown or corrupt payloads are dropped.
type JSONHandler struct {
	registry *lcmtypes.Registry
	logger   *slog.Logger
}

// NewJSONHandler builds a JSONHandler backed by registry.
func NewJSONHandler(registry *lcmtypes.Registry, logger *slog.Logger) *JSONHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &JSONHandler{registry: registry, logger: logger}
}

// Handle implements Handler.
func (h *JSONHandler) Handle(channel string, payload []byte) (Frame, bool) {
	fp, ok := lcmtypes.FingerprintOf(payload)
	if !ok {
		return Frame{}, false
	}

	value, td, ok := h.registry.Decode(payload)
	if !ok {
		if td != nil {
			h.logger.Debug("json handler: decode failed", "channel", channel, "type", td.Name)
		}
		return Frame{}, false
	}

	text, err := lcmtypes.EncodeEventJSON(channel, fp.String(), value)
	if err != nil {
		h.logger.Error("json handler: encode event", "channel", channel, "error", err)
		return Frame{}, false
	}

	return Frame{Kind: FrameText, Data: []byte(text)}, true
}
