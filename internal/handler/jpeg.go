package handler

import (
	"fmt"
	"log/slog"

	"github.com/mbari-org/lcm-websocket-server/internal/imagecodec"
	"github.com/mbari-org/lcm-websocket-server/internal/lcmtypes/stdlcm"
)

// JPEGHandler decodes an image_t payload, converts its native pixel
// format to BGR, optionally downscales, and re-encodes as a JPEG binary
// frame. Any step failing drops the message.
type JPEGHandler struct {
	scale   float64
	quality int
	logger  *slog.Logger
}

// NewJPEGHandler builds a JPEGHandler. scale of 0 or 1 disables
// resizing; quality is clamped to [1,100] by imagecodec.EncodeJPEG.
func NewJPEGHandler(scale float64, quality int, logger *slog.Logger) *JPEGHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if scale <= 0 {
		scale = 1.0
	}
	return &JPEGHandler{scale: scale, quality: quality, logger: logger}
}

// Handle implements Handler.
func (h *JPEGHandler) Handle(channel string, payload []byte) (Frame, bool) {
	jpegBytes, _, err := h.toJPEG(payload)
	if err != nil {
		h.logger.Warn("jpeg handler: dropped message", "channel", channel, "error", err)
		return Frame{}, false
	}
	return Frame{Kind: FrameBinary, Data: jpegBytes}, true
}

// toJPEG is the shared decode→BGR→(downscale)→encode pipeline, also
// used directly by DialHandler so it need not re-run the JSON path for
// image_t events.
func (h *JPEGHandler) toJPEG(payload []byte) (jpegBytes []byte, utime int64, err error) {
	img, err := stdlcm.DecodeImageT(payload)
	if err != nil {
		return nil, 0, fmt.Errorf("decode image_t: %w", err)
	}

	decoder, err := imagecodec.LookupDecoder(imagecodec.PixelFormat(img.PixelFormat))
	if err != nil {
		return nil, 0, err
	}

	bgr, err := decoder.Decode(img.Data, img.Width, img.Height)
	if err != nil {
		return nil, 0, fmt.Errorf("pixel decode: %w", err)
	}

	width, height := img.Width, img.Height
	if h.scale != 1.0 {
		bgr, width, height, err = imagecodec.Downscale(bgr, width, height, h.scale)
		if err != nil {
			return nil, 0, fmt.Errorf("downscale: %w", err)
		}
	}

	jpegBytes, err = imagecodec.EncodeJPEG(bgr, width, height, h.quality)
	if err != nil {
		return nil, 0, fmt.Errorf("jpeg encode: %w", err)
	}
	return jpegBytes, img.Utime, nil
}
