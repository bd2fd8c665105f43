package handler

import (
	"encoding/json"
	"testing"

	"github.com/mbari-org/lcm-websocket-server/internal/imagecodec"
	"github.com/mbari-org/lcm-websocket-server/internal/lcmtypes"
	"github.com/mbari-org/lcm-websocket-server/internal/lcmtypes/stdlcm"
)

func testFingerprint(b byte) lcmtypes.Fingerprint {
	var fp lcmtypes.Fingerprint
	for i := range fp {
		fp[i] = b
	}
	return fp
}

func newTestRegistry() *lcmtypes.Registry {
	r := lcmtypes.NewRegistry()
	fp := lcmtypes.Fingerprint{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08}
	r.Register(&lcmtypes.TypeDescriptor{
		Fingerprint: fp,
		Name:        "test.point",
		Decode: func(payload []byte) (lcmtypes.Value, bool) {
			if len(payload) < 9 {
				return lcmtypes.Value{}, false
			}
			return lcmtypes.NewStruct([]lcmtypes.Field{
				{Name: "x", Value: lcmtypes.NewScalar(int64(payload[8]))},
			}), true
		},
	})
	return r
}

// S1 (JSON fan-out): a known fingerprint decodes into the expected envelope.
func TestJSONHandler_KnownType(t *testing.T) {
	r := newTestRegistry()
	h := NewJSONHandler(r, nil)

	payload := append([]byte{1, 2, 3, 4, 5, 6, 7, 8}, 42)
	frame, ok := h.Handle("A", payload)
	if !ok {
		t.Fatal("expected frame for known type")
	}
	if frame.Kind != FrameText {
		t.Errorf("frame.Kind = %v, want FrameText", frame.Kind)
	}

	var decoded struct {
		Channel     string `json:"channel"`
		Fingerprint string `json:"fingerprint"`
		Event       struct {
			X int64 `json:"x"`
		} `json:"event"`
	}
	if err := json.Unmarshal(frame.Data, &decoded); err != nil {
		t.Fatalf("json.Unmarshal: %v", err)
	}
	if decoded.Channel != "A" {
		t.Errorf("channel = %q, want A", decoded.Channel)
	}
	if decoded.Fingerprint != "0102030405060708" {
		t.Errorf("fingerprint = %q, want 0102030405060708", decoded.Fingerprint)
	}
	if decoded.Event.X != 42 {
		t.Errorf("event.x = %d, want 42", decoded.Event.X)
	}
}

// S4 (unknown type): an unregistered fingerprint is dropped.
func TestJSONHandler_UnknownType(t *testing.T) {
	r := newTestRegistry()
	h := NewJSONHandler(r, nil)

	payload := append([]byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}, 1)
	_, ok := h.Handle("A", payload)
	if ok {
		t.Fatal("expected unknown fingerprint to be dropped")
	}
}

func TestJSONHandler_ShortPayloadDropped(t *testing.T) {
	r := newTestRegistry()
	h := NewJSONHandler(r, nil)
	_, ok := h.Handle("A", []byte{1, 2})
	if ok {
		t.Fatal("expected short payload to be dropped")
	}
}

func encodeTestImageT(utime int64, width, height int, format imagecodec.PixelFormat, data []byte) []byte {
	w := lcmtypes.NewWriter(stdlcm.ImageTFingerprint)
	w.Int64(utime)
	w.Int32(int32(width))
	w.Int32(int32(height))
	w.Int32(int32(width)) // row_stride
	w.Int32(int32(format))
	w.Int32(int32(len(data)))
	w.Bytes(data)
	return w.Payload()
}

// S5 (image): a BGR image_t produces a JPEG byte sequence starting with
// the SOI marker.
func TestJPEGHandler_ProducesJPEG(t *testing.T) {
	width, height := 4, 4
	data := make([]byte, width*height*3)
	for i := range data {
		data[i] = byte(i)
	}
	payload := encodeTestImageT(12345, width, height, imagecodec.PixelFormatBGR, data)

	h := NewJPEGHandler(1.0, 80, nil)
	frame, ok := h.Handle("CAM", payload)
	if !ok {
		t.Fatal("expected a frame")
	}
	if frame.Kind != FrameBinary {
		t.Errorf("frame.Kind = %v, want FrameBinary", frame.Kind)
	}
	if len(frame.Data) < 2 || frame.Data[0] != 0xFF || frame.Data[1] != 0xD8 {
		t.Errorf("frame does not start with JPEG SOI marker")
	}
}

func TestJPEGHandler_UnsupportedFormatDropped(t *testing.T) {
	payload := encodeTestImageT(1, 2, 2, imagecodec.PixelFormat(200), []byte{1, 2, 3, 4})
	h := NewJPEGHandler(1.0, 80, nil)
	if _, ok := h.Handle("CAM", payload); ok {
		t.Fatal("expected unsupported pixel format to be dropped")
	}
}

// S5 (dial): the binary frame's header parses with the inner timestamp.
func TestDialHandler_ImageProducesHeaderFrame(t *testing.T) {
	width, height := 2, 2
	data := make([]byte, width*height*3)
	payload := encodeTestImageT(99999, width, height, imagecodec.PixelFormatBGR, data)

	r := newTestRegistry()
	jh := NewJPEGHandler(1.0, 80, nil)
	jsonH := NewJSONHandler(r, nil)
	dh := NewDialHandler(jh, jsonH, stdlcm.ImageTFingerprint, nil)

	frame, ok := dh.Handle("CAM", payload)
	if !ok {
		t.Fatal("expected a dial frame")
	}
	if frame.Kind != FrameBinary {
		t.Errorf("frame.Kind = %v, want FrameBinary", frame.Kind)
	}

	eventNumber, timestamp, channelLen, payloadLen, ok := DecodeDialHeader(frame.Data)
	if !ok {
		t.Fatal("expected header to parse")
	}
	if eventNumber != 0 {
		t.Errorf("eventNumber = %d, want 0", eventNumber)
	}
	if timestamp != 99999 {
		t.Errorf("timestamp = %d, want 99999", timestamp)
	}
	if int(channelLen) != len("CAM") {
		t.Errorf("channelLen = %d, want %d", channelLen, len("CAM"))
	}
	if int(payloadLen) != len(payload) {
		t.Errorf("payloadLen = %d, want %d", payloadLen, len(payload))
	}

	gotChannel := string(frame.Data[DialHeaderSize : DialHeaderSize+int(channelLen)])
	if gotChannel != "CAM" {
		t.Errorf("channel in frame = %q, want CAM", gotChannel)
	}

	jpegStart := DialHeaderSize + int(channelLen)
	if frame.Data[jpegStart] != 0xFF || frame.Data[jpegStart+1] != 0xD8 {
		t.Error("expected JPEG SOI marker after channel name")
	}
}

// Dial handler delegates non-image events to JSON.
func TestDialHandler_NonImageDelegatesToJSON(t *testing.T) {
	r := newTestRegistry()
	jh := NewJPEGHandler(1.0, 80, nil)
	jsonH := NewJSONHandler(r, nil)
	dh := NewDialHandler(jh, jsonH, stdlcm.ImageTFingerprint, nil)

	payload := append([]byte{1, 2, 3, 4, 5, 6, 7, 8}, 7)
	frame, ok := dh.Handle("A", payload)
	if !ok {
		t.Fatal("expected a frame")
	}
	if frame.Kind != FrameText {
		t.Errorf("frame.Kind = %v, want FrameText for non-image event", frame.Kind)
	}
}
