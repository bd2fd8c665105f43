// Package stdlcm registers the small set of LCM types this bridge
// treats as "standard": currently image_t, the pixel-buffer message
// consumed by the JPEG and Dial handlers.
package stdlcm

import (
	"fmt"

	"github.com/mbari-org/lcm-websocket-server/internal/lcmtypes"
)

// ImageTFingerprint is the wire fingerprint assigned to image_t
// messages on this bus.
var ImageTFingerprint = lcmtypes.NewFingerprint(0x5a17c9d105440e1e)

func init() {
	lcmtypes.RegisterPackage("stdlcm", &lcmtypes.TypeDescriptor{
		Fingerprint: ImageTFingerprint,
		Name:        "stdlcm.image_t",
		Fields: []lcmtypes.FieldDescriptor{
			{Name: "utime"},
			{Name: "width"},
			{Name: "height"},
			{Name: "row_stride"},
			{Name: "pixelformat"},
			{Name: "size"},
			{Name: "data", Dimension: "size"},
		},
		Decode: decodeImageT,
	})
}

func decodeImageT(payload []byte) (lcmtypes.Value, bool) {
	r := lcmtypes.NewReader(payload)

	utime, err := r.Int64()
	if err != nil {
		return lcmtypes.Value{}, false
	}
	width, err := r.Int32()
	if err != nil {
		return lcmtypes.Value{}, false
	}
	height, err := r.Int32()
	if err != nil {
		return lcmtypes.Value{}, false
	}
	rowStride, err := r.Int32()
	if err != nil {
		return lcmtypes.Value{}, false
	}
	pixelformat, err := r.Int32()
	if err != nil {
		return lcmtypes.Value{}, false
	}
	size, err := r.Int32()
	if err != nil || size < 0 {
		return lcmtypes.Value{}, false
	}
	data, err := r.Bytes(int(size))
	if err != nil {
		return lcmtypes.Value{}, false
	}

	return lcmtypes.NewStruct([]lcmtypes.Field{
		{Name: "utime", Value: lcmtypes.NewScalar(utime)},
		{Name: "width", Value: lcmtypes.NewScalar(width)},
		{Name: "height", Value: lcmtypes.NewScalar(height)},
		{Name: "row_stride", Value: lcmtypes.NewScalar(rowStride)},
		{Name: "pixelformat", Value: lcmtypes.NewScalar(pixelformat)},
		{Name: "size", Value: lcmtypes.NewScalar(size)},
		{Name: "data", Value: lcmtypes.NewBytes(data)},
	}), true
}

// ImageT is the typed view of a decoded image_t, used by the JPEG and
// Dial handlers, which need structured pixel-buffer access rather than
// the generic Value tree the JSON handler works with.
type ImageT struct {
	Utime       int64
	Width       int
	Height      int
	RowStride   int
	PixelFormat int32
	Data        []byte
}

// DecodeImageT decodes payload into the typed view by way of the
// generic Value tree.
func DecodeImageT(payload []byte) (ImageT, error) {
	v, ok := decodeImageT(payload)
	if !ok {
		return ImageT{}, fmt.Errorf("stdlcm: malformed image_t payload")
	}
	return imageTFromValue(v)
}

func imageTFromValue(v lcmtypes.Value) (ImageT, error) {
	utime, _ := mustField(v, "utime").Int64()
	width, _ := mustField(v, "width").Int64()
	height, _ := mustField(v, "height").Int64()
	rowStride, _ := mustField(v, "row_stride").Int64()
	pixelformat, _ := mustField(v, "pixelformat").Int64()
	data := mustField(v, "data").Bytes

	return ImageT{
		Utime:       utime,
		Width:       int(width),
		Height:      int(height),
		RowStride:   int(rowStride),
		PixelFormat: int32(pixelformat),
		Data:        data,
	}, nil
}

func mustField(v lcmtypes.Value, name string) lcmtypes.Value {
	f, _ := v.Field(name)
	return f
}
