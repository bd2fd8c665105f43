// Package imagecodec implements the pixel-format decoder/encoder
// registry the JPEG and Dial handlers use to turn a raw image_t payload
// into a JPEG byte stream. Pixel-format decoding itself is explicitly
// out of scope as an external collaborator in the source specification
// (there delegated to OpenCV); here it has to be real working Go code,
// so each format is a small pure-Go byte transform.
package imagecodec

import "fmt"

// PixelFormat is the LCM-defined FourCC-like integer identifying an
// image_t payload's pixel layout.
type PixelFormat int32

// Supported pixel formats, using the same FourCC-like integer values a
// real image_t producer puts on the wire, so this decodes payloads from
// an actual LCM bus rather than only payloads this module encoded itself.
const (
	PixelFormatGray      PixelFormat = 1497715271
	PixelFormatRGB       PixelFormat = 859981650
	PixelFormatBGR       PixelFormat = 861030210
	PixelFormatBayerBGGR PixelFormat = 825770306
	PixelFormatBayerGBRG PixelFormat = 844650584
	PixelFormatBayerGRBG PixelFormat = 861427800
	PixelFormatBayerRGGB PixelFormat = 878205016
	PixelFormatMJPEG     PixelFormat = 1196444237
)

// String renders a pixel format's name, for log messages.
func (p PixelFormat) String() string {
	switch p {
	case PixelFormatGray:
		return "GRAY"
	case PixelFormatRGB:
		return "RGB"
	case PixelFormatBGR:
		return "BGR"
	case PixelFormatBayerBGGR:
		return "BAYER_BGGR"
	case PixelFormatBayerGBRG:
		return "BAYER_GBRG"
	case PixelFormatBayerGRBG:
		return "BAYER_GRBG"
	case PixelFormatBayerRGGB:
		return "BAYER_RGGB"
	case PixelFormatMJPEG:
		return "MJPEG"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", int32(p))
	}
}

// ErrUnsupportedFormat is returned by Decode/Encode lookups for a
// pixel format with no registered codec.
type ErrUnsupportedFormat struct {
	Format PixelFormat
}

func (e ErrUnsupportedFormat) Error() string {
	return fmt.Sprintf("imagecodec: unsupported pixel format %s", e.Format)
}
