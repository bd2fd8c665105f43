package imagecodec

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
)

func checkSize(data []byte, width, height, bytesPerPixel int) error {
	want := width * height * bytesPerPixel
	if len(data) < want {
		return fmt.Errorf("imagecodec: short buffer: have %d bytes, want %d for %dx%d", len(data), want, width, height)
	}
	return nil
}

// decodeBGR is the identity transform: image_t already carries BGR.
func decodeBGR(data []byte, width, height int) ([]byte, error) {
	if err := checkSize(data, width, height, 3); err != nil {
		return nil, err
	}
	out := make([]byte, width*height*3)
	copy(out, data[:width*height*3])
	return out, nil
}

func encodeBGR(bgr []byte, width, height int) ([]byte, error) {
	return decodeBGR(bgr, width, height)
}

// decodeRGB swaps the R and B channels into BGR order.
func decodeRGB(data []byte, width, height int) ([]byte, error) {
	if err := checkSize(data, width, height, 3); err != nil {
		return nil, err
	}
	out := make([]byte, width*height*3)
	for i := 0; i < width*height; i++ {
		out[i*3+0] = data[i*3+2]
		out[i*3+1] = data[i*3+1]
		out[i*3+2] = data[i*3+0]
	}
	return out, nil
}

func encodeRGB(bgr []byte, width, height int) ([]byte, error) {
	return decodeRGB(bgr, width, height) // the swap is its own inverse
}

// decodeGray replicates a single luminance channel into all three BGR
// channels.
func decodeGray(data []byte, width, height int) ([]byte, error) {
	if err := checkSize(data, width, height, 1); err != nil {
		return nil, err
	}
	out := make([]byte, width*height*3)
	for i := 0; i < width*height; i++ {
		g := data[i]
		out[i*3+0], out[i*3+1], out[i*3+2] = g, g, g
	}
	return out, nil
}

func encodeGray(bgr []byte, width, height int) ([]byte, error) {
	if err := checkSize(bgr, width, height, 3); err != nil {
		return nil, err
	}
	out := make([]byte, width*height)
	for i := 0; i < width*height; i++ {
		b, g, r := int(bgr[i*3+0]), int(bgr[i*3+1]), int(bgr[i*3+2])
		out[i] = byte((r + g + b) / 3)
	}
	return out, nil
}

// decodeMJPEG decodes an embedded JPEG stream (the image_t payload
// already *is* the wire format this handler ultimately re-emits) to an
// interleaved BGR buffer.
func decodeMJPEG(data []byte, width, height int) ([]byte, error) {
	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("imagecodec: jpeg decode: %w", err)
	}
	return imageToBGR(img), nil
}

// encodeMJPEGRaw re-encodes a BGR buffer straight to JPEG at a fixed
// quality of 90; the JPEG/Dial handlers call EncodeJPEG
// directly when they need a specific quality, so this entry exists
// only to keep the MJPEG format symmetric in the encoder table.
func encodeMJPEGRaw(bgr []byte, width, height int) ([]byte, error) {
	return EncodeJPEG(bgr, width, height, 90)
}

func imageToBGR(img image.Image) []byte {
	b := img.Bounds()
	width, height := b.Dx(), b.Dy()
	out := make([]byte, width*height*3)
	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			out[i+0] = byte(bl >> 8)
			out[i+1] = byte(g >> 8)
			out[i+2] = byte(r >> 8)
			i += 3
		}
	}
	return out
}
