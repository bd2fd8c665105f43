package imagecodec

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
)

// EncodeJPEG encodes an interleaved BGR buffer to a JPEG byte stream at
// the given quality, clamped to [1, 100].
func EncodeJPEG(bgr []byte, width, height int, quality int) ([]byte, error) {
	if err := checkSize(bgr, width, height, 3); err != nil {
		return nil, err
	}
	if quality < 1 {
		quality = 1
	}
	if quality > 100 {
		quality = 100
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			i := (y*width + x) * 3
			img.Set(x, y, color.RGBA{R: bgr[i+2], G: bgr[i+1], B: bgr[i+0], A: 255})
		}
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("imagecodec: jpeg encode: %w", err)
	}
	return buf.Bytes(), nil
}

// Downscale resizes an interleaved BGR buffer by scale using area
// averaging (box filter), the interpolation method the source
// specification calls for. scale must be positive; values >= 1 are
// accepted but only shrink the typical image-pipeline use case is
// meaningfully supported — upscaling falls back to nearest-neighbor
// since area averaging has no defined inverse.
func Downscale(bgr []byte, width, height int, scale float64) (out []byte, newWidth, newHeight int, err error) {
	if err := checkSize(bgr, width, height, 3); err != nil {
		return nil, 0, 0, err
	}
	if scale <= 0 {
		return nil, 0, 0, fmt.Errorf("imagecodec: scale must be positive, got %v", scale)
	}
	newWidth = maxInt(1, int(float64(width)*scale))
	newHeight = maxInt(1, int(float64(height)*scale))

	out = make([]byte, newWidth*newHeight*3)
	for ny := 0; ny < newHeight; ny++ {
		srcY0 := int(float64(ny) / scale)
		srcY1 := maxInt(srcY0+1, int(float64(ny+1)/scale))
		srcY1 = minInt(srcY1, height)
		for nx := 0; nx < newWidth; nx++ {
			srcX0 := int(float64(nx) / scale)
			srcX1 := maxInt(srcX0+1, int(float64(nx+1)/scale))
			srcX1 = minInt(srcX1, width)

			var sumB, sumG, sumR, n int
			for sy := srcY0; sy < srcY1; sy++ {
				for sx := srcX0; sx < srcX1; sx++ {
					i := (sy*width + sx) * 3
					sumB += int(bgr[i+0])
					sumG += int(bgr[i+1])
					sumR += int(bgr[i+2])
					n++
				}
			}
			if n == 0 {
				n = 1
			}
			i := (ny*newWidth + nx) * 3
			out[i+0] = byte(sumB / n)
			out[i+1] = byte(sumG / n)
			out[i+2] = byte(sumR / n)
		}
	}
	return out, newWidth, newHeight, nil
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
