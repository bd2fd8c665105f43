package imagecodec

import "testing"

func TestDecodeBGR_Identity(t *testing.T) {
	data := []byte{1, 2, 3, 4, 5, 6}
	out, err := decodeBGR(data, 2, 1)
	if err != nil {
		t.Fatalf("decodeBGR: %v", err)
	}
	if string(out) != string(data) {
		t.Errorf("got %v, want %v", out, data)
	}
}

func TestDecodeRGB_SwapsChannels(t *testing.T) {
	data := []byte{10, 20, 30} // R=10 G=20 B=30
	out, err := decodeRGB(data, 1, 1)
	if err != nil {
		t.Fatalf("decodeRGB: %v", err)
	}
	want := []byte{30, 20, 10} // B G R
	if string(out) != string(want) {
		t.Errorf("got %v, want %v", out, want)
	}
}

func TestDecodeGray_Replicates(t *testing.T) {
	data := []byte{0x42}
	out, err := decodeGray(data, 1, 1)
	if err != nil {
		t.Fatalf("decodeGray: %v", err)
	}
	want := []byte{0x42, 0x42, 0x42}
	if string(out) != string(want) {
		t.Errorf("got %v, want %v", out, want)
	}
}

func TestDecode_ShortBufferErrors(t *testing.T) {
	if _, err := decodeBGR([]byte{1, 2}, 2, 2); err == nil {
		t.Fatal("expected error for undersized buffer")
	}
}

func TestBayerDecoder_ProducesCorrectSize(t *testing.T) {
	width, height := 4, 4
	data := make([]byte, width*height)
	for i := range data {
		data[i] = byte(i * 10)
	}
	decode := bayerDecoder(bayerBGGR)
	out, err := decode(data, width, height)
	if err != nil {
		t.Fatalf("bayer decode: %v", err)
	}
	if len(out) != width*height*3 {
		t.Errorf("len(out) = %d, want %d", len(out), width*height*3)
	}
}

func TestLookupDecoder_RealFourCCValues(t *testing.T) {
	// These are the actual wire values a real image_t producer sends,
	// not this module's own numbering — PixelFormatBGR must resolve
	// a decoder the same way a live bus payload would.
	for _, format := range []PixelFormat{
		PixelFormatBGR, PixelFormatRGB, PixelFormatGray,
		PixelFormatBayerBGGR, PixelFormatBayerGBRG,
		PixelFormatBayerGRBG, PixelFormatBayerRGGB,
	} {
		if _, err := LookupDecoder(format); err != nil {
			t.Errorf("LookupDecoder(%s) = %v, want a registered decoder", format, err)
		}
	}
	if PixelFormatBGR != 861030210 {
		t.Errorf("PixelFormatBGR = %d, want the real FourCC-like value 861030210", PixelFormatBGR)
	}
}

func TestLookupDecoder_Unsupported(t *testing.T) {
	_, err := LookupDecoder(PixelFormat(99))
	if err == nil {
		t.Fatal("expected ErrUnsupportedFormat")
	}
	if _, ok := err.(ErrUnsupportedFormat); !ok {
		t.Errorf("error type = %T, want ErrUnsupportedFormat", err)
	}
}

func TestEncodeJPEG_ProducesSOIMarker(t *testing.T) {
	width, height := 4, 4
	bgr := make([]byte, width*height*3)
	for i := range bgr {
		bgr[i] = byte(i % 256)
	}
	out, err := EncodeJPEG(bgr, width, height, 80)
	if err != nil {
		t.Fatalf("EncodeJPEG: %v", err)
	}
	if len(out) < 2 || out[0] != 0xFF || out[1] != 0xD8 {
		t.Errorf("output does not start with JPEG SOI marker: %x", out[:minInt(4, len(out))])
	}
}

func TestEncodeJPEG_ClampsQuality(t *testing.T) {
	bgr := make([]byte, 3)
	if _, err := EncodeJPEG(bgr, 1, 1, 1000); err != nil {
		t.Fatalf("EncodeJPEG with out-of-range quality should clamp, not error: %v", err)
	}
	if _, err := EncodeJPEG(bgr, 1, 1, -5); err != nil {
		t.Fatalf("EncodeJPEG with negative quality should clamp, not error: %v", err)
	}
}

func TestDownscale_HalvesDimensions(t *testing.T) {
	width, height := 4, 4
	bgr := make([]byte, width*height*3)
	out, newW, newH, err := Downscale(bgr, width, height, 0.5)
	if err != nil {
		t.Fatalf("Downscale: %v", err)
	}
	if newW != 2 || newH != 2 {
		t.Errorf("new dims = %dx%d, want 2x2", newW, newH)
	}
	if len(out) != newW*newH*3 {
		t.Errorf("len(out) = %d, want %d", len(out), newW*newH*3)
	}
}

func TestDownscale_RejectsNonPositiveScale(t *testing.T) {
	bgr := make([]byte, 3)
	if _, _, _, err := Downscale(bgr, 1, 1, 0); err == nil {
		t.Fatal("expected error for zero scale")
	}
}
