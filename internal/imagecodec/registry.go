package imagecodec

// Decoder turns a raw pixel buffer of a known format and dimensions
// into an 8-bit interleaved BGR buffer (len == width*height*3).
type Decoder interface {
	Decode(data []byte, width, height int) ([]byte, error)
}

// Encoder turns an 8-bit interleaved BGR buffer into an encoded byte
// stream of a known format.
type Encoder interface {
	Encode(bgr []byte, width, height int) ([]byte, error)
}

type decoderFunc func(data []byte, width, height int) ([]byte, error)

func (f decoderFunc) Decode(data []byte, width, height int) ([]byte, error) {
	return f(data, width, height)
}

type encoderFunc func(bgr []byte, width, height int) ([]byte, error)

func (f encoderFunc) Encode(bgr []byte, width, height int) ([]byte, error) {
	return f(bgr, width, height)
}

var decoders = map[PixelFormat]Decoder{
	PixelFormatBGR:       decoderFunc(decodeBGR),
	PixelFormatRGB:       decoderFunc(decodeRGB),
	PixelFormatGray:      decoderFunc(decodeGray),
	PixelFormatBayerBGGR: decoderFunc(bayerDecoder(bayerBGGR)),
	PixelFormatBayerGBRG: decoderFunc(bayerDecoder(bayerGBRG)),
	PixelFormatBayerGRBG: decoderFunc(bayerDecoder(bayerGRBG)),
	PixelFormatBayerRGGB: decoderFunc(bayerDecoder(bayerRGGB)),
	PixelFormatMJPEG:     decoderFunc(decodeMJPEG),
}

var encoders = map[PixelFormat]Encoder{
	PixelFormatBGR:   encoderFunc(encodeBGR),
	PixelFormatRGB:   encoderFunc(encodeRGB),
	PixelFormatGray:  encoderFunc(encodeGray),
	PixelFormatMJPEG: encoderFunc(encodeMJPEGRaw),
}

// LookupDecoder returns the registered decoder for format, or
// ErrUnsupportedFormat.
func LookupDecoder(format PixelFormat) (Decoder, error) {
	d, ok := decoders[format]
	if !ok {
		return nil, ErrUnsupportedFormat{Format: format}
	}
	return d, nil
}

// LookupEncoder returns the registered encoder for format, or
// ErrUnsupportedFormat.
func LookupEncoder(format PixelFormat) (Encoder, error) {
	e, ok := encoders[format]
	if !ok {
		return nil, ErrUnsupportedFormat{Format: format}
	}
	return e, nil
}
