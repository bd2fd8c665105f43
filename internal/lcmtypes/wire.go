package lcmtypes

import (
	"encoding/binary"
	"fmt"
)

// Reader sequentially decodes the big-endian primitives that make up
// the LCM wire encoding. Every generated LCM type decoder in this
// module is written against this helper instead of hand-rolling
// binary.BigEndian offsets, matching how the reference corpus factors
// repeated byte-cursor logic into one small helper type.
type Reader struct {
	buf []byte
	pos int
}

// NewReader wraps payload for sequential decoding, skipping the leading
// fingerprint bytes.
func NewReader(payload []byte) *Reader {
	return &Reader{buf: payload, pos: FingerprintSize}
}

func (r *Reader) need(n int) error {
	if r.pos+n > len(r.buf) {
		return fmt.Errorf("lcmtypes: short read: need %d bytes at offset %d, have %d", n, r.pos, len(r.buf))
	}
	return nil
}

// Int8 reads a signed byte.
func (r *Reader) Int8() (int8, error) {
	if err := r.need(1); err != nil {
		return 0, err
	}
	v := int8(r.buf[r.pos])
	r.pos++
	return v, nil
}

// Int16 reads a big-endian int16.
func (r *Reader) Int16() (int16, error) {
	if err := r.need(2); err != nil {
		return 0, err
	}
	v := int16(binary.BigEndian.Uint16(r.buf[r.pos:]))
	r.pos += 2
	return v, nil
}

// Int32 reads a big-endian int32.
func (r *Reader) Int32() (int32, error) {
	if err := r.need(4); err != nil {
		return 0, err
	}
	v := int32(binary.BigEndian.Uint32(r.buf[r.pos:]))
	r.pos += 4
	return v, nil
}

// Int64 reads a big-endian int64.
func (r *Reader) Int64() (int64, error) {
	if err := r.need(8); err != nil {
		return 0, err
	}
	v := int64(binary.BigEndian.Uint64(r.buf[r.pos:]))
	r.pos += 8
	return v, nil
}

// Float32 reads a big-endian IEEE-754 single.
func (r *Reader) Float32() (float32, error) {
	v, err := r.Int32()
	if err != nil {
		return 0, err
	}
	return int32ToFloat32(v), nil
}

// Float64 reads a big-endian IEEE-754 double.
func (r *Reader) Float64() (float64, error) {
	v, err := r.Int64()
	if err != nil {
		return 0, err
	}
	return int64ToFloat64(v), nil
}

// String reads an LCM string: an int32 length (including the trailing
// NUL) followed by that many bytes, the last of which is discarded.
func (r *Reader) String() (string, error) {
	n, err := r.Int32()
	if err != nil {
		return "", err
	}
	if n < 1 {
		return "", fmt.Errorf("lcmtypes: invalid string length %d", n)
	}
	if err := r.need(int(n)); err != nil {
		return "", err
	}
	s := string(r.buf[r.pos : r.pos+int(n)-1])
	r.pos += int(n)
	return s, nil
}

// Bytes reads n raw bytes.
func (r *Reader) Bytes(n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("lcmtypes: negative byte count %d", n)
	}
	if err := r.need(n); err != nil {
		return nil, err
	}
	b := make([]byte, n)
	copy(b, r.buf[r.pos:r.pos+n])
	r.pos += n
	return b, nil
}

// Remaining reports how many unread bytes are left in the buffer.
func (r *Reader) Remaining() int {
	return len(r.buf) - r.pos
}
