package lcmtypes

import (
	"bytes"
	"encoding/binary"
	"math"
)

// Writer builds a big-endian LCM-encoded payload, mirroring Reader.
// Used by types this module originates itself (the spy statistics
// message) rather than merely decodes.
type Writer struct {
	buf bytes.Buffer
}

// NewWriter returns a Writer primed with the given fingerprint.
func NewWriter(fp Fingerprint) *Writer {
	w := &Writer{}
	w.buf.Write(fp[:])
	return w
}

func (w *Writer) Int8(v int8)   { w.buf.WriteByte(byte(v)) }
func (w *Writer) Int32(v int32) { putInt32(&w.buf, v) }
func (w *Writer) Int64(v int64) { putInt64(&w.buf, v) }

func (w *Writer) Float64(v float64) {
	putInt64(&w.buf, int64(math.Float64bits(v)))
}

// String writes an LCM string: an int32 length (including the trailing
// NUL) followed by the bytes and a NUL terminator.
func (w *Writer) String(s string) {
	putInt32(&w.buf, int32(len(s)+1))
	w.buf.WriteString(s)
	w.buf.WriteByte(0)
}

func (w *Writer) Bytes(b []byte) { w.buf.Write(b) }

// Payload returns the assembled wire bytes.
func (w *Writer) Payload() []byte { return w.buf.Bytes() }

func putInt32(buf *bytes.Buffer, v int32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], uint32(v))
	buf.Write(b[:])
}

func putInt64(buf *bytes.Buffer, v int64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(v))
	buf.Write(b[:])
}
