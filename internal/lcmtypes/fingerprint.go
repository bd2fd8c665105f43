// Package lcmtypes implements the LCM type registry: a fingerprint-keyed
// map from an 8-byte wire prefix to a decoder, plus the Value sum type
// that every decoded message is expressed as for JSON emission.
package lcmtypes

import (
	"encoding/binary"
	"encoding/hex"
)

// FingerprintSize is the number of leading bytes of every LCM payload
// that uniquely identify its type definition.
const FingerprintSize = 8

// Fingerprint is the 8-byte type discriminator every LCM payload starts
// with.
type Fingerprint [FingerprintSize]byte

// String renders the fingerprint as lowercase hex, the form used in the
// JSON envelope and in log messages.
func (f Fingerprint) String() string {
	return hex.EncodeToString(f[:])
}

// FingerprintOf reads the leading 8 bytes of payload as a Fingerprint.
// ok is false if payload is shorter than FingerprintSize.
func FingerprintOf(payload []byte) (fp Fingerprint, ok bool) {
	if len(payload) < FingerprintSize {
		return fp, false
	}
	copy(fp[:], payload[:FingerprintSize])
	return fp, true
}

// NewFingerprint builds a Fingerprint from a big-endian uint64, the form
// in which generated LCM bindings usually express their hash constant.
func NewFingerprint(hash uint64) Fingerprint {
	var fp Fingerprint
	binary.BigEndian.PutUint64(fp[:], hash)
	return fp
}
