package lcmtypes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"
)

// DecodeFunc turns a raw LCM payload (including its leading fingerprint)
// into a Value tree. ok is false on any malformed input; the registry
// never panics on a corrupt payload of an otherwise-known type.
type DecodeFunc func(payload []byte) (Value, bool)

// FieldDescriptor names one field of a registered type. Dimension is
// empty for scalar fields and carries a cardinality marker ("[]" for a
// variable-length sequence, or a fixed count) for array fields.
type FieldDescriptor struct {
	Name      string
	Dimension string
}

// TypeDescriptor describes one registered LCM type: its wire
// fingerprint, its printable name, the ordered field list (informational
// only; neither the registry nor Decode reads it), and the decode
// operation itself.
type TypeDescriptor struct {
	Fingerprint Fingerprint
	Name        string
	Fields      []FieldDescriptor
	Decode      DecodeFunc
}

// packageRegistry is the process-wide table of type descriptors
// contributed by each LCM type package. Packages populate it from an
// init() function, the same static-registration idiom database/sql
// drivers and image format codecs use — Go has no runtime equivalent of
// scanning a Python module for LCM-generated classes.
var (
	packageRegistryMu sync.Mutex
	packageRegistry   = map[string][]*TypeDescriptor{}
)

// RegisterPackage contributes descriptors under a package name, for
// later bulk registration via Registry.Discover. Intended to be called
// from a type package's init() function.
func RegisterPackage(pkgName string, descriptors ...*TypeDescriptor) {
	packageRegistryMu.Lock()
	defer packageRegistryMu.Unlock()
	packageRegistry[pkgName] = append(packageRegistry[pkgName], descriptors...)
}

// Registry maps fingerprints to type descriptors. The zero value is not
// usable; construct with NewRegistry.
type Registry struct {
	mu   sync.RWMutex
	byFP map[Fingerprint]*TypeDescriptor
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{byFP: make(map[Fingerprint]*TypeDescriptor)}
}

// Register inserts a descriptor by fingerprint, replacing any prior
// binding for that fingerprint (last write wins).
func (r *Registry) Register(td *TypeDescriptor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byFP[td.Fingerprint] = td
}

// Get looks up a descriptor by fingerprint.
func (r *Registry) Get(fp Fingerprint) (*TypeDescriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	td, ok := r.byFP[fp]
	return td, ok
}

// Len reports how many distinct fingerprints are registered.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byFP)
}

// Discover registers every descriptor contributed by the named type
// packages and returns the total number of descriptors registered.
// An unknown package name contributes nothing and is not an error by
// itself — the caller checks the total count to decide whether any
// types were discovered at all.
func (r *Registry) Discover(packageNames ...string) int {
	packageRegistryMu.Lock()
	defer packageRegistryMu.Unlock()

	n := 0
	for _, name := range packageNames {
		for _, td := range packageRegistry[name] {
			r.Register(td)
			n++
		}
	}
	return n
}

// Decode looks up the descriptor for payload's leading fingerprint and,
// if found, decodes it. ok is false both when the fingerprint is
// unregistered and when a registered descriptor fails to decode the
// payload — callers do not need to distinguish the two for dropping
// purposes, but td is still returned (non-nil) in the latter case so
// the caller can log the type name.
func (r *Registry) Decode(payload []byte) (value Value, td *TypeDescriptor, ok bool) {
	fp, ok := FingerprintOf(payload)
	if !ok {
		return Value{}, nil, false
	}
	td, found := r.Get(fp)
	if !found {
		return Value{}, nil, false
	}
	v, decoded := td.Decode(payload)
	if !decoded {
		return Value{}, td, false
	}
	return v, td, true
}

// EncodeEventJSON produces the wire JSON envelope
// {"channel":…,"fingerprint":…,"event":<tree>} for a decoded event.
func EncodeEventJSON(channel string, fingerprintHex string, value Value) (string, error) {
	eventJSON, err := value.MarshalJSON()
	if err != nil {
		return "", fmt.Errorf("lcmtypes: encode event: %w", err)
	}

	channelJSON, err := json.Marshal(channel)
	if err != nil {
		return "", err
	}
	fpJSON, err := json.Marshal(fingerprintHex)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	buf.WriteString(`{"channel":`)
	buf.Write(channelJSON)
	buf.WriteString(`,"fingerprint":`)
	buf.Write(fpJSON)
	buf.WriteString(`,"event":`)
	buf.Write(eventJSON)
	buf.WriteByte('}')
	return buf.String(), nil
}
