package registry

import (
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"hash"

	"golang.org/x/crypto/blake2b"

	"github.com/platinummonkey/palletdiff/pkg/metadata"
)

// DigestSize is the size of a structural digest in bytes.
const DigestSize = blake2b.Size256

// Digest is a 256-bit structural hash.
type Digest [DigestSize]byte

// String returns the hex form.
func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// Short returns the first eight hex characters, for display.
func (d Digest) Short() string {
	return d.String()[:8]
}

// IsZero reports whether d is the zero digest.
func (d Digest) IsZero() bool {
	return d == Digest{}
}

// MarshalJSON implements json.Marshaler.
func (d Digest) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Digest) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return err
	}
	copy(d[:], raw)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Digest) MarshalYAML() (interface{}, error) {
	return d.String(), nil
}

// Sum hashes arbitrary bytes into a Digest.
func Sum(data []byte) Digest {
	return blake2b.Sum256(data)
}

// DefaultVolatileTypes lists aggregate types whose variants grow whenever a
// module is added to the runtime. They are hashed by name only.
var DefaultVolatileTypes = []string{
	"RuntimeCall",
	"RuntimeEvent",
	"RuntimeError",
	"RuntimeOrigin",
	"OriginCaller",
	"RuntimeHoldReason",
	"RuntimeFreezeReason",
	"RuntimeTask",
}

const (
	tagComposite byte = iota + 1
	tagVariant
	tagSequence
	tagArray
	tagTuple
	tagPrimitive
	tagCompact
	tagBitSequence
	tagUnknownDef
	tagRecursion
	tagVolatile
	tagMissing
)

// Hasher computes structural digests of registry types. Only shape
// participates: field, variant and type names are ignored, order is not.
// A Hasher holds no mutable state and is safe for concurrent use.
type Hasher struct {
	reg      *metadata.PortableRegistry
	volatile map[string]struct{}
}

// NewHasher creates a hasher over reg. A nil volatile list selects
// DefaultVolatileTypes.
func NewHasher(reg *metadata.PortableRegistry, volatile []string) *Hasher {
	if volatile == nil {
		volatile = DefaultVolatileTypes
	}
	set := make(map[string]struct{}, len(volatile))
	for _, name := range volatile {
		set[name] = struct{}{}
	}
	return &Hasher{reg: reg, volatile: set}
}

// HashResult carries the digest plus what the traversal ran into.
type HashResult struct {
	Digest Digest
	// Missing lists ids referenced but absent from the registry.
	Missing []uint32
	// Recursive is set when a cycle was cut.
	Recursive bool
}

// Hash returns the structural digest of id.
func (h *Hasher) Hash(id uint32) Digest {
	return h.HashDetailed(id).Digest
}

// HashDetailed returns the digest of id along with traversal diagnostics.
// Each call walks with its own visited set.
func (h *Hasher) HashDetailed(id uint32) HashResult {
	w := &walk{
		hasher:   h,
		visiting: make(map[uint32]bool),
		done:     make(map[uint32]Digest),
	}
	d, cyclic := w.hash(id)
	return HashResult{Digest: d, Missing: w.missing, Recursive: cyclic || w.recursive}
}

type walk struct {
	hasher    *Hasher
	visiting  map[uint32]bool
	done      map[uint32]Digest
	missing   []uint32
	recursive bool
}

// hash returns the digest of id and whether it depends on a cut cycle.
// Only digests that do not depend on the current path are memoized.
func (w *walk) hash(id uint32) (Digest, bool) {
	if d, ok := w.done[id]; ok {
		return d, false
	}
	if w.visiting[id] {
		w.recursive = true
		return marker(tagRecursion, nil), true
	}

	t, ok := w.hasher.reg.Lookup(id)
	if !ok {
		w.missing = append(w.missing, id)
		return marker(tagMissing, []byte(UnknownName(id))), false
	}
	if name := t.Name(); name != "" {
		if _, ok := w.hasher.volatile[name]; ok {
			return marker(tagVolatile, []byte(name)), false
		}
	}

	w.visiting[id] = true
	defer delete(w.visiting, id)

	hw, _ := blake2b.New256(nil)
	cyclic := false
	child := func(ref uint32) {
		d, c := w.hash(ref)
		cyclic = cyclic || c
		hw.Write(d[:])
	}

	def := t.Def
	switch def.Kind() {
	case metadata.DefComposite:
		hw.Write([]byte{tagComposite})
		writeUint32(hw, uint32(len(def.Composite.Fields)))
		for _, f := range def.Composite.Fields {
			child(f.Type)
		}

	case metadata.DefVariant:
		hw.Write([]byte{tagVariant})
		writeUint32(hw, uint32(len(def.Variant.Variants)))
		for _, v := range def.Variant.Variants {
			writeUint32(hw, uint32(v.Index))
			writeUint32(hw, uint32(len(v.Fields)))
			for _, f := range v.Fields {
				child(f.Type)
			}
		}

	case metadata.DefSequence:
		hw.Write([]byte{tagSequence})
		child(def.Sequence.Type)

	case metadata.DefArray:
		hw.Write([]byte{tagArray})
		writeUint32(hw, def.Array.Len)
		child(def.Array.Type)

	case metadata.DefTuple:
		hw.Write([]byte{tagTuple})
		writeUint32(hw, uint32(len(*def.Tuple)))
		for _, elem := range *def.Tuple {
			child(elem)
		}

	case metadata.DefPrimitive:
		hw.Write([]byte{tagPrimitive})
		if disc := def.Primitive.Discriminant(); disc >= 0 {
			writeUint32(hw, uint32(disc))
		} else {
			hw.Write([]byte(*def.Primitive))
		}

	case metadata.DefCompact:
		hw.Write([]byte{tagCompact})
		child(def.Compact.Type)

	case metadata.DefBitSequence:
		hw.Write([]byte{tagBitSequence})
		child(def.BitSequence.BitStoreType)
		child(def.BitSequence.BitOrderType)

	default:
		hw.Write([]byte{tagUnknownDef})
	}

	var d Digest
	copy(d[:], hw.Sum(nil))
	if !cyclic {
		w.done[id] = d
	}
	return d, cyclic
}

func marker(tag byte, payload []byte) Digest {
	buf := make([]byte, 0, len(payload)+1)
	buf = append(buf, tag)
	buf = append(buf, payload...)
	return blake2b.Sum256(buf)
}

func writeUint32(w hash.Hash, v uint32) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	w.Write(buf[:])
}
