package metadata

import (
	"encoding/json"
)

// PortableRegistry maps integer type ids to type definitions.
type PortableRegistry struct {
	Types []PortableType `json:"types"`

	index map[uint32]int
}

// PortableType is one registry entry.
type PortableType struct {
	ID   uint32 `json:"id"`
	Type Type   `json:"type"`
}

// NewPortableRegistry builds an indexed registry from its entries.
func NewPortableRegistry(types ...PortableType) PortableRegistry {
	r := PortableRegistry{Types: types}
	r.buildIndex()
	return r
}

func (r *PortableRegistry) buildIndex() {
	r.index = make(map[uint32]int, len(r.Types))
	for i, t := range r.Types {
		r.index[t.ID] = i
	}
}

// UnmarshalJSON decodes the entries and indexes them by id.
func (r *PortableRegistry) UnmarshalJSON(data []byte) error {
	var raw struct {
		Types []PortableType `json:"types"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	r.Types = raw.Types
	r.buildIndex()
	return nil
}

// Lookup returns the type registered under id.
func (r *PortableRegistry) Lookup(id uint32) (*Type, bool) {
	if r == nil {
		return nil, false
	}
	if r.index != nil {
		i, ok := r.index[id]
		if !ok {
			return nil, false
		}
		return &r.Types[i].Type, true
	}
	// Registries built by hand without NewPortableRegistry.
	if int(id) < len(r.Types) && r.Types[id].ID == id {
		return &r.Types[id].Type, true
	}
	for i := range r.Types {
		if r.Types[i].ID == id {
			return &r.Types[i].Type, true
		}
	}
	return nil, false
}

// Len returns the number of registered types.
func (r *PortableRegistry) Len() int {
	return len(r.Types)
}

// Type is a registry type definition.
type Type struct {
	Path   []string        `json:"path,omitempty"`
	Params []TypeParameter `json:"params,omitempty"`
	Def    TypeDef         `json:"def"`
	Docs   []string        `json:"docs,omitempty"`
}

// Name returns the last path segment, or "" for anonymous types.
func (t *Type) Name() string {
	if len(t.Path) == 0 {
		return ""
	}
	return t.Path[len(t.Path)-1]
}

// TypeParameter is a generic parameter. Type is nil when the parameter was
// not instantiated with a concrete type.
type TypeParameter struct {
	Name string  `json:"name"`
	Type *uint32 `json:"type"`
}

// DefKind identifies the shape of a type definition.
type DefKind int

const (
	DefUnknown DefKind = iota
	DefComposite
	DefVariant
	DefSequence
	DefArray
	DefTuple
	DefPrimitive
	DefCompact
	DefBitSequence
)

func (k DefKind) String() string {
	return []string{
		"unknown", "composite", "variant", "sequence", "array",
		"tuple", "primitive", "compact", "bitSequence",
	}[k]
}

// TypeDef is a closed union; exactly one field is set.
type TypeDef struct {
	Composite   *TypeDefComposite   `json:"composite,omitempty"`
	Variant     *TypeDefVariant     `json:"variant,omitempty"`
	Sequence    *TypeDefSequence    `json:"sequence,omitempty"`
	Array       *TypeDefArray       `json:"array,omitempty"`
	Tuple       *TypeDefTuple       `json:"tuple,omitempty"`
	Primitive   *Primitive          `json:"primitive,omitempty"`
	Compact     *TypeDefCompact     `json:"compact,omitempty"`
	BitSequence *TypeDefBitSequence `json:"bitSequence,omitempty"`
}

// Kind reports which member of the union is set.
func (d TypeDef) Kind() DefKind {
	switch {
	case d.Composite != nil:
		return DefComposite
	case d.Variant != nil:
		return DefVariant
	case d.Sequence != nil:
		return DefSequence
	case d.Array != nil:
		return DefArray
	case d.Tuple != nil:
		return DefTuple
	case d.Primitive != nil:
		return DefPrimitive
	case d.Compact != nil:
		return DefCompact
	case d.BitSequence != nil:
		return DefBitSequence
	}
	return DefUnknown
}

// Field is a named or positional member of a composite or variant.
type Field struct {
	Name     string   `json:"name,omitempty"`
	Type     uint32   `json:"type"`
	TypeName string   `json:"typeName,omitempty"`
	Docs     []string `json:"docs,omitempty"`
}

type TypeDefComposite struct {
	Fields []Field `json:"fields"`
}

type TypeDefVariant struct {
	Variants []Variant `json:"variants"`
}

// Variant is one arm of an enum. Index is the declared discriminant and may
// differ from the position in Variants.
type Variant struct {
	Name   string   `json:"name"`
	Fields []Field  `json:"fields"`
	Index  uint8    `json:"index"`
	Docs   []string `json:"docs,omitempty"`
}

type TypeDefSequence struct {
	Type uint32 `json:"type"`
}

type TypeDefArray struct {
	Len  uint32 `json:"len"`
	Type uint32 `json:"type"`
}

type TypeDefTuple []uint32

type TypeDefCompact struct {
	Type uint32 `json:"type"`
}

type TypeDefBitSequence struct {
	BitStoreType uint32 `json:"bitStoreType"`
	BitOrderType uint32 `json:"bitOrderType"`
}

// Primitive is the keyword of a primitive type ("u32", "bool", ...).
type Primitive string

const (
	PrimitiveBool Primitive = "bool"
	PrimitiveChar Primitive = "char"
	PrimitiveStr  Primitive = "str"
	PrimitiveU8   Primitive = "u8"
	PrimitiveU16  Primitive = "u16"
	PrimitiveU32  Primitive = "u32"
	PrimitiveU64  Primitive = "u64"
	PrimitiveU128 Primitive = "u128"
	PrimitiveU256 Primitive = "u256"
	PrimitiveI8   Primitive = "i8"
	PrimitiveI16  Primitive = "i16"
	PrimitiveI32  Primitive = "i32"
	PrimitiveI64  Primitive = "i64"
	PrimitiveI128 Primitive = "i128"
	PrimitiveI256 Primitive = "i256"
)

var primitiveOrder = []Primitive{
	PrimitiveBool, PrimitiveChar, PrimitiveStr,
	PrimitiveU8, PrimitiveU16, PrimitiveU32, PrimitiveU64, PrimitiveU128, PrimitiveU256,
	PrimitiveI8, PrimitiveI16, PrimitiveI32, PrimitiveI64, PrimitiveI128, PrimitiveI256,
}

// Discriminant returns a stable number for the primitive kind, or -1 if unknown.
func (p Primitive) Discriminant() int {
	for i, known := range primitiveOrder {
		if known == p {
			return i
		}
	}
	return -1
}
