package reduced

import (
	"cmp"
	"maps"
	"slices"

	"github.com/platinummonkey/palletdiff/pkg/metadata"
	"github.com/platinummonkey/palletdiff/pkg/registry"
)

// HashedType is a display name paired with a structural digest. Two hashed
// types are equal when their digests match, whatever they are called.
type HashedType struct {
	Name string          `json:"name" yaml:"name"`
	Hash registry.Digest `json:"hash" yaml:"hash"`
}

// Equal compares by structural digest only.
func (t HashedType) Equal(other HashedType) bool {
	return t.Hash == other.Hash
}

func (t HashedType) String() string {
	return t.Name
}

// Arg is one positional argument of a call or event.
type Arg struct {
	Name string     `json:"name" yaml:"name"`
	Type HashedType `json:"type" yaml:"type"`
}

// Signature is the ordered argument list of a call or event.
type Signature struct {
	Args []Arg `json:"args" yaml:"args"`
}

// Equal reports whether both signatures have the same argument names and
// argument shapes in the same order.
func (s Signature) Equal(other Signature) bool {
	return slices.EqualFunc(s.Args, other.Args, func(a, b Arg) bool {
		return a.Name == b.Name && a.Type.Equal(b.Type)
	})
}

// Call is a dispatchable entry point, keyed by its declared index.
type Call struct {
	Index     uint32    `json:"index" yaml:"index"`
	Name      string    `json:"name" yaml:"name"`
	Signature Signature `json:"signature" yaml:"signature"`
	Docs      []string  `json:"docs,omitempty" yaml:"docs,omitempty"`
}

// Equal ignores documentation.
func (c *Call) Equal(other *Call) bool {
	return c.Index == other.Index && c.Name == other.Name && c.Signature.Equal(other.Signature)
}

// Event is an emitted event, keyed by its declared index.
type Event struct {
	Index     uint32    `json:"index" yaml:"index"`
	Name      string    `json:"name" yaml:"name"`
	Signature Signature `json:"signature" yaml:"signature"`
	Docs      []string  `json:"docs,omitempty" yaml:"docs,omitempty"`
}

// Equal ignores documentation.
func (e *Event) Equal(other *Event) bool {
	return e.Index == other.Index && e.Name == other.Name && e.Signature.Equal(other.Signature)
}

// Error is a module error code, keyed by its declared index.
type Error struct {
	Index uint32   `json:"index" yaml:"index"`
	Name  string   `json:"name" yaml:"name"`
	Docs  []string `json:"docs,omitempty" yaml:"docs,omitempty"`
}

// Equal ignores documentation.
func (e *Error) Equal(other *Error) bool {
	return e.Index == other.Index && e.Name == other.Name
}

// Constant is a module constant, keyed by name.
type Constant struct {
	Name  string         `json:"name" yaml:"name"`
	Value metadata.Bytes `json:"value" yaml:"value"`
	Type  HashedType     `json:"type" yaml:"type"`
	Docs  []string       `json:"docs,omitempty" yaml:"docs,omitempty"`
}

// Equal ignores documentation.
func (c *Constant) Equal(other *Constant) bool {
	return c.Name == other.Name && c.Value.Equal(other.Value) && c.Type.Equal(other.Type)
}

// StorageEntry is a module storage item, keyed by name. TypeName is for
// display and never compared: registry id churn would make it noisy.
type StorageEntry struct {
	Name     string         `json:"name" yaml:"name"`
	Modifier string         `json:"modifier" yaml:"modifier"`
	Default  metadata.Bytes `json:"default" yaml:"default"`
	TypeName string         `json:"type_name,omitempty" yaml:"type_name,omitempty"`
	Docs     []string       `json:"docs,omitempty" yaml:"docs,omitempty"`
}

// Equal compares name, modifier and default value.
func (s *StorageEntry) Equal(other *StorageEntry) bool {
	return s.Name == other.Name && s.Modifier == other.Modifier && s.Default.Equal(other.Default)
}

// Module is one runtime module with its items keyed the way the runtime
// dispatches or looks them up.
type Module struct {
	Index     uint32                   `json:"index" yaml:"index"`
	Name      string                   `json:"name" yaml:"name"`
	Calls     map[uint32]*Call         `json:"calls" yaml:"calls"`
	Events    map[uint32]*Event        `json:"events" yaml:"events"`
	Errors    map[uint32]*Error        `json:"errors" yaml:"errors"`
	Constants map[string]*Constant     `json:"constants" yaml:"constants"`
	Storage   map[string]*StorageEntry `json:"storage" yaml:"storage"`
	Docs      []string                 `json:"docs,omitempty" yaml:"docs,omitempty"`
}

// NewModule returns a module with all item maps allocated.
func NewModule(index uint32, name string) *Module {
	return &Module{
		Index:     index,
		Name:      name,
		Calls:     make(map[uint32]*Call),
		Events:    make(map[uint32]*Event),
		Errors:    make(map[uint32]*Error),
		Constants: make(map[string]*Constant),
		Storage:   make(map[string]*StorageEntry),
	}
}

// Equal ignores documentation.
func (m *Module) Equal(other *Module) bool {
	return m.Index == other.Index &&
		m.Name == other.Name &&
		mapsEqual(m.Calls, other.Calls, (*Call).Equal) &&
		mapsEqual(m.Events, other.Events, (*Event).Equal) &&
		mapsEqual(m.Errors, other.Errors, (*Error).Equal) &&
		mapsEqual(m.Constants, other.Constants, (*Constant).Equal) &&
		mapsEqual(m.Storage, other.Storage, (*StorageEntry).Equal)
}

// ItemCount returns the number of calls, events, errors, constants and
// storage entries in the module.
func (m *Module) ItemCount() int {
	return len(m.Calls) + len(m.Events) + len(m.Errors) + len(m.Constants) + len(m.Storage)
}

// CallEnvelope describes how extrinsics are wrapped. It is carried for
// reporting and is not compared.
type CallEnvelope struct {
	Version          uint8    `json:"version" yaml:"version"`
	SignedExtensions []string `json:"signed_extensions" yaml:"signed_extensions"`
}

// Runtime is the version independent model of one runtime's metadata.
type Runtime struct {
	MetadataVersion uint32             `json:"metadata_version" yaml:"metadata_version"`
	Modules         map[uint32]*Module `json:"modules" yaml:"modules"`
	Envelope        CallEnvelope       `json:"envelope" yaml:"envelope"`
	// Warnings lists recoverable problems met during reduction.
	Warnings []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// Family returns the schema family the runtime was reduced from.
func (r *Runtime) Family() metadata.Family {
	return metadata.FamilyOf(r.MetadataVersion)
}

// Equal reports whether both runtimes have the same modules. Docs,
// warnings, the envelope and the metadata version are not compared.
func (r *Runtime) Equal(other *Runtime) bool {
	if r == nil || other == nil {
		return r == other
	}
	return mapsEqual(r.Modules, other.Modules, (*Module).Equal)
}

// ModuleByName returns the module with the given name.
func (r *Runtime) ModuleByName(name string) (*Module, bool) {
	for _, m := range r.Modules {
		if m.Name == name {
			return m, true
		}
	}
	return nil, false
}

// SortedKeys returns the keys of m in ascending order.
func SortedKeys[K cmp.Ordered, V any](m map[K]V) []K {
	return slices.Sorted(maps.Keys(m))
}

func mapsEqual[K comparable, V any](a, b map[K]V, eq func(V, V) bool) bool {
	if len(a) != len(b) {
		return false
	}
	for k, va := range a {
		vb, ok := b[k]
		if !ok || !eq(va, vb) {
			return false
		}
	}
	return true
}
