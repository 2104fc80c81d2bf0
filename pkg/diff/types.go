package diff

import (
	"github.com/platinummonkey/palletdiff/pkg/metadata"
	"github.com/platinummonkey/palletdiff/pkg/reduced"
)

// Kind classifies a change
type Kind string

const (
	Added    Kind = "added"
	Removed  Kind = "removed"
	Modified Kind = "modified"
	Changed  Kind = "changed"
)

// Change is a divergence of a single value.
type Change[T any] struct {
	Kind Kind `json:"kind" yaml:"kind"`
	Old  T    `json:"old" yaml:"old"`
	New  T    `json:"new" yaml:"new"`
}

// Modify returns a Modified change from old to new.
func Modify[T any](old, new T) *Change[T] {
	return &Change[T]{Kind: Modified, Old: old, New: new}
}

// MapChange is a divergence of one entry in a keyed collection. Old is set
// for Removed and Changed, New for Added and Changed. Changes explains a
// Changed entry and is empty otherwise.
type MapChange[K comparable, V any, C any] struct {
	Kind    Kind `json:"kind" yaml:"kind"`
	Key     K    `json:"key" yaml:"key"`
	Old     V    `json:"old,omitempty" yaml:"old,omitempty"`
	New     V    `json:"new,omitempty" yaml:"new,omitempty"`
	Changes []C  `json:"changes,omitempty" yaml:"changes,omitempty"`
}

// ArgChangeKind identifies what happened to one positional argument.
type ArgChangeKind string

const (
	ArgAdded   ArgChangeKind = "added"
	ArgRemoved ArgChangeKind = "removed"
	ArgName    ArgChangeKind = "name"
	ArgType    ArgChangeKind = "type"
)

// ArgChange is a divergence of the argument at Position.
type ArgChange struct {
	Kind     ArgChangeKind `json:"kind" yaml:"kind"`
	Position int           `json:"position" yaml:"position"`
	Old      *reduced.Arg  `json:"old,omitempty" yaml:"old,omitempty"`
	New      *reduced.Arg  `json:"new,omitempty" yaml:"new,omitempty"`
}

// EntryChangeKind identifies which field of a call, event or error diverged.
type EntryChangeKind string

const (
	EntryIndex     EntryChangeKind = "index"
	EntryName      EntryChangeKind = "name"
	EntrySignature EntryChangeKind = "signature"
)

// EntryChange explains a changed call, event or error. Errors never carry
// a signature change.
type EntryChange struct {
	Kind  EntryChangeKind `json:"kind" yaml:"kind"`
	Index *Change[uint32] `json:"index,omitempty" yaml:"index,omitempty"`
	Name  *Change[string] `json:"name,omitempty" yaml:"name,omitempty"`
	Args  []ArgChange     `json:"args,omitempty" yaml:"args,omitempty"`
}

// ConstantChangeKind identifies which field of a constant diverged.
type ConstantChangeKind string

const (
	ConstantValue ConstantChangeKind = "value"
	ConstantType  ConstantChangeKind = "type"
)

// ConstantChange explains a changed constant.
type ConstantChange struct {
	Kind  ConstantChangeKind          `json:"kind" yaml:"kind"`
	Value *Change[metadata.Bytes]     `json:"value,omitempty" yaml:"value,omitempty"`
	Type  *Change[reduced.HashedType] `json:"type,omitempty" yaml:"type,omitempty"`
}

// StorageChangeKind identifies which field of a storage entry diverged.
type StorageChangeKind string

const (
	StorageModifier StorageChangeKind = "modifier"
	StorageDefault  StorageChangeKind = "default"
)

// StorageChange explains a changed storage entry.
type StorageChange struct {
	Kind     StorageChangeKind       `json:"kind" yaml:"kind"`
	Modifier *Change[string]         `json:"modifier,omitempty" yaml:"modifier,omitempty"`
	Default  *Change[metadata.Bytes] `json:"default,omitempty" yaml:"default,omitempty"`
}

type (
	CallMapChange     = MapChange[uint32, *reduced.Call, EntryChange]
	EventMapChange    = MapChange[uint32, *reduced.Event, EntryChange]
	ErrorMapChange    = MapChange[uint32, *reduced.Error, EntryChange]
	ConstantMapChange = MapChange[string, *reduced.Constant, ConstantChange]
	StorageMapChange  = MapChange[string, *reduced.StorageEntry, StorageChange]
	ModuleMapChange   = MapChange[uint32, *reduced.Module, ModuleChange]
)

// ModuleChangeKind identifies which part of a module diverged.
type ModuleChangeKind string

const (
	ModuleIndex     ModuleChangeKind = "index"
	ModuleName      ModuleChangeKind = "name"
	ModuleCalls     ModuleChangeKind = "calls"
	ModuleEvents    ModuleChangeKind = "events"
	ModuleErrors    ModuleChangeKind = "errors"
	ModuleConstants ModuleChangeKind = "constants"
	ModuleStorage   ModuleChangeKind = "storage"
)

// ModuleChange explains a changed module. Exactly one payload matching
// Kind is set.
type ModuleChange struct {
	Kind      ModuleChangeKind    `json:"kind" yaml:"kind"`
	Index     *Change[uint32]     `json:"index,omitempty" yaml:"index,omitempty"`
	Name      *Change[string]     `json:"name,omitempty" yaml:"name,omitempty"`
	Calls     []CallMapChange     `json:"calls,omitempty" yaml:"calls,omitempty"`
	Events    []EventMapChange    `json:"events,omitempty" yaml:"events,omitempty"`
	Errors    []ErrorMapChange    `json:"errors,omitempty" yaml:"errors,omitempty"`
	Constants []ConstantMapChange `json:"constants,omitempty" yaml:"constants,omitempty"`
	Storage   []StorageMapChange  `json:"storage,omitempty" yaml:"storage,omitempty"`
}

// RuntimeDiff is the change tree between two runtimes. A nil *RuntimeDiff
// means the runtimes are identical.
type RuntimeDiff struct {
	OldVersion uint32            `json:"old_version" yaml:"old_version"`
	NewVersion uint32            `json:"new_version" yaml:"new_version"`
	Modules    []ModuleMapChange `json:"modules" yaml:"modules"`
}

// Empty reports whether d holds no changes. It is safe on a nil receiver.
func (d *RuntimeDiff) Empty() bool {
	return d == nil || len(d.Modules) == 0
}
