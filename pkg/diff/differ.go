package diff

import (
	"cmp"
	"errors"
	"fmt"
	"slices"

	"github.com/platinummonkey/palletdiff/pkg/metadata"
	"github.com/platinummonkey/palletdiff/pkg/reduced"
)

var (
	// ErrVersionMismatch is returned when two runtimes come from schema
	// families that cannot be compared.
	ErrVersionMismatch = errors.New("metadata versions are not comparable")
	// ErrNilRuntime is returned when either side is missing.
	ErrNilRuntime = errors.New("nil runtime")
)

// Diff computes the change tree from before to after. It returns nil and no
// error when the runtimes are identical.
//
// Runtimes must share a schema family and be at most one metadata version
// apart, otherwise ErrVersionMismatch is returned.
func Diff(before, after *reduced.Runtime) (*RuntimeDiff, error) {
	if before == nil || after == nil {
		return nil, ErrNilRuntime
	}
	if err := checkVersions(before.MetadataVersion, after.MetadataVersion); err != nil {
		return nil, err
	}

	modules := diffNamed(before.Modules, after.Modules, func(m *reduced.Module) string { return m.Name }, compareModules)
	if len(modules) == 0 {
		return nil, nil
	}

	return &RuntimeDiff{
		OldVersion: before.MetadataVersion,
		NewVersion: after.MetadataVersion,
		Modules:    modules,
	}, nil
}

func checkVersions(old, new uint32) error {
	oldFamily, newFamily := metadata.FamilyOf(old), metadata.FamilyOf(new)
	if oldFamily != newFamily {
		return fmt.Errorf("%w: V%d (%s) against V%d (%s)", ErrVersionMismatch, old, oldFamily, new, newFamily)
	}
	gap := int64(new) - int64(old)
	if gap > 1 || gap < -1 {
		return fmt.Errorf("%w: V%d against V%d, only adjacent versions are supported", ErrVersionMismatch, old, new)
	}
	return nil
}

// diffMap classifies every key of the union of old and new. Entries that
// compare equal are omitted.
func diffMap[K cmp.Ordered, V any, C any](old, new map[K]V, compare func(a, b V) []C) []MapChange[K, V, C] {
	keys := make(map[K]struct{}, len(old)+len(new))
	for k := range old {
		keys[k] = struct{}{}
	}
	for k := range new {
		keys[k] = struct{}{}
	}

	var out []MapChange[K, V, C]
	for _, k := range reduced.SortedKeys(keys) {
		o, inOld := old[k]
		n, inNew := new[k]
		switch {
		case !inNew:
			out = append(out, MapChange[K, V, C]{Kind: Removed, Key: k, Old: o})
		case !inOld:
			out = append(out, MapChange[K, V, C]{Kind: Added, Key: k, New: n})
		default:
			if changes := compare(o, n); len(changes) > 0 {
				out = append(out, MapChange[K, V, C]{Kind: Changed, Key: k, Old: o, New: n, Changes: changes})
			}
		}
	}
	return out
}

// diffNamed classifies the entries of two index-keyed maps whose values
// carry a name. Entries pair by name first, so an entry that moves to an
// index another entry held before still shows as an index change. Remaining
// entries pair by key; whatever is left is Removed or Added. Changed entries
// are keyed by the old key and compare is expected to report the index move
// first.
func diffNamed[K cmp.Ordered, V any, C any](old, new map[K]V, name func(V) string, compare func(a, b V) []C) []MapChange[K, V, C] {
	newKeys := reduced.SortedKeys(new)
	oldKeys := reduced.SortedKeys(old)

	var out []MapChange[K, V, C]
	pairedOld := make(map[K]bool, len(old))
	pairedNew := make(map[K]bool, len(new))
	pair := func(ko, kn K) {
		pairedOld[ko], pairedNew[kn] = true, true
		if changes := compare(old[ko], new[kn]); len(changes) > 0 {
			out = append(out, MapChange[K, V, C]{Kind: Changed, Key: ko, Old: old[ko], New: new[kn], Changes: changes})
		}
	}

	// Same name at the same key.
	for _, k := range oldKeys {
		if n, ok := new[k]; ok && name(n) == name(old[k]) {
			pair(k, k)
		}
	}

	// Same name at another key, in key order.
	byName := make(map[string][]K)
	for _, k := range newKeys {
		if !pairedNew[k] {
			n := name(new[k])
			byName[n] = append(byName[n], k)
		}
	}
	for _, k := range oldKeys {
		if pairedOld[k] {
			continue
		}
		n := name(old[k])
		if candidates := byName[n]; len(candidates) > 0 {
			byName[n] = candidates[1:]
			pair(k, candidates[0])
		}
	}

	// Different names at the same key.
	for _, k := range oldKeys {
		if pairedOld[k] {
			continue
		}
		if _, ok := new[k]; ok && !pairedNew[k] {
			pair(k, k)
			continue
		}
		out = append(out, MapChange[K, V, C]{Kind: Removed, Key: k, Old: old[k]})
	}
	for _, k := range newKeys {
		if !pairedNew[k] {
			out = append(out, MapChange[K, V, C]{Kind: Added, Key: k, New: new[k]})
		}
	}

	slices.SortStableFunc(out, func(a, b MapChange[K, V, C]) int {
		return cmp.Compare(a.Key, b.Key)
	})
	return out
}

func compareModules(old, new *reduced.Module) []ModuleChange {
	var out []ModuleChange
	if old.Index != new.Index {
		out = append(out, ModuleChange{Kind: ModuleIndex, Index: Modify(old.Index, new.Index)})
	}
	if old.Name != new.Name {
		out = append(out, ModuleChange{Kind: ModuleName, Name: Modify(old.Name, new.Name)})
	}

	calls := diffNamed(old.Calls, new.Calls, func(c *reduced.Call) string { return c.Name }, compareCalls)
	if len(calls) > 0 {
		out = append(out, ModuleChange{Kind: ModuleCalls, Calls: calls})
	}

	events := diffNamed(old.Events, new.Events, func(e *reduced.Event) string { return e.Name }, compareEvents)
	if len(events) > 0 {
		out = append(out, ModuleChange{Kind: ModuleEvents, Events: events})
	}

	errs := diffNamed(old.Errors, new.Errors, func(e *reduced.Error) string { return e.Name }, compareErrors)
	if len(errs) > 0 {
		out = append(out, ModuleChange{Kind: ModuleErrors, Errors: errs})
	}

	if constants := diffMap(old.Constants, new.Constants, compareConstants); len(constants) > 0 {
		out = append(out, ModuleChange{Kind: ModuleConstants, Constants: constants})
	}
	if storage := diffMap(old.Storage, new.Storage, compareStorage); len(storage) > 0 {
		out = append(out, ModuleChange{Kind: ModuleStorage, Storage: storage})
	}
	return out
}

func compareEntry(oldIndex, newIndex uint32, oldName, newName string) []EntryChange {
	var out []EntryChange
	if oldIndex != newIndex {
		out = append(out, EntryChange{Kind: EntryIndex, Index: Modify(oldIndex, newIndex)})
	}
	if oldName != newName {
		out = append(out, EntryChange{Kind: EntryName, Name: Modify(oldName, newName)})
	}
	return out
}

func compareCalls(old, new *reduced.Call) []EntryChange {
	out := compareEntry(old.Index, new.Index, old.Name, new.Name)
	if args := diffArgs(old.Signature.Args, new.Signature.Args); len(args) > 0 {
		out = append(out, EntryChange{Kind: EntrySignature, Args: args})
	}
	return out
}

func compareEvents(old, new *reduced.Event) []EntryChange {
	out := compareEntry(old.Index, new.Index, old.Name, new.Name)
	if args := diffArgs(old.Signature.Args, new.Signature.Args); len(args) > 0 {
		out = append(out, EntryChange{Kind: EntrySignature, Args: args})
	}
	return out
}

func compareErrors(old, new *reduced.Error) []EntryChange {
	return compareEntry(old.Index, new.Index, old.Name, new.Name)
}

// diffArgs compares arguments by position. A position present on both sides
// can yield both a name and a type change.
func diffArgs(old, new []reduced.Arg) []ArgChange {
	var out []ArgChange
	for i := 0; i < max(len(old), len(new)); i++ {
		switch {
		case i >= len(old):
			out = append(out, ArgChange{Kind: ArgAdded, Position: i, New: &new[i]})
		case i >= len(new):
			out = append(out, ArgChange{Kind: ArgRemoved, Position: i, Old: &old[i]})
		default:
			o, n := &old[i], &new[i]
			if o.Name != n.Name {
				out = append(out, ArgChange{Kind: ArgName, Position: i, Old: o, New: n})
			}
			if !o.Type.Equal(n.Type) {
				out = append(out, ArgChange{Kind: ArgType, Position: i, Old: o, New: n})
			}
		}
	}
	return out
}

func compareConstants(old, new *reduced.Constant) []ConstantChange {
	var out []ConstantChange
	if !old.Value.Equal(new.Value) {
		out = append(out, ConstantChange{Kind: ConstantValue, Value: Modify(old.Value, new.Value)})
	}
	if !old.Type.Equal(new.Type) {
		out = append(out, ConstantChange{Kind: ConstantType, Type: Modify(old.Type, new.Type)})
	}
	return out
}

func compareStorage(old, new *reduced.StorageEntry) []StorageChange {
	var out []StorageChange
	if old.Modifier != new.Modifier {
		out = append(out, StorageChange{Kind: StorageModifier, Modifier: Modify(old.Modifier, new.Modifier)})
	}
	if !old.Default.Equal(new.Default) {
		out = append(out, StorageChange{Kind: StorageDefault, Default: Modify(old.Default, new.Default)})
	}
	return out
}
