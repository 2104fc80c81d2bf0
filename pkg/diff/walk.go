package diff

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/platinummonkey/palletdiff/pkg/reduced"
)

// Item names the kind of runtime item a leaf change belongs to.
type Item string

const (
	ItemModule   Item = "MODULE"
	ItemCall     Item = "CALL"
	ItemEvent    Item = "EVENT"
	ItemError    Item = "ERROR"
	ItemConstant Item = "CONSTANT"
	ItemStorage  Item = "STORAGE"
)

// LeafKind names an atomic divergence.
type LeafKind string

const (
	LeafAdded           LeafKind = "ADDED"
	LeafRemoved         LeafKind = "REMOVED"
	LeafIndexChanged    LeafKind = "INDEX_CHANGED"
	LeafNameChanged     LeafKind = "NAME_CHANGED"
	LeafArgAdded        LeafKind = "ARG_ADDED"
	LeafArgRemoved      LeafKind = "ARG_REMOVED"
	LeafArgRenamed      LeafKind = "ARG_RENAMED"
	LeafArgTypeChanged  LeafKind = "ARG_TYPE_CHANGED"
	LeafValueChanged    LeafKind = "VALUE_CHANGED"
	LeafTypeChanged     LeafKind = "TYPE_CHANGED"
	LeafDefaultChanged  LeafKind = "DEFAULT_CHANGED"
	LeafModifierChanged LeafKind = "MODIFIER_CHANGED"
)

// Leaf is one atomic divergence of a change tree, flattened with the path
// to where it happened, e.g. "System.calls[3].args[0]".
type Leaf struct {
	Item   Item
	Kind   LeafKind
	Module string
	Path   string
	Old    string
	New    string
}

// Rule returns the rule name of the leaf, e.g. "CALL_INDEX_CHANGED".
func (l Leaf) Rule() string {
	return string(l.Item) + "_" + string(l.Kind)
}

// Walk calls fn for every leaf change in tree order. It is safe on a nil
// receiver.
func (d *RuntimeDiff) Walk(fn func(Leaf)) {
	if d == nil {
		return
	}
	for _, mc := range d.Modules {
		walkModule(mc, fn)
	}
}

// Leaves collects every leaf change in tree order.
func (d *RuntimeDiff) Leaves() []Leaf {
	var out []Leaf
	d.Walk(func(l Leaf) { out = append(out, l) })
	return out
}

// ModuleLabel returns the name a module change is reported under.
func ModuleLabel(mc ModuleMapChange) string {
	if mc.Old != nil {
		return mc.Old.Name
	}
	if mc.New != nil {
		return mc.New.Name
	}
	return "#" + strconv.FormatUint(uint64(mc.Key), 10)
}

func walkModule(mc ModuleMapChange, fn func(Leaf)) {
	name := ModuleLabel(mc)
	leaf := func(item Item, kind LeafKind, path, old, new string) {
		fn(Leaf{Item: item, Kind: kind, Module: name, Path: path, Old: old, New: new})
	}

	switch mc.Kind {
	case Added:
		leaf(ItemModule, LeafAdded, name, "", fmt.Sprintf("%s (index %d)", mc.New.Name, mc.New.Index))
		return
	case Removed:
		leaf(ItemModule, LeafRemoved, name, fmt.Sprintf("%s (index %d)", mc.Old.Name, mc.Old.Index), "")
		return
	}

	for _, c := range mc.Changes {
		switch c.Kind {
		case ModuleIndex:
			leaf(ItemModule, LeafIndexChanged, name, uitoa(c.Index.Old), uitoa(c.Index.New))
		case ModuleName:
			leaf(ItemModule, LeafNameChanged, name, c.Name.Old, c.Name.New)
		case ModuleCalls:
			for _, e := range c.Calls {
				walkEntry(ItemCall, name+".calls", e.Kind, e.Key, callDesc(e.Old), callDesc(e.New), e.Changes, leaf)
			}
		case ModuleEvents:
			for _, e := range c.Events {
				walkEntry(ItemEvent, name+".events", e.Kind, e.Key, eventDesc(e.Old), eventDesc(e.New), e.Changes, leaf)
			}
		case ModuleErrors:
			for _, e := range c.Errors {
				walkEntry(ItemError, name+".errors", e.Kind, e.Key, errorDesc(e.Old), errorDesc(e.New), e.Changes, leaf)
			}
		case ModuleConstants:
			for _, e := range c.Constants {
				path := name + ".constants." + e.Key
				switch e.Kind {
				case Added:
					leaf(ItemConstant, LeafAdded, path, "", e.New.Name+": "+e.New.Type.Name)
				case Removed:
					leaf(ItemConstant, LeafRemoved, path, e.Old.Name+": "+e.Old.Type.Name, "")
				default:
					for _, cc := range e.Changes {
						switch cc.Kind {
						case ConstantValue:
							leaf(ItemConstant, LeafValueChanged, path, cc.Value.Old.String(), cc.Value.New.String())
						case ConstantType:
							o, n := TypePair(cc.Type.Old, cc.Type.New)
							leaf(ItemConstant, LeafTypeChanged, path, o, n)
						}
					}
				}
			}
		case ModuleStorage:
			for _, e := range c.Storage {
				path := name + ".storage." + e.Key
				switch e.Kind {
				case Added:
					leaf(ItemStorage, LeafAdded, path, "", storageDesc(e.New))
				case Removed:
					leaf(ItemStorage, LeafRemoved, path, storageDesc(e.Old), "")
				default:
					for _, sc := range e.Changes {
						switch sc.Kind {
						case StorageModifier:
							leaf(ItemStorage, LeafModifierChanged, path, sc.Modifier.Old, sc.Modifier.New)
						case StorageDefault:
							leaf(ItemStorage, LeafDefaultChanged, path, sc.Default.Old.String(), sc.Default.New.String())
						}
					}
				}
			}
		}
	}
}

func walkEntry(item Item, prefix string, kind Kind, key uint32, oldDesc, newDesc string, changes []EntryChange, leaf func(Item, LeafKind, string, string, string)) {
	path := fmt.Sprintf("%s[%d]", prefix, key)
	switch kind {
	case Added:
		leaf(item, LeafAdded, path, "", newDesc)
		return
	case Removed:
		leaf(item, LeafRemoved, path, oldDesc, "")
		return
	}

	for _, c := range changes {
		switch c.Kind {
		case EntryIndex:
			leaf(item, LeafIndexChanged, path, uitoa(c.Index.Old), uitoa(c.Index.New))
		case EntryName:
			leaf(item, LeafNameChanged, path, c.Name.Old, c.Name.New)
		case EntrySignature:
			for _, a := range c.Args {
				argPath := fmt.Sprintf("%s.args[%d]", path, a.Position)
				switch a.Kind {
				case ArgAdded:
					leaf(item, LeafArgAdded, argPath, "", argDesc(*a.New))
				case ArgRemoved:
					leaf(item, LeafArgRemoved, argPath, argDesc(*a.Old), "")
				case ArgName:
					leaf(item, LeafArgRenamed, argPath, a.Old.Name, a.New.Name)
				case ArgType:
					o, n := TypePair(a.Old.Type, a.New.Type)
					leaf(item, LeafArgTypeChanged, argPath, o, n)
				}
			}
		}
	}
}

// TypePair renders two hashed types for display. When both share a display
// name the short digests are appended so the difference stays visible.
func TypePair(old, new reduced.HashedType) (string, string) {
	if old.Name == new.Name {
		return old.Name + "#" + old.Hash.Short(), new.Name + "#" + new.Hash.Short()
	}
	return old.Name, new.Name
}

// SignatureString renders name(arg: Type, ...).
func SignatureString(name string, sig reduced.Signature) string {
	args := make([]string, 0, len(sig.Args))
	for _, a := range sig.Args {
		args = append(args, argDesc(a))
	}
	return name + "(" + strings.Join(args, ", ") + ")"
}

func argDesc(a reduced.Arg) string {
	if a.Name == "" {
		return a.Type.Name
	}
	return a.Name + ": " + a.Type.Name
}

func callDesc(c *reduced.Call) string {
	if c == nil {
		return ""
	}
	return SignatureString(c.Name, c.Signature)
}

func eventDesc(e *reduced.Event) string {
	if e == nil {
		return ""
	}
	return SignatureString(e.Name, e.Signature)
}

func errorDesc(e *reduced.Error) string {
	if e == nil {
		return ""
	}
	return e.Name
}

func storageDesc(s *reduced.StorageEntry) string {
	if s.TypeName == "" {
		return s.Name + " (" + s.Modifier + ")"
	}
	return s.Name + ": " + s.TypeName + " (" + s.Modifier + ")"
}

func uitoa(v uint32) string {
	return strconv.FormatUint(uint64(v), 10)
}
