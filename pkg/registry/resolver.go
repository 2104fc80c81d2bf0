package registry

import (
	"fmt"
	"strings"

	"github.com/platinummonkey/palletdiff/pkg/metadata"
)

// Resolver produces human readable type names from a portable registry.
type Resolver struct {
	reg *metadata.PortableRegistry
}

// NewResolver creates a resolver over reg.
func NewResolver(reg *metadata.PortableRegistry) *Resolver {
	return &Resolver{reg: reg}
}

// UnknownName is the synthetic name used for ids that cannot be resolved.
func UnknownName(id uint32) string {
	return fmt.Sprintf("Unknown_%d", id)
}

// TypeName returns the display name of id. When resolution fails the
// fallback is returned if non-empty, otherwise UnknownName(id). It never
// fails.
func (r *Resolver) TypeName(id uint32, fallback string) string {
	if name, ok := r.resolve(id, make(map[uint32]bool)); ok {
		return name
	}
	if fallback != "" {
		return fallback
	}
	return UnknownName(id)
}

// Resolves reports whether id resolves to a name without falling back.
func (r *Resolver) Resolves(id uint32) bool {
	_, ok := r.resolve(id, make(map[uint32]bool))
	return ok
}

func (r *Resolver) resolve(id uint32, visiting map[uint32]bool) (string, bool) {
	t, ok := r.reg.Lookup(id)
	if !ok || visiting[id] {
		return "", false
	}
	visiting[id] = true
	defer delete(visiting, id)

	if name := t.Name(); name != "" {
		if len(t.Params) == 0 {
			return name, true
		}
		params := make([]string, 0, len(t.Params))
		for _, p := range t.Params {
			params = append(params, r.paramName(p, visiting))
		}
		return name + "<" + strings.Join(params, ", ") + ">", true
	}

	def := t.Def
	switch def.Kind() {
	case metadata.DefSequence:
		inner, ok := r.resolve(def.Sequence.Type, visiting)
		if !ok {
			return "", false
		}
		return "Vec<" + inner + ">", true

	case metadata.DefArray:
		inner, ok := r.resolve(def.Array.Type, visiting)
		if !ok {
			return "", false
		}
		return fmt.Sprintf("[%s; %d]", inner, def.Array.Len), true

	case metadata.DefTuple:
		elems := make([]string, 0, len(*def.Tuple))
		for _, elem := range *def.Tuple {
			name, ok := r.resolve(elem, visiting)
			if !ok {
				return "", false
			}
			elems = append(elems, name)
		}
		return "(" + strings.Join(elems, ", ") + ")", true

	case metadata.DefPrimitive:
		return string(*def.Primitive), true

	case metadata.DefCompact:
		inner, ok := r.resolve(def.Compact.Type, visiting)
		if !ok {
			return "", false
		}
		return "Compact<" + inner + ">", true

	case metadata.DefBitSequence:
		store, ok := r.resolve(def.BitSequence.BitStoreType, visiting)
		if !ok {
			return "", false
		}
		order, ok := r.resolve(def.BitSequence.BitOrderType, visiting)
		if !ok {
			return "", false
		}
		return "BitSequence<" + store + ", " + order + ">", true
	}

	// Anonymous composites and variants have no canonical spelling.
	return "", false
}

func (r *Resolver) paramName(p metadata.TypeParameter, visiting map[uint32]bool) string {
	if p.Type == nil {
		return p.Name
	}
	if name, ok := r.resolve(*p.Type, visiting); ok {
		return name
	}
	return p.Name
}
