package reduced

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/platinummonkey/palletdiff/pkg/metadata"
	"github.com/platinummonkey/palletdiff/pkg/observability"
	"github.com/platinummonkey/palletdiff/pkg/registry"
)

// ErrNilMetadata is returned when Reduce is handed nothing.
var ErrNilMetadata = errors.New("nil metadata")

type options struct {
	logger   *observability.Logger
	volatile []string
}

// Option configures a reduction.
type Option func(*options)

// WithLogger sets the logger used for unresolved type diagnostics.
func WithLogger(logger *observability.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithVolatileTypes overrides the aggregate type names hashed by name only.
// An empty, non-nil list disables the special case.
func WithVolatileTypes(names []string) Option {
	return func(o *options) {
		o.volatile = names
	}
}

// Reduce normalizes decoded metadata into a Runtime. Versions older than
// metadata.OldestSupportedVersion fail with metadata.ErrUnsupportedVersion.
// Missing type ids are not fatal: they are recorded in Runtime.Warnings.
func Reduce(md *metadata.Metadata, opts ...Option) (*Runtime, error) {
	if md == nil {
		return nil, ErrNilMetadata
	}
	o := options{logger: observability.NopLogger()}
	for _, opt := range opts {
		opt(&o)
	}

	if md.Version < metadata.OldestSupportedVersion || md.Version > metadata.LatestSupportedVersion {
		return nil, fmt.Errorf("%w: V%d", metadata.ErrUnsupportedVersion, md.Version)
	}

	logger := o.logger.WithField("metadata_version", md.Version)
	switch md.Family() {
	case metadata.FamilyRegistry:
		body := md.Registry()
		if body == nil {
			return nil, fmt.Errorf("%w: V%d body missing", metadata.ErrMalformed, md.Version)
		}
		r := &registryReducer{
			body:     body,
			resolver: registry.NewResolver(&body.Types),
			hasher:   registry.NewHasher(&body.Types, o.volatile),
			logger:   logger,
		}
		return r.reduce(md.Version)
	default:
		body := md.Legacy()
		if body == nil {
			return nil, fmt.Errorf("%w: V%d body missing", metadata.ErrMalformed, md.Version)
		}
		r := &legacyReducer{body: body, logger: logger}
		return r.reduce(md.Version)
	}
}

// registryReducer reduces V14 and V15 bodies.
type registryReducer struct {
	body     *metadata.RegistryMetadata
	resolver *registry.Resolver
	hasher   *registry.Hasher
	logger   *observability.Logger
	warnings []string
}

func (r *registryReducer) reduce(version uint32) (*Runtime, error) {
	rt := &Runtime{
		MetadataVersion: version,
		Modules:         make(map[uint32]*Module, len(r.body.Pallets)),
		Envelope: CallEnvelope{
			Version:          r.body.Extrinsic.Version,
			SignedExtensions: make([]string, 0, len(r.body.Extrinsic.SignedExtensions)),
		},
	}
	for _, ext := range r.body.Extrinsic.SignedExtensions {
		rt.Envelope.SignedExtensions = append(rt.Envelope.SignedExtensions, ext.Identifier)
	}

	for i := range r.body.Pallets {
		p := &r.body.Pallets[i]
		if prev, ok := rt.Modules[uint32(p.Index)]; ok {
			return nil, fmt.Errorf("%w: modules %s and %s share index %d",
				metadata.ErrMalformed, prev.Name, p.Name, p.Index)
		}
		rt.Modules[uint32(p.Index)] = r.module(p)
	}

	rt.Warnings = r.warnings
	return rt, nil
}

func (r *registryReducer) module(p *metadata.Pallet) *Module {
	mod := NewModule(uint32(p.Index), p.Name)
	mod.Docs = p.Docs

	if p.Calls != nil {
		for _, v := range r.variants(p.Name, "calls", p.Calls.Ty) {
			mod.Calls[uint32(v.Index)] = &Call{
				Index:     uint32(v.Index),
				Name:      v.Name,
				Signature: r.signature(p.Name+"."+v.Name, v.Fields),
				Docs:      v.Docs,
			}
		}
	}
	if p.Event != nil {
		for _, v := range r.variants(p.Name, "events", p.Event.Ty) {
			mod.Events[uint32(v.Index)] = &Event{
				Index:     uint32(v.Index),
				Name:      v.Name,
				Signature: r.signature(p.Name+"."+v.Name, v.Fields),
				Docs:      v.Docs,
			}
		}
	}
	if p.Error != nil {
		for _, v := range r.variants(p.Name, "errors", p.Error.Ty) {
			mod.Errors[uint32(v.Index)] = &Error{
				Index: uint32(v.Index),
				Name:  v.Name,
				Docs:  v.Docs,
			}
		}
	}

	for _, c := range p.Constants {
		mod.Constants[c.Name] = &Constant{
			Name:  c.Name,
			Value: c.Value,
			Type:  r.hashed(p.Name+"."+c.Name, c.Ty, ""),
			Docs:  c.Docs,
		}
	}

	if p.Storage != nil {
		for _, e := range p.Storage.Entries {
			mod.Storage[e.Name] = &StorageEntry{
				Name:     e.Name,
				Modifier: e.Modifier,
				Default:  e.Default,
				TypeName: r.storageTypeName(e.Ty),
				Docs:     e.Docs,
			}
		}
	}

	return mod
}

// variants returns the variants of the enum at id. A missing id or a
// non-variant definition yields nothing and a warning.
func (r *registryReducer) variants(module, family string, id uint32) []metadata.Variant {
	t, ok := r.body.Types.Lookup(id)
	if !ok {
		r.warn(module, fmt.Sprintf("%s enum type %d missing from registry", family, id))
		return nil
	}
	if t.Def.Kind() != metadata.DefVariant {
		r.warn(module, fmt.Sprintf("%s type %d is a %s, not a variant", family, id, t.Def.Kind()))
		return nil
	}
	return t.Def.Variant.Variants
}

func (r *registryReducer) signature(location string, fields []metadata.Field) Signature {
	sig := Signature{Args: make([]Arg, 0, len(fields))}
	for _, f := range fields {
		sig.Args = append(sig.Args, Arg{
			Name: f.Name,
			Type: r.hashed(location, f.Type, f.TypeName),
		})
	}
	return sig
}

func (r *registryReducer) hashed(location string, id uint32, hint string) HashedType {
	res := r.hasher.HashDetailed(id)
	for _, missing := range res.Missing {
		r.warn(location, fmt.Sprintf("type %d missing from registry", missing))
	}
	return HashedType{
		Name: r.resolver.TypeName(id, hint),
		Hash: res.Digest,
	}
}

func (r *registryReducer) storageTypeName(ty metadata.StorageEntryType) string {
	if ty.Map != nil {
		return fmt.Sprintf("Map<%s, %s>",
			r.resolver.TypeName(ty.Map.Key, ""),
			r.resolver.TypeName(ty.Map.Value, ""))
	}
	if ty.Plain != nil {
		return r.resolver.TypeName(*ty.Plain, "")
	}
	return ""
}

func (r *registryReducer) warn(location, msg string) {
	r.warnings = append(r.warnings, location+": "+msg)
	r.logger.WithField("location", location).Warn(msg)
}

// legacyReducer reduces V12 and V13 bodies. Items are indexed by position
// and types are strings, so digests come from the items' own serialization.
type legacyReducer struct {
	body   *metadata.LegacyMetadata
	logger *observability.Logger
}

func (r *legacyReducer) reduce(version uint32) (*Runtime, error) {
	rt := &Runtime{
		MetadataVersion: version,
		Modules:         make(map[uint32]*Module, len(r.body.Modules)),
		Envelope: CallEnvelope{
			Version:          r.body.Extrinsic.Version,
			SignedExtensions: append([]string{}, r.body.Extrinsic.SignedExtensions...),
		},
	}

	for i := range r.body.Modules {
		m := &r.body.Modules[i]
		if prev, ok := rt.Modules[uint32(m.Index)]; ok {
			return nil, fmt.Errorf("%w: modules %s and %s share index %d",
				metadata.ErrMalformed, prev.Name, m.Name, m.Index)
		}
		mod, err := r.module(m)
		if err != nil {
			return nil, fmt.Errorf("module %s: %w", m.Name, err)
		}
		rt.Modules[uint32(m.Index)] = mod
	}

	r.logger.Debugf("reduced %d legacy modules", len(rt.Modules))
	return rt, nil
}

func (r *legacyReducer) module(m *metadata.LegacyModule) (*Module, error) {
	mod := NewModule(uint32(m.Index), m.Name)

	for i, c := range m.Calls {
		sig := Signature{Args: make([]Arg, 0, len(c.Arguments))}
		for _, a := range c.Arguments {
			h, err := purgedDigest(a)
			if err != nil {
				return nil, err
			}
			sig.Args = append(sig.Args, Arg{Name: a.Name, Type: HashedType{Name: a.Ty, Hash: h}})
		}
		mod.Calls[uint32(i)] = &Call{Index: uint32(i), Name: c.Name, Signature: sig, Docs: c.Documentation}
	}

	for i, e := range m.Event {
		sig := Signature{Args: make([]Arg, 0, len(e.Arguments))}
		for _, ty := range e.Arguments {
			t, err := legacyType(ty)
			if err != nil {
				return nil, err
			}
			sig.Args = append(sig.Args, Arg{Type: t})
		}
		mod.Events[uint32(i)] = &Event{Index: uint32(i), Name: e.Name, Signature: sig, Docs: e.Documentation}
	}

	for i, e := range m.Errors {
		mod.Errors[uint32(i)] = &Error{Index: uint32(i), Name: e.Name, Docs: e.Documentation}
	}

	for _, c := range m.Constants {
		t, err := legacyType(c.Ty)
		if err != nil {
			return nil, err
		}
		mod.Constants[c.Name] = &Constant{Name: c.Name, Value: c.Value, Type: t, Docs: c.Documentation}
	}

	if m.Storage != nil {
		for _, e := range m.Storage.Entries {
			mod.Storage[e.Name] = &StorageEntry{
				Name:     e.Name,
				Modifier: e.Modifier,
				Default:  e.Default,
				TypeName: legacyStorageTypeName(e.Ty),
				Docs:     e.Documentation,
			}
		}
	}

	return mod, nil
}

// legacyType hashes a bare type string the same way a named argument of
// that type is hashed, so event, constant and call argument digests agree.
func legacyType(ty string) (HashedType, error) {
	h, err := purgedDigest(metadata.LegacyArgument{Ty: ty})
	if err != nil {
		return HashedType{}, err
	}
	return HashedType{Name: ty, Hash: h}, nil
}

func legacyStorageTypeName(ty metadata.LegacyStorageType) string {
	switch {
	case ty.Plain != nil:
		return *ty.Plain
	case ty.Map != nil:
		return fmt.Sprintf("Map<%s, %s>", ty.Map.Key, ty.Map.Value)
	case ty.DoubleMap != nil:
		return fmt.Sprintf("DoubleMap<%s, %s, %s>", ty.DoubleMap.Key1, ty.DoubleMap.Key2, ty.DoubleMap.Value)
	case ty.NMap != nil:
		return fmt.Sprintf("NMap<(%s), %s>", strings.Join(ty.NMap.Keys, ", "), ty.NMap.Value)
	}
	return ""
}

// purgedKeys never contribute to a legacy digest.
var purgedKeys = []string{"name", "documentation"}

// purgedDigest hashes the canonical JSON form of v with purgedKeys removed
// at every depth. encoding/json sorts map keys, which makes the form stable.
func purgedDigest(v any) (registry.Digest, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return registry.Digest{}, err
	}
	var tree any
	if err := json.Unmarshal(raw, &tree); err != nil {
		return registry.Digest{}, err
	}
	canonical, err := json.Marshal(purge(tree))
	if err != nil {
		return registry.Digest{}, err
	}
	return registry.Sum(canonical), nil
}

func purge(node any) any {
	switch n := node.(type) {
	case map[string]any:
		for _, k := range purgedKeys {
			delete(n, k)
		}
		for k, v := range n {
			n[k] = purge(v)
		}
		return n
	case []any:
		for i, v := range n {
			n[i] = purge(v)
		}
		return n
	}
	return node
}
