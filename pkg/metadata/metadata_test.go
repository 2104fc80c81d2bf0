package metadata

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const v14Doc = `[1635018093, {"V14": {
	"types": {"types": [
		{"id": 0, "type": {"def": {"primitive": "u32"}}},
		{"id": 1, "type": {"path": ["pallet_system", "pallet", "Call"], "def": {"variant": {"variants": [
			{"name": "remark", "fields": [{"name": "remark", "type": 2, "typeName": "Vec<u8>"}], "index": 0}
		]}}}},
		{"id": 2, "type": {"def": {"sequence": {"type": 3}}}},
		{"id": 3, "type": {"def": {"primitive": "u8"}}},
		{"id": 4, "type": {"def": {"tuple": []}}}
	]},
	"pallets": [{
		"name": "System",
		"storage": {"prefix": "System", "entries": [
			{"name": "Number", "modifier": "Default", "ty": {"Plain": 0}, "default": "0x00000000", "docs": ["Block number"]}
		]},
		"calls": {"ty": 1},
		"event": null,
		"constants": [{"name": "SS58Prefix", "ty": 0, "value": [42, 0, 0, 0], "docs": []}],
		"error": null,
		"index": 0
	}],
	"extrinsic": {"ty": 4, "version": 4, "signed_extensions": [
		{"identifier": "CheckSpecVersion", "ty": 4, "additional_signed": 0}
	]},
	"ty": 4
}}]`

const v13Doc = `{"magicNumber": 1635018093, "metadata": {"v13": {
	"modules": [{
		"name": "System",
		"storage": {"prefix": "System", "entries": [
			{"name": "Account", "modifier": "Default",
			 "ty": {"NMap": {"keys": ["T::AccountId"], "hashers": ["Blake2_128Concat"], "value": "AccountInfo"}},
			 "default": [0, 0], "documentation": []}
		]},
		"calls": [{"name": "remark", "arguments": [{"name": "_remark", "ty": "Vec<u8>"}], "documentation": []}],
		"event": [{"name": "ExtrinsicSuccess", "arguments": ["DispatchInfo"], "documentation": []}],
		"constants": [],
		"errors": [{"name": "InvalidSpecName", "documentation": []}],
		"index": 0
	}],
	"extrinsic": {"version": 4, "signed_extensions": ["CheckSpecVersion"]}
}}}`

func TestDecode_V14(t *testing.T) {
	md, err := Decode([]byte(v14Doc))
	require.NoError(t, err)

	assert.Equal(t, uint32(14), md.Version)
	assert.Equal(t, FamilyRegistry, md.Family())
	require.NotNil(t, md.Registry())
	assert.Nil(t, md.Legacy())

	reg := md.Registry()
	require.Len(t, reg.Pallets, 1)
	assert.Equal(t, "System", reg.Pallets[0].Name)
	require.NotNil(t, reg.Pallets[0].Calls)
	assert.Equal(t, uint32(1), reg.Pallets[0].Calls.Ty)
	assert.Nil(t, reg.Pallets[0].Event)
	assert.Equal(t, Bytes{42, 0, 0, 0}, reg.Pallets[0].Constants[0].Value)
	assert.Equal(t, Bytes{0, 0, 0, 0}, reg.Pallets[0].Storage.Entries[0].Default)

	call, ok := reg.Types.Lookup(1)
	require.True(t, ok)
	assert.Equal(t, DefVariant, call.Def.Kind())
	assert.Equal(t, "Call", call.Name())

	unit, ok := reg.Types.Lookup(4)
	require.True(t, ok)
	assert.Equal(t, DefTuple, unit.Def.Kind())

	_, ok = reg.Types.Lookup(99)
	assert.False(t, ok)
}

func TestDecode_V13ObjectEnvelope(t *testing.T) {
	md, err := Decode([]byte(v13Doc))
	require.NoError(t, err)

	assert.Equal(t, uint32(13), md.Version)
	assert.Equal(t, FamilyLegacy, md.Family())
	legacy := md.Legacy()
	require.NotNil(t, legacy)
	require.Len(t, legacy.Modules, 1)
	assert.Equal(t, "remark", legacy.Modules[0].Calls[0].Name)
	assert.Equal(t, []string{"DispatchInfo"}, legacy.Modules[0].Event[0].Arguments)
	assert.NotNil(t, legacy.Modules[0].Storage.Entries[0].Ty.NMap)
	assert.Equal(t, []string{"CheckSpecVersion"}, legacy.Extrinsic.SignedExtensions)
}

func TestDecode_V12RejectsNMap(t *testing.T) {
	doc := []byte(`[1635018093, {"V12": {"modules": [{"name": "System", "index": 0, "storage": {"prefix": "System", "entries": [
		{"name": "Account", "modifier": "Default", "ty": {"NMap": {"keys": [], "hashers": [], "value": "u32"}}, "default": []}
	]}}], "extrinsic": {"version": 4, "signed_extensions": []}}}]`)

	_, err := Decode(doc)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformed))
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr error
	}{
		{name: "empty", doc: "", wantErr: ErrMalformed},
		{name: "not json container", doc: `"meta"`, wantErr: ErrMalformed},
		{name: "bad magic", doc: `[1, {"V14": {}}]`, wantErr: ErrInvalidMagic},
		{name: "too old", doc: `[1635018093, {"V11": {}}]`, wantErr: ErrUnsupportedVersion},
		{name: "ancient", doc: `[1635018093, {"V0": {}}]`, wantErr: ErrUnsupportedVersion},
		{name: "too new", doc: `[1635018093, {"V16": {}}]`, wantErr: ErrUnsupportedVersion},
		{name: "two variants", doc: `[1635018093, {"V13": {}, "V14": {}}]`, wantErr: ErrMalformed},
		{name: "bad variant key", doc: `[1635018093, {"Latest": {}}]`, wantErr: ErrMalformed},
		{name: "wrong arity", doc: `[1635018093]`, wantErr: ErrMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.doc))
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestMetadata_MarshalJSONRoundTrip(t *testing.T) {
	md, err := Decode([]byte(v14Doc))
	require.NoError(t, err)

	data, err := json.Marshal(md)
	require.NoError(t, err)

	again, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, md.Version, again.Version)
	assert.Equal(t, md.ModuleNames(), again.ModuleNames())

	ty, ok := again.Registry().Types.Lookup(2)
	require.True(t, ok)
	assert.Equal(t, DefSequence, ty.Def.Kind())
}

func TestPortableRegistry_LookupWithoutIndex(t *testing.T) {
	reg := PortableRegistry{Types: []PortableType{
		{ID: 0, Type: Type{Def: TypeDef{Primitive: ptr(PrimitiveU8)}}},
		{ID: 7, Type: Type{Def: TypeDef{Primitive: ptr(PrimitiveBool)}}},
	}}

	ty, ok := reg.Lookup(7)
	require.True(t, ok)
	assert.Equal(t, PrimitiveBool, *ty.Def.Primitive)

	_, ok = reg.Lookup(1)
	assert.False(t, ok)
}

func TestPrimitive_Discriminant(t *testing.T) {
	assert.Equal(t, 0, PrimitiveBool.Discriminant())
	assert.NotEqual(t, PrimitiveU8.Discriminant(), PrimitiveI8.Discriminant())
	assert.Equal(t, -1, Primitive("f64").Discriminant())
}

func ptr[T any](v T) *T {
	return &v
}
