package reduced

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/palletdiff/pkg/metadata"
	"github.com/platinummonkey/palletdiff/pkg/observability"
)

// registryDoc has one System module whose calls enum lists set_code before
// remark and declares non-positional indices.
const registryDoc = `[1635018093, {"V14": {
	"types": {"types": [
		{"id": 0, "type": {"def": {"primitive": "u32"}}},
		{"id": 1, "type": {"path": ["frame_system", "pallet", "Call"], "def": {"variant": {"variants": [
			{"name": "set_code", "fields": [{"name": "code", "type": 2, "typeName": "Vec<u8>"}], "index": 3, "docs": ["Set the code."]},
			{"name": "remark", "fields": [{"name": "remark", "type": 2, "typeName": "Vec<u8>"}], "index": 0}
		]}}}},
		{"id": 2, "type": {"def": {"sequence": {"type": 3}}}},
		{"id": 3, "type": {"def": {"primitive": "u8"}}},
		{"id": 4, "type": {"path": ["frame_system", "pallet", "Event"], "def": {"variant": {"variants": [
			{"name": "CodeUpdated", "index": 0},
			{"name": "Remarked", "fields": [{"name": "sender", "type": 5, "typeName": "T::AccountId"}, {"name": "hash", "type": 99, "typeName": "T::Hash"}], "index": 1}
		]}}}},
		{"id": 5, "type": {"path": ["sp_core", "crypto", "AccountId32"], "def": {"composite": {"fields": [{"type": 6, "typeName": "[u8; 32]"}]}}}},
		{"id": 6, "type": {"def": {"array": {"len": 32, "type": 3}}}},
		{"id": 7, "type": {"path": ["frame_system", "pallet", "Error"], "def": {"variant": {"variants": [
			{"name": "InvalidSpecName", "index": 0},
			{"name": "NonDefaultComposite", "index": 2}
		]}}}},
		{"id": 8, "type": {"def": {"tuple": []}}}
	]},
	"pallets": [{
		"name": "System",
		"storage": {"prefix": "System", "entries": [
			{"name": "Number", "modifier": "Default", "ty": {"Plain": 0}, "default": "0x00000000", "docs": ["Current block number."]},
			{"name": "Account", "modifier": "Default", "ty": {"Map": {"hashers": ["Blake2_128Concat"], "key": 5, "value": 0}}, "default": "0x00"}
		]},
		"calls": {"ty": 1},
		"event": {"ty": 4},
		"constants": [{"name": "SS58Prefix", "ty": 0, "value": "0x2a000000", "docs": []}],
		"error": {"ty": 7},
		"index": 0
	}, {
		"name": "Broken",
		"calls": {"ty": 404},
		"event": {"ty": 0},
		"constants": [],
		"index": 5
	}],
	"extrinsic": {"ty": 8, "version": 4, "signed_extensions": [
		{"identifier": "CheckSpecVersion", "ty": 8, "additional_signed": 0},
		{"identifier": "CheckNonce", "ty": 8, "additional_signed": 8}
	]},
	"ty": 8
}}]`

const legacyDoc = `[1635018093, {"V13": {
	"modules": [{
		"name": "Balances",
		"storage": {"prefix": "Balances", "entries": [
			{"name": "TotalIssuance", "modifier": "Default", "ty": {"Plain": "T::Balance"}, "default": "0x00", "documentation": ["Total issuance."]},
			{"name": "Locks", "modifier": "Default", "ty": {"DoubleMap": {"hasher": "Blake2_128Concat", "key1": "T::AccountId", "key2": "LockIdentifier", "value": "BalanceLock", "key2_hasher": "Twox64Concat"}}, "default": "0x00"}
		]},
		"calls": [
			{"name": "transfer", "arguments": [{"name": "dest", "ty": "LookupSource"}, {"name": "value", "ty": "Compact<T::Balance>"}], "documentation": ["Transfer funds."]},
			{"name": "set_balance", "arguments": [{"name": "who", "ty": "LookupSource"}, {"name": "new_free", "ty": "Compact<T::Balance>"}]}
		],
		"event": [{"name": "Transfer", "arguments": ["AccountId", "AccountId", "Balance"]}],
		"constants": [{"name": "ExistentialDeposit", "ty": "T::Balance", "value": "0xf401"}],
		"errors": [{"name": "VestingBalance"}, {"name": "InsufficientBalance"}],
		"index": 5
	}],
	"extrinsic": {"version": 4, "signed_extensions": ["CheckSpecVersion", "CheckWeight"]}
}}]`

func decode(t *testing.T, doc string) *metadata.Metadata {
	t.Helper()
	md, err := metadata.Decode([]byte(doc))
	require.NoError(t, err)
	return md
}

func TestReduce_Registry(t *testing.T) {
	rt, err := Reduce(decode(t, registryDoc))
	require.NoError(t, err)

	assert.Equal(t, uint32(14), rt.MetadataVersion)
	assert.Equal(t, metadata.FamilyRegistry, rt.Family())
	assert.Equal(t, CallEnvelope{Version: 4, SignedExtensions: []string{"CheckSpecVersion", "CheckNonce"}}, rt.Envelope)
	require.Len(t, rt.Modules, 2)

	sys := rt.Modules[0]
	require.NotNil(t, sys)
	assert.Equal(t, "System", sys.Name)

	t.Run("calls keyed by declared index", func(t *testing.T) {
		assert.Equal(t, []uint32{0, 3}, SortedKeys(sys.Calls))
		setCode := sys.Calls[3]
		assert.Equal(t, "set_code", setCode.Name)
		require.Len(t, setCode.Signature.Args, 1)
		assert.Equal(t, "code", setCode.Signature.Args[0].Name)
		assert.Equal(t, "Vec<u8>", setCode.Signature.Args[0].Type.Name)
		assert.Equal(t, []string{"Set the code."}, setCode.Docs)

		// Same registry type, same digest.
		assert.True(t, setCode.Signature.Args[0].Type.Equal(sys.Calls[0].Signature.Args[0].Type))
	})

	t.Run("events fall back to type name hints", func(t *testing.T) {
		remarked := sys.Events[1]
		require.Len(t, remarked.Signature.Args, 2)
		assert.Equal(t, "AccountId32", remarked.Signature.Args[0].Type.Name)
		assert.Equal(t, "T::Hash", remarked.Signature.Args[1].Type.Name)
	})

	t.Run("errors keyed by declared index", func(t *testing.T) {
		assert.Equal(t, []uint32{0, 2}, SortedKeys(sys.Errors))
		assert.Equal(t, "NonDefaultComposite", sys.Errors[2].Name)
	})

	t.Run("constants and storage", func(t *testing.T) {
		c := sys.Constants["SS58Prefix"]
		require.NotNil(t, c)
		assert.Equal(t, metadata.Bytes{42, 0, 0, 0}, c.Value)
		assert.Equal(t, "u32", c.Type.Name)

		assert.Equal(t, []string{"Account", "Number"}, SortedKeys(sys.Storage))
		assert.Equal(t, "u32", sys.Storage["Number"].TypeName)
		assert.Equal(t, "Map<AccountId32, u32>", sys.Storage["Account"].TypeName)
		assert.Equal(t, metadata.Bytes{0, 0, 0, 0}, sys.Storage["Number"].Default)
	})

	t.Run("broken module degrades with warnings", func(t *testing.T) {
		broken := rt.Modules[5]
		require.NotNil(t, broken)
		assert.Empty(t, broken.Calls)
		assert.Empty(t, broken.Events)

		joined := strings.Join(rt.Warnings, "\n")
		assert.Contains(t, joined, "Broken: calls enum type 404 missing from registry")
		assert.Contains(t, joined, "Broken: events type 0 is a primitive, not a variant")
		assert.Contains(t, joined, "System.Remarked: type 99 missing from registry")
	})
}

func TestReduce_LogsWarnings(t *testing.T) {
	var buf bytes.Buffer
	logger := observability.NewLogger(observability.WarnLevel, &buf)

	_, err := Reduce(decode(t, registryDoc), WithLogger(logger))
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, `"level":"WARN"`)
	assert.Contains(t, out, `"location":"Broken"`)
	assert.Contains(t, out, `"metadata_version":14`)
}

func TestReduce_Legacy(t *testing.T) {
	rt, err := Reduce(decode(t, legacyDoc))
	require.NoError(t, err)

	assert.Equal(t, uint32(13), rt.MetadataVersion)
	assert.Equal(t, metadata.FamilyLegacy, rt.Family())
	assert.Empty(t, rt.Warnings)
	assert.Equal(t, []string{"CheckSpecVersion", "CheckWeight"}, rt.Envelope.SignedExtensions)

	bal := rt.Modules[5]
	require.NotNil(t, bal)

	t.Run("calls indexed by position", func(t *testing.T) {
		assert.Equal(t, []uint32{0, 1}, SortedKeys(bal.Calls))
		transfer := bal.Calls[0]
		assert.Equal(t, "transfer", transfer.Name)
		assert.Equal(t, "Compact<T::Balance>", transfer.Signature.Args[1].Type.Name)
	})

	t.Run("digests ignore argument names", func(t *testing.T) {
		transfer, setBalance := bal.Calls[0], bal.Calls[1]
		assert.Equal(t, transfer.Signature.Args[0].Type.Hash, setBalance.Signature.Args[0].Type.Hash)
		assert.NotEqual(t, transfer.Signature.Args[0].Type.Hash, transfer.Signature.Args[1].Type.Hash)
	})

	t.Run("event and constant digests agree with argument digests", func(t *testing.T) {
		ev := bal.Events[0]
		require.Len(t, ev.Signature.Args, 3)
		assert.Equal(t, ev.Signature.Args[0].Type.Hash, ev.Signature.Args[1].Type.Hash)
		assert.Empty(t, ev.Signature.Args[0].Name)

		balanceType, err := legacyType("T::Balance")
		require.NoError(t, err)
		assert.Equal(t, balanceType, bal.Constants["ExistentialDeposit"].Type)
	})

	t.Run("errors and storage", func(t *testing.T) {
		assert.Equal(t, "InsufficientBalance", bal.Errors[1].Name)
		assert.Equal(t, "DoubleMap<T::AccountId, LockIdentifier, BalanceLock>", bal.Storage["Locks"].TypeName)
		assert.Equal(t, "T::Balance", bal.Storage["TotalIssuance"].TypeName)
	})
}

func TestReduce_Idempotent(t *testing.T) {
	for name, doc := range map[string]string{"registry": registryDoc, "legacy": legacyDoc} {
		t.Run(name, func(t *testing.T) {
			first, err := Reduce(decode(t, doc))
			require.NoError(t, err)
			second, err := Reduce(decode(t, doc))
			require.NoError(t, err)
			assert.True(t, first.Equal(second))
		})
	}
}

func TestReduce_Errors(t *testing.T) {
	t.Run("nil metadata", func(t *testing.T) {
		_, err := Reduce(nil)
		assert.ErrorIs(t, err, ErrNilMetadata)
	})

	t.Run("unsupported version", func(t *testing.T) {
		_, err := Reduce(&metadata.Metadata{Version: 11})
		require.Error(t, err)
		assert.True(t, errors.Is(err, metadata.ErrUnsupportedVersion))
	})

	t.Run("missing body", func(t *testing.T) {
		_, err := Reduce(&metadata.Metadata{Version: 14})
		assert.ErrorIs(t, err, metadata.ErrMalformed)
	})

	t.Run("duplicate module index", func(t *testing.T) {
		md := &metadata.Metadata{Version: 13, V13: &metadata.LegacyMetadata{Modules: []metadata.LegacyModule{
			{Name: "A", Index: 1},
			{Name: "B", Index: 1},
		}}}
		_, err := Reduce(md)
		require.Error(t, err)
		assert.ErrorIs(t, err, metadata.ErrMalformed)
		assert.Contains(t, err.Error(), "share index 1")
	})
}

func TestRuntime_EqualIgnoresDocs(t *testing.T) {
	a := NewModule(0, "System")
	a.Storage["Number"] = &StorageEntry{Name: "Number", Modifier: "Default", Default: metadata.Bytes{0}, Docs: []string{"old"}}
	b := NewModule(0, "System")
	b.Storage["Number"] = &StorageEntry{Name: "Number", Modifier: "Default", Default: metadata.Bytes{0}, Docs: []string{"new"}}

	left := &Runtime{Modules: map[uint32]*Module{0: a}}
	right := &Runtime{Modules: map[uint32]*Module{0: b}, Warnings: []string{"noise"}}
	assert.True(t, left.Equal(right))

	b.Storage["Number"].Modifier = "Optional"
	assert.False(t, left.Equal(right))

	var nilRuntime *Runtime
	assert.False(t, left.Equal(nilRuntime))
	assert.True(t, nilRuntime.Equal(nil))
}

func TestHashedType_EqualByHash(t *testing.T) {
	x, err := legacyType("u32")
	require.NoError(t, err)
	y := x
	y.Name = "T::BlockNumber"
	assert.True(t, x.Equal(y))
	assert.Equal(t, "T::BlockNumber", y.String())
}

func TestRuntime_ModuleByName(t *testing.T) {
	rt := &Runtime{Modules: map[uint32]*Module{4: NewModule(4, "Timestamp")}}
	m, ok := rt.ModuleByName("Timestamp")
	require.True(t, ok)
	assert.Equal(t, uint32(4), m.Index)

	_, ok = rt.ModuleByName("Missing")
	assert.False(t, ok)
}
