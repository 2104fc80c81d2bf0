package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/platinummonkey/palletdiff/pkg/compatibility"
	"github.com/platinummonkey/palletdiff/pkg/diff"
	"github.com/platinummonkey/palletdiff/pkg/metadata"
	"github.com/platinummonkey/palletdiff/pkg/reduced"
	"github.com/platinummonkey/palletdiff/pkg/registry"
)

func sampleRuntime() *reduced.Runtime {
	sys := reduced.NewModule(0, "System")
	sys.Calls[0] = &reduced.Call{Index: 0, Name: "remark", Signature: reduced.Signature{Args: []reduced.Arg{
		{Name: "remark", Type: reduced.HashedType{Name: "Vec<u8>", Hash: registry.Sum([]byte("Vec<u8>"))}},
	}}}
	sys.Storage["Number"] = &reduced.StorageEntry{Name: "Number", Modifier: "Default", Default: metadata.Bytes{0}, TypeName: "u32"}
	return &reduced.Runtime{
		MetadataVersion: 14,
		Modules:         map[uint32]*reduced.Module{0: sys},
		Envelope:        reduced.CallEnvelope{Version: 4},
	}
}

func sampleReport(t *testing.T) *Report {
	t.Helper()
	after := sampleRuntime()
	call := after.Modules[0].Calls[0]
	delete(after.Modules[0].Calls, 0)
	call.Index = 7
	after.Modules[0].Calls[7] = call
	after.Modules[99] = reduced.NewModule(99, "NewPallet")

	d, err := diff.Diff(sampleRuntime(), after)
	require.NoError(t, err)

	return New(
		Source{Path: "old.json", MetadataVersion: 14, Digest: strings.Repeat("ab", 32), Modules: 1},
		Source{Path: "new.json", MetadataVersion: 14, Digest: strings.Repeat("cd", 32), Modules: 2},
		d, compatibility.Analyze(d),
	)
}

func TestNew(t *testing.T) {
	r := sampleReport(t)

	_, err := uuid.Parse(r.ID)
	assert.NoError(t, err)
	assert.False(t, r.GeneratedAt.IsZero())
	assert.Equal(t, compatibility.VerdictBumpRequired, r.Verdict)
	assert.Equal(t, 3, r.ExitCode())

	empty := New(Source{}, Source{}, nil, nil)
	assert.Equal(t, compatibility.VerdictSafe, empty.Verdict)
	assert.NotEqual(t, r.ID, empty.ID)
}

func TestRender_Text(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, sampleReport(t).Render(&buf, FormatText, Options{Verbose: true}))

	out := buf.String()
	assert.Contains(t, out, "Old: old.json (V14, 1 modules, abababababababab)")
	assert.Contains(t, out, "[≠] System (index 0)")
	assert.Contains(t, out, "    [≠] calls[0]: 0 -> 7")
	assert.Contains(t, out, "[+] NewPallet (index 99)")
	assert.Contains(t, out, "Verdict: BUMP REQUIRED")
	assert.Contains(t, out, "[ERROR] CALL_INDEX_CHANGED")
	assert.Contains(t, out, "[INFO] MODULE_ADDED")
	assert.Contains(t, out, "  Bump:     required")
	assert.NotContains(t, out, "\033[")
}

func TestRender_TextQuietAndColor(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, sampleReport(t).Render(&buf, FormatText, Options{Color: true}))

	out := buf.String()
	assert.NotContains(t, out, "MODULE_ADDED\n")
	assert.Contains(t, out, colorRed+"BUMP REQUIRED"+colorReset)
	assert.Contains(t, out, colorGreen+MarkAdded+colorReset)
}

func TestRender_TextNoChanges(t *testing.T) {
	var buf bytes.Buffer
	r := New(Source{Path: "a"}, Source{Path: "b"}, nil, nil)
	require.NoError(t, r.Render(&buf, FormatText, Options{}))
	assert.Contains(t, buf.String(), "No changes")
	assert.Contains(t, buf.String(), "Verdict: SAFE")
}

func TestRender_JSON(t *testing.T) {
	r := sampleReport(t)
	var buf bytes.Buffer
	require.NoError(t, r.Render(&buf, FormatJSON, Options{}))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, r.ID, decoded["id"])
	assert.Equal(t, "bump_required", decoded["verdict"])

	result := decoded["result"].(map[string]any)
	assert.Equal(t, false, result["compatible"])
	assert.Equal(t, true, result["requires_bump"])
}

func TestRender_YAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, sampleReport(t).Render(&buf, FormatYAML, Options{}))

	var decoded map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "bump_required", decoded["verdict"])
	assert.Contains(t, buf.String(), "rule: CALL_INDEX_CHANGED")
}

func TestRender_UnknownFormat(t *testing.T) {
	err := sampleReport(t).Render(&bytes.Buffer{}, Format("xml"), Options{})
	assert.True(t, errors.Is(err, ErrUnknownFormat))
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestRender_WriteFailureKeepsVerdict(t *testing.T) {
	r := sampleReport(t)
	err := r.Render(failingWriter{}, FormatText, Options{})
	require.Error(t, err)
	assert.Equal(t, 3, r.ExitCode())
}

func TestRenderSummary(t *testing.T) {
	r := sampleReport(t)

	var buf bytes.Buffer
	require.NoError(t, r.RenderSummary(&buf, FormatText, Options{}))
	assert.True(t, strings.HasPrefix(buf.String(), "Verdict: BUMP REQUIRED\n"))
	assert.NotContains(t, buf.String(), "[≠] System")

	buf.Reset()
	require.NoError(t, r.RenderSummary(&buf, FormatJSON, Options{}))
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, true, decoded["requires_bump"])
}

func TestEncode(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, FormatYAML, map[string]int{"a": 1}))
	assert.Equal(t, "a: 1\n", buf.String())

	assert.ErrorIs(t, Encode(&buf, FormatText, 1), ErrUnknownFormat)
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{in: "text", want: FormatText},
		{in: "JSON", want: FormatJSON},
		{in: "yml", want: FormatYAML},
		{in: "", want: FormatText},
		{in: "html", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRenderRuntime(t *testing.T) {
	rt := sampleRuntime()
	rt.Warnings = []string{"System.remark: type 9 missing from registry"}

	var buf bytes.Buffer
	require.NoError(t, RenderRuntime(&buf, rt, FormatText))
	out := buf.String()
	assert.Contains(t, out, "Metadata V14, 1 modules, extrinsic v4")
	assert.Contains(t, out, "System (index 0)")
	assert.Contains(t, out, "call       0 remark(remark: Vec<u8>)")
	assert.Contains(t, out, "storage      Number: u32 (Default)")
	assert.Contains(t, out, "type 9 missing")

	buf.Reset()
	require.NoError(t, RenderRuntime(&buf, rt, FormatJSON))
	var decoded reduced.Runtime
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.True(t, rt.Equal(&decoded))

	assert.ErrorIs(t, RenderRuntime(&buf, rt, "toml"), ErrUnknownFormat)
}
