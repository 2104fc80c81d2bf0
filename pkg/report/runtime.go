package report

import (
	"fmt"
	"io"

	"github.com/platinummonkey/palletdiff/pkg/diff"
	"github.com/platinummonkey/palletdiff/pkg/reduced"
)

// RenderRuntime writes a reduced runtime. The text form lists every module
// with its items; json and yaml dump the model.
func RenderRuntime(w io.Writer, rt *reduced.Runtime, format Format) error {
	switch format {
	case FormatJSON:
		return encodeJSON(w, rt)
	case FormatYAML:
		return encodeYAML(w, rt)
	case FormatText:
		return renderRuntimeText(w, rt)
	}
	return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}

func renderRuntimeText(w io.Writer, rt *reduced.Runtime) error {
	t := &textWriter{w: w}
	t.printf("Metadata V%d, %d modules, extrinsic v%d\n", rt.MetadataVersion, len(rt.Modules), rt.Envelope.Version)

	for _, idx := range reduced.SortedKeys(rt.Modules) {
		m := rt.Modules[idx]
		t.printf("\n%s (index %d)\n", m.Name, m.Index)
		for _, k := range reduced.SortedKeys(m.Calls) {
			t.printf("  call     %3d %s\n", k, diff.SignatureString(m.Calls[k].Name, m.Calls[k].Signature))
		}
		for _, k := range reduced.SortedKeys(m.Events) {
			t.printf("  event    %3d %s\n", k, diff.SignatureString(m.Events[k].Name, m.Events[k].Signature))
		}
		for _, k := range reduced.SortedKeys(m.Errors) {
			t.printf("  error    %3d %s\n", k, m.Errors[k].Name)
		}
		for _, k := range reduced.SortedKeys(m.Constants) {
			c := m.Constants[k]
			t.printf("  constant     %s: %s = %s\n", c.Name, c.Type.Name, c.Value)
		}
		for _, k := range reduced.SortedKeys(m.Storage) {
			s := m.Storage[k]
			t.printf("  storage      %s: %s (%s)\n", s.Name, s.TypeName, s.Modifier)
		}
	}

	if len(rt.Warnings) > 0 {
		t.printf("\nWarnings:\n")
		for _, warning := range rt.Warnings {
			t.printf("  %s\n", warning)
		}
	}
	return t.err
}
