package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/platinummonkey/palletdiff/pkg/compatibility"
	"github.com/platinummonkey/palletdiff/pkg/diff"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
)

// Change markers
const (
	MarkAdded   = "[+]"
	MarkRemoved = "[-]"
	MarkChanged = "[≠]"
)

// textWriter keeps the first write error so rendering code can stay linear.
type textWriter struct {
	w     io.Writer
	color bool
	err   error
}

func (t *textWriter) printf(format string, args ...any) {
	if t.err != nil {
		return
	}
	_, t.err = fmt.Fprintf(t.w, format, args...)
}

func (t *textWriter) paint(color, s string) string {
	if !t.color {
		return s
	}
	return color + s + colorReset
}

func renderText(w io.Writer, r *Report, opts Options) error {
	t := &textWriter{w: w, color: opts.Color}

	t.printf("Report %s\n", r.ID)
	t.printf("Old: %s\n", describeSource(r.Old))
	t.printf("New: %s\n\n", describeSource(r.New))

	if r.Diff.Empty() {
		t.printf("No changes\n\n")
	} else {
		writeChanges(t, r.Diff)
	}

	writeVerdict(t, r.Result, opts.Verbose)
	return t.err
}

func describeSource(s Source) string {
	digest := s.Digest
	if len(digest) > 16 {
		digest = digest[:16]
	}
	return fmt.Sprintf("%s (V%d, %d modules, %s)", s.Path, s.MetadataVersion, s.Modules, digest)
}

func marker(kind diff.LeafKind) string {
	switch kind {
	case diff.LeafAdded, diff.LeafArgAdded:
		return MarkAdded
	case diff.LeafRemoved, diff.LeafArgRemoved:
		return MarkRemoved
	default:
		return MarkChanged
	}
}

func (t *textWriter) mark(m string) string {
	switch m {
	case MarkAdded:
		return t.paint(colorGreen, m)
	case MarkRemoved:
		return t.paint(colorRed, m)
	default:
		return t.paint(colorYellow, m)
	}
}

// writeChanges lists modules in diff order. Added and removed modules take
// one line; changed modules list each leaf relative to the module.
func writeChanges(t *textWriter, d *diff.RuntimeDiff) {
	for _, mc := range d.Modules {
		name := diff.ModuleLabel(mc)
		switch mc.Kind {
		case diff.Added:
			t.printf("%s %s (index %d)\n", t.mark(MarkAdded), name, mc.New.Index)
			continue
		case diff.Removed:
			t.printf("%s %s (index %d)\n", t.mark(MarkRemoved), name, mc.Old.Index)
			continue
		}

		t.printf("%s %s (index %d)\n", t.mark(MarkChanged), name, mc.Key)
		single := &diff.RuntimeDiff{Modules: []diff.ModuleMapChange{mc}}
		single.Walk(func(l diff.Leaf) {
			rel := strings.TrimPrefix(strings.TrimPrefix(l.Path, l.Module), ".")
			if rel == "" {
				rel = strings.ToLower(strings.TrimSuffix(string(l.Kind), "_CHANGED"))
			}
			t.printf("    %s %s%s\n", t.mark(marker(l.Kind)), rel, describeLeaf(l))
		})
	}
	t.printf("\n")
}

func describeLeaf(l diff.Leaf) string {
	switch {
	case l.Old != "" && l.New != "":
		return fmt.Sprintf(": %s -> %s", l.Old, l.New)
	case l.New != "":
		return " " + l.New
	case l.Old != "":
		return " " + l.Old
	}
	return ""
}

func writeVerdict(t *textWriter, result *compatibility.CheckResult, verbose bool) {
	if result == nil {
		return
	}

	verdict := result.Verdict()
	label := strings.ToUpper(strings.ReplaceAll(verdict.String(), "_", " "))
	switch verdict {
	case compatibility.VerdictSafe:
		label = t.paint(colorGreen, label)
	case compatibility.VerdictIncompatible:
		label = t.paint(colorYellow, label)
	case compatibility.VerdictBumpRequired:
		label = t.paint(colorRed, label)
	}

	t.printf("Verdict: %s\n", label)
	t.printf("  Compatible:     %t\n", result.Compatible)
	t.printf("  Requires bump:  %t\n", result.RequiresBump)
	t.printf("  Changes:        %d (%d errors, %d info)\n",
		result.Summary.TotalViolations, result.Summary.Errors, result.Summary.Infos)

	for _, v := range result.Violations {
		if !verbose && v.Level == compatibility.ViolationLevelInfo {
			continue
		}
		level := v.Level.String()
		switch v.Level {
		case compatibility.ViolationLevelError:
			level = t.paint(colorRed, level)
		case compatibility.ViolationLevelInfo:
			level = t.paint(colorCyan, level)
		}
		t.printf("\n[%s] %s\n", level, v.Rule)
		t.printf("  Location: %s\n", v.Location)
		if v.OldValue != "" || v.NewValue != "" {
			t.printf("  Change:   %s -> %s\n", v.OldValue, v.NewValue)
		}
		if v.RequiresBump {
			t.printf("  Bump:     required\n")
		}
		if v.Suggestion != "" {
			t.printf("  Hint:     %s\n", v.Suggestion)
		}
	}
}
