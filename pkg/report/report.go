package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/platinummonkey/palletdiff/pkg/compatibility"
	"github.com/platinummonkey/palletdiff/pkg/diff"
)

// ErrUnknownFormat is returned for output formats that have no renderer.
var ErrUnknownFormat = errors.New("unknown output format")

// Format selects a renderer.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatText, FormatJSON, FormatYAML:
		return f, nil
	case "yml":
		return FormatYAML, nil
	case "":
		return FormatText, nil
	}
	return "", fmt.Errorf("%w: %q (want text, json or yaml)", ErrUnknownFormat, s)
}

// Source identifies one side of a comparison.
type Source struct {
	Path            string `json:"path" yaml:"path"`
	MetadataVersion uint32 `json:"metadata_version" yaml:"metadata_version"`
	Digest          string `json:"digest" yaml:"digest"`
	Modules         int    `json:"modules" yaml:"modules"`
}

// Report combines a change tree with its compatibility verdict.
type Report struct {
	ID          string                     `json:"id" yaml:"id"`
	GeneratedAt time.Time                  `json:"generated_at" yaml:"generated_at"`
	Old         Source                     `json:"old" yaml:"old"`
	New         Source                     `json:"new" yaml:"new"`
	Verdict     compatibility.Verdict      `json:"verdict" yaml:"verdict"`
	Result      *compatibility.CheckResult `json:"result" yaml:"result"`
	Diff        *diff.RuntimeDiff          `json:"diff" yaml:"diff"`
}

// New assembles a report with a fresh ID.
func New(old, new Source, d *diff.RuntimeDiff, result *compatibility.CheckResult) *Report {
	if result == nil {
		result = compatibility.Analyze(d)
	}
	return &Report{
		ID:          uuid.NewString(),
		GeneratedAt: time.Now().UTC(),
		Old:         old,
		New:         new,
		Verdict:     result.Verdict(),
		Result:      result,
		Diff:        d,
	}
}

// ExitCode returns the process exit status matching the verdict.
func (r *Report) ExitCode() int {
	return r.Verdict.ExitCode()
}

// Options tune the text renderer.
type Options struct {
	// Color enables ANSI colors.
	Color bool
	// Verbose lists INFO level findings in the verdict block.
	Verbose bool
}

// Render writes the report in the given format. A failure here never changes
// the verdict already stored in the report.
func (r *Report) Render(w io.Writer, format Format, opts Options) error {
	switch format {
	case FormatText:
		return renderText(w, r, opts)
	case FormatJSON:
		return encodeJSON(w, r)
	case FormatYAML:
		return encodeYAML(w, r)
	}
	return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}

// RenderSummary writes only the verdict: the verdict block for text, the
// check result for json and yaml.
func (r *Report) RenderSummary(w io.Writer, format Format, opts Options) error {
	if format == FormatText {
		t := &textWriter{w: w, color: opts.Color}
		writeVerdict(t, r.Result, opts.Verbose)
		return t.err
	}
	return Encode(w, format, r.Result)
}

// Encode writes v as json or yaml.
func Encode(w io.Writer, format Format, v any) error {
	switch format {
	case FormatJSON:
		return encodeJSON(w, v)
	case FormatYAML:
		return encodeYAML(w, v)
	}
	return fmt.Errorf("%w: %q has no structured encoding", ErrUnknownFormat, format)
}

func encodeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding json: %w", err)
	}
	return nil
}

func encodeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding yaml: %w", err)
	}
	return enc.Close()
}
