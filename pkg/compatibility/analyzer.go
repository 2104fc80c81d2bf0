package compatibility

import (
	"fmt"

	"github.com/platinummonkey/palletdiff/pkg/diff"
)

// Violation is the verdict on one leaf change
type Violation struct {
	Rule         string            `json:"rule" yaml:"rule"`
	Level        ViolationLevel    `json:"level" yaml:"level"`
	Category     ViolationCategory `json:"category" yaml:"category"`
	Message      string            `json:"message" yaml:"message"`
	Location     string            `json:"location" yaml:"location"`
	OldValue     string            `json:"old_value,omitempty" yaml:"old_value,omitempty"`
	NewValue     string            `json:"new_value,omitempty" yaml:"new_value,omitempty"`
	Compatible   bool              `json:"compatible" yaml:"compatible"`
	RequiresBump bool              `json:"requires_bump" yaml:"requires_bump"`
	Suggestion   string            `json:"suggestion,omitempty" yaml:"suggestion,omitempty"`
}

// ViolationLevel indicates the severity
type ViolationLevel int

const (
	ViolationLevelInfo ViolationLevel = iota
	ViolationLevelWarning
	ViolationLevelError
)

func (vl ViolationLevel) String() string {
	return []string{"INFO", "WARNING", "ERROR"}[vl]
}

// MarshalText implements encoding.TextMarshaler.
func (vl ViolationLevel) MarshalText() ([]byte, error) {
	return []byte(vl.String()), nil
}

// ViolationCategory groups related violations
type ViolationCategory int

const (
	CategoryModuleChange ViolationCategory = iota
	CategoryCallChange
	CategoryEventChange
	CategoryErrorChange
	CategoryConstantChange
	CategoryStorageChange
)

func (vc ViolationCategory) String() string {
	return []string{
		"module_change", "call_change", "event_change",
		"error_change", "constant_change", "storage_change",
	}[vc]
}

// MarshalText implements encoding.TextMarshaler.
func (vc ViolationCategory) MarshalText() ([]byte, error) {
	return []byte(vc.String()), nil
}

func categoryOf(item diff.Item) ViolationCategory {
	switch item {
	case diff.ItemCall:
		return CategoryCallChange
	case diff.ItemEvent:
		return CategoryEventChange
	case diff.ItemError:
		return CategoryErrorChange
	case diff.ItemConstant:
		return CategoryConstantChange
	case diff.ItemStorage:
		return CategoryStorageChange
	default:
		return CategoryModuleChange
	}
}

// CheckResult contains the results of a compatibility check
type CheckResult struct {
	Compatible   bool        `json:"compatible" yaml:"compatible"`
	RequiresBump bool        `json:"requires_bump" yaml:"requires_bump"`
	Violations   []Violation `json:"violations" yaml:"violations"`
	Summary      Summary     `json:"summary" yaml:"summary"`
}

// Summary provides an overview of violations
type Summary struct {
	TotalViolations int            `json:"total_violations" yaml:"total_violations"`
	Errors          int            `json:"errors" yaml:"errors"`
	Warnings        int            `json:"warnings" yaml:"warnings"`
	Infos           int            `json:"infos" yaml:"infos"`
	BumpRequired    int            `json:"bump_required" yaml:"bump_required"`
	ByCategory      map[string]int `json:"by_category,omitempty" yaml:"by_category,omitempty"`
}

// Verdict condenses a result into a release decision
type Verdict int

const (
	VerdictSafe Verdict = iota
	VerdictIncompatible
	VerdictBumpRequired
)

func (v Verdict) String() string {
	return []string{"safe", "incompatible", "bump_required"}[v]
}

// MarshalText implements encoding.TextMarshaler.
func (v Verdict) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// ExitCode maps the verdict to a process exit status.
func (v Verdict) ExitCode() int {
	switch v {
	case VerdictIncompatible:
		return 2
	case VerdictBumpRequired:
		return 3
	default:
		return 0
	}
}

// Verdict returns the release decision. A required bump outranks a plain
// incompatibility because it means old calls would be mis-routed.
func (r *CheckResult) Verdict() Verdict {
	switch {
	case r.RequiresBump:
		return VerdictBumpRequired
	case !r.Compatible:
		return VerdictIncompatible
	default:
		return VerdictSafe
	}
}

// Filter returns the violations at the given level.
func (r *CheckResult) Filter(level ViolationLevel) []Violation {
	var out []Violation
	for _, v := range r.Violations {
		if v.Level == level {
			out = append(out, v)
		}
	}
	return out
}

// Analyzer turns a change tree into violations. It holds no state, so one
// Analyzer can serve concurrent callers.
type Analyzer struct{}

// NewAnalyzer creates a new analyzer
func NewAnalyzer() *Analyzer {
	return &Analyzer{}
}

// Analyze judges every leaf change of d. It never fails: a nil or empty
// diff is compatible and needs no bump.
func (a *Analyzer) Analyze(d *diff.RuntimeDiff) *CheckResult {
	violations := make([]Violation, 0)
	d.Walk(func(leaf diff.Leaf) {
		violations = append(violations, a.judge(leaf))
	})

	compatible, bump := true, false
	for _, v := range violations {
		compatible = compatible && v.Compatible
		bump = bump || v.RequiresBump
	}

	return &CheckResult{
		Compatible:   compatible,
		RequiresBump: bump,
		Violations:   violations,
		Summary:      generateSummary(violations),
	}
}

func (a *Analyzer) judge(leaf diff.Leaf) Violation {
	rule := leaf.Rule()
	def, ok := rules[rule]
	if !ok {
		def = ruleDef{message: "Unrecognized change"}
	}

	level := ViolationLevelInfo
	if !def.compatible {
		level = ViolationLevelError
	}

	return NewViolationBuilder(rule).
		WithLevel(level).
		WithCategory(categoryOf(leaf.Item)).
		WithLocation(leaf.Path).
		WithMessage(fmt.Sprintf("%s: %s", def.message, leaf.Path)).
		WithChange(leaf.Old, leaf.New).
		WithCompatible(def.compatible).
		WithRequiresBump(def.bump).
		WithSuggestion(def.suggestion).
		Build()
}

func generateSummary(violations []Violation) Summary {
	summary := Summary{
		TotalViolations: len(violations),
	}

	for _, v := range violations {
		switch v.Level {
		case ViolationLevelError:
			summary.Errors++
		case ViolationLevelWarning:
			summary.Warnings++
		case ViolationLevelInfo:
			summary.Infos++
		}

		if v.RequiresBump {
			summary.BumpRequired++
		}
		if summary.ByCategory == nil {
			summary.ByCategory = make(map[string]int)
		}
		summary.ByCategory[v.Category.String()]++
	}

	return summary
}

// ViolationBuilder helps construct violations fluently
type ViolationBuilder struct {
	violation Violation
}

// NewViolationBuilder creates a new violation builder
func NewViolationBuilder(rule string) *ViolationBuilder {
	return &ViolationBuilder{
		violation: Violation{
			Rule: rule,
		},
	}
}

func (b *ViolationBuilder) WithLevel(level ViolationLevel) *ViolationBuilder {
	b.violation.Level = level
	return b
}

func (b *ViolationBuilder) WithCategory(category ViolationCategory) *ViolationBuilder {
	b.violation.Category = category
	return b
}

func (b *ViolationBuilder) WithLocation(location string) *ViolationBuilder {
	b.violation.Location = location
	return b
}

func (b *ViolationBuilder) WithMessage(message string) *ViolationBuilder {
	b.violation.Message = message
	return b
}

func (b *ViolationBuilder) WithChange(oldValue, newValue string) *ViolationBuilder {
	b.violation.OldValue = oldValue
	b.violation.NewValue = newValue
	return b
}

func (b *ViolationBuilder) WithCompatible(compatible bool) *ViolationBuilder {
	b.violation.Compatible = compatible
	return b
}

func (b *ViolationBuilder) WithRequiresBump(bump bool) *ViolationBuilder {
	b.violation.RequiresBump = bump
	return b
}

func (b *ViolationBuilder) WithSuggestion(suggestion string) *ViolationBuilder {
	b.violation.Suggestion = suggestion
	return b
}

func (b *ViolationBuilder) Build() Violation {
	return b.violation
}

// Analyze is a shorthand for NewAnalyzer().Analyze(d).
func Analyze(d *diff.RuntimeDiff) *CheckResult {
	return NewAnalyzer().Analyze(d)
}
