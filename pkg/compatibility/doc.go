// Package compatibility decides whether a runtime upgrade is safe to deploy.
//
// # Overview
//
// The analyzer walks a diff.RuntimeDiff and judges every leaf change on two
// independent axes:
//
// Compatible: existing callers built against the old metadata keep working
// against the new one. Additions, renames, constant value changes and
// storage default changes are compatible. Removals, index moves, signature
// changes, constant type changes and storage modifier changes are not.
//
// RequiresBump: an already encoded call could now be dispatched to the wrong
// target. Only module and call index moves qualify. A changed argument type
// breaks callers too, but their calls fail to decode rather than execute the
// wrong logic, so no bump is demanded.
//
// A result is compatible when every change is, and requires a bump when any
// change does.
//
// # Usage Example
//
//	d, err := diff.Diff(oldRuntime, newRuntime)
//	if err != nil {
//		return err
//	}
//	result := compatibility.Analyze(d)
//	for _, v := range result.Filter(compatibility.ViolationLevelError) {
//		fmt.Printf("%s %s: %s -> %s\n", v.Rule, v.Location, v.OldValue, v.NewValue)
//	}
//	os.Exit(result.Verdict().ExitCode())
//
// # Exit Codes
//
//	0  safe
//	2  incompatible, needs a manual release decision
//	3  dispatch version bump required
//
// # Rules
//
// Rule names join the item kind and what happened to it, for example
// MODULE_INDEX_CHANGED, CALL_ARG_TYPE_CHANGED or STORAGE_MODIFIER_CHANGED.
// Event and error index moves are incompatible because clients decode them
// by index, but they do not affect call dispatch.
package compatibility
