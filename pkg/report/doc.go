// Package report renders comparison results.
//
// A Report bundles the two source descriptions, the change tree and the
// compatibility verdict under a unique ID. It renders as colored text for
// terminals, or as JSON or YAML for CI pipelines:
//
//	r := report.New(oldSrc, newSrc, d, compatibility.Analyze(d))
//	if err := r.Render(os.Stdout, report.FormatText, report.Options{Color: true}); err != nil {
//		return err
//	}
//	os.Exit(r.ExitCode())
//
// Text output marks added items with [+], removed items with [-] and changed
// items with [≠].
package report
