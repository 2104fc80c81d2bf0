package cli

import (
	"context"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/platinummonkey/palletdiff/pkg/report"
)

func newDiffCommand(a *app) *cobra.Command {
	var (
		watch    bool
		debounce time.Duration
	)

	cmd := &cobra.Command{
		Use:   "diff <old> <new>",
		Short: "Show what changed between two metadata documents",
		Long: `Reduce both documents, list every module-level change and print the
compatibility verdict.

Inputs may be plain JSON or .zst/.gz compressed; "-" reads standard input.

Examples:
  palletdiff diff polkadot-9420.json polkadot-9430.json
  palletdiff diff --format json old.json.zst new.json.zst
  palletdiff diff --watch runtime/old.json runtime/new.json`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if watch {
				return a.watch(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), args[0], args[1], debounce)
			}
			return a.compare(cmd.Context(), cmd.OutOrStdout(), args[0], args[1], true)
		},
	}

	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Re-run the comparison whenever either file changes")
	cmd.Flags().DurationVar(&debounce, "debounce", 250*time.Millisecond, "Quiet period before re-running in watch mode")
	return cmd
}

func newCheckCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check <old> <new>",
		Short: "Print only the compatibility verdict",
		Long: `Compare two metadata documents and print the verdict block. The exit
code is 0 when the upgrade is safe, 2 when it is incompatible and 3 when the
transaction version must be bumped.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.compare(cmd.Context(), cmd.OutOrStdout(), args[0], args[1], false)
		},
	}
}

// compare runs one comparison. A rendering failure is logged and never
// changes the exit code.
func (a *app) compare(ctx context.Context, w io.Writer, oldRef, newRef string, full bool) error {
	defer a.flushMetrics()

	r, err := a.engine.Compare(ctx, oldRef, newRef)
	if err != nil {
		return err
	}

	opts := report.Options{Color: a.cfg.Output.Color, Verbose: a.verbose}
	if full {
		err = r.Render(w, a.outputFormat(), opts)
	} else {
		err = r.RenderSummary(w, a.outputFormat(), opts)
	}
	if err != nil {
		a.logger.WithError(err).WithField("report_id", r.ID).Errorf("failed to render %s report", a.outputFormat())
	}

	if code := r.ExitCode(); code != 0 {
		return &ExitError{Code: code}
	}
	return nil
}
