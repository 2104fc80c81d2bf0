package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/platinummonkey/palletdiff/pkg/rawdiff"
	"github.com/platinummonkey/palletdiff/pkg/report"
)

func newRawDiffCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rawdiff <a> <b>",
		Short: "Compare two documents as plain JSON, without reduction",
		Long: `Walk both documents as JSON trees and list every differing leaf. Nothing
is normalized, so registry renumbering and documentation edits show up too.
Use it to troubleshoot a surprising diff result.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			left, err := a.store.Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			right, err := a.store.Load(cmd.Context(), args[1])
			if err != nil {
				return err
			}

			changes, err := rawdiff.Compare(left.Data, right.Data)
			if err != nil {
				return err
			}

			format := a.outputFormat()
			if format != report.FormatText {
				if changes == nil {
					changes = []rawdiff.Change{}
				}
				return report.Encode(cmd.OutOrStdout(), format, changes)
			}

			w := cmd.OutOrStdout()
			for _, c := range changes {
				fmt.Fprintln(w, c.String())
			}
			fmt.Fprintf(w, "%s\n", rawdiff.Summarize(changes))
			return nil
		},
	}
}
