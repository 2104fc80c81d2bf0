package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/platinummonkey/palletdiff/pkg/reduced"
	"github.com/platinummonkey/palletdiff/pkg/report"
)

func newReduceCommand(a *app) *cobra.Command {
	var modules []string

	cmd := &cobra.Command{
		Use:   "reduce <file>",
		Short: "Print the canonical model of one metadata document",
		Long: `Reduce a metadata document and print the resulting modules with their
calls, events, errors, constants and storage entries. Type references appear
with their resolved names; json and yaml output include structural hashes.

Examples:
  palletdiff reduce polkadot-9430.json
  palletdiff reduce --module System --module Balances --format yaml kusama.json.zst`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			defer a.flushMetrics()

			rt, _, err := a.engine.Reduce(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if len(modules) > 0 {
				if rt, err = selectModules(rt, modules); err != nil {
					return err
				}
			}
			return report.RenderRuntime(cmd.OutOrStdout(), rt, a.outputFormat())
		},
	}

	cmd.Flags().StringSliceVarP(&modules, "module", "m", nil, "Only show these modules (repeatable)")
	return cmd
}

// selectModules returns a shallow copy of rt holding only the named modules.
func selectModules(rt *reduced.Runtime, names []string) (*reduced.Runtime, error) {
	out := *rt
	out.Modules = make(map[uint32]*reduced.Module, len(names))
	for _, name := range names {
		m, ok := rt.ModuleByName(name)
		if !ok {
			return nil, fmt.Errorf("module %q not found", name)
		}
		out.Modules[m.Index] = m
	}
	return &out, nil
}
