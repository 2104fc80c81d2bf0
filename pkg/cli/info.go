package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/platinummonkey/palletdiff/pkg/report"
)

type infoOutput struct {
	Path            string   `json:"path" yaml:"path"`
	Digest          string   `json:"digest" yaml:"digest"`
	Bytes           int      `json:"bytes" yaml:"bytes"`
	MetadataVersion uint32   `json:"metadata_version" yaml:"metadata_version"`
	Family          string   `json:"family" yaml:"family"`
	Types           int      `json:"types,omitempty" yaml:"types,omitempty"`
	Modules         []string `json:"modules" yaml:"modules"`
}

func newInfoCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "info <file>",
		Short: "Describe a metadata document without reducing it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			blob, err := a.store.Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			md, err := blob.Decode()
			if err != nil {
				return err
			}

			info := infoOutput{
				Path:            args[0],
				Digest:          blob.Digest,
				Bytes:           len(blob.Data),
				MetadataVersion: md.Version,
				Family:          md.Family().String(),
				Modules:         md.ModuleNames(),
			}
			if reg := md.Registry(); reg != nil {
				info.Types = len(reg.Types.Types)
			}

			format := a.outputFormat()
			if format != report.FormatText {
				return report.Encode(cmd.OutOrStdout(), format, info)
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "File:     %s (%d bytes)\n", info.Path, info.Bytes)
			fmt.Fprintf(w, "Digest:   %s\n", info.Digest)
			fmt.Fprintf(w, "Metadata: V%d (%s)\n", info.MetadataVersion, info.Family)
			if info.Types > 0 {
				fmt.Fprintf(w, "Types:    %d\n", info.Types)
			}
			fmt.Fprintf(w, "Modules:  %d\n", len(info.Modules))
			for _, name := range info.Modules {
				fmt.Fprintf(w, "  %s\n", name)
			}
			return nil
		},
	}
}
