package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/banshee-data/eventvision/internal/events/jaer"
)

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	var p pipeline
	var comments []string

	cmd := &cobra.Command{
		Use:   "export <recording> <out.aedat>",
		Short: "Convert a recording to AER-DAT2.0 for the jAER viewer",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, out := args[0], args[1]
			cfg := rootOpts.Config()

			res, err := rootOpts.decode(in)
			if err != nil {
				return err
			}
			s, err := p.apply(res.Stream, cfg)
			if err != nil {
				return err
			}

			enc := jaer.NewEncoder()
			enc.RefWidth = cfg.GetRefWidth()
			enc.RefHeight = cfg.GetRefHeight()
			enc.Comments = append([]string{"source " + filepath.Base(in)}, comments...)
			if err := enc.WriteFile(rootOpts.FS, out, s); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d events -> %s\n", in, s.Len(), out)
			return nil
		},
	}

	p.bind(cmd.Flags())
	cmd.Flags().StringArrayVar(&comments, "comment", nil, "extra header comment line (repeatable)")
	return cmd
}
