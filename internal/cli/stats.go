package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/banshee-data/eventvision/internal/events"
	"github.com/banshee-data/eventvision/internal/events/stats"
)

// NewStatsCommand creates the stats command.
func NewStatsCommand(rootOpts *RootOptions) *cobra.Command {
	var p pipeline
	var windowUs uint64

	cmd := &cobra.Command{
		Use:   "stats <recording> <out.html>",
		Short: "Write an HTML activity report",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			cfg := rootOpts.Config()
			res, err := rootOpts.decode(args[0])
			if err != nil {
				return err
			}
			s, err := p.apply(res.Stream, cfg)
			if err != nil {
				return err
			}
			if windowUs == 0 {
				windowUs = cfg.GetFrameLengthUs()
			}
			sum := stats.Summarize(s, windowUs)

			f, err := rootOpts.FS.Create(args[1])
			if err != nil {
				return fmt.Errorf("%w: %w", events.ErrIO, err)
			}
			defer func() {
				if cerr := f.Close(); cerr != nil && err == nil {
					err = fmt.Errorf("%w: close %s: %w", events.ErrIO, args[1], cerr)
				}
			}()
			if err := stats.WriteActivityReport(f, sum, filepath.Base(args[0])); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", args[0], sum)
			return nil
		},
	}

	p.bind(cmd.Flags())
	cmd.Flags().Uint64Var(&windowUs, "window", 0, "activity bin width in us (default frame_length_us)")
	return cmd
}
