package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/banshee-data/eventvision/internal/events/stats"
)

// NewInfoCommand creates the info command.
func NewInfoCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "info <recording>",
		Short: "Print a summary of a recording",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := rootOpts.decode(args[0])
			if err != nil {
				return err
			}
			sum := stats.Summarize(res.Stream, rootOpts.Config().GetFrameLengthUs())

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "file:       %s\n", args[0])
			fmt.Fprintf(out, "records:    %d (%d overflow)\n", res.Records, res.Overflows)
			fmt.Fprintf(out, "frame:      %dx%d\n", sum.Width, sum.Height)
			fmt.Fprintf(out, "events:     %d (%d on, %d off)\n", sum.Events, sum.On, sum.Off)
			fmt.Fprintf(out, "span:       %d..%d us (%s)\n", sum.First, sum.Last, sum.Duration())
			fmt.Fprintf(out, "rate:       %.0f ev/s\n", sum.EventRate())
			fmt.Fprintf(out, "pixels:     %d active\n", sum.ActivePixels)
			fmt.Fprintf(out, "per window: %.1f +/- %.1f (%d windows of %d us)\n",
				sum.MeanPerWindow, sum.StdDevPerWindow, len(sum.WindowCounts), sum.WindowUs)
			return nil
		},
	}
}
