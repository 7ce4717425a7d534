package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/banshee-data/eventvision/internal/events/render"
	"github.com/banshee-data/eventvision/internal/events/sink"
)

// NewRenderCommand creates the render command.
func NewRenderCommand(rootOpts *RootOptions) *cobra.Command {
	var p pipeline
	var mode string
	var paced bool

	cmd := &cobra.Command{
		Use:   "render <recording> <out-dir>",
		Short: "Render TD or EM frames to PNG files",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := render.ParseMode(mode)
			if err != nil {
				return err
			}
			cfg := rootOpts.Config()

			res, err := rootOpts.decode(args[0])
			if err != nil {
				return err
			}
			s, err := p.apply(res.Stream, cfg)
			if err != nil {
				return err
			}
			r, err := render.New(m, cfg)
			if err != nil {
				return err
			}

			png := sink.NewPNGSink(rootOpts.FS, args[1], string(m))
			var out sink.Sink = png
			if paced {
				out = sink.NewPacedSink(png)
			}
			n, err := sink.Play(cmd.Context(), r.Frames(s), out, cfg.GetMinDisplay())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d %s frames -> %s\n", args[0], n, m, args[1])
			return nil
		},
	}

	p.bind(cmd.Flags())
	cmd.Flags().StringVarP(&mode, "mode", "m", string(render.ModeTD), "frame type (td|em)")
	cmd.Flags().BoolVar(&paced, "paced", false, "hold each frame for min_display before writing the next")
	return cmd
}
