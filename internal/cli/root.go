// Package cli implements the eventvision command line.
package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/banshee-data/eventvision/internal/config"
	"github.com/banshee-data/eventvision/internal/events"
	"github.com/banshee-data/eventvision/internal/events/nmnist"
	"github.com/banshee-data/eventvision/internal/fsutil"
	"github.com/banshee-data/eventvision/internal/monitoring"
	"github.com/banshee-data/eventvision/internal/version"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	Verbose    bool
	Width      uint32 // forced decode width, 0 = dynamic
	Height     uint32 // forced decode height, 0 = dynamic

	// FS is used for every file the commands read or write, except the
	// catalogue database.
	FS fsutil.FileSystem

	cfg *config.Config
}

// Config returns the loaded configuration, or the defaults before the
// root command has run.
func (o *RootOptions) Config() *config.Config {
	if o.cfg == nil {
		return config.DefaultConfig()
	}
	return o.cfg
}

// NewRootCommand creates the root command for the eventvision CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{FS: fsutil.OSFileSystem{}}

	cmd := &cobra.Command{
		Use:   "eventvision",
		Short: "Inspect, convert and render neuromorphic event recordings",
		Long: `eventvision reads N-MNIST / N-CALTECH101 event recordings, filters them,
exports them for the jAER viewer and renders TD and EM frames.`,
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: true, // main prints the error
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			monitoring.SetVerbose(opts.Verbose)
			if opts.ConfigPath == "" {
				opts.cfg = config.DefaultConfig()
				return nil
			}
			cfg, err := config.Load(opts.ConfigPath)
			if err != nil {
				return err
			}
			opts.cfg = cfg
			monitoring.Debugf("Loaded config from %s", opts.ConfigPath)
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "JSON or YAML tuning file")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().Uint32Var(&opts.Width, "width", 0, "force the decoded frame width (0 = size to data)")
	cmd.PersistentFlags().Uint32Var(&opts.Height, "height", 0, "force the decoded frame height (0 = size to data)")

	cmd.AddCommand(NewInfoCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))
	cmd.AddCommand(NewRenderCommand(opts))
	cmd.AddCommand(NewStatsCommand(opts))
	cmd.AddCommand(NewCatalogCommand(opts))

	return cmd
}

// decode reads and decodes a recording using the global sizing options.
func (o *RootOptions) decode(path string) (*nmnist.Result, error) {
	cfg := o.Config()
	dec := nmnist.NewDecoder(nmnist.Options{
		Width:       o.Width,
		Height:      o.Height,
		EmptyWidth:  cfg.GetDefaultWidth(),
		EmptyHeight: cfg.GetDefaultHeight(),
	})
	return dec.ReadFile(o.FS, path)
}

// parseROI parses "x,y,w,h".
func parseROI(s string) (topLeft, size events.Point, err error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return topLeft, size, fmt.Errorf("invalid ROI %q: want x,y,w,h", s)
	}
	var v [4]int
	for i, p := range parts {
		v[i], err = strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return topLeft, size, fmt.Errorf("invalid ROI %q: %w", s, err)
		}
	}
	return events.Point{X: v[0], Y: v[1]}, events.Point{X: v[2], Y: v[3]}, nil
}
