package cli

import (
	"fmt"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/banshee-data/eventvision/internal/catalog"
	"github.com/banshee-data/eventvision/internal/events/stats"
)

// NewCatalogCommand creates the catalog command group.
func NewCatalogCommand(rootOpts *RootOptions) *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Index recordings in a sqlite catalogue",
	}
	cmd.PersistentFlags().StringVar(&dbPath, "db", "eventvision.db", "catalogue database path")

	open := func() (*catalog.Store, error) {
		return catalog.Open(dbPath)
	}

	var label string
	add := &cobra.Command{
		Use:   "add <recording>...",
		Short: "Decode recordings and add them to the catalogue",
		Long: `Decode recordings and add them to the catalogue. Without --label the
name of the directory holding each file is used, which matches the
N-MNIST Train/<digit>/<n>.bin layout.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := open()
			if err != nil {
				return err
			}
			defer store.Close()

			for _, path := range args {
				res, err := rootOpts.decode(path)
				if err != nil {
					return err
				}
				l := label
				if l == "" {
					l = filepath.Base(filepath.Dir(path))
				}
				rec := catalog.NewRecording(path, l, stats.Summarize(res.Stream, 0), res.Overflows)
				if err := store.InsertRecording(rec); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", rec.RecordingID, path)
			}
			return nil
		},
	}
	add.Flags().StringVar(&label, "label", "", "label for every added recording")

	var listLabel string
	list := &cobra.Command{
		Use:   "list",
		Short: "List catalogued recordings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := open()
			if err != nil {
				return err
			}
			defer store.Close()

			recs, err := store.ListRecordings(listLabel)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tLABEL\tPATH\tSIZE\tEVENTS\tSPAN_US")
			for _, r := range recs {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%dx%d\t%d\t%d\n",
					r.RecordingID, r.Label, r.Path, r.Width, r.Height, r.Events, r.LastUs-r.FirstUs)
			}
			return tw.Flush()
		},
	}
	list.Flags().StringVar(&listLabel, "label", "", "only list recordings with this label")

	rm := &cobra.Command{
		Use:   "rm <id>...",
		Short: "Remove recordings from the catalogue",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := open()
			if err != nil {
				return err
			}
			defer store.Close()
			for _, id := range args {
				if err := store.DeleteRecording(id); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.AddCommand(add, list, rm)
	return cmd
}
