package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sells-group/izv-data/internal/accident"
)

// regionState reports whether a region's snapshot is on disk.
type regionState func(abbr string) (memory, disk bool)

var regionsCmd = &cobra.Command{
	Use:   "regions",
	Short: "List region abbreviations, their codes and snapshot state",
	RunE: func(cmd *cobra.Command, _ []string) error {
		env, err := initDownloader(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		formatRegions(cmd.OutOrStdout(), env.Downloader.CacheState)
		return nil
	},
}

func formatRegions(out io.Writer, state regionState) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "REGION\tCODE\tMEMBER\tSNAPSHOT")
	_, _ = fmt.Fprintln(w, "------\t----\t------\t--------")
	for _, r := range accident.Regions {
		snap := "-"
		if _, disk := state(r.Abbr); disk {
			snap = "yes"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.Abbr, r.Code, accident.MemberName(r.Code), snap)
	}
	_ = w.Flush()
}

func init() {
	rootCmd.AddCommand(regionsCmd)
}
