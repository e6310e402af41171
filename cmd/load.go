package main

import (
	"fmt"
	"io"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sells-group/izv-data/internal/accident"
)

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Load regions through the cache and summarize the merged dataset",
	Long:  "Loads the given regions (all of them by default) from memory, disk snapshots or the archives, then prints the column names, record count and regions present.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initDownloader(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		regions, _ := cmd.Flags().GetStringSlice("region")
		ds, err := env.Downloader.GetDataset(ctx, parseRegions(regions)...)
		if err != nil {
			return err
		}

		formatSummary(cmd.OutOrStdout(), ds)
		return nil
	},
}

// formatSummary prints column names, record count, regions present and any
// fields that kept their raw text.
func formatSummary(out io.Writer, ds *accident.Dataset) {
	_, _ = fmt.Fprintf(out, "Columns: %s\n", strings.Join(ds.Names(), ", "))
	_, _ = fmt.Fprintf(out, "Records: %d\n", ds.Len())
	_, _ = fmt.Fprintf(out, "Regions: %s\n", strings.Join(regionsPresent(ds), ", "))

	if len(ds.Failed) == 0 {
		return
	}
	names := make([]string, 0, len(ds.Failed))
	for name := range ds.Failed {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		_, _ = fmt.Fprintf(out, "Unconverted: %s (%s)\n", name, ds.Failed[name])
	}
}

// regionsPresent returns the distinct region values in canonical order.
func regionsPresent(ds *accident.Dataset) []string {
	col, ok := ds.Column(accident.RegionField).(accident.TextColumn)
	if !ok {
		return nil
	}
	seen := make(map[string]bool)
	for _, r := range col {
		seen[r] = true
	}
	var out []string
	for _, abbr := range accident.RegionAbbrs() {
		if seen[abbr] {
			out = append(out, abbr)
		}
	}
	return out
}

func init() {
	loadCmd.Flags().StringSlice("region", nil, "region abbreviations to load (default all)")
	rootCmd.AddCommand(loadCmd)
}
