package main

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sells-group/izv-data/internal/downloader"
)

var archivesCmd = &cobra.Command{
	Use:   "archives",
	Short: "List local archives in parse order with their region extracts",
	RunE: func(cmd *cobra.Command, _ []string) error {
		env, err := initDownloader(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		archives, err := env.Downloader.LocalArchives()
		if err != nil {
			return err
		}
		if len(archives) == 0 {
			fmt.Fprintf(cmd.ErrOrStderr(), "No archives in %s.\n", env.Downloader.Folder())
			return nil
		}
		formatArchives(cmd.OutOrStdout(), archives)
		return nil
	},
}

func formatArchives(out io.Writer, archives []downloader.LocalArchive) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "NAME\tPERIOD\tREGIONS\tPATH")
	_, _ = fmt.Fprintln(w, "----\t------\t-------\t----")
	for _, a := range archives {
		regions := "unreadable"
		if abbrs, err := a.Regions(); err == nil {
			regions = strconv.Itoa(len(abbrs))
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", a.Name, a.Period, regions, a.Path)
	}
	_ = w.Flush()
}

func init() {
	rootCmd.AddCommand(archivesCmd)
}
