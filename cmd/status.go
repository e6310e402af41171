package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/izv-data/internal/model"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show recorded archive downloads and region builds",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if cfg.Manifest.Path == "" {
			return eris.New("manifest.path is not set")
		}
		m, err := initManifest(ctx)
		if err != nil {
			return err
		}
		defer m.Close() //nolint:errcheck

		limit, _ := cmd.Flags().GetInt("limit")
		builds, err := m.ListBuilds(ctx, limit)
		if err != nil {
			return eris.Wrap(err, "status builds")
		}
		archives, err := m.ListArchives(ctx)
		if err != nil {
			return eris.Wrap(err, "status archives")
		}

		out := cmd.OutOrStdout()
		formatArchiveRecords(out, archives)
		_, _ = fmt.Fprintln(out)
		formatBuilds(out, builds)
		return nil
	},
}

func formatArchiveRecords(out io.Writer, archives []model.Archive) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ARCHIVE\tPERIOD\tBYTES\tSHA256\tDOWNLOADED")
	_, _ = fmt.Fprintln(w, "-------\t------\t-----\t------\t----------")
	for _, a := range archives {
		period := "-"
		if a.Year != "" {
			period = a.Year + "-" + a.Month
		}
		sum := a.SHA256
		if len(sum) > 12 {
			sum = sum[:12]
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
			a.Name, period, a.Bytes, sum, a.DownloadedAt.Format("2006-01-02 15:04"))
	}
	_ = w.Flush()
}

func formatBuilds(out io.Writer, builds []model.Build) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "REGION\tSOURCE\tROWS\tSKIPPED\tARCHIVES\tFAILED\tBUILT")
	_, _ = fmt.Fprintln(w, "------\t------\t----\t-------\t--------\t------\t-----")
	for _, b := range builds {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%d\t%s\n",
			b.Region, b.Source, b.Rows, b.Skipped, b.Archives, len(b.FailedFields),
			b.BuiltAt.Local().Format(time.DateTime))
	}
	_ = w.Flush()
}

func init() {
	statusCmd.Flags().Int("limit", 20, "maximum builds to show")
	rootCmd.AddCommand(statusCmd)
}
