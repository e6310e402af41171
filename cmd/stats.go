package main

import (
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/izv-data/internal/stats"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print per-region record counts by year and the p24 breakdown",
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

		summary, err := stats.Compute(ds)
		if err != nil {
			return err
		}
		formatStats(cmd.OutOrStdout(), summary)

		if path, _ := cmd.Flags().GetString("xlsx"); path != "" {
			if err := summary.WriteXLSX(path); err != nil {
				return eris.Wrap(err, "stats xlsx")
			}
			zap.L().Info("cause table written", zap.String("path", path))
		}
		return nil
	},
}

func formatStats(out io.Writer, s *stats.Summary) {
	years := s.Years()

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	_, _ = fmt.Fprint(w, "REGION\tROWS")
	for _, y := range years {
		_, _ = fmt.Fprintf(w, "\t%d", y)
	}
	_, _ = fmt.Fprintln(w, "\t")

	for _, rs := range s.Regions {
		_, _ = fmt.Fprintf(w, "%s\t%d", rs.Region, rs.Rows)
		for _, y := range years {
			_, _ = fmt.Fprintf(w, "\t%d", rs.ByYear[y])
		}
		_, _ = fmt.Fprintln(w, "\t")
	}
	_, _ = fmt.Fprintf(w, "TOTAL\t%d\t\n", s.Total)
	_ = w.Flush()

	_, _ = fmt.Fprintln(out)
	w = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprint(w, stats.CauseField)
	for _, rs := range s.Regions {
		_, _ = fmt.Fprintf(w, "\t%s", rs.Region)
	}
	_, _ = fmt.Fprintln(w)
	for _, c := range stats.Causes {
		_, _ = fmt.Fprint(w, c.Label)
		for _, rs := range s.Regions {
			_, _ = fmt.Fprintf(w, "\t%d", rs.Causes[c.Code])
		}
		_, _ = fmt.Fprintln(w)
	}
	_ = w.Flush()
}

func init() {
	statsCmd.Flags().StringSlice("region", nil, "region abbreviations (default all)")
	statsCmd.Flags().String("xlsx", "", "also write the p24 breakdown to this workbook")
	rootCmd.AddCommand(statsCmd)
}
