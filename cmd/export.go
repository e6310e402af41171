package main

import (
	"fmt"
	"os/signal"
	"slices"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/izv-data/internal/export"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the merged dataset to a file or a Postgres table",
	Long:  "Writes the selected regions as csv, xlsx or a point shapefile (--out), or replaces their rows in the configured Postgres table (--format postgres).",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		format, _ := cmd.Flags().GetString("format")
		out, _ := cmd.Flags().GetString("out")
		format = strings.ToLower(format)

		switch {
		case format == "postgres":
			if err := cfg.Validate("postgres"); err != nil {
				return err
			}
		case slices.Contains(export.Formats, format):
			if out == "" {
				return eris.Errorf("--out is required for format %s", format)
			}
		default:
			return eris.Errorf("unknown format %q (want %s or postgres)", format, strings.Join(export.Formats, ", "))
		}

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

		if format == "postgres" {
			pool, err := pgxpool.New(ctx, cfg.Export.DatabaseURL)
			if err != nil {
				return eris.Wrap(err, "connect postgres")
			}
			defer pool.Close()

			n, err := export.ToPostgres(ctx, pool, cfg.Export.Table, ds)
			if err != nil {
				return err
			}
			zap.L().Info("export complete", zap.String("table", cfg.Export.Table), zap.Int64("rows", n))
			fmt.Fprintf(cmd.OutOrStdout(), "%d rows written to %s\n", n, cfg.Export.Table)
			return nil
		}

		n, err := export.WriteFile(format, out, ds)
		if err != nil {
			return err
		}
		zap.L().Info("export complete", zap.String("format", format), zap.String("path", out), zap.Int("rows", n))
		fmt.Fprintf(cmd.OutOrStdout(), "%d rows written to %s\n", n, out)
		return nil
	},
}

func init() {
	exportCmd.Flags().String("format", "csv", "output format: csv, xlsx, shp or postgres")
	exportCmd.Flags().String("out", "", "output path for file formats")
	exportCmd.Flags().StringSlice("region", nil, "region abbreviations (default all)")
	rootCmd.AddCommand(exportCmd)
}
