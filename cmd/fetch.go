package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download archives listed on the index that are missing locally",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initDownloader(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		list, err := env.Downloader.FileList(ctx)
		if err != nil {
			return eris.Wrap(err, "fetch index")
		}

		n, err := env.Downloader.DownloadArchives(ctx, list)
		if err != nil {
			return err
		}

		local, err := env.Downloader.LocalArchives()
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d listed, %d downloaded, %d local\n", len(list), n, len(local))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(fetchCmd)
}
