package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/izv-data/internal/config"
)

var cfg *config.Config

// Persistent overrides of the loaded config.
var (
	folderFlag   string
	logLevelFlag string
)

var rootCmd = &cobra.Command{
	Use:   "izv-data",
	Short: "Download and cache the Czech police traffic accident dataset",
	Long:  "Fetches the yearly and monthly accident archives, parses the per-region CSV members into typed columns, caches them in memory and on disk, and exports or serves the result.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return err
		}
		applyOverrides(c)
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return eris.Wrap(err, "init logger")
		}

		zap.L().Debug("config loaded",
			zap.String("command", cmd.Name()),
			zap.String("base_url", cfg.Source.BaseURL),
			zap.String("folder", cfg.Source.Folder),
			zap.String("manifest", cfg.Manifest.Path),
		)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

// applyOverrides puts the persistent flags over the file and env settings.
func applyOverrides(c *config.Config) {
	if folderFlag != "" {
		c.Source.Folder = folderFlag
	}
	if logLevelFlag != "" {
		c.Log.Level = logLevelFlag
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&folderFlag, "folder", "", "archive and snapshot folder (overrides source.folder)")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "log level (overrides log.level)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
