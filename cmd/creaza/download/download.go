package cmd

import (
	"fmt"

	"github.com/creaza/ai-service/internal/config"
	"github.com/creaza/ai-service/internal/services/artifacts"
	"github.com/creaza/ai-service/pkg/logger"

	"github.com/spf13/cobra"
)

var Cmd = &cobra.Command{
	Use:   "download",
	Short: "Download the local model files",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.GetConfig()
		if err := config.CreateHomeDirs(cfg); err != nil {
			return err
		}

		log, err := logger.NewLogger(cfg.Environment)
		if err != nil {
			return err
		}
		defer log.Sync()

		downloader := artifacts.NewDownloader(cfg, log)

		file, err := cmd.Flags().GetString("file")
		if err != nil {
			return err
		}
		source, err := cmd.Flags().GetString("source")
		if err != nil {
			return err
		}

		if file != "" {
			if source == "" {
				source = artifacts.DefaultSources[file]
			}
			if source == "" {
				return fmt.Errorf("no default source known for %s, pass --source", file)
			}
			return downloader.Download(file, source)
		}

		return downloader.DownloadAll()
	},
}

func init() {
	Cmd.Flags().String("file", "", "Download a single model file instead of all of them")
	Cmd.Flags().String("source", "", "Override the source URL for --file")
}
