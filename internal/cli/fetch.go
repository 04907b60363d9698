package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vliden/coronamap/internal/pipeline"
)

var (
	fetchDataFile string
	fetchForce    bool
)

// fetchCmd represents the fetch command
var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download the current dataset without rendering",
	Long: `Fetch resolves the current dataset link from the provider page and
downloads it to the local cache file. When the file already exists the
command performs no network request for the dataset.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if fetchDataFile != "" {
			cfg.Data.DataFile = fetchDataFile
		}

		ctx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.Timeout)
		defer cancel()

		p := pipeline.New(cfg)
		if err := p.Run(ctx, pipeline.RunOptions{Force: fetchForce, FetchOnly: true}); err != nil {
			return fmt.Errorf("fetch failed: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(fetchCmd)

	fetchCmd.Flags().StringVar(&fetchDataFile, "data", "", "local dataset file (default: derived from the download link)")
	fetchCmd.Flags().BoolVar(&fetchForce, "force", false, "re-download even when the dataset file exists")
}
