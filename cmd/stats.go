package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/sbidwaibing/readme-stats/internal/config"
	"github.com/sbidwaibing/readme-stats/internal/gateway"
	"github.com/sbidwaibing/readme-stats/internal/usecase"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Aggregates GitHub user activity and outputs as JSON",
	Long:  `Aggregates stars, commits and pull requests for the configured GitHub user and prints the summary in JSON format without touching any document.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		logger := newLogger(cmd)
		defer logger.Sync()

		return runStats(cmd.Context(), cfg, cmd.OutOrStdout(), logger)
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(ctx context.Context, cfg config.Config, out io.Writer, logger *zap.Logger) error {
	githubGateway, err := gateway.NewGitHubGateway(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create GitHub gateway: %w", err)
	}

	summary, err := usecase.NewAggregator(githubGateway, logger).Aggregate(ctx, cfg.Owner)
	if err != nil {
		return fmt.Errorf("failed to aggregate stats: %w", err)
	}

	// Marshal the results into a pretty-printed JSON string.
	jsonData, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results to JSON: %w", err)
	}
	_, err = fmt.Fprintln(out, string(jsonData))
	return err
}
