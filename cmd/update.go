package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/sbidwaibing/readme-stats/internal/config"
	"github.com/sbidwaibing/readme-stats/internal/gateway"
	"github.com/sbidwaibing/readme-stats/internal/readme"
	"github.com/sbidwaibing/readme-stats/internal/usecase"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Rewrites the GitHub stats block of the README",
	Long: `Fetches the user's stats and replaces everything between the
<!-- GITHUB-STATS:START --> and <!-- GITHUB-STATS:END --> markers of the
document. When the markers are missing the block is added at the top.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		logger := newLogger(cmd)
		defer logger.Sync()

		return runUpdate(cmd.Context(), cfg, dryRun, cmd.OutOrStdout(), logger)
	},
}

func init() {
	rootCmd.AddCommand(updateCmd)
	updateCmd.Flags().StringP("readme", "r", "", "Document to update (default $README_PATH or "+config.DefaultDocumentPath+")")
	updateCmd.Flags().String("title", config.DefaultTitle, "Heading rendered above the stats table")
	updateCmd.Flags().Bool("dry-run", false, "Print the updated document instead of writing it")
}

// runUpdate reads the document first so a missing file fails before any request is made.
func runUpdate(ctx context.Context, cfg config.Config, dryRun bool, out io.Writer, logger *zap.Logger) error {
	doc, perm, err := readme.ReadDocument(cfg.DocumentPath)
	if err != nil {
		return err
	}

	githubGateway, err := gateway.NewGitHubGateway(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create GitHub gateway: %w", err)
	}
	summary, err := usecase.NewAggregator(githubGateway, logger).Aggregate(ctx, cfg.Owner)
	if err != nil {
		return fmt.Errorf("failed to aggregate stats: %w", err)
	}

	updated, found := readme.Patch(doc, readme.RenderBlock(cfg.Title, summary.Counts))
	if !found {
		logger.Info("Stats markers not found, adding the block at the top", zap.String("path", cfg.DocumentPath))
	}

	if dryRun {
		_, err = io.WriteString(out, updated)
		return err
	}
	if err := readme.WriteDocument(cfg.DocumentPath, updated, perm); err != nil {
		return err
	}
	logger.Info("README updated with new GitHub stats", zap.String("path", cfg.DocumentPath), zap.Int("warnings", len(summary.Warnings)))
	return nil
}
