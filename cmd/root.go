// Package cmd contains all the CLI commands for the application,
// built using the Cobra library.
package cmd

import (
	"os"

	"github.com/sbidwaibing/readme-stats/internal/config"
	"github.com/sbidwaibing/readme-stats/internal/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var rootCmd = &cobra.Command{
	Use:   "readme-stats",
	Short: "Keeps a GitHub stats table up to date inside a README.",
	Long: `readme-stats collects a GitHub user's public activity (stars, commits,
pull requests) and rewrites the block between the GITHUB-STATS markers of a
Markdown document. It is meant to run as a scheduled CI job.

Configuration is read from GITHUB_TOKEN, GITHUB_OWNER, README_PATH and
GITHUB_API_URL; flags take precedence over the environment.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	// Add a persistent flag for verbose output, available to all commands.
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose/debug logging")
	rootCmd.PersistentFlags().StringP("owner", "o", "", "GitHub login to summarize (default $GITHUB_OWNER or "+config.DefaultOwner+")")
	rootCmd.PersistentFlags().String("api-url", "", "GitHub REST API base URL (default $GITHUB_API_URL or "+config.DefaultAPIBaseURL+")")
	rootCmd.PersistentFlags().String("search-api", string(config.SearchREST), "API used for pull request counts: rest or graphql")
}

// loadConfig reads the environment and lets explicitly set flags override it.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg := config.Load(os.Getenv)
	flags := cmd.Flags()

	overrides := []struct {
		name string
		dst  *string
	}{
		{"owner", &cfg.Owner},
		{"api-url", &cfg.APIBaseURL},
		{"readme", &cfg.DocumentPath},
		{"title", &cfg.Title},
	}
	for _, o := range overrides {
		if f := flags.Lookup(o.name); f != nil && f.Changed {
			*o.dst = f.Value.String()
		}
	}
	if searchAPI, err := flags.GetString("search-api"); err == nil {
		cfg.SearchAPI = config.SearchAPI(searchAPI)
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func newLogger(cmd *cobra.Command) *zap.Logger {
	verbose, _ := cmd.Flags().GetBool("verbose")
	return logger.New(verbose)
}
