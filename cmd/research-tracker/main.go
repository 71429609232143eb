// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the research-tracker CLI.
// Each pipeline stage is a subcommand: acquire, enrich, publish, papers.
// A scheduler runs them daily; exit status tells it whether the run failed.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/research-tracker/internal/secrets"
	"github.com/pdiddy/research-tracker/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

const defaultUserAgent = "research-tracker/0.1"

// rootCmd is the base command for the research-tracker CLI.
var rootCmd = &cobra.Command{
	Use:   "research-tracker",
	Short: "Daily research-paper acquisition and enrichment pipeline",
	Long: `research-tracker maintains a growing store of AI and robotics research
papers. Each scheduled run acquires the most-cited new paper matching the
configured keywords, enriches stored papers with a generated summary and
investment commentary, and exports enriched papers as Markdown digests.

Each stage is a subcommand: acquire, enrich, publish, and papers (to inspect
the store). Stages are idempotent, so a scheduler can re-run them safely.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./research-tracker.yaml or ~/.config/research-tracker/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("research-tracker")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "research-tracker"))
		}
	}

	viper.SetEnvPrefix("RESEARCH_TRACKER")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// pipelineConfig assembles the run configuration from the config file, the
// environment, and the secrets directory. Explicit settings win over
// secret files.
func pipelineConfig() types.PipelineConfig {
	cfg := types.PipelineConfig{
		Keywords: viper.GetStringSlice("keywords"),
		MinYear:  viper.GetInt("min_year"),
		Source: types.SourceConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   viper.GetDuration("source.timeout"),
				UserAgent: defaultUserAgent,
			},
			MaxResults:            viper.GetInt("source.max_results"),
			PrimaryPacing:         viper.GetDuration("source.primary_pacing"),
			FallbackPacing:        viper.GetDuration("source.fallback_pacing"),
			RetryDelay:            viper.GetDuration("source.retry_delay"),
			SemanticScholarAPIKey: viper.GetString("source.semantic_scholar_api_key"),
			OpenAlexEmail:         viper.GetString("source.openalex_email"),
		},
		Store: types.StoreConfig{
			Path: viper.GetString("store.path"),
		},
		Generation: types.GenerationConfig{
			Endpoint:            viper.GetString("generation.endpoint"),
			Deployment:          viper.GetString("generation.deployment"),
			APIVersion:          viper.GetString("generation.api_version"),
			APIKey:              viper.GetString("generation.api_key"),
			Language:            viper.GetString("generation.language"),
			SummaryMaxTokens:    viper.GetInt("generation.summary_max_tokens"),
			CommentaryMaxTokens: viper.GetInt("generation.commentary_max_tokens"),
			Timeout:             viper.GetDuration("generation.timeout"),
		},
		Publish: types.PublishConfig{
			OutputDir: viper.GetString("publish.output_dir"),
		},
	}

	if cfg.MinYear == 0 {
		cfg.MinYear = time.Now().Year()
	}
	if cfg.Generation.Timeout == 0 {
		cfg.Generation.Timeout = 120 * time.Second
	}
	if cfg.Publish.OutputDir == "" {
		cfg.Publish.OutputDir = filepath.Join("output", "digests")
	}

	secrets.Apply(loadedSecrets, &cfg)
	return cfg
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
