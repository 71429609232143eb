package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/research-tracker/internal/coordinate"
	"github.com/pdiddy/research-tracker/internal/pipeline"
	"github.com/pdiddy/research-tracker/internal/source"
	"github.com/pdiddy/research-tracker/internal/store"
)

var acquireCmd = &cobra.Command{
	Use:   "acquire [keywords...]",
	Short: "Acquire the most-cited new paper for the configured keywords",
	Long: `Acquire queries Semantic Scholar (falling back to OpenAlex when it is
rate-limited or unavailable) for each keyword, ranks the candidates by
citation count, and stores the best one not already in the store. Keywords
given as arguments override the configured set. Finding nothing new is a
normal outcome; the command exits non-zero only when acquisition fails.`,
	RunE: runAcquire,
}

func init() {
	acquireCmd.Flags().Int("min-year", 0, "publication-year floor (default: current year)")

	rootCmd.AddCommand(acquireCmd)
}

func runAcquire(cmd *cobra.Command, args []string) error {
	cfg := pipelineConfig()
	if len(args) > 0 {
		cfg.Keywords = args
	}
	if minYear, _ := cmd.Flags().GetInt("min-year"); minYear != 0 {
		cfg.MinYear = minYear
	}

	st, err := store.Open(cfg.Store)
	if err != nil {
		return fmt.Errorf("opening paper store: %w", err)
	}
	defer st.Close()

	driver := &pipeline.Driver{
		Coordinator: &coordinate.Coordinator{
			Primary:  source.NewSemanticScholarClient(cfg.Source),
			Fallback: source.NewOpenAlexClient(cfg.Source),
			Store:    st,
			Limit:    cfg.Source.MaxResults,
		},
		Keywords: cfg.Keywords,
		MinYear:  cfg.MinYear,
		Out:      os.Stdout,
	}

	report := driver.RunAcquisition(cmd.Context())
	fmt.Printf("%s: %s (%s)\n", report.Operation, report.Status, report.Detail)
	if report.Failed() {
		return fmt.Errorf("acquisition failed: %s", report.Detail)
	}
	return nil
}
