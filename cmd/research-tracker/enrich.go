package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/research-tracker/internal/enrich"
	"github.com/pdiddy/research-tracker/internal/pipeline"
	"github.com/pdiddy/research-tracker/internal/store"
)

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Generate a summary and investment commentary for one stored paper",
	Long: `Enrich takes the oldest unprocessed paper from the store and attaches a
generated summary and an investment commentary. Both texts must be produced
before anything is saved; a failed attempt leaves the paper in the queue so
the next run retries it. An empty queue is a normal outcome.`,
	RunE: runEnrich,
}

func init() {
	rootCmd.AddCommand(enrichCmd)
}

func runEnrich(cmd *cobra.Command, args []string) error {
	cfg := pipelineConfig()

	st, err := store.Open(cfg.Store)
	if err != nil {
		return fmt.Errorf("opening paper store: %w", err)
	}
	defer st.Close()

	backend, err := enrich.NewAzureOpenAIBackend(cfg.Generation)
	if err != nil {
		return err
	}

	driver := &pipeline.Driver{
		Engine: &enrich.Engine{
			Store:     st,
			Generator: backend,
			Config:    cfg.Generation,
		},
		Out: os.Stdout,
	}

	report := driver.RunEnrichment(cmd.Context())
	fmt.Printf("%s: %s (%s)\n", report.Operation, report.Status, report.Detail)
	if report.Failed() {
		return fmt.Errorf("enrichment failed: %s", report.Detail)
	}
	return nil
}
