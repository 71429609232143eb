package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/research-tracker/internal/publish"
	"github.com/pdiddy/research-tracker/internal/store"
)

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Export enriched papers as Markdown digests",
	Long: `Publish renders every enriched, not-yet-published paper into a Markdown
digest with a YAML metadata sidecar, then marks it published. Individual
export failures are reported but do not abort the run.`,
	RunE: runPublish,
}

func init() {
	publishCmd.Flags().String("output-dir", "", "digest output directory (default: output/digests)")

	rootCmd.AddCommand(publishCmd)
}

func runPublish(cmd *cobra.Command, args []string) error {
	cfg := pipelineConfig()
	if dir, _ := cmd.Flags().GetString("output-dir"); dir != "" {
		cfg.Publish.OutputDir = dir
	}

	st, err := store.Open(cfg.Store)
	if err != nil {
		return fmt.Errorf("opening paper store: %w", err)
	}
	defer st.Close()

	exporter := &publish.Exporter{Store: st, OutputDir: cfg.Publish.OutputDir}
	sum, err := exporter.ExportAll(cmd.Context(), os.Stdout)
	if err != nil {
		return err
	}

	fmt.Printf("published %d paper(s), %d failure(s)\n", sum.Published, sum.Failed)
	if sum.Failed > 0 {
		return fmt.Errorf("%d paper(s) failed to publish", sum.Failed)
	}
	return nil
}
