package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pdiddy/research-tracker/internal/store"
)

var papersCmd = &cobra.Command{
	Use:   "papers",
	Short: "List the papers in the store",
	Long: `Papers prints every stored paper with its processing state, so an
operator can see what the pipeline has gathered, what is waiting for
enrichment, and what has already been published.`,
	RunE: runPapers,
}

func init() {
	papersCmd.Flags().Bool("json", false, "output papers as JSON")
	papersCmd.Flags().Bool("pending", false, "show only unprocessed papers")

	rootCmd.AddCommand(papersCmd)
}

func runPapers(cmd *cobra.Command, args []string) error {
	cfg := pipelineConfig()

	st, err := store.Open(cfg.Store)
	if err != nil {
		return fmt.Errorf("opening paper store: %w", err)
	}
	defer st.Close()

	papers, err := st.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("listing papers: %w", err)
	}

	pendingOnly, _ := cmd.Flags().GetBool("pending")
	if pendingOnly {
		kept := papers[:0]
		for _, p := range papers {
			if !p.Processed {
				kept = append(kept, p)
			}
		}
		papers = kept
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(papers)
	}

	if len(papers) == 0 {
		fmt.Println("no papers stored")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SOURCE\tID\tYEAR\tCITATIONS\tSTATE\tTITLE")
	for _, p := range papers {
		state := "new"
		switch {
		case p.Published:
			state = "published"
		case p.Processed:
			state = "enriched"
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\t%s\n",
			p.Source, p.ProviderID, p.Year, p.CitationCount, state, p.Title)
	}
	return w.Flush()
}
