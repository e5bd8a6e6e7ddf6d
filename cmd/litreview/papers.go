// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/literature-review/internal/store"
	"github.com/pdiddy/literature-review/pkg/types"
)

var papersCmd = &cobra.Command{
	Use:   "papers <file>",
	Short: "Print the papers saved by a review",
	Long: `Papers loads a papers_<topic>_<timestamp>.json file written by review and
prints its papers, highest relevance first as saved.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		jsonOutput, _ := cmd.Flags().GetBool("json")

		papers, err := store.LoadPapers(args[0])
		if err != nil {
			return err
		}
		if jsonOutput {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(papers)
		}
		printPapers(os.Stdout, papers)
		return nil
	},
}

func printPapers(w io.Writer, papers []types.Paper) {
	if len(papers) == 0 {
		fmt.Fprintln(w, "No papers.")
		return
	}
	for i, p := range papers {
		fmt.Fprintf(w, "%d. %s%s\n", i+1, p.Title, yearSuffix(p.Year))
		if len(p.Authors) > 0 {
			fmt.Fprintf(w, "   %s\n", strings.Join(p.Authors, ", "))
		}
		if p.Venue != nil {
			fmt.Fprintf(w, "   %s\n", *p.Venue)
		}
		if p.URL != "" {
			fmt.Fprintf(w, "   %s\n", p.URL)
		}
		fmt.Fprintf(w, "   relevance %.2f", p.RelevanceScore)
		if p.Citations != nil {
			fmt.Fprintf(w, ", %d citations", *p.Citations)
		}
		if p.HasFullText() {
			fmt.Fprint(w, ", full text")
		}
		fmt.Fprintln(w)
	}
}

func init() {
	papersCmd.Flags().Bool("json", false, "output as JSON")
	rootCmd.AddCommand(papersCmd)
}
