// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/literature-review/internal/store"
	"github.com/pdiddy/literature-review/pkg/types"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Browse past reviews",
	Long: `History reads the review index in <output-dir>/index/reviews.db. Use list
to see or search past reviews and show to print one of them again.`,
}

var historyListCmd = &cobra.Command{
	Use:   "list [query]",
	Short: "List past reviews, newest first, or search them",
	Long: `List prints past reviews newest first. With a query, it searches topics
and review text and prints the best matches first.`,
	RunE: runHistoryList,
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	st, err := store.Open(storeConfig(), logger)
	if err != nil {
		return err
	}
	defer st.Close()

	records, err := st.List(context.Background(), store.ListOptions{
		Query: strings.Join(args, " "),
		Limit: limit,
	})
	if err != nil {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	}
	printHistory(os.Stdout, records)
	return nil
}

func printHistory(w io.Writer, records []types.ReviewRecord) {
	if len(records) == 0 {
		fmt.Fprintln(w, "No reviews found.")
		return
	}

	fmt.Fprintf(w, "%-8s  %-19s  %-6s  %s\n", "ID", "Created", "Papers", "Topic")
	fmt.Fprintln(w, strings.Repeat("-", 80))
	for _, r := range records {
		id := r.ID
		if len(id) > 8 {
			id = id[:8]
		}
		topic := r.Topic
		if len(topic) > 40 {
			topic = topic[:37] + "..."
		}
		fmt.Fprintf(w, "%-8s  %-19s  %-6d  %s\n",
			id, r.CreatedAt.Local().Format("2006-01-02 15:04:05"), r.PaperCount, topic)
	}
	fmt.Fprintf(w, "\n%d reviews\n", len(records))
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print a past review",
	Long: `Show prints the review with the given ID (a unique prefix is enough).
Use --yaml to export the review and its papers, or --render to style the
review for the terminal.`,
	Args: cobra.ExactArgs(1),
	RunE: runHistoryShow,
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	yamlOutput, _ := cmd.Flags().GetBool("yaml")
	render, _ := cmd.Flags().GetBool("render")

	st, err := store.Open(storeConfig(), logger)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := context.Background()
	if yamlOutput {
		return st.ExportYAML(ctx, args[0], os.Stdout)
	}

	rec, err := st.Get(ctx, args[0])
	if err != nil {
		return err
	}
	doc := store.ReviewDocument(rec.Topic, rec.Review, rec.CreatedAt.Local())
	if render {
		return renderMarkdown(os.Stdout, doc)
	}
	fmt.Fprintln(os.Stdout, doc)
	return nil
}

func init() {
	historyListCmd.Flags().Int("limit", 20, "maximum number of reviews to list")
	historyListCmd.Flags().Bool("json", false, "output as JSON")

	historyShowCmd.Flags().Bool("yaml", false, "export the review and its papers as YAML")
	historyShowCmd.Flags().Bool("render", false, "render the review for the terminal")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
	rootCmd.AddCommand(historyCmd)
}
