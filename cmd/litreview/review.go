// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/literature-review/internal/agent"
	"github.com/pdiddy/literature-review/internal/httputil"
	"github.com/pdiddy/literature-review/internal/observability"
	"github.com/pdiddy/literature-review/internal/review"
	"github.com/pdiddy/literature-review/internal/secrets"
	"github.com/pdiddy/literature-review/internal/store"
	"github.com/pdiddy/literature-review/pkg/types"
)

const excerptChars = 500

var reviewCmd = &cobra.Command{
	Use:   "review <topic>",
	Short: "Run a literature review on a topic",
	Long: `Review searches for papers on the topic, retrieves the full text of the
first --max-full-text results, scores every paper for relevance, keeps those at
or above --threshold, and writes a synthesized review.

Without an Anthropic API key (.secrets/anthropic-api-key or ANTHROPIC_API_KEY)
the command falls back to demo mode, which serves a fixed example dataset.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runReview,
}

func init() {
	f := reviewCmd.Flags()
	f.Int("max-papers", review.DefaultMaxPapers, "number of papers to request from search (advisory)")
	f.Int("max-full-text", review.DefaultMaxFullTextPapers, "number of leading search results to retrieve full text for")
	f.Float64("threshold", review.DefaultThreshold, "minimum relevance score (0.0-1.0) to keep a paper")
	f.String("model", "", "Claude model identifier")
	f.Bool("no-save", false, "do not write results to the output directory")
	f.Bool("demo", false, "use the built-in demo dataset instead of calling the API")
	f.Bool("render", false, "print the full review rendered for the terminal")
	f.Bool("json", false, "print the result bundle as JSON")
	f.String("metrics-file", "", "write run metrics to this file in Prometheus text format")

	viper.BindPFlag("max_papers", f.Lookup("max-papers"))
	viper.BindPFlag("max_full_text_papers", f.Lookup("max-full-text"))
	viper.BindPFlag("relevance_threshold", f.Lookup("threshold"))
	viper.BindPFlag("model", f.Lookup("model"))

	rootCmd.AddCommand(reviewCmd)
}

func runReview(cmd *cobra.Command, args []string) error {
	topic := strings.TrimSpace(strings.Join(args, " "))
	noSave, _ := cmd.Flags().GetBool("no-save")
	demo, _ := cmd.Flags().GetBool("demo")
	render, _ := cmd.Flags().GetBool("render")
	jsonOutput, _ := cmd.Flags().GetBool("json")
	metricsFile, _ := cmd.Flags().GetString("metrics-file")

	opts := reviewOptions(topic, !noSave)
	if err := opts.Validate(); err != nil {
		return err
	}

	ai, err := aiConfig()
	if err != nil {
		return err
	}
	if ai.APIKey == "" && !demo {
		logger.Warn().Msg("no Anthropic API key configured, running in demo mode")
		demo = true
	}

	metrics := observability.NewMetrics(observability.DefaultNamespace)
	if metricsFile != "" {
		defer func() {
			if err := metrics.WriteTextfile(metricsFile); err != nil {
				logger.Error().Err(err).Str("path", metricsFile).Msg("writing metrics")
			}
		}()
	}

	var persister review.Persister
	if opts.Persist {
		st, err := store.Open(storeConfig(), logger)
		if err != nil {
			return err
		}
		defer st.Close()
		persister = st
	}

	var runner review.Runner
	if demo {
		runner = &review.DemoRunner{Persister: persister, Logger: logger, Metrics: metrics}
	} else {
		rc, err := reviewConfig()
		if err != nil {
			return err
		}
		claude := agent.NewClaude(ai, logger, metrics, researchTools(ai)...)
		runner = review.NewOrchestrator(claude, rc, persister, logger, metrics)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !jsonOutput {
		mode := ""
		if demo {
			mode = " (demo mode)"
		}
		fmt.Fprintf(os.Stderr, "Reviewing literature on %q%s...\n", topic, mode)
	}

	res, err := runner.Run(ctx, opts)
	if err != nil {
		return reviewFailure(err)
	}

	switch {
	case jsonOutput:
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	case render:
		return renderMarkdown(os.Stdout, res.Review)
	default:
		printSummary(os.Stdout, res)
		return nil
	}
}

// reviewFailure wraps a failed run, telling the user when the model API
// failure is temporary and the review can be run again.
func reviewFailure(err error) error {
	var apiErr *agent.APIError
	if errors.As(err, &apiErr) && apiErr.IsTransient() {
		return fmt.Errorf("review failed (the model API is temporarily unavailable, try again later): %w", err)
	}
	return fmt.Errorf("review failed: %w", err)
}

// researchTools returns the tools the agent may use while reviewing.
func researchTools(cfg types.AIConfig) []agent.Tool {
	client := &http.Client{Timeout: cfg.Timeout}
	retry := httputil.RetryPolicy{MaxRetries: cfg.MaxRetries, Logger: logger}
	return []agent.Tool{
		&agent.ArxivTool{Client: client, UserAgent: cfg.UserAgent, Retry: retry},
		&agent.SemanticScholarTool{
			Client:    client,
			APIKey:    loadedSecrets.Lookup(secrets.SemanticScholarAPIKey, secrets.SemanticScholarAPIKeyEnv),
			UserAgent: cfg.UserAgent,
			Retry:     retry,
		},
		&agent.FetchTool{Client: client, UserAgent: cfg.UserAgent, Retry: retry},
	}
}

// printSummary writes the paper count, review length, saved files, and
// the start of the review.
func printSummary(w io.Writer, res *types.ReviewResult) {
	fmt.Fprintf(w, "\nLiterature review: %s\n", res.Topic)
	if res.Demo {
		fmt.Fprintln(w, "(demo mode: results come from the built-in example dataset)")
	}
	fmt.Fprintf(w, "Relevant papers: %d\n", len(res.Papers))
	for i, p := range res.Papers {
		fmt.Fprintf(w, "  %2d. [%.2f] %s%s\n", i+1, p.RelevanceScore, p.Title, yearSuffix(p.Year))
	}
	fmt.Fprintf(w, "Review length: %d words\n", len(strings.Fields(res.Review)))

	if len(res.Saved) > 0 {
		fmt.Fprintln(w, "Saved:")
		for _, key := range []string{types.SavedPapersFile, types.SavedReviewFile, types.SavedReviewID} {
			if v, ok := res.Saved[key]; ok {
				fmt.Fprintf(w, "  %-12s %s\n", key, v)
			}
		}
	}
	if res.PersistError != "" {
		fmt.Fprintf(w, "Warning: results were not saved: %s\n", res.PersistError)
	}

	fmt.Fprintln(w, "\nExcerpt:")
	fmt.Fprintln(w, strings.Repeat("-", 60))
	fmt.Fprintln(w, excerpt(res.Review, excerptChars))
	fmt.Fprintln(w, strings.Repeat("-", 60))
}

func yearSuffix(y *int) string {
	if y == nil {
		return ""
	}
	return fmt.Sprintf(" (%d)", *y)
}

// excerpt returns the first n characters of s, marked when cut.
func excerpt(s string, n int) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

// renderMarkdown writes text styled for the terminal.
func renderMarkdown(w io.Writer, text string) error {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return fmt.Errorf("creating renderer: %w", err)
	}
	out, err := r.Render(text)
	if err != nil {
		return fmt.Errorf("rendering review: %w", err)
	}
	_, err = io.WriteString(w, out)
	return err
}
