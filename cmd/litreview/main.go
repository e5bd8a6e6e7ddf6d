// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the litreview CLI. litreview runs an
// automated literature review on a topic: it searches for papers, reads the
// most promising ones, scores them for relevance, and writes a synthesized
// review. Past reviews are kept in a local index under the output directory.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/literature-review/internal/observability"
	"github.com/pdiddy/literature-review/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	// loadedSecrets holds API keys loaded from .secrets/ at startup.
	loadedSecrets secrets.Set

	// logger is configured from --log-level and --log-format before any
	// command runs.
	logger = zerolog.Nop()
)

var rootCmd = &cobra.Command{
	Use:   "litreview",
	Short: "Automated academic literature reviews",
	Long: `litreview runs a literature review on a research topic. A Claude agent
searches for papers, reads the first few in full, scores each for relevance,
summarizes the relevant ones, and synthesizes a structured review.

Results are written to the output directory as a papers JSON file and a review
Markdown file, and indexed so that past reviews can be listed and shown again.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger = observability.NewLogger(loggingConfig())

		s, err := secrets.Load(viper.GetString("secrets_dir"), logger)
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
			logger.Debug().Strs("keys", keys).Msg("loaded secrets")
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./litreview.yaml or ~/.config/litreview/litreview.yaml)")
	pf.String("log-level", "", "log level: debug, info, warn, error, disabled (default info)")
	pf.String("log-format", "", "log format: console or json (default console)")
	pf.String("output-dir", "", "directory for review files and the review index (default output)")

	viper.BindPFlag("log_level", pf.Lookup("log-level"))
	viper.BindPFlag("log_format", pf.Lookup("log-format"))
	viper.BindPFlag("output_dir", pf.Lookup("output-dir"))

	setDefaults()
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("litreview")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "litreview"))
		}
	}

	viper.SetEnvPrefix("LITREVIEW")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
