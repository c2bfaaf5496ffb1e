package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"ytprompt/internal/config"
	"ytprompt/internal/version"
)

var (
	verbose bool
	quiet   bool

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:     "ytprompt",
	Short:   "Turn YouTube captions into a ready-to-use summarization prompt",
	Version: version.Version,
	Long: `ytprompt downloads the automatic or manual captions of a YouTube video
(Spanish preferred, then English), strips the subtitle markup and wraps the
transcript in a fixed summarization instruction.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg = config.Load()
		setupLogging()
	},
}

func setupLogging() {
	level := config.ParseLevel(cfg.LogLevel)
	if verbose {
		level = slog.LevelDebug
	}
	if quiet {
		level = slog.LevelError
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	slog.SetDefault(slog.New(handler))
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress non-error output")
}
