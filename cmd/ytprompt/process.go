package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"ytprompt/internal/app"
)

var processCmd = &cobra.Command{
	Use:   "process <youtube-url>",
	Short: "Fetch captions and save the prompt artifact",
	Args:  cobra.ExactArgs(1),
	RunE:  runProcess,
}

var (
	outputFormat string
	outputDir    string
	printPrompt  bool
)

func init() {
	processCmd.Flags().StringVarP(&outputFormat, "format", "f", "txt", "output format: txt, json")
	processCmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "artifact directory (default: $OUTPUT_DIR)")
	processCmd.Flags().BoolVarP(&printPrompt, "print", "p", false, "print the prompt to stdout")

	rootCmd.AddCommand(processCmd)
}

func runProcess(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	components, err := app.New(cfg, outputDir)
	if err != nil {
		return err
	}
	defer components.Close()

	out := components.Processor.Process(ctx, args[0], outputFormat)
	if !out.Success {
		return fmt.Errorf("%s: %s", out.Kind, out.Message)
	}

	if printPrompt {
		fmt.Fprintln(cmd.OutOrStdout(), out.Result.Prompt)
		return nil
	}

	fmt.Fprintf(os.Stderr, "video:  %s\n", out.VideoID)
	fmt.Fprintf(os.Stderr, "track:  %s/%s (%s)\n", out.Track.Language, out.Track.Format, out.Track.Provenance)
	fmt.Fprintf(os.Stderr, "length: %d chars, %d lines\n", out.Result.TranscriptLength, out.Result.TranscriptLines)
	fmt.Fprintln(cmd.OutOrStdout(), out.FilePath)
	return nil
}
