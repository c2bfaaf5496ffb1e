package main

import (
	"context"
	"fmt"
	"os/signal"
	"sort"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"ytprompt/internal/app"
	"ytprompt/internal/youtube"
)

var tracksCmd = &cobra.Command{
	Use:   "tracks <youtube-url>",
	Short: "List the caption tracks and the one that would be selected",
	Args:  cobra.ExactArgs(1),
	RunE:  runTracks,
}

func init() {
	rootCmd.AddCommand(tracksCmd)
}

func runTracks(cmd *cobra.Command, args []string) error {
	videoID, ok := youtube.ExtractVideoID(args[0])
	if !ok {
		return fmt.Errorf("invalid YouTube URL: %s", args[0])
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	components, err := app.New(cfg, "")
	if err != nil {
		return err
	}
	defer components.Close()

	cat, attempt, err := components.Locator.FetchCatalog(ctx, videoID)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "video\t%s\nattempt\t%s\n\n", videoID, attempt)
	fmt.Fprintln(w, "PROVENANCE\tLANGUAGE\tFORMATS")
	printTracks(w, youtube.ProvenanceAutomatic, cat.Automatic)
	printTracks(w, youtube.ProvenanceManual, cat.Manual)

	if d, ok := youtube.SelectTrack(cat); ok {
		fmt.Fprintf(w, "\nselected\t%s/%s (%s)\n", d.Language, d.Format, d.Provenance)
	} else {
		fmt.Fprintln(w, "\nselected\tnone")
	}
	return w.Flush()
}

func printTracks(w *tabwriter.Writer, p youtube.Provenance, tracks map[string][]youtube.TrackEntry) {
	langs := make([]string, 0, len(tracks))
	for lang := range tracks {
		langs = append(langs, lang)
	}
	sort.Strings(langs)

	for _, lang := range langs {
		formats := ""
		for i, e := range tracks[lang] {
			if i > 0 {
				formats += ","
			}
			formats += e.Format
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", p, lang, formats)
	}
}
