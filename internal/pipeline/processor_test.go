package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"ytprompt/internal/models"
	"ytprompt/internal/storage"
	"ytprompt/internal/subtitle"
	"ytprompt/internal/youtube"
)

const testFileID = "3f1c2a9e-8b7d-4c6e-9a1b-2d3e4f5a6b7c"

func newTestProcessor(t *testing.T, locator TrackLocator, fetcher SubtitleFetcher) (*Processor, *storage.ArtifactStore) {
	t.Helper()
	store, err := storage.NewArtifactStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	p := NewProcessor(locator, fetcher, store)
	p.newID = func() string { return testFileID }
	p.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	return p, store
}

func catalogLocator(trackURL string) *youtube.Locator {
	return youtube.NewLocator(youtube.Attempt{
		Name: "stub",
		Source: youtube.CatalogFunc(func(ctx context.Context, watchURL string) (*youtube.Catalog, error) {
			return &youtube.Catalog{
				Automatic: map[string][]youtube.TrackEntry{
					"en": {{Format: "vtt", URL: "https://example.invalid/en.vtt"}},
					"es": {{Format: "vtt", URL: trackURL}},
				},
				Manual: map[string][]youtube.TrackEntry{
					"es": {{Format: "vtt", URL: "https://example.invalid/manual.vtt"}},
				},
			}, nil
		}),
	})
}

func TestProcessEndToEnd(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "WEBVTT\n\n1\n00:00:00.000 --> 00:00:02.000\nHola a todos\n\n2\n00:00:02.000 --> 00:00:04.000\nbienvenidos al canal\n")
	}))
	defer srv.Close()

	p, store := newTestProcessor(t, catalogLocator(srv.URL+"/es.vtt"), subtitle.NewFetcher(subtitle.Options{Timeout: 5 * time.Second}))

	out := p.Process(context.Background(), "https://www.youtube.com/watch?v=jNQXAC9IVRw", "txt")
	if !out.Success {
		t.Fatalf("Process() failed: %s (%s)", out.Message, out.Kind)
	}
	if out.VideoID != "jNQXAC9IVRw" || out.FileID != testFileID {
		t.Errorf("outcome ids = %q/%q", out.VideoID, out.FileID)
	}
	if out.Track.Language != "es" || out.Track.Provenance != youtube.ProvenanceAutomatic {
		t.Errorf("track = %+v", out.Track)
	}
	if out.Result.TranscriptLines != 2 {
		t.Errorf("TranscriptLines = %d, want 2", out.Result.TranscriptLines)
	}

	path, format, err := store.Find(testFileID)
	if err != nil {
		t.Fatalf("artifact not stored: %v", err)
	}
	if format != models.FormatText || path != out.FilePath {
		t.Errorf("stored %s as %s, outcome path %s", path, format, out.FilePath)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(string(data), "Full transcript:\nHola a todos bienvenidos al canal") {
		t.Errorf("unexpected artifact: %q", data)
	}
}

func TestProcessInvalidURL(t *testing.T) {
	p, store := newTestProcessor(t, catalogLocator("unused"), subtitle.NewFetcher(subtitle.Options{}))

	out := p.Process(context.Background(), "https://example.com/video", "json")
	if out.Success || out.Kind != KindInvalidInput {
		t.Fatalf("outcome = %+v", out)
	}
	files, _ := store.List()
	if len(files) != 0 {
		t.Errorf("no artifact should be written, got %d", len(files))
	}
}

type stubLocator struct {
	desc *youtube.Descriptor
	err  error
}

func (s stubLocator) Locate(ctx context.Context, videoID string) (*youtube.Descriptor, error) {
	return s.desc, s.err
}

type stubFetcher struct {
	lines []string
	err   error
}

func (s stubFetcher) Fetch(ctx context.Context, url string) ([]string, error) {
	return s.lines, s.err
}

func TestProcessFailures(t *testing.T) {
	track := &youtube.Descriptor{Language: "es", Format: "vtt", URL: "https://example.invalid"}

	tests := []struct {
		name    string
		locator TrackLocator
		fetcher SubtitleFetcher
		want    Kind
	}{
		{"blocked", stubLocator{err: fmt.Errorf("%w: Sign in to confirm you're not a bot", youtube.ErrCaptionQuery)}, stubFetcher{}, KindCaptionQueryFailed},
		{"unavailable", stubLocator{err: fmt.Errorf("%w: Video unavailable", youtube.ErrCaptionQuery)}, stubFetcher{}, KindVideoUnavailable},
		{"no captions", stubLocator{err: youtube.ErrNoCaptions}, stubFetcher{}, KindNoCaptions},
		{"fetch failed", stubLocator{desc: track}, stubFetcher{err: fmt.Errorf("%w: timeout", subtitle.ErrFetch)}, KindFetchFailed},
		{"empty transcript", stubLocator{desc: track}, stubFetcher{lines: []string{"<p></p>"}}, KindEmptyTranscript},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, store := newTestProcessor(t, tt.locator, tt.fetcher)
			out := p.Process(context.Background(), "https://youtu.be/jNQXAC9IVRw", "txt")
			if out.Success {
				t.Fatal("expected failure")
			}
			if out.Kind != tt.want {
				t.Errorf("Kind = %q, want %q", out.Kind, tt.want)
			}
			if out.Message == "" {
				t.Error("expected a message")
			}
			if out.VideoID != "jNQXAC9IVRw" {
				t.Errorf("VideoID = %q", out.VideoID)
			}
			if _, _, err := store.Find(testFileID); !errors.Is(err, storage.ErrArtifactNotFound) {
				t.Errorf("no partial artifact should exist, got %v", err)
			}
		})
	}
}

type failingSaver struct{}

func (failingSaver) Save(*models.ProcessingResult, string) (string, error) {
	return "", errors.New("read-only file system")
}

func TestProcessSaveFailure(t *testing.T) {
	track := &youtube.Descriptor{Language: "es", Format: "vtt", URL: "https://example.invalid"}
	p := NewProcessor(stubLocator{desc: track}, stubFetcher{lines: []string{"hola"}}, failingSaver{})

	out := p.Process(context.Background(), "https://youtu.be/jNQXAC9IVRw", "json")
	if out.Success || out.Kind != KindInternal {
		t.Errorf("outcome = %+v", out)
	}
	if out.Format != models.FormatJSON {
		t.Errorf("Format = %q", out.Format)
	}
}

type cancelingFetcher struct {
	cancel context.CancelFunc
	lines  []string
}

func (c cancelingFetcher) Fetch(ctx context.Context, url string) ([]string, error) {
	c.cancel()
	return c.lines, nil
}

func TestProcessCanceledBeforeSave(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	track := &youtube.Descriptor{Language: "es", Format: "vtt", URL: "https://example.invalid"}
	p, store := newTestProcessor(t, stubLocator{desc: track}, cancelingFetcher{cancel: cancel, lines: []string{"segment 1"}})

	out := p.Process(ctx, "https://youtu.be/jNQXAC9IVRw", "txt")
	if out.Success {
		t.Fatal("canceled run must not be reported as success")
	}
	if out.Kind != KindCanceled {
		t.Errorf("Kind = %q, want %q", out.Kind, KindCanceled)
	}
	if _, _, err := store.Find(testFileID); !errors.Is(err, storage.ErrArtifactNotFound) {
		t.Errorf("no artifact should be saved, got %v", err)
	}
}

func TestProcessManifestCanceledMidway(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mux := http.NewServeMux()
	srv := httptest.NewTLSServer(mux)
	defer srv.Close()

	mux.HandleFunc("/api/timedtext", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("seg") == "1" {
			cancel()
		}
		fmt.Fprintf(w, "WEBVTT\n\n00:00:00.000 --> 00:00:01.000\nsegment %s\n", r.URL.Query().Get("seg"))
	})
	mux.HandleFunc("/es.m3u8", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "#EXTM3U\n")
		for i := 1; i <= 3; i++ {
			fmt.Fprintf(w, "#EXTINF:10.0,\n%s/api/timedtext?seg=%d\n", srv.URL, i)
		}
	})

	fetcher := subtitle.NewFetcher(subtitle.Options{SegmentConcurrency: 1, HTTPClient: srv.Client()})
	p, store := newTestProcessor(t, catalogLocator(srv.URL+"/es.m3u8"), fetcher)

	out := p.Process(ctx, "https://www.youtube.com/watch?v=jNQXAC9IVRw", "json")
	if out.Success || out.Kind != KindCanceled {
		t.Fatalf("outcome = %+v", out)
	}
	files, err := store.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 0 {
		t.Errorf("no artifact should be written, got %d", len(files))
	}
}
