package app

import (
	"log/slog"

	"ytprompt/internal/config"
	"ytprompt/internal/pipeline"
	"ytprompt/internal/storage"
	"ytprompt/internal/subtitle"
	"ytprompt/internal/webfetch"
	"ytprompt/internal/youtube"
)

// Components はサーバーとCLIで共有する処理部品
type Components struct {
	Locator   *youtube.Locator
	Fetcher   *subtitle.Fetcher
	Store     *storage.ArtifactStore
	Processor *pipeline.Processor

	browser *webfetch.Client
}

// New は設定から処理部品を組み立てる
func New(cfg *config.Config, outputDir string) (*Components, error) {
	if outputDir == "" {
		outputDir = cfg.OutputDir
	}
	store, err := storage.NewArtifactStore(outputDir)
	if err != nil {
		return nil, err
	}

	c := &Components{Store: store}

	attempts := youtube.PlayerAttempts(youtube.DefaultStrategies, cfg.HTTPTimeout)
	if cfg.BrowserFallback {
		c.browser = webfetch.NewClient(webfetch.Options{
			Stealth:     true,
			Proxy:       cfg.Proxy,
			BrowserPath: cfg.BrowserPath,
		})
		attempts = append(attempts, youtube.Attempt{
			Name:   "Headless browser",
			Source: youtube.NewBrowserSource(c.browser),
		})
	}
	c.Locator = youtube.NewLocator(attempts...)

	c.Fetcher = subtitle.NewFetcher(subtitle.Options{
		Timeout:            cfg.HTTPTimeout,
		SegmentConcurrency: cfg.SegmentConcurrency,
		SegmentRatePerSec:  cfg.SegmentRatePerSec,
		Headers:            youtube.DefaultStrategies[0].Headers,
	})

	c.Processor = pipeline.NewProcessor(c.Locator, c.Fetcher, c.Store)

	slog.Debug("components ready",
		"output_dir", store.Dir(),
		"attempts", len(attempts),
		"browser_fallback", cfg.BrowserFallback)
	return c, nil
}

// Close は起動済みのブラウザを終了する
func (c *Components) Close() error {
	if c.browser == nil {
		return nil
	}
	return c.browser.Close()
}
