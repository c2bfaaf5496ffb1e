package youtube

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

var (
	// ErrCaptionQuery は全ての取得設定で字幕情報の取得に失敗したことを示す
	ErrCaptionQuery = errors.New("caption query failed with every strategy")
	// ErrNoCaptions は対応言語の字幕が見つからなかったことを示す
	ErrNoCaptions = errors.New("no captions available in a supported language")
)

// Descriptor は選択された字幕トラック
type Descriptor struct {
	Language   string     `json:"language"`
	Format     string     `json:"format"`
	URL        string     `json:"url"`
	Provenance Provenance `json:"provenance"`
}

// CatalogSource は視聴URLから字幕トラック一覧を取得する外部機能
type CatalogSource interface {
	FetchCatalog(ctx context.Context, watchURL string) (*Catalog, error)
}

// CatalogFunc は関数をCatalogSourceとして扱うアダプタ
type CatalogFunc func(ctx context.Context, watchURL string) (*Catalog, error)

// FetchCatalog はCatalogSourceの実装
func (f CatalogFunc) FetchCatalog(ctx context.Context, watchURL string) (*Catalog, error) {
	return f(ctx, watchURL)
}

// Attempt は字幕情報取得の1つの設定（戦略）
type Attempt struct {
	Name   string
	Source CatalogSource
}

// 選択の優先順位
var (
	preferredLanguages = []string{"es", "en"}
	preferredFormats   = map[string]bool{"vtt": true, "srt": true, "ttml": true}
)

// SelectTrack は固定の優先順位で字幕トラックを1つ選ぶ
// 自動生成 → 手動、es → en、vtt/srt/ttml の最初のエントリ（なければ先頭）
func SelectTrack(cat *Catalog) (*Descriptor, bool) {
	if cat == nil {
		return nil, false
	}

	sources := []struct {
		provenance Provenance
		tracks     map[string][]TrackEntry
	}{
		{ProvenanceAutomatic, cat.Automatic},
		{ProvenanceManual, cat.Manual},
	}

	for _, src := range sources {
		for _, lang := range preferredLanguages {
			entries := src.tracks[lang]
			if len(entries) == 0 {
				continue
			}
			entry := entries[0]
			for _, e := range entries {
				if preferredFormats[e.Format] {
					entry = e
					break
				}
			}
			if entry.URL == "" {
				continue
			}
			return &Descriptor{
				Language:   lang,
				Format:     entry.Format,
				URL:        entry.URL,
				Provenance: src.provenance,
			}, true
		}
	}
	return nil, false
}

// Locator は字幕トラックの検索を行う
type Locator struct {
	attempts []Attempt
}

// NewLocator は指定順に試行するLocatorを作成
func NewLocator(attempts ...Attempt) *Locator {
	return &Locator{attempts: attempts}
}

// Attempts は試行順の設定一覧を返す
func (l *Locator) Attempts() []Attempt {
	return l.attempts
}

// FetchCatalog は設定を順に試し、最初に成功した字幕一覧と設定名を返す
func (l *Locator) FetchCatalog(ctx context.Context, videoID string) (*Catalog, string, error) {
	watchURL := WatchURL(videoID)

	var errs []error
	for _, attempt := range l.attempts {
		if err := ctx.Err(); err != nil {
			return nil, "", err
		}

		cat, err := attempt.Source.FetchCatalog(ctx, watchURL)
		if err != nil {
			slog.Warn("caption query strategy failed",
				"stage", "locate",
				"video_id", videoID,
				"strategy", attempt.Name,
				"err", err)
			errs = append(errs, fmt.Errorf("%s: %w", attempt.Name, err))
			continue
		}

		slog.Info("caption query strategy succeeded",
			"stage", "locate",
			"video_id", videoID,
			"strategy", attempt.Name,
			"automatic_languages", len(cat.Automatic),
			"manual_languages", len(cat.Manual))
		return cat, attempt.Name, nil
	}

	if len(errs) == 0 {
		return nil, "", ErrCaptionQuery
	}
	return nil, "", fmt.Errorf("%w: %w", ErrCaptionQuery, errors.Join(errs...))
}

// Locate は動画IDから字幕トラックを1つ選択する
func (l *Locator) Locate(ctx context.Context, videoID string) (*Descriptor, error) {
	cat, _, err := l.FetchCatalog(ctx, videoID)
	if err != nil {
		return nil, err
	}

	desc, ok := SelectTrack(cat)
	if !ok {
		slog.Info("no caption track selected", "stage", "locate", "video_id", videoID)
		return nil, ErrNoCaptions
	}

	slog.Info("caption track selected",
		"stage", "locate",
		"video_id", videoID,
		"language", desc.Language,
		"format", desc.Format,
		"provenance", desc.Provenance)
	return desc, nil
}
