package youtube

import (
	"net/url"
	"strings"

	ytdl "github.com/kkdai/youtube/v2"
)

// Provenance は字幕トラックの出自（自動生成 or 手動）
type Provenance string

const (
	ProvenanceAutomatic Provenance = "automatic"
	ProvenanceManual    Provenance = "manual"
)

// TrackEntry は1言語分の字幕トラックの1フォーマット
type TrackEntry struct {
	Format string `json:"format"`
	URL    string `json:"url"`
}

// Catalog は動画で利用可能な字幕トラックの一覧
// ソースカテゴリごとに 言語コード → フォーマット一覧 を保持する
type Catalog struct {
	Automatic map[string][]TrackEntry `json:"automatic_captions"`
	Manual    map[string][]TrackEntry `json:"subtitles"`
}

// NewCatalog は空のCatalogを作成
func NewCatalog() *Catalog {
	return &Catalog{
		Automatic: make(map[string][]TrackEntry),
		Manual:    make(map[string][]TrackEntry),
	}
}

// IsEmpty は字幕トラックが1つもないかどうかを返す
func (c *Catalog) IsEmpty() bool {
	return c == nil || (len(c.Automatic) == 0 && len(c.Manual) == 0)
}

// timedtextFormats はtimedtextエンドポイントが提供するフォーマット（提供順）
var timedtextFormats = []string{"json3", "srv1", "srv2", "srv3", "ttml", "vtt"}

// translationTargets は自動翻訳字幕として補完する言語
var translationTargets = []string{"es", "en"}

// catalogFromTracks はプレイヤーレスポンスの字幕トラックをCatalogに変換
func catalogFromTracks(tracks []ytdl.CaptionTrack) *Catalog {
	cat := NewCatalog()
	var translatable []ytdl.CaptionTrack

	for _, track := range tracks {
		if track.BaseURL == "" || track.LanguageCode == "" {
			continue
		}
		entries := formatEntries(track.BaseURL, "")
		if len(entries) == 0 {
			continue
		}

		if isAutomatic(track) {
			if _, ok := cat.Automatic[track.LanguageCode]; !ok {
				cat.Automatic[track.LanguageCode] = entries
			}
			if track.IsTranslatable {
				translatable = append(translatable, track)
			}
			continue
		}
		if _, ok := cat.Manual[track.LanguageCode]; !ok {
			cat.Manual[track.LanguageCode] = entries
		}
	}

	// 自動生成トラックからの翻訳字幕（最初の翻訳可能トラックを元にする）
	if len(translatable) > 0 {
		base := translatable[0]
		for _, lang := range translationTargets {
			if _, ok := cat.Automatic[lang]; ok {
				continue
			}
			if entries := formatEntries(base.BaseURL, lang); len(entries) > 0 {
				cat.Automatic[lang] = entries
			}
		}
	}

	return cat
}

// isAutomatic は自動生成（ASR）トラックかどうかを判定
func isAutomatic(track ytdl.CaptionTrack) bool {
	return track.Kind == "asr" || strings.HasPrefix(track.VssID, "a.")
}

// formatEntries はベースURLからフォーマットごとのエントリを生成
// tlangが空でない場合は翻訳先言語を指定する
func formatEntries(baseURL, tlang string) []TrackEntry {
	u, err := url.Parse(baseURL)
	if err != nil || u.Host == "" {
		return nil
	}

	entries := make([]TrackEntry, 0, len(timedtextFormats))
	for _, format := range timedtextFormats {
		q := u.Query()
		q.Set("fmt", format)
		if tlang != "" {
			q.Set("tlang", tlang)
		}
		entry := *u
		entry.RawQuery = q.Encode()
		entries = append(entries, TrackEntry{Format: format, URL: entry.String()})
	}
	return entries
}
