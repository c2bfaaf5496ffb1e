package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	ytdl "github.com/kkdai/youtube/v2"
)

// playerResponseMarker は視聴ページ内のプレイヤーレスポンス代入箇所
const playerResponseMarker = "ytInitialPlayerResponse"

// PageFetcher はレンダリング済みのHTMLを取得する
type PageFetcher interface {
	FetchPage(ctx context.Context, url string) (string, error)
}

// BrowserSource はヘッドレスブラウザで視聴ページを開き字幕一覧を取得する
type BrowserSource struct {
	pages PageFetcher
}

// NewBrowserSource は新しいBrowserSourceを作成
func NewBrowserSource(pages PageFetcher) *BrowserSource {
	return &BrowserSource{pages: pages}
}

// FetchCatalog はCatalogSourceの実装
func (s *BrowserSource) FetchCatalog(ctx context.Context, watchURL string) (*Catalog, error) {
	html, err := s.pages.FetchPage(ctx, watchURL)
	if err != nil {
		return nil, fmt.Errorf("failed to render watch page: %w", err)
	}

	tracks, err := parseWatchPage(html)
	if err != nil {
		return nil, err
	}
	return catalogFromTracks(tracks), nil
}

// プレイヤーレスポンスのうち字幕関連部分
type playerResponse struct {
	Captions *struct {
		Renderer struct {
			CaptionTracks []playerCaptionTrack `json:"captionTracks"`
		} `json:"playerCaptionsTracklistRenderer"`
	} `json:"captions"`
	PlayabilityStatus *struct {
		Status string `json:"status"`
		Reason string `json:"reason"`
	} `json:"playabilityStatus"`
}

type playerCaptionTrack struct {
	BaseURL        string `json:"baseUrl"`
	LanguageCode   string `json:"languageCode"`
	Kind           string `json:"kind"`
	VssID          string `json:"vssId"`
	IsTranslatable bool   `json:"isTranslatable"`
}

// parseWatchPage は視聴ページHTMLのscriptからプレイヤーレスポンスを取り出す
func parseWatchPage(html string) ([]ytdl.CaptionTrack, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse watch page: %w", err)
	}

	var raw string
	doc.Find("script").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := s.Text()
		idx := strings.Index(text, playerResponseMarker)
		if idx < 0 {
			return true
		}
		if obj, ok := extractJSONObject(text[idx+len(playerResponseMarker):]); ok {
			raw = obj
			return false
		}
		return true
	})
	if raw == "" {
		return nil, errors.New("ytInitialPlayerResponse not found in watch page")
	}

	var resp playerResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		return nil, fmt.Errorf("failed to decode player response: %w", err)
	}

	if resp.Captions == nil {
		if st := resp.PlayabilityStatus; st != nil && st.Status != "" && st.Status != "OK" {
			return nil, fmt.Errorf("video unavailable: %s (%s)", st.Reason, st.Status)
		}
		return nil, nil
	}

	tracks := make([]ytdl.CaptionTrack, 0, len(resp.Captions.Renderer.CaptionTracks))
	for _, t := range resp.Captions.Renderer.CaptionTracks {
		tracks = append(tracks, ytdl.CaptionTrack{
			BaseURL:        t.BaseURL,
			LanguageCode:   t.LanguageCode,
			Kind:           t.Kind,
			VssID:          t.VssID,
			IsTranslatable: t.IsTranslatable,
		})
	}
	return tracks, nil
}

// extractJSONObject は文字列中の最初の '{' から対応する '}' までを返す
func extractJSONObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}
