package youtube

import (
	"context"
	"fmt"
	"net/http"
	"time"

	ytdl "github.com/kkdai/youtube/v2"
)

// Strategy はプレイヤーAPI問い合わせ時に名乗るクライアント情報
type Strategy struct {
	Name    string
	Headers map[string]string
}

// DefaultStrategies は既定の試行順
// Accept-Encodingは設定しない（net/httpの透過的な展開が無効になるため）
var DefaultStrategies = []Strategy{
	{
		Name: "Standard with headers",
		Headers: map[string]string{
			"User-Agent":                "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
			"Accept-Language":           "en-us,en;q=0.5",
			"DNT":                       "1",
			"Upgrade-Insecure-Requests": "1",
		},
	},
	{
		Name: "Android client only",
		Headers: map[string]string{
			"User-Agent": "com.google.android.youtube/20.10.38 (Linux; U; Android 11) gzip",
		},
	},
	{
		Name: "Basic configuration",
	},
}

// headerTransport は全リクエストに固定ヘッダーを付与する
type headerTransport struct {
	base    http.RoundTripper
	headers map[string]string
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if len(t.headers) > 0 {
		req = req.Clone(req.Context())
		for k, v := range t.headers {
			req.Header.Set(k, v)
		}
	}
	return t.base.RoundTrip(req)
}

// PlayerSource はYouTubeプレイヤーAPI経由で字幕一覧を取得する
type PlayerSource struct {
	client ytdl.Client
}

// NewPlayerSource は指定のクライアント情報で問い合わせるPlayerSourceを作成
func NewPlayerSource(strategy Strategy, timeout time.Duration) *PlayerSource {
	return &PlayerSource{
		client: ytdl.Client{
			HTTPClient: &http.Client{
				Timeout: timeout,
				Transport: &headerTransport{
					base:    http.DefaultTransport,
					headers: strategy.Headers,
				},
			},
		},
	}
}

// FetchCatalog は動画情報を取得し字幕トラック一覧に変換する
func (s *PlayerSource) FetchCatalog(ctx context.Context, watchURL string) (*Catalog, error) {
	video, err := s.client.GetVideoContext(ctx, watchURL)
	if err != nil {
		return nil, fmt.Errorf("failed to get video: %w", err)
	}
	return catalogFromTracks(video.CaptionTracks), nil
}

// PlayerAttempts はStrategyごとのAttemptを生成
func PlayerAttempts(strategies []Strategy, timeout time.Duration) []Attempt {
	attempts := make([]Attempt, 0, len(strategies))
	for _, s := range strategies {
		attempts = append(attempts, Attempt{
			Name:   s.Name,
			Source: NewPlayerSource(s, timeout),
		})
	}
	return attempts
}
