package subtitle

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const (
	manifestMarker    = "#EXTM3U"
	manifestExtension = ".m3u8"
	timedTextMarker   = "timedtext"
)

// maxBodySize は1レスポンスの上限（超えた場合はErrFetch）
var maxBodySize = 16 * 1024 * 1024

// ErrFetch は字幕ファイルのダウンロード失敗を示す
var ErrFetch = errors.New("subtitle fetch failed")

// Options はFetcherの設定
type Options struct {
	Timeout            time.Duration // 1リクエストあたりのタイムアウト
	SegmentConcurrency int           // セグメントの同時取得数（1で逐次）
	SegmentRatePerSec  float64       // セグメント取得の秒間上限（0で無制限）
	Headers            map[string]string
	HTTPClient         *http.Client // nilの場合はTimeoutから作成
}

// Fetcher は字幕ファイル（およびセグメント化されたプレイリスト）を取得する
type Fetcher struct {
	client      *http.Client
	headers     map[string]string
	concurrency int
	limiter     *rate.Limiter
}

// NewFetcher は新しいFetcherを作成
func NewFetcher(opts Options) *Fetcher {
	f := &Fetcher{
		client:      &http.Client{Timeout: opts.Timeout},
		headers:     opts.Headers,
		concurrency: opts.SegmentConcurrency,
	}
	if opts.HTTPClient != nil {
		f.client = opts.HTTPClient
	}
	if f.concurrency < 1 {
		f.concurrency = 1
	}
	if opts.SegmentRatePerSec > 0 {
		f.limiter = rate.NewLimiter(rate.Limit(opts.SegmentRatePerSec), 1)
	}
	return f
}

// Fetch はURLから字幕を取得し、メタデータ行を除いた行を返す
// 本文がM3U8プレイリストの場合は各セグメントを取得して連結する
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]string, error) {
	body, err := f.get(ctx, url)
	if err != nil {
		return nil, err
	}

	slog.Info("subtitle downloaded", "stage", "fetch", "bytes", len(body))

	if strings.HasPrefix(body, manifestMarker) || strings.Contains(url, manifestExtension) {
		return f.fetchSegments(ctx, segmentURLs(body))
	}

	lines := FilterLines(splitLines(body))
	slog.Info("subtitle lines filtered", "stage", "fetch", "lines", len(lines))
	return lines, nil
}

// segmentURLs はプレイリストからtimedtextセグメントのURLを記載順に取り出す
func segmentURLs(manifest string) []string {
	var urls []string
	for _, line := range splitLines(manifest) {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "https://") && strings.Contains(line, timedTextMarker) {
			urls = append(urls, line)
		}
	}
	return urls
}

// fetchSegments はセグメントを取得し、記載順に連結する
// 失敗したセグメントはスキップする
func (f *Fetcher) fetchSegments(ctx context.Context, urls []string) ([]string, error) {
	slog.Info("manifest detected", "stage", "fetch", "segments", len(urls))

	results := make([][]string, len(urls))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.concurrency)

	for i, u := range urls {
		g.Go(func() error {
			if f.limiter != nil {
				if err := f.limiter.Wait(gctx); err != nil {
					return err
				}
			}

			body, err := f.get(gctx, u)
			if err != nil {
				// キャンセル時はスキップせず全体を中断する
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				slog.Warn("segment skipped",
					"stage", "fetch",
					"segment", fmt.Sprintf("%d/%d", i+1, len(urls)),
					"err", err)
				return nil
			}
			results[i] = FilterLines(splitLines(body))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}

	var lines []string
	fetched := 0
	for _, r := range results {
		if r != nil {
			fetched++
		}
		lines = append(lines, r...)
	}

	slog.Info("manifest assembled",
		"stage", "fetch",
		"segments", len(urls),
		"fetched", fetched,
		"lines", len(lines))
	return lines, nil
}

// get はGETリクエストを送り本文を返す
func (f *Fetcher) get(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrFetch, err)
	}
	for k, v := range f.headers {
		req.Header.Set(k, v)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: HTTP request failed: %w", ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%w: unexpected status code: %d", ErrFetch, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, int64(maxBodySize)+1))
	if err != nil {
		return "", fmt.Errorf("%w: failed to read response: %w", ErrFetch, err)
	}
	if len(body) > maxBodySize {
		return "", fmt.Errorf("%w: response too large (over %d bytes)", ErrFetch, maxBodySize)
	}
	return string(body), nil
}
