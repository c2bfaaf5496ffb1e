package webfetch

import (
	"context"
	"sync"
	"time"

	"github.com/naozine/nz-html-fetch/pkg/htmlfetch"
)

// watchPageSelector は視聴ページの描画完了を待つセレクタ
const watchPageSelector = "ytd-app"

// Client はヘッドレスブラウザでページを描画するクライアント
// ブラウザは最初のFetchPage呼び出し時に起動する
type Client struct {
	opts    Options
	fetcher *htmlfetch.Fetcher

	mu      sync.Mutex
	started bool
}

// Options はクライアント作成オプション
type Options struct {
	Stealth     bool          // ボット検出回避
	Proxy       string        // プロキシアドレス
	BrowserPath string        // ブラウザパス
	WaitTime    time.Duration // セレクタ待機時間
}

// Result はフェッチ結果
type Result struct {
	URL      string        `json:"url"`
	Content  string        `json:"content"`
	Duration time.Duration `json:"duration"`
}

// NewClient は新しいクライアントを作成
func NewClient(opts Options) *Client {
	var fetcherOpts []htmlfetch.Option
	if opts.BrowserPath != "" {
		fetcherOpts = append(fetcherOpts, htmlfetch.WithBrowserPath(opts.BrowserPath))
	}
	if opts.Proxy != "" {
		fetcherOpts = append(fetcherOpts, htmlfetch.WithProxy(opts.Proxy))
	}
	fetcherOpts = append(fetcherOpts, htmlfetch.WithStealth(opts.Stealth))

	if opts.WaitTime <= 0 {
		opts.WaitTime = 30 * time.Second
	}

	return &Client{
		opts:    opts,
		fetcher: htmlfetch.New(fetcherOpts...),
	}
}

// ensureStarted はブラウザが未起動なら起動する
func (c *Client) ensureStarted() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started {
		return nil
	}
	if err := c.fetcher.Start(); err != nil {
		return err
	}
	c.started = true
	return nil
}

// Close はブラウザを終了
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.started {
		return nil
	}
	c.started = false
	return c.fetcher.Close()
}

// FetchHTML はURLから描画後のHTMLを取得
func (c *Client) FetchHTML(ctx context.Context, url string) (*Result, error) {
	if err := c.ensureStarted(); err != nil {
		return nil, err
	}

	fetchOpts := []htmlfetch.FetchOption{
		htmlfetch.WithBlocking(htmlfetch.BlockingOptions{Ads: true, Image: true}),
		htmlfetch.WithSelector(watchPageSelector, c.opts.WaitTime),
	}

	result, err := c.fetcher.Fetch(ctx, url, fetchOpts...)
	if err != nil {
		return nil, err
	}

	return &Result{
		URL:      result.FinalURL,
		Content:  result.HTML,
		Duration: result.Duration,
	}, nil
}

// FetchPage はHTML本文のみを返す（youtube.PageFetcherの実装）
func (c *Client) FetchPage(ctx context.Context, url string) (string, error) {
	result, err := c.FetchHTML(ctx, url)
	if err != nil {
		return "", err
	}
	return result.Content, nil
}
