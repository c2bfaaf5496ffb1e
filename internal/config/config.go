package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/anatolykoptev/go-kit/env"
	"github.com/joho/godotenv"
)

// Config はサーバー・CLI共通の設定
type Config struct {
	Host string
	Port string

	APIUsername string
	APIPassword string

	OutputDir string
	DBPath    string

	HTTPTimeout        time.Duration
	SegmentConcurrency int
	SegmentRatePerSec  float64

	BrowserFallback bool
	BrowserPath     string
	Proxy           string

	WorkerInterval   time.Duration
	WorkerMaxRetries int

	LogLevel  string
	LogFormat string
}

// Load は.envファイル（存在する場合）と環境変数から設定を読み込む
func Load() *Config {
	// .envファイルを読み込み（存在しない場合はスキップ）
	_ = godotenv.Load()

	return &Config{
		Host:               env.Str("HOST", "0.0.0.0"),
		Port:               env.Str("PORT", "8000"),
		APIUsername:        env.Str("API_USERNAME", "admin"),
		APIPassword:        env.Str("API_PASSWORD", "password123"),
		OutputDir:          env.Str("OUTPUT_DIR", "outputs"),
		DBPath:             env.Str("DB_PATH", "data/ytprompt.db"),
		HTTPTimeout:        env.Duration("HTTP_TIMEOUT", 20*time.Second),
		SegmentConcurrency: env.Int("SEGMENT_CONCURRENCY", 4),
		SegmentRatePerSec:  env.Float("SEGMENT_RATE_PER_SEC", 0),
		BrowserFallback:    boolEnv("BROWSER_FALLBACK", false),
		BrowserPath:        env.Str("BROWSER_PATH", ""),
		Proxy:              env.Str("PROXY", ""),
		WorkerInterval:     env.Duration("WORKER_INTERVAL", time.Second),
		WorkerMaxRetries:   env.Int("WORKER_MAX_RETRIES", 0),
		LogLevel:           env.Str("LOG_LEVEL", "info"),
		LogFormat:          env.Str("LOG_FORMAT", "text"),
	}
}

// Addr はlisten用のアドレスを返す
func (c *Config) Addr() string {
	return c.Host + ":" + c.Port
}

// UsingDefaultCredentials は認証情報が初期値のままかを返す
func (c *Config) UsingDefaultCredentials() bool {
	return c.APIUsername == "admin" && c.APIPassword == "password123"
}

// SetupLogger はLOG_LEVEL/LOG_FORMATに従ってデフォルトロガーを設定する
func SetupLogger(level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}

	var handler slog.Handler
	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// ParseLevel はログレベル名をslog.Levelに変換する（不明な値はinfo）
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func boolEnv(key string, def bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
