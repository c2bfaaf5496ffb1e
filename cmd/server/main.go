package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"ytprompt/internal/app"
	"ytprompt/internal/config"
	"ytprompt/internal/handlers"
	"ytprompt/internal/models"
	"ytprompt/internal/storage"
	"ytprompt/internal/version"
	"ytprompt/internal/worker"
)

func main() {
	cfg := config.Load()
	config.SetupLogger(cfg.LogLevel, cfg.LogFormat)

	if cfg.UsingDefaultCredentials() {
		slog.Warn("using default API credentials; set API_USERNAME and API_PASSWORD")
	}

	components, err := app.New(cfg, "")
	if err != nil {
		slog.Error("failed to initialize", "err", err)
		os.Exit(1)
	}
	defer components.Close()

	db, err := storage.Open(cfg.DBPath)
	if err != nil {
		slog.Error("failed to open database", "path", cfg.DBPath, "err", err)
		os.Exit(1)
	}
	defer db.Close()

	jobRepo := storage.NewJobRepository(db)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ワーカーの起動
	w := worker.NewWorker(jobRepo)
	w.SetInterval(cfg.WorkerInterval)
	w.SetMaxRetries(cfg.WorkerMaxRetries)
	w.RegisterHandler(models.JobTypeProcess, worker.ProcessHandler(components.Processor))
	w.Start(ctx)

	// Echoインスタンスの作成
	e := echo.New()
	e.HideBanner = true

	// ミドルウェアの設定
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	// ルートの登録
	handlers.Register(e,
		handlers.Credentials{Username: cfg.APIUsername, Password: cfg.APIPassword},
		handlers.Routes{
			Process: handlers.NewProcessHandler(components.Processor, jobRepo),
			Files:   handlers.NewFileHandler(components.Store),
			Jobs:    handlers.NewJobHandler(jobRepo, w),
		})

	go func() {
		slog.Info("starting ytprompt", "version", version.Version, "addr", cfg.Addr(), "output_dir", components.Store.Dir())
		if err := e.Start(cfg.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "err", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown failed", "err", err)
	}
	w.Stop()
}
