package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"ytprompt/internal/models"
	"ytprompt/internal/pipeline"
	"ytprompt/internal/storage"
)

// Processor は動画1本の処理を実行する
type Processor interface {
	Process(ctx context.Context, rawURL, format string) *pipeline.Outcome
}

// ProcessRequest はPOST /processのリクエスト
type ProcessRequest struct {
	URL          string `json:"url"`
	OutputFormat string `json:"output_format"`
}

// ProcessResponse はPOST /processの成功レスポンス
type ProcessResponse struct {
	Success     bool   `json:"success"`
	Message     string `json:"message"`
	FileID      string `json:"file_id"`
	VideoID     string `json:"video_id"`
	DownloadURL string `json:"download_url"`
}

// ErrorResponse は失敗時のレスポンス
type ErrorResponse struct {
	Error       string   `json:"error"`
	Message     string   `json:"message"`
	Kind        string   `json:"error_kind,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// ProcessHandler は同期処理APIのハンドラー
type ProcessHandler struct {
	processor Processor
	jobs      *storage.JobRepository
}

// NewProcessHandler は新しいProcessHandlerを作成
// jobsがnilの場合は実行履歴を記録しない
func NewProcessHandler(processor Processor, jobs *storage.JobRepository) *ProcessHandler {
	return &ProcessHandler{processor: processor, jobs: jobs}
}

// Process は動画を処理して成果物のIDを返す
func (h *ProcessHandler) Process(c echo.Context) error {
	ctx := c.Request().Context()

	var req ProcessRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Request body must be JSON: {\"url\": \"...\", \"output_format\": \"txt\"}",
		})
	}
	req.URL = strings.TrimSpace(req.URL)
	if req.URL == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   string(pipeline.KindInvalidInput),
			Message: "url is required",
		})
	}

	job := h.record(ctx, req)
	out := h.processor.Process(ctx, req.URL, req.OutputFormat)
	h.finish(ctx, job, out)

	if !out.Success {
		return c.JSON(statusFor(out.Kind), ErrorResponse{
			Error:       errorTitle(out.Kind),
			Message:     out.Message,
			Kind:        string(out.Kind),
			Suggestions: suggestionsFor(out.Kind),
		})
	}

	return c.JSON(http.StatusOK, ProcessResponse{
		Success:     true,
		Message:     out.Message,
		FileID:      out.FileID,
		VideoID:     out.VideoID,
		DownloadURL: models.DownloadURL(out.FileID),
	})
}

// record は同期実行を実行中ジョブとして記録する
func (h *ProcessHandler) record(ctx context.Context, req ProcessRequest) *models.ProcessingJob {
	if h.jobs == nil {
		return nil
	}
	now := time.Now()
	job := &models.ProcessingJob{
		Type:         models.JobTypeProcess,
		URL:          req.URL,
		OutputFormat: models.NormalizeFormat(req.OutputFormat),
		Status:       models.JobStatusRunning,
		StartedAt:    &now,
	}
	if err := h.jobs.Create(ctx, job); err != nil {
		slog.Warn("failed to record job", "err", err)
		return nil
	}
	return job
}

func (h *ProcessHandler) finish(ctx context.Context, job *models.ProcessingJob, out *pipeline.Outcome) {
	if job == nil {
		return
	}
	// クライアント切断後も結果は記録する
	ctx = context.WithoutCancel(ctx)
	var err error
	if out.Success {
		err = h.jobs.Complete(ctx, job.ID, out.VideoID, out.FileID, out.Message)
	} else {
		err = h.jobs.Fail(ctx, job.ID, out.VideoID, string(out.Kind), out.Message)
	}
	if err != nil {
		slog.Warn("failed to update job", "job_id", job.ID, "err", err)
	}
}

// statusFor は失敗の分類をHTTPステータスに対応付ける
func statusFor(kind pipeline.Kind) int {
	switch kind {
	case pipeline.KindInvalidInput:
		return http.StatusBadRequest
	case pipeline.KindCaptionQueryFailed:
		return http.StatusTooManyRequests
	case pipeline.KindVideoUnavailable:
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func errorTitle(kind pipeline.Kind) string {
	switch kind {
	case pipeline.KindInvalidInput:
		return "Invalid YouTube URL"
	case pipeline.KindCaptionQueryFailed:
		return "YouTube blocked the request"
	case pipeline.KindVideoUnavailable:
		return "Video unavailable"
	}
	return "Error processing video"
}

func suggestionsFor(kind pipeline.Kind) []string {
	switch kind {
	case pipeline.KindInvalidInput:
		return []string{
			"Use a URL like https://www.youtube.com/watch?v=VIDEO_ID",
			"Short links (youtu.be) and /shorts/ URLs are also accepted",
		}
	case pipeline.KindCaptionQueryFailed:
		return []string{
			"Wait a few minutes and try again",
			"Try a different video",
			"Enable BROWSER_FALLBACK to retry through a headless browser",
		}
	case pipeline.KindVideoUnavailable:
		return []string{
			"Check that the video is public",
			"Check that the URL is correct",
		}
	case pipeline.KindNoCaptions:
		return []string{"Choose a video with Spanish or English captions"}
	}
	return nil
}
