package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"ytprompt/internal/models"
	"ytprompt/internal/pipeline"
	"ytprompt/internal/storage"
	"ytprompt/internal/youtube"
)

// JobSubmitter はジョブをキューに登録する
type JobSubmitter interface {
	SubmitJob(ctx context.Context, url, format string) (*models.ProcessingJob, error)
}

// JobHandler はジョブAPIのハンドラー
type JobHandler struct {
	repo      *storage.JobRepository
	submitter JobSubmitter
}

// NewJobHandler は新しいJobHandlerを作成
func NewJobHandler(repo *storage.JobRepository, submitter JobSubmitter) *JobHandler {
	return &JobHandler{repo: repo, submitter: submitter}
}

// Submit は処理ジョブを登録する
func (h *JobHandler) Submit(c echo.Context) error {
	ctx := c.Request().Context()

	var req ProcessRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	req.URL = strings.TrimSpace(req.URL)
	if _, ok := youtube.ExtractVideoID(req.URL); !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:       "Invalid YouTube URL",
			Message:     "Could not extract a video id from the URL",
			Suggestions: suggestionsFor(pipeline.KindInvalidInput),
		})
	}

	job, err := h.submitter.SubmitJob(ctx, req.URL, req.OutputFormat)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusAccepted, job)
}

// List はジョブ一覧を取得
func (h *JobHandler) List(c echo.Context) error {
	ctx := c.Request().Context()

	limit := 50
	if l := c.QueryParam("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil {
			limit = parsed
		}
	}

	jobs, err := h.repo.ListRecent(ctx, limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, jobs)
}

// Get はジョブを取得
func (h *JobHandler) Get(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")

	job, err := h.repo.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	if job == nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "job not found"})
	}

	type jobResponse struct {
		*models.ProcessingJob
		DownloadURL string `json:"download_url,omitempty"`
	}
	resp := jobResponse{ProcessingJob: job}
	if job.FileID != "" {
		resp.DownloadURL = models.DownloadURL(job.FileID)
	}

	return c.JSON(http.StatusOK, resp)
}

// Stats はジョブ統計を取得
func (h *JobHandler) Stats(c echo.Context) error {
	ctx := c.Request().Context()

	counts, err := h.repo.CountByStatus(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, counts)
}

// Delete はジョブを削除
func (h *JobHandler) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")

	job, err := h.repo.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	if job == nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "job not found"})
	}

	if err := h.repo.Delete(ctx, id); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.NoContent(http.StatusNoContent)
}
