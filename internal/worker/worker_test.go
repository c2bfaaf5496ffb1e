package worker

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ytprompt/internal/models"
	"ytprompt/internal/pipeline"
	"ytprompt/internal/storage"
)

func newTestWorker(t *testing.T) (*Worker, *storage.JobRepository) {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "jobs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := storage.NewJobRepository(db)
	return NewWorker(repo), repo
}

type stubProcessor struct {
	out   *pipeline.Outcome
	calls int
}

func (s *stubProcessor) Process(ctx context.Context, rawURL, format string) *pipeline.Outcome {
	s.calls++
	return s.out
}

func TestProcessNextJobCompletes(t *testing.T) {
	ctx := context.Background()
	w, repo := newTestWorker(t)

	proc := &stubProcessor{out: &pipeline.Outcome{
		Success: true,
		Message: "Video processed successfully",
		VideoID: "jNQXAC9IVRw",
		FileID:  "3f1c2a9e-8b7d-4c6e-9a1b-2d3e4f5a6b7c",
	}}
	w.RegisterHandler(models.JobTypeProcess, ProcessHandler(proc))

	job, err := w.SubmitJob(ctx, "https://youtu.be/jNQXAC9IVRw", "json")
	require.NoError(t, err)
	assert.Equal(t, models.FormatJSON, job.OutputFormat)

	assert.True(t, w.processNextJob(ctx))
	assert.False(t, w.processNextJob(ctx), "queue should be empty")

	got, err := repo.GetByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusCompleted, got.Status)
	assert.Equal(t, "3f1c2a9e-8b7d-4c6e-9a1b-2d3e4f5a6b7c", got.FileID)
	assert.Equal(t, "jNQXAC9IVRw", got.VideoID)
	assert.Equal(t, 1, proc.calls)
}

func TestProcessNextJobFailsWithoutRetries(t *testing.T) {
	ctx := context.Background()
	w, repo := newTestWorker(t)

	proc := &stubProcessor{out: &pipeline.Outcome{
		Kind:    pipeline.KindCaptionQueryFailed,
		Message: "blocked",
		VideoID: "jNQXAC9IVRw",
	}}
	w.RegisterHandler(models.JobTypeProcess, ProcessHandler(proc))

	job, err := w.SubmitJob(ctx, "https://youtu.be/jNQXAC9IVRw", "txt")
	require.NoError(t, err)
	require.True(t, w.processNextJob(ctx))

	got, err := repo.GetByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusFailed, got.Status)
	assert.Equal(t, string(pipeline.KindCaptionQueryFailed), got.ErrorKind)
	assert.Equal(t, "blocked", got.Message)
}

func TestRetryableFailureIsRequeued(t *testing.T) {
	ctx := context.Background()
	w, repo := newTestWorker(t)
	w.SetMaxRetries(1)

	proc := &stubProcessor{out: &pipeline.Outcome{Kind: pipeline.KindFetchFailed, Message: "timeout"}}
	w.RegisterHandler(models.JobTypeProcess, ProcessHandler(proc))

	job, err := w.SubmitJob(ctx, "https://youtu.be/jNQXAC9IVRw", "txt")
	require.NoError(t, err)

	require.True(t, w.processNextJob(ctx))
	got, err := repo.GetByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusQueued, got.Status)
	assert.Equal(t, 1, got.RetryCount)

	require.True(t, w.processNextJob(ctx))
	got, err = repo.GetByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusFailed, got.Status)
	assert.Equal(t, 2, proc.calls)
}

func TestPermanentFailureIsNotRetried(t *testing.T) {
	ctx := context.Background()
	w, repo := newTestWorker(t)
	w.SetMaxRetries(3)

	proc := &stubProcessor{out: &pipeline.Outcome{Kind: pipeline.KindNoCaptions, Message: "none"}}
	w.RegisterHandler(models.JobTypeProcess, ProcessHandler(proc))

	job, err := w.SubmitJob(ctx, "https://youtu.be/jNQXAC9IVRw", "txt")
	require.NoError(t, err)
	require.True(t, w.processNextJob(ctx))

	got, err := repo.GetByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusFailed, got.Status)
	assert.Equal(t, 1, proc.calls)
}

func TestPlainHandlerErrorIsInternal(t *testing.T) {
	ctx := context.Background()
	w, repo := newTestWorker(t)
	w.RegisterHandler(models.JobTypeProcess, func(ctx context.Context, job *models.ProcessingJob) (*Result, error) {
		return nil, errors.New("kaboom")
	})

	job, err := w.SubmitJob(ctx, "https://youtu.be/jNQXAC9IVRw", "txt")
	require.NoError(t, err)
	require.True(t, w.processNextJob(ctx))

	got, err := repo.GetByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusFailed, got.Status)
	assert.Equal(t, "internal", got.ErrorKind)
	assert.Equal(t, "kaboom", got.Message)
}

func TestUnknownJobTypeFails(t *testing.T) {
	ctx := context.Background()
	w, repo := newTestWorker(t)

	job := &models.ProcessingJob{Type: "transcode", URL: "x"}
	require.NoError(t, repo.Create(ctx, job))
	require.True(t, w.processNextJob(ctx))

	got, err := repo.GetByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusFailed, got.Status)
	assert.Contains(t, got.Message, "transcode")
}

func TestStartStop(t *testing.T) {
	w, repo := newTestWorker(t)
	w.SetInterval(10 * time.Millisecond)

	done := make(chan struct{}, 1)
	w.RegisterHandler(models.JobTypeProcess, func(ctx context.Context, job *models.ProcessingJob) (*Result, error) {
		done <- struct{}{}
		return &Result{Message: "ok"}, nil
	})

	ctx := context.Background()
	w.Start(ctx)
	job, err := w.SubmitJob(ctx, "https://youtu.be/jNQXAC9IVRw", "txt")
	require.NoError(t, err)

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("job was not processed")
	}
	w.Stop()
	w.Stop()

	got, err := repo.GetByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusCompleted, got.Status)
}

func TestInterruptedJobIsRequeued(t *testing.T) {
	w, repo := newTestWorker(t)
	w.SetMaxRetries(0)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	proc := &stubProcessor{out: &pipeline.Outcome{Kind: pipeline.KindCanceled, Message: "canceled"}}
	handler := ProcessHandler(proc)
	w.RegisterHandler(models.JobTypeProcess, func(ctx context.Context, job *models.ProcessingJob) (*Result, error) {
		cancel()
		return handler(ctx, job)
	})

	job, err := w.SubmitJob(context.Background(), "https://youtu.be/jNQXAC9IVRw", "txt")
	require.NoError(t, err)
	assert.False(t, w.processNextJob(ctx))

	got, err := repo.GetByID(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusQueued, got.Status)
	assert.Equal(t, 0, got.RetryCount)
	assert.Nil(t, got.StartedAt)
	assert.Empty(t, got.FileID)
}
