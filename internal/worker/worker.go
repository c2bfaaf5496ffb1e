package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"ytprompt/internal/models"
	"ytprompt/internal/storage"
)

// Result is what a handler reports for a completed job
type Result struct {
	VideoID string
	FileID  string
	Message string
}

// Failure is a job error carrying the classified kind
type Failure struct {
	VideoID   string
	Kind      string
	Message   string
	Retryable bool
}

func (f *Failure) Error() string {
	return f.Kind + ": " + f.Message
}

// JobHandler is a function that processes a job
type JobHandler func(ctx context.Context, job *models.ProcessingJob) (*Result, error)

// Worker processes jobs from the queue
type Worker struct {
	jobRepo    *storage.JobRepository
	handlers   map[string]JobHandler
	interval   time.Duration
	maxRetries int
	stop       chan struct{}
	stopOnce   sync.Once
	wg         sync.WaitGroup
	mu         sync.RWMutex
}

// NewWorker creates a new worker
func NewWorker(jobRepo *storage.JobRepository) *Worker {
	return &Worker{
		jobRepo:  jobRepo,
		handlers: make(map[string]JobHandler),
		interval: 1 * time.Second,
		stop:     make(chan struct{}),
	}
}

// RegisterHandler registers a handler for a job type
func (w *Worker) RegisterHandler(jobType string, handler JobHandler) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.handlers[jobType] = handler
}

// SetInterval sets the polling interval
func (w *Worker) SetInterval(interval time.Duration) {
	if interval > 0 {
		w.interval = interval
	}
}

// SetMaxRetries sets how many times a retryable failure is re-queued
func (w *Worker) SetMaxRetries(n int) {
	if n < 0 {
		n = 0
	}
	w.maxRetries = n
}

// Start begins processing jobs
func (w *Worker) Start(ctx context.Context) {
	w.wg.Add(1)
	go w.run(ctx)
	slog.Info("worker started", "interval", w.interval, "max_retries", w.maxRetries)
}

// Stop gracefully stops the worker
func (w *Worker) Stop() {
	w.stopOnce.Do(func() { close(w.stop) })
	w.wg.Wait()
	slog.Info("worker stopped")
}

func (w *Worker) run(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stop:
			return
		case <-ticker.C:
			for w.processNextJob(ctx) {
				// キューが空になるまで続けて処理する
				select {
				case <-ctx.Done():
					return
				case <-w.stop:
					return
				default:
				}
			}
		}
	}
}

// processNextJob runs one queued job and reports whether one was found
func (w *Worker) processNextJob(ctx context.Context) bool {
	job, err := w.jobRepo.GetNextQueued(ctx)
	if err != nil {
		slog.Error("error getting next job", "err", err)
		return false
	}
	if job == nil {
		return false
	}

	w.mu.RLock()
	handler, ok := w.handlers[job.Type]
	w.mu.RUnlock()

	if !ok {
		slog.Warn("no handler for job type", "job_id", job.ID, "type", job.Type)
		_ = w.jobRepo.Fail(ctx, job.ID, job.VideoID, "internal", "no handler registered for job type: "+job.Type)
		return true
	}

	if err := w.jobRepo.Start(ctx, job.ID); err != nil {
		slog.Error("error starting job", "job_id", job.ID, "err", err)
		// 他で取得済みの場合は次のジョブへ進む
		return errors.Is(err, storage.ErrJobNotQueued)
	}

	slog.Info("processing job", "job_id", job.ID, "type", job.Type, "url", job.URL)

	res, err := handler(ctx, job)
	if ctx.Err() != nil {
		// Interrupted by shutdown, so hand it back to the queue for the next run
		if err := w.jobRepo.Requeue(context.WithoutCancel(ctx), job.ID); err != nil {
			slog.Error("error requeueing job", "job_id", job.ID, "err", err)
		} else {
			slog.Info("job requeued after interruption", "job_id", job.ID)
		}
		return false
	}
	if err != nil {
		slog.Warn("job failed", "job_id", job.ID, "err", err)
		w.handleJobFailure(ctx, job, err)
		return true
	}
	if res == nil {
		res = &Result{}
	}

	if err := w.jobRepo.Complete(ctx, job.ID, res.VideoID, res.FileID, res.Message); err != nil {
		slog.Error("error completing job", "job_id", job.ID, "err", err)
		return true
	}

	slog.Info("job completed", "job_id", job.ID, "file_id", res.FileID)
	return true
}

func (w *Worker) handleJobFailure(ctx context.Context, job *models.ProcessingJob, jobErr error) {
	var failure *Failure
	if !errors.As(jobErr, &failure) {
		failure = &Failure{VideoID: job.VideoID, Kind: "internal", Message: jobErr.Error()}
	}

	if failure.Retryable && job.RetryCount < w.maxRetries {
		if err := w.jobRepo.Retry(ctx, job.ID); err != nil {
			slog.Error("error retrying job", "job_id", job.ID, "err", err)
		} else {
			slog.Info("job queued for retry",
				"job_id", job.ID,
				"attempt", job.RetryCount+1,
				"max_retries", w.maxRetries)
		}
		return
	}

	if err := w.jobRepo.Fail(ctx, job.ID, failure.VideoID, failure.Kind, failure.Message); err != nil {
		slog.Error("error failing job", "job_id", job.ID, "err", err)
	}
}

// SubmitJob creates a new process job and adds it to the queue
func (w *Worker) SubmitJob(ctx context.Context, url, format string) (*models.ProcessingJob, error) {
	job := &models.ProcessingJob{
		Type:         models.JobTypeProcess,
		URL:          url,
		OutputFormat: models.NormalizeFormat(format),
	}

	if err := w.jobRepo.Create(ctx, job); err != nil {
		return nil, err
	}

	slog.Info("job submitted", "job_id", job.ID, "type", job.Type, "format", job.OutputFormat)
	return job, nil
}
