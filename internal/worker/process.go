package worker

import (
	"context"

	"ytprompt/internal/models"
	"ytprompt/internal/pipeline"
)

// Processor runs the caption pipeline for a single URL
type Processor interface {
	Process(ctx context.Context, rawURL, format string) *pipeline.Outcome
}

// ProcessHandler returns a JobHandler for models.JobTypeProcess jobs
func ProcessHandler(p Processor) JobHandler {
	return func(ctx context.Context, job *models.ProcessingJob) (*Result, error) {
		out := p.Process(ctx, job.URL, job.OutputFormat)
		if !out.Success {
			return nil, &Failure{
				VideoID:   out.VideoID,
				Kind:      string(out.Kind),
				Message:   out.Message,
				Retryable: out.Kind.Retryable(),
			}
		}
		return &Result{
			VideoID: out.VideoID,
			FileID:  out.FileID,
			Message: out.Message,
		}, nil
	}
}
