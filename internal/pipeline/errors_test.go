package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"ytprompt/internal/prompt"
	"ytprompt/internal/subtitle"
	"ytprompt/internal/youtube"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, KindNone},
		{"bot detection", fmt.Errorf("%w: a: Sign in to confirm you're not a bot", youtube.ErrCaptionQuery), KindCaptionQueryFailed},
		{"rate limited", fmt.Errorf("%w: unexpected status code: 429", youtube.ErrCaptionQuery), KindCaptionQueryFailed},
		{"private video", fmt.Errorf("%w: This video is private", youtube.ErrCaptionQuery), KindVideoUnavailable},
		{"removed video", fmt.Errorf("%w: video unavailable: removed (ERROR)", youtube.ErrCaptionQuery), KindVideoUnavailable},
		{"other query failure", fmt.Errorf("%w: connection reset", youtube.ErrCaptionQuery), KindCaptionQueryFailed},
		{"no captions", youtube.ErrNoCaptions, KindNoCaptions},
		{"fetch", fmt.Errorf("%w: unexpected status code: 500", subtitle.ErrFetch), KindFetchFailed},
		{"empty transcript", prompt.ErrEmptyTranscript, KindEmptyTranscript},
		{"deadline", context.DeadlineExceeded, KindFetchFailed},
		{"canceled", context.Canceled, KindCanceled},
		{"canceled segment fetch", fmt.Errorf("%w: %w", subtitle.ErrFetch, context.Canceled), KindCanceled},
		{"unknown", errors.New("disk full"), KindInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classify(tt.err); got != tt.want {
				t.Errorf("classify() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestKindRetryable(t *testing.T) {
	if !KindCaptionQueryFailed.Retryable() || !KindFetchFailed.Retryable() {
		t.Error("transient kinds should be retryable")
	}
	if KindNoCaptions.Retryable() || KindInvalidInput.Retryable() || KindVideoUnavailable.Retryable() || KindCanceled.Retryable() {
		t.Error("permanent kinds should not be retryable")
	}
}
