package pipeline

import (
	"context"
	"errors"
	"strings"

	"ytprompt/internal/prompt"
	"ytprompt/internal/subtitle"
	"ytprompt/internal/youtube"
)

// Kind は処理失敗の分類
type Kind string

const (
	KindNone               Kind = ""
	KindInvalidInput       Kind = "invalid_input"
	KindCaptionQueryFailed Kind = "caption_query_failed"
	KindVideoUnavailable   Kind = "video_unavailable"
	KindNoCaptions         Kind = "no_captions_available"
	KindFetchFailed        Kind = "fetch_failed"
	KindEmptyTranscript    Kind = "empty_transcript"
	KindInternal           Kind = "internal"
	KindCanceled           Kind = "canceled"
)

// Retryable は再試行で解消し得る失敗かを返す
func (k Kind) Retryable() bool {
	return k == KindCaptionQueryFailed || k == KindFetchFailed
}

// 字幕情報取得エラーの文言による判定（YouTube側のメッセージに依存する）
var (
	blockedHints     = []string{"bot", "cookies", "sign in", "429", "too many requests"}
	unavailableHints = []string{"private", "unavailable", "not available", "removed", "does not exist"}
)

// classify はエラーを分類する。分類はここでのみ行う
func classify(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, context.Canceled):
		return KindCanceled
	case errors.Is(err, youtube.ErrCaptionQuery):
		text := strings.ToLower(err.Error())
		if containsAny(text, blockedHints) {
			return KindCaptionQueryFailed
		}
		if containsAny(text, unavailableHints) {
			return KindVideoUnavailable
		}
		return KindCaptionQueryFailed
	case errors.Is(err, youtube.ErrNoCaptions):
		return KindNoCaptions
	case errors.Is(err, subtitle.ErrFetch):
		return KindFetchFailed
	case errors.Is(err, prompt.ErrEmptyTranscript):
		return KindEmptyTranscript
	case errors.Is(err, context.DeadlineExceeded):
		return KindFetchFailed
	}
	return KindInternal
}

// message は分類ごとの利用者向けメッセージを返す
func message(kind Kind, err error) string {
	switch kind {
	case KindInvalidInput:
		return "Invalid YouTube URL"
	case KindCaptionQueryFailed:
		return "YouTube is blocking the caption request (possible bot detection): " + err.Error()
	case KindVideoUnavailable:
		return "The video is unavailable, private or does not exist: " + err.Error()
	case KindNoCaptions:
		return "No transcript was found for this video in a supported language (es, en)"
	case KindFetchFailed:
		return "Failed to download the subtitles: " + err.Error()
	case KindEmptyTranscript:
		return "Could not extract any text from the transcript"
	case KindCanceled:
		return "Processing was canceled before it finished"
	}
	return "Error processing video: " + err.Error()
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
