package prompt

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"ytprompt/internal/models"
	"ytprompt/internal/youtube"
)

// ErrEmptyTranscript は抽出したテキストが空であることを示す
var ErrEmptyTranscript = errors.New("extracted transcript is empty")

// instruction はトランスクリプトの前に置く固定の指示文
const instruction = "I'm going to give you the full transcript of a YouTube video. " +
	"Please read it and write a summary in Spanish that is clear, well-structured, " +
	"and easy to understand for someone who hasn't watched the video. " +
	"It doesn't need to be super short; instead, focus on fully developing the main ideas, " +
	"key points, and any final conclusions or takeaways. " +
	"If possible, organize the summary into thematic sections or parts of the content, " +
	"so it's easier to follow."

// Meta は成果物に付与するメタデータ
type Meta struct {
	VideoID string
	FileID  string
	Now     time.Time
}

// Transcript は断片を半角スペース1つで連結する
func Transcript(fragments []string) string {
	return strings.Join(fragments, " ")
}

// Build はトランスクリプトを指示文に埋め込む
func Build(transcript string) string {
	return instruction + "\n\nFull transcript:\n" + transcript
}

// Assemble は断片からプロンプトを組み立て、ProcessingResultを返す
func Assemble(fragments []string, meta Meta) (*models.ProcessingResult, error) {
	transcript := Transcript(fragments)
	if strings.TrimSpace(transcript) == "" {
		return nil, ErrEmptyTranscript
	}

	now := meta.Now
	if now.IsZero() {
		now = time.Now()
	}

	return &models.ProcessingResult{
		VideoID:          meta.VideoID,
		URL:              youtube.WatchURL(meta.VideoID),
		ProcessedAt:      now,
		TranscriptLength: utf8.RuneCountInString(transcript),
		Prompt:           Build(transcript),
		TranscriptLines:  len(fragments),
		FileID:           meta.FileID,
	}, nil
}
