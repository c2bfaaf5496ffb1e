package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"ytprompt/internal/models"
	"ytprompt/internal/prompt"
	"ytprompt/internal/subtitle"
	"ytprompt/internal/youtube"
)

// TrackLocator は動画IDから字幕トラックを1つ選ぶ
type TrackLocator interface {
	Locate(ctx context.Context, videoID string) (*youtube.Descriptor, error)
}

// SubtitleFetcher は字幕ファイルを取得してメタデータ行を除いた行を返す
type SubtitleFetcher interface {
	Fetch(ctx context.Context, url string) ([]string, error)
}

// ArtifactSaver は成果物を保存する
type ArtifactSaver interface {
	Save(result *models.ProcessingResult, format string) (string, error)
}

// Outcome は1回の処理結果。失敗もOutcomeとして返す
type Outcome struct {
	Success  bool                     `json:"success"`
	Message  string                   `json:"message"`
	Kind     Kind                     `json:"error_kind,omitempty"`
	VideoID  string                   `json:"video_id,omitempty"`
	FileID   string                   `json:"file_id,omitempty"`
	Format   string                   `json:"output_format,omitempty"`
	FilePath string                   `json:"-"`
	Track    *youtube.Descriptor      `json:"track,omitempty"`
	Result   *models.ProcessingResult `json:"-"`
}

// Processor は字幕取得からプロンプト保存までを順に実行する
type Processor struct {
	locator TrackLocator
	fetcher SubtitleFetcher
	saver   ArtifactSaver

	now   func() time.Time
	newID func() string
}

// NewProcessor は新しいProcessorを作成
func NewProcessor(locator TrackLocator, fetcher SubtitleFetcher, saver ArtifactSaver) *Processor {
	return &Processor{
		locator: locator,
		fetcher: fetcher,
		saver:   saver,
		now:     time.Now,
		newID:   func() string { return uuid.New().String() },
	}
}

// Process はURLの動画を処理し、成果物を保存する
func (p *Processor) Process(ctx context.Context, rawURL, format string) *Outcome {
	format = models.NormalizeFormat(format)

	videoID, ok := youtube.ExtractVideoID(rawURL)
	if !ok {
		slog.Info("unrecognized url", "stage", "extract_id", "outcome", "invalid")
		return &Outcome{Kind: KindInvalidInput, Message: message(KindInvalidInput, nil), Format: format}
	}

	out := &Outcome{VideoID: videoID, Format: format}
	start := time.Now()

	result, err := p.run(ctx, out, format)
	if err != nil {
		out.Kind = classify(err)
		out.Message = message(out.Kind, err)
		slog.Warn("pipeline failed",
			"video_id", videoID,
			"kind", out.Kind,
			"elapsed", time.Since(start),
			"err", err)
		return out
	}

	out.Success = true
	out.Message = "Video processed successfully"
	out.FileID = result.FileID
	out.Result = result
	slog.Info("pipeline finished",
		"video_id", videoID,
		"file_id", result.FileID,
		"format", format,
		"transcript_length", result.TranscriptLength,
		"transcript_lines", result.TranscriptLines,
		"elapsed", time.Since(start))
	return out
}

func (p *Processor) run(ctx context.Context, out *Outcome, format string) (*models.ProcessingResult, error) {
	track, err := p.locator.Locate(ctx, out.VideoID)
	if err != nil {
		return nil, err
	}
	out.Track = track

	lines, err := p.fetcher.Fetch(ctx, track.URL)
	if err != nil {
		return nil, err
	}

	fragments := subtitle.ExtractText(lines)
	slog.Info("text extracted",
		"stage", "extract_text",
		"video_id", out.VideoID,
		"lines", len(lines),
		"fragments", len(fragments))

	result, err := prompt.Assemble(fragments, prompt.Meta{
		VideoID: out.VideoID,
		FileID:  p.newID(),
		Now:     p.now(),
	})
	if err != nil {
		return nil, err
	}

	// 中断された実行の成果物は保存しない
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path, err := p.saver.Save(result, format)
	if err != nil {
		return nil, errors.Join(errors.New("failed to save artifact"), err)
	}
	out.FilePath = path
	slog.Info("artifact saved", "stage", "persist", "file_id", result.FileID, "path", path)
	return result, nil
}
