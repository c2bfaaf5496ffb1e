package models

import (
	"strings"
	"time"
)

// ProcessingResult は1回の処理で生成される成果物
type ProcessingResult struct {
	VideoID          string    `json:"video_id"`
	URL              string    `json:"url"`
	ProcessedAt      time.Time `json:"processed_at"`
	TranscriptLength int       `json:"transcript_length"`
	Prompt           string    `json:"prompt"`
	TranscriptLines  int       `json:"transcript_lines"`
	FileID           string    `json:"file_id"`
}

// ArtifactInfo は保存済み成果物ファイルの情報
type ArtifactInfo struct {
	FileID      string    `json:"file_id"`
	Filename    string    `json:"filename"`
	Size        int64     `json:"size"`
	Created     time.Time `json:"created"`
	DownloadURL string    `json:"download_url"`
}

// 出力フォーマット
const (
	FormatText = "txt"
	FormatJSON = "json"
)

// NormalizeFormat は出力フォーマットを正規化する（json以外はtxt）
func NormalizeFormat(format string) string {
	if strings.EqualFold(strings.TrimSpace(format), FormatJSON) {
		return FormatJSON
	}
	return FormatText
}

// DownloadURL は成果物のダウンロードパスを返す
func DownloadURL(fileID string) string {
	return "/download/" + fileID
}
