package subtitle

import (
	"regexp"
	"strings"
)

var (
	sequenceLineRe  = regexp.MustCompile(`^\d+$`)
	timestampLineRe = regexp.MustCompile(`^\d{2}:\d{2}:\d{2}\.`)
)

// FilterLines は字幕ファイルの行からタイミング・メタデータ行を除外する
// 残った行は前後の空白を除去して返す
func FilterLines(lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if isMetadataLine(line) {
			continue
		}
		out = append(out, line)
	}
	return out
}

// isMetadataLine は空行、連番、タイムコード、WEBVTT/NOTEヘッダーを判定
func isMetadataLine(line string) bool {
	switch {
	case line == "":
		return true
	case strings.HasPrefix(line, "WEBVTT"), strings.HasPrefix(line, "NOTE"):
		return true
	case strings.Contains(line, "-->"):
		return true
	case sequenceLineRe.MatchString(line), timestampLineRe.MatchString(line):
		return true
	}
	return false
}

// splitLines は本文を行に分割する（CRLF対応）
func splitLines(body string) []string {
	body = strings.ReplaceAll(body, "\r\n", "\n")
	return strings.Split(body, "\n")
}
