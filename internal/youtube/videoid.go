package youtube

import (
	"regexp"
	"strings"
)

// videoIDPattern は認識対象のURL形式にマッチする
//
//	youtube.com/watch?v=ID, youtube.com/live?v=ID, youtube.com/live/ID,
//	youtube.com/shorts/ID, youtu.be/ID
//
// IDの直後に別のID文字が続く場合は不一致とする
var videoIDPattern = regexp.MustCompile(
	`(?i)(?:https?://)?(?:www\.|m\.)?` +
		`(?:youtube\.com/(?:(?:watch|live)\?(?:[^#\s]*&)?v=|live/|shorts/)|youtu\.be/)` +
		`([A-Za-z0-9_-]{11})(?:[^A-Za-z0-9_-]|$)`,
)

// ExtractVideoID は任意の文字列から11文字の動画IDを取り出す
// 認識できない場合は ("", false) を返す
func ExtractVideoID(input string) (string, bool) {
	m := videoIDPattern.FindStringSubmatch(strings.TrimSpace(input))
	if m == nil {
		return "", false
	}
	return m[1], true
}

// WatchURL は動画IDから正規の視聴ページURLを組み立てる
func WatchURL(videoID string) string {
	return "https://www.youtube.com/watch?v=" + videoID
}
