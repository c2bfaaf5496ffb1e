package subtitle

import (
	"encoding/xml"
	"errors"
	"io"
	"regexp"
	"strings"
)

var tagRe = regexp.MustCompile(`<[^>]*>`)

var errNotElement = errors.New("line is not a single XML element")

// ExtractText は各行からタグを除いたテキスト断片を取り出す
// 入力順を保持し、重複除去はしない
func ExtractText(lines []string) []string {
	fragments := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.Contains(line, "<") && strings.Contains(line, ">") {
			text, err := elementText(line)
			if err != nil {
				text = tagRe.ReplaceAllString(line, "")
			}
			if text = strings.TrimSpace(text); text != "" {
				fragments = append(fragments, text)
			}
			continue
		}

		if sequenceLineRe.MatchString(line) || strings.Contains(line, "-->") {
			continue
		}
		fragments = append(fragments, line)
	}
	return fragments
}

// elementText は1行を単一のXML要素として解析し、最初の子要素より前の直接テキストを返す
func elementText(line string) (string, error) {
	dec := xml.NewDecoder(strings.NewReader(line))
	dec.Strict = true

	var (
		text      strings.Builder
		depth     int
		rootSeen  bool
		rootEnded bool
		childSeen bool
	)

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if rootEnded {
				return "", errNotElement
			}
			if depth == 1 {
				childSeen = true
			}
			rootSeen = true
			depth++
		case xml.EndElement:
			depth--
			if depth == 0 {
				rootEnded = true
			}
		case xml.CharData:
			if depth == 0 {
				if strings.TrimSpace(string(t)) != "" {
					return "", errNotElement
				}
				continue
			}
			if depth == 1 && !childSeen {
				text.Write(t)
			}
		case xml.ProcInst, xml.Directive:
			if rootSeen {
				return "", errNotElement
			}
		}
	}

	if !rootEnded {
		return "", errNotElement
	}
	return text.String(), nil
}
