package subtitle

import (
	"reflect"
	"testing"
)

func TestFilterLines(t *testing.T) {
	body := "WEBVTT\r\nKind: captions\r\nLanguage: es\r\n\r\n" +
		"NOTE generated\n\n" +
		"1\n00:00:00.000 --> 00:00:02.000 align:start position:0%\n  Hola a todos  \n\n" +
		"2\n00:00:02.000 --> 00:00:04.000\nbienvenidos\n" +
		"00:00:04.500\n"

	got := FilterLines(splitLines(body))
	want := []string{"Kind: captions", "Language: es", "Hola a todos", "bienvenidos"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("FilterLines() = %q, want %q", got, want)
	}
}

func TestIsMetadataLine(t *testing.T) {
	tests := []struct {
		line string
		want bool
	}{
		{"", true},
		{"WEBVTT", true},
		{"NOTE this is a comment", true},
		{"00:01:02.345 --> 00:01:04.000", true},
		{"42", true},
		{"00:01:02.345", true},
		{"Hello", false},
		{"42 people", false},
		{"<p>text</p>", false},
	}
	for _, tt := range tests {
		if got := isMetadataLine(tt.line); got != tt.want {
			t.Errorf("isMetadataLine(%q) = %v, want %v", tt.line, got, tt.want)
		}
	}
}
