package scoring

import (
	"regexp"
	"strings"
)

// MaxSegmentWords bounds a segment so long run-on sentences stay within the
// embedding model's input window.
const MaxSegmentWords = 100

var (
	sentenceBoundary = regexp.MustCompile(`([.!?])\s+|\n+`)
	wordRegex        = regexp.MustCompile(`\S+`)
)

// Segment splits text into trimmed, non-empty sentences of at most
// MaxSegmentWords words each.
func Segment(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	marked := sentenceBoundary.ReplaceAllString(text, "$1\x00")

	var segments []string
	for _, part := range strings.Split(marked, "\x00") {
		if part = strings.TrimSpace(part); part != "" {
			segments = append(segments, splitWords(part, MaxSegmentWords)...)
		}
	}
	return segments
}

// splitWords cuts text into windows of at most length words, keeping the
// original spacing inside each window.
func splitWords(text string, length int) []string {
	idxs := wordRegex.FindAllStringIndex(text, -1)
	if len(idxs) <= length {
		return []string{text}
	}

	var windows []string
	for start := 0; start < len(idxs); start += length {
		end := min(start+length, len(idxs))
		windows = append(windows, text[idxs[start][0]:idxs[end-1][1]])
	}
	return windows
}
