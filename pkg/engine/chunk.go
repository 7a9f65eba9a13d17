package engine

import (
	"fmt"
	"strings"
)

// LineMarker returns the citation prefix for a 1-based line number
func LineMarker(n int) string {
	return fmt.Sprintf("[LINE %d]", n)
}

// IndexLines prefixes every line of text with its 1-based "[LINE n] " marker.
// An empty document has no lines and indexes to the empty string.
func IndexLines(text string) string {
	if text == "" {
		return ""
	}
	lines := strings.Split(text, "\n")
	var sb strings.Builder
	for i, line := range lines {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(LineMarker(i + 1))
		sb.WriteByte(' ')
		sb.WriteString(strings.TrimSuffix(line, "\r"))
	}
	return sb.String()
}

// Chunk indexes text and cuts it into windows of size runes that advance by
// size-overlap (at least 1). The result always holds at least one element.
//
// Windows are not aligned to lines. With overlap >= the longest indexed line every
// marker appears unsplit in some window.
func Chunk(text string, size, overlap int) []string {
	if size < 1 {
		size = 1
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}

	indexed := []rune(IndexLines(text))
	if len(indexed) == 0 {
		return []string{""}
	}

	step := size - overlap
	if step < 1 {
		step = 1
	}

	var chunks []string
	for i := 0; i < len(indexed); i += step {
		end := i + size
		if end > len(indexed) {
			end = len(indexed)
		}
		chunks = append(chunks, string(indexed[i:end]))
	}
	return chunks
}
