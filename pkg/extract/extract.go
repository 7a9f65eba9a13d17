// Package extract turns uploaded documents into plain text for analysis.
package extract

import (
	"bytes"
	"errors"
	"fmt"
	"html"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"
)

// ErrNoText is returned when a document yields no usable text
var ErrNoText = errors.New("no extractable text")

// MinTextLength is the fewest trimmed characters a document must yield
const MinTextLength = 20

var (
	scriptStyle = regexp.MustCompile(`(?is)<(script|style|noscript)\b.*?</(script|style|noscript)>`)
	blockBreak  = regexp.MustCompile(`(?i)<br\s*/?>|</(p|div|li|tr|h[1-6]|section|article|header|footer)>`)
	anyTag      = regexp.MustCompile(`(?s)<[^>]*>`)
	blankRuns   = regexp.MustCompile(`\n[ \t]*\n(\s*\n)+`)
)

// Extract returns the text content of a document. name is only used to pick the format.
func Extract(name string, data []byte) (string, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if bytes.IndexByte(data, 0) >= 0 || !utf8.Valid(data) {
		return "", fmt.Errorf("%w: %s looks like a binary file", ErrNoText, name)
	}

	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	if isHTML(name, text) {
		text = stripHTML(text)
	}

	if len([]rune(strings.TrimSpace(text))) < MinTextLength {
		return "", fmt.Errorf("%w: %s has fewer than %d characters of text", ErrNoText, name, MinTextLength)
	}
	return text, nil
}

func isHTML(name, text string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".html", ".htm", ".xhtml":
		return true
	}
	head := strings.ToLower(strings.TrimSpace(text))
	if len(head) > 64 {
		head = head[:64]
	}
	return strings.HasPrefix(head, "<!doctype html") || strings.HasPrefix(head, "<html")
}

func stripHTML(s string) string {
	s = scriptStyle.ReplaceAllString(s, "")
	s = blockBreak.ReplaceAllString(s, "\n")
	s = anyTag.ReplaceAllString(s, "")
	s = html.UnescapeString(s)

	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	s = strings.Join(lines, "\n")
	s = blankRuns.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
