package engine

import (
	"fmt"
	"strings"
)

// Match is the memoised result of testing one pattern against a document
type Match struct {
	Found bool
	Line  int // 1-based line of the first match, 0 when not found
}

// Scan is the single signal-detection pass over a document. Rules and soft floors
// both read from it, so every pattern is evaluated at most once per document.
// A Scan is not safe for concurrent use.
type Scan struct {
	text  string
	lines []string
	rules *RuleSet
	cache map[string]Match
}

// NewScan prepares a scan of text against the patterns known to rs
func NewScan(text string, rs *RuleSet) *Scan {
	return &Scan{
		text:  text,
		rules: rs,
		cache: make(map[string]Match),
	}
}

// Find tests one pattern. Patterns unknown to the rule set never match.
func (s *Scan) Find(pattern string) Match {
	if m, ok := s.cache[pattern]; ok {
		return m
	}
	var m Match
	if re, ok := s.rules.patterns[pattern]; ok {
		if loc := re.FindStringIndex(s.text); loc != nil {
			m = Match{Found: true, Line: strings.Count(s.text[:loc[0]], "\n") + 1}
		}
	}
	s.cache[pattern] = m
	return m
}

// Present reports whether pattern occurs anywhere in the document
func (s *Scan) Present(pattern string) bool {
	return s.Find(pattern).Found
}

// ThemePositive reports whether the document engages with theme at all
func (s *Scan) ThemePositive(theme Theme) bool {
	for _, p := range s.rules.Themes[theme].FloorSignals {
		if s.Present(p) {
			return true
		}
	}
	return false
}

// Cite renders the "[LINE n] text" evidence for a 1-based line
func (s *Scan) Cite(line int) string {
	if s.lines == nil {
		s.lines = strings.Split(s.text, "\n")
	}
	if line < 1 || line > len(s.lines) {
		return EvidenceNotFound
	}
	snippet := strings.TrimSpace(strings.TrimSuffix(s.lines[line-1], "\r"))
	if r := []rune(snippet); len(r) > 240 {
		snippet = string(r[:240])
	}
	return fmt.Sprintf("%s %s", LineMarker(line), snippet)
}
