package engine

import (
	"strings"
	"testing"
)

func mustDefaultRules(t *testing.T) *RuleSet {
	t.Helper()
	rs, err := DefaultRuleSet()
	if err != nil {
		t.Fatalf("Failed to compile built-in rules: %v", err)
	}
	return rs
}

func TestScanFindReportsFirstLine(t *testing.T) {
	rs := mustDefaultRules(t)
	text := "Intro\nWe keep BACKUPS nightly.\nBackup tapes are offsite."
	s := NewScan(text, rs)

	m := s.Find(`\bback[- ]?ups?\b`)
	if !m.Found || m.Line != 2 {
		t.Errorf("Expected match on line 2, got %+v", m)
	}
	if got := s.Cite(m.Line); got != "[LINE 2] We keep BACKUPS nightly." {
		t.Errorf("Unexpected citation %q", got)
	}
	if s.Present(`not a compiled pattern`) {
		t.Errorf("Expected unknown pattern never to match")
	}
	if got := s.Cite(99); got != EvidenceNotFound {
		t.Errorf("Expected %q for out-of-range line, got %q", EvidenceNotFound, got)
	}
}

func TestScanCiteTruncates(t *testing.T) {
	rs := mustDefaultRules(t)
	s := NewScan(strings.Repeat("é", 500), rs)
	got := s.Cite(1)
	if n := len([]rune(strings.TrimPrefix(got, "[LINE 1] "))); n != 240 {
		t.Errorf("Expected snippet of 240 runes, got %d", n)
	}
}

func TestScanThemePositive(t *testing.T) {
	rs := mustDefaultRules(t)
	s := NewScan("This clinic sees patients on weekdays.", rs)
	if !s.ThemePositive(ThemeDomainExemption) {
		t.Errorf("Expected domain_exemption to be positive")
	}
	if s.ThemePositive(ThemeSecurityControls) {
		t.Errorf("Expected security_controls to be negative")
	}
	if NewScan("", rs).ThemePositive(ThemePrivacy) {
		t.Errorf("Expected no theme to be positive for an empty document")
	}
}
