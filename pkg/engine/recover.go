package engine

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// RecoveryTier records which strategy pulled a findings array out of a model response
type RecoveryTier string

const (
	TierWhole   RecoveryTier = "whole"
	TierFence   RecoveryTier = "fence"
	TierBracket RecoveryTier = "bracket"
	TierNone    RecoveryTier = "none"
)

var fencePattern = regexp.MustCompile("(?s)```(?:json|JSON)?[ \\t]*\\r?\\n?(.*?)```")

// RecoverFindings extracts a findings array from raw model text. It never fails: when
// nothing array-shaped can be parsed it returns an empty slice and TierNone.
//
// Strategies, first success wins: the whole text, the first fenced code block, then the
// outermost [...] span. Array elements that are not finding objects are skipped.
func RecoverFindings(text string) ([]Finding, RecoveryTier) {
	if items, ok := parseArray(text); ok {
		return decodeFindings(items), TierWhole
	}

	if m := fencePattern.FindStringSubmatch(text); m != nil {
		if items, ok := parseArray(m[1]); ok {
			return decodeFindings(items), TierFence
		}
	}

	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start >= 0 && end > start {
		if items, ok := parseArray(text[start : end+1]); ok {
			return decodeFindings(items), TierBracket
		}
	}

	return []Finding{}, TierNone
}

func parseArray(s string) ([]json.RawMessage, bool) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "[") {
		return nil, false
	}
	var items []json.RawMessage
	if err := json.Unmarshal([]byte(s), &items); err != nil {
		return nil, false
	}
	return items, true
}

func decodeFindings(items []json.RawMessage) []Finding {
	findings := make([]Finding, 0, len(items))
	for _, raw := range items {
		trimmed := strings.TrimSpace(string(raw))
		if !strings.HasPrefix(trimmed, "{") {
			continue
		}
		var w wireFinding
		if err := json.Unmarshal(raw, &w); err != nil {
			continue
		}
		findings = append(findings, w.finding())
	}
	return findings
}

// wireFinding is the tolerant decoding shape of a model finding. Models drift field
// types (numeric ids, quoted confidences, a bare string for references), so every
// field accepts any JSON value and is coerced instead of rejecting the element.
type wireFinding struct {
	ID             looseString `json:"id"`
	Theme          looseString `json:"theme"`
	Title          looseString `json:"title"`
	Status         looseString `json:"status"`
	Severity       looseString `json:"severity"`
	Evidence       looseString `json:"evidence"`
	Impact         looseString `json:"impact"`
	Recommendation looseString `json:"recommendation"`
	References     looseList   `json:"references"`
	Confidence     looseFloat  `json:"confidence"`
}

func (w wireFinding) finding() Finding {
	return Finding{
		ID:             string(w.ID),
		Theme:          Theme(w.Theme),
		Title:          string(w.Title),
		Status:         Status(w.Status),
		Severity:       Severity(w.Severity),
		Evidence:       string(w.Evidence),
		Impact:         string(w.Impact),
		Recommendation: string(w.Recommendation),
		References:     []string(w.References),
		Confidence:     float64(w.Confidence),
	}
}

// looseString takes a JSON string as is and any other value as its JSON text
type looseString string

func (s *looseString) UnmarshalJSON(data []byte) error {
	*s = looseString(scalarText(data))
	return nil
}

// looseFloat takes a number or a numeric string; anything else decodes to 0
type looseFloat float64

func (f *looseFloat) UnmarshalJSON(data []byte) error {
	v, err := strconv.ParseFloat(strings.TrimSpace(scalarText(data)), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		v = 0
	}
	*f = looseFloat(v)
	return nil
}

// looseList takes an array of scalars or a single scalar
type looseList []string

func (l *looseList) UnmarshalJSON(data []byte) error {
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		items = []json.RawMessage{data}
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if text := strings.TrimSpace(scalarText(item)); text != "" {
			out = append(out, text)
		}
	}
	*l = out
	return nil
}

func scalarText(data []byte) string {
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		return str
	}
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		return ""
	}
	return trimmed
}
