package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// ReportDiff compares two reports of the same document over time
type ReportDiff struct {
	New          []Finding
	Resolved     []Finding
	Unchanged    []Finding
	ScoreDelta   map[Theme]int
	OverallDelta int
}

// LoadReport reads a JSON report written by `analyze`
func LoadReport(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to parse report %s: %v", path, err)
	}
	return &r, nil
}

func diffKey(f Finding) string {
	return string(f.Theme) + "|" + titleKey(f.Title)
}

// CompareReports matches findings by theme and title. Findings only in current are New,
// only in baseline are Resolved, in both are Unchanged (reported as in current).
func CompareReports(baseline, current *Report) ReportDiff {
	diff := ReportDiff{ScoreDelta: make(map[Theme]int, len(Themes))}

	before := make(map[string]bool, len(baseline.Findings))
	for _, f := range baseline.Findings {
		before[diffKey(f)] = true
	}
	after := make(map[string]bool, len(current.Findings))
	for _, f := range current.Findings {
		key := diffKey(f)
		if after[key] {
			continue
		}
		after[key] = true
		if before[key] {
			diff.Unchanged = append(diff.Unchanged, f)
		} else {
			diff.New = append(diff.New, f)
		}
	}
	reported := make(map[string]bool)
	for _, f := range baseline.Findings {
		key := diffKey(f)
		if !after[key] && !reported[key] {
			reported[key] = true
			diff.Resolved = append(diff.Resolved, f)
		}
	}

	for _, theme := range Themes {
		diff.ScoreDelta[theme] = current.Scores.Categories[theme] - baseline.Scores.Categories[theme]
	}
	diff.OverallDelta = current.Scores.Overall - baseline.Scores.Overall
	return diff
}

// FormatDiff renders a diff for the terminal
func FormatDiff(d ReportDiff) string {
	var sb strings.Builder
	sb.WriteString("Report Comparison:\n")
	sb.WriteString("--------------------------------------------------\n")

	sb.WriteString(fmt.Sprintf("NEW FINDINGS: %d\n", len(d.New)))
	for _, f := range d.New {
		sb.WriteString(fmt.Sprintf("  [+] [%s] %s (%s)\n", f.Severity, f.Title, f.Theme))
	}
	sb.WriteString("\n")

	sb.WriteString(fmt.Sprintf("RESOLVED FINDINGS: %d\n", len(d.Resolved)))
	for _, f := range d.Resolved {
		sb.WriteString(fmt.Sprintf("  [-] [%s] %s (%s)\n", f.Severity, f.Title, f.Theme))
	}
	sb.WriteString("\n")

	sb.WriteString(fmt.Sprintf("UNCHANGED FINDINGS: %d\n", len(d.Unchanged)))
	for i, f := range d.Unchanged {
		if i == 10 {
			sb.WriteString(fmt.Sprintf("  ... and %d more.\n", len(d.Unchanged)-10))
			break
		}
		sb.WriteString(fmt.Sprintf("  [=] [%s] %s (%s)\n", f.Severity, f.Title, f.Theme))
	}
	sb.WriteString("\n")

	sb.WriteString("SCORE CHANGES:\n")
	for _, theme := range Themes {
		sb.WriteString(fmt.Sprintf("  %-18s %+d\n", theme, d.ScoreDelta[theme]))
	}
	sb.WriteString(fmt.Sprintf("  %-18s %+d\n", "overall", d.OverallDelta))
	return sb.String()
}
