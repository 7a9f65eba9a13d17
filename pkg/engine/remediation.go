package engine

import (
	"fmt"
	"sort"
	"strings"
)

// MaxRemediationItems caps the remediation plan
const MaxRemediationItems = 6

// remediationKeyLen is how many runes of a recommendation identify it for dedup
const remediationKeyLen = 200

// RemediationItem is one deduplicated action in the remediation plan
type RemediationItem struct {
	ID             string   `json:"id"`
	Title          string   `json:"title"`
	Severity       Severity `json:"severity"`
	Recommendation string   `json:"recommendation"`
}

// BuildRemediationPlan keeps the first finding per recommendation, orders the survivors
// by severity (stable for ties) and truncates to MaxRemediationItems.
func BuildRemediationPlan(findings []Finding) []RemediationItem {
	seen := make(map[string]bool)
	items := make([]RemediationItem, 0, len(findings))

	for _, f := range findings {
		key := remediationKey(f.Recommendation)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		items = append(items, RemediationItem{
			ID:             f.ID,
			Title:          f.Title,
			Severity:       f.Severity,
			Recommendation: strings.TrimSpace(f.Recommendation),
		})
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Severity.Rank() < items[j].Severity.Rank()
	})

	if len(items) > MaxRemediationItems {
		items = items[:MaxRemediationItems]
	}
	return items
}

func remediationKey(rec string) string {
	norm := strings.ToLower(strings.Join(strings.Fields(rec), " "))
	if r := []rune(norm); len(r) > remediationKeyLen {
		norm = string(r[:remediationKeyLen])
	}
	return norm
}

// FormatPlan renders the plan as plain text for terminal output
func FormatPlan(items []RemediationItem) string {
	var sb strings.Builder
	sb.WriteString("[REMEDIATION PLAN]\n")
	if len(items) == 0 {
		sb.WriteString("No remediation required.\n")
		return sb.String()
	}
	for i, item := range items {
		sb.WriteString(fmt.Sprintf("%d. [%s] %s\n", i+1, strings.ToUpper(string(item.Severity)), item.Title))
		sb.WriteString(fmt.Sprintf("   %s\n", item.Recommendation))
	}
	return sb.String()
}
