package engine

import "strings"

// Theme is one of the fixed regulatory categories a finding or score belongs to
type Theme string

const (
	ThemePrivacy          Theme = "privacy"
	ThemeSecurityControls Theme = "security_controls"
	ThemeContractFairness Theme = "contract_fairness"
	ThemeVendorSharing    Theme = "vendor_sharing"
	ThemeDomainExemption  Theme = "domain_exemption"
)

// Themes lists every theme in report order
var Themes = []Theme{
	ThemePrivacy,
	ThemeSecurityControls,
	ThemeContractFairness,
	ThemeVendorSharing,
	ThemeDomainExemption,
}

// Valid reports whether t is part of the fixed enumeration
func (t Theme) Valid() bool {
	for _, known := range Themes {
		if t == known {
			return true
		}
	}
	return false
}

// ParseTheme normalizes free-form model output ("Security Controls", "vendor-sharing")
// into a Theme. The second return value is false for unknown themes.
func ParseTheme(s string) (Theme, bool) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.NewReplacer(" ", "_", "-", "_").Replace(norm)
	t := Theme(norm)
	return t, t.Valid()
}

type Status string

const (
	StatusCompliant    Status = "compliant"
	StatusNonCompliant Status = "non_compliant"
	StatusUndisclosed  Status = "undisclosed"
	StatusPartial      Status = "partial"
)

func (s Status) Valid() bool {
	switch s {
	case StatusCompliant, StatusNonCompliant, StatusUndisclosed, StatusPartial:
		return true
	}
	return false
}

type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// Rank orders severities for the remediation plan: high=0, medium=1, low=2, anything else=3
func (s Severity) Rank() int {
	switch normSeverity(s) {
	case SeverityHigh:
		return 0
	case SeverityMedium:
		return 1
	case SeverityLow:
		return 2
	default:
		return 3
	}
}

// Penalty is the score deduction for one finding. Unknown severities count as low.
func (s Severity) Penalty() int {
	switch normSeverity(s) {
	case SeverityHigh:
		return 20
	case SeverityMedium:
		return 10
	default:
		return 4
	}
}

func normSeverity(s Severity) Severity {
	return Severity(strings.ToLower(strings.TrimSpace(string(s))))
}

// EvidenceNotFound marks a finding that has no citable span in the document
const EvidenceNotFound = "not found"

// Finding is one detected issue or gap. The JSON shape is the wire format the model is
// prompted to emit and the heuristic engine produces.
type Finding struct {
	ID             string   `json:"id"`
	Theme          Theme    `json:"theme"`
	Title          string   `json:"title"`
	Status         Status   `json:"status"`
	Severity       Severity `json:"severity"`
	Evidence       string   `json:"evidence"`
	Impact         string   `json:"impact"`
	Recommendation string   `json:"recommendation"`
	References     []string `json:"references"`
	Confidence     float64  `json:"confidence"`
}

// normalizeFinding cleans a model-produced finding. It returns false when the theme is
// outside the enumeration and the finding must be dropped.
func normalizeFinding(f Finding) (Finding, bool) {
	theme, ok := ParseTheme(string(f.Theme))
	if !ok {
		return f, false
	}
	f.Theme = theme
	f.Title = strings.TrimSpace(f.Title)

	status := Status(strings.ToLower(strings.TrimSpace(string(f.Status))))
	if !status.Valid() {
		status = StatusUndisclosed
	}
	f.Status = status

	if sev := normSeverity(f.Severity); sev != "" {
		f.Severity = sev
	}
	if strings.TrimSpace(f.Evidence) == "" {
		f.Evidence = EvidenceNotFound
	}
	if f.Confidence < 0 {
		f.Confidence = 0
	}
	if f.Confidence > 1 {
		f.Confidence = 1
	}
	if f.References == nil {
		f.References = []string{}
	}
	return f, true
}
