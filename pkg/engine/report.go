package engine

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

// Document is the input to one analysis
type Document struct {
	Name string
	Text string
}

// Metadata describes the analysed document
type Metadata struct {
	Title         string   `json:"title"`
	Jurisdictions []string `json:"jurisdictions"`
	LastUpdated   string   `json:"last_updated,omitempty"`
	Source        string   `json:"source,omitempty"`
	Characters    int      `json:"characters"`
	Chunks        int      `json:"chunks"`
}

// Finding sources recorded in Report.GeneratedBy
const (
	SourceModel        = "model"
	SourceModelGapFill = "model+gapfill"
	SourceHeuristic    = "heuristic"
)

// ChunkDiagnostic records how one chunk's model call went
type ChunkDiagnostic struct {
	Index    int          `json:"index"`
	Tier     RecoveryTier `json:"tier"`
	Findings int          `json:"findings"`
	Error    string       `json:"error,omitempty"`
}

// Report is the final structured risk report
type Report struct {
	Document        Metadata          `json:"document"`
	Scores          Scores            `json:"scores"`
	Findings        []Finding         `json:"findings"`
	RemediationPlan []RemediationItem `json:"remediation_plan"`
	GeneratedBy     string            `json:"generated_by"`
	Diagnostics     []ChunkDiagnostic `json:"diagnostics,omitempty"`
}

var titlePhrases = []string{
	"Privacy Collection Notice",
	"Privacy Policy",
	"Privacy Statement",
	"Terms of Service",
	"Terms of Use",
	"Terms and Conditions",
	"Data Processing Agreement",
	"Information Security Policy",
	"Acceptable Use Policy",
	"End User Licence Agreement",
	"Cookie Policy",
}

// Acronyms outside the (?i:...) groups match case-sensitively so prose like "our app 2"
// or a ".ico" file does not count as a jurisdiction signal.
var jurisdictionSignals = []struct {
	tag     string
	pattern *regexp.Regexp
}{
	{"AU", regexp.MustCompile(`(?i:\baustralia\w*|\bprivacy act 1988\b|\boaic\b|\baustralian privacy principles?\b)|\bAPP \d{1,2}\b`)},
	{"CA", regexp.MustCompile(`(?i)\bcanad\w*|\bpipeda\b`)},
	{"EU", regexp.MustCompile(`(?i:\bgdpr\b|\beuropean (union|economic area)\b)|\bEEA\b`)},
	{"NZ", regexp.MustCompile(`(?i)\bnew zealand\b|\bprivacy act 2020\b`)},
	{"UK", regexp.MustCompile(`(?i:\bunited kingdom\b|\buk gdpr\b|\bdata protection act 2018\b)|\bICO\b`)},
	{"US", regexp.MustCompile(`(?i)\bunited states\b|\bhipaa\b|\bccpa\b|\bcpra\b|\bcalifornia\b`)},
}

var lastUpdatedPattern = regexp.MustCompile(`(?i)\b(?:last (?:updated|modified|revised)|effective (?:date|from|as of)|updated on|version date)\b[\s:,-]*(?:on\s+)?(` +
	`\d{4}-\d{2}-\d{2}` +
	`|\d{1,2}(?:st|nd|rd|th)?\s+[a-z]+\s+\d{4}` +
	`|[a-z]+\s+\d{1,2}(?:st|nd|rd|th)?,?\s+\d{4}` +
	`|\d{1,2}[/.]\d{1,2}[/.]\d{2,4}` +
	`|[a-z]+\s+\d{4})`)

const maxTitleRunes = 120

// InferMetadata extracts best-effort title, jurisdictions and last-updated date
func InferMetadata(doc Document, defaults []string) Metadata {
	return Metadata{
		Title:         inferTitle(doc.Text),
		Jurisdictions: inferJurisdictions(doc.Text, defaults),
		LastUpdated:   inferLastUpdated(doc.Text),
		Source:        doc.Name,
		Characters:    utf8.RuneCountInString(doc.Text),
	}
}

func inferTitle(text string) string {
	lower := strings.ToLower(text)
	best, bestAt := "", -1
	for _, phrase := range titlePhrases {
		at := strings.Index(lower, strings.ToLower(phrase))
		if at >= 0 && (bestAt < 0 || at < bestAt) {
			best, bestAt = phrase, at
		}
	}
	if best != "" {
		return best
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(strings.Trim(strings.TrimSpace(line), "#*"))
		if line == "" {
			continue
		}
		if r := []rune(line); len(r) > maxTitleRunes {
			line = string(r[:maxTitleRunes])
		}
		return line
	}
	return "Untitled document"
}

func inferJurisdictions(text string, defaults []string) []string {
	var tags []string
	for _, j := range jurisdictionSignals {
		if j.pattern.MatchString(text) {
			tags = append(tags, j.tag)
		}
	}
	if len(tags) == 0 {
		tags = append([]string{}, defaults...)
	}
	sort.Strings(tags)
	if tags == nil {
		tags = []string{}
	}
	return tags
}

func inferLastUpdated(text string) string {
	m := lastUpdatedPattern.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// BuildReport assembles the final report from already aggregated parts
func BuildReport(meta Metadata, scores Scores, findings []Finding, plan []RemediationItem, generatedBy string, diags []ChunkDiagnostic) *Report {
	if findings == nil {
		findings = []Finding{}
	}
	if plan == nil {
		plan = []RemediationItem{}
	}
	return &Report{
		Document:        meta,
		Scores:          scores,
		Findings:        findings,
		RemediationPlan: plan,
		GeneratedBy:     generatedBy,
		Diagnostics:     diags,
	}
}
