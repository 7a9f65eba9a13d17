package engine

import (
	"bytes"
	"strings"
	"text/template"
)

// heuristicConfidence is the confidence attached to every rule-generated finding
const heuristicConfidence = 0.5

// TemplateData is what impact and recommendation templates can reference
type TemplateData struct {
	Document      string
	Jurisdictions string
	Rule          string
}

// Fires evaluates r against a scan. When it fires, the returned evidence cites the
// trigger line for conditional rules and is "not found" otherwise.
func (r Rule) Fires(s *Scan) (bool, string) {
	evidence := EvidenceNotFound
	if r.When != "" {
		trigger := s.Find(r.When)
		if !trigger.Found {
			return false, ""
		}
		evidence = s.Cite(trigger.Line)
	}

	for _, p := range r.RequireAll {
		if !s.Present(p) {
			return true, evidence
		}
	}

	if len(r.RequireAny) == 0 {
		return false, ""
	}
	for _, p := range r.RequireAny {
		if s.Present(p) {
			return false, ""
		}
	}
	return true, evidence
}

// Evaluate runs rules in table order and returns one undisclosed finding per rule that
// fires. Findings carry no ID; the caller assigns them.
func Evaluate(s *Scan, rules []Rule, meta Metadata) []Finding {
	data := TemplateData{
		Document:      meta.Title,
		Jurisdictions: strings.Join(meta.Jurisdictions, ", "),
	}
	if data.Document == "" {
		data.Document = "The document"
	}

	findings := []Finding{}
	for _, r := range rules {
		fired, evidence := r.Fires(s)
		if !fired {
			continue
		}
		data.Rule = r.Title
		refs := append([]string{}, r.References...)
		findings = append(findings, Finding{
			Theme:          r.Theme,
			Title:          r.Title,
			Status:         StatusUndisclosed,
			Severity:       r.Severity,
			Evidence:       evidence,
			Impact:         render(r.impactTmpl, r.Impact, data),
			Recommendation: render(r.recTmpl, r.Recommendation, data),
			References:     refs,
			Confidence:     heuristicConfidence,
		})
	}
	return findings
}

// GapFill re-runs the mandatory rules and appends every fired finding whose title is
// not already present. The input slice is not modified.
func GapFill(existing []Finding, s *Scan, rs *RuleSet, meta Metadata) []Finding {
	return MergeHeuristics(existing, s, rs.Mandatory(), meta)
}

// MergeHeuristics evaluates rules and appends every fired finding whose title is not
// already present. The input slice is not modified.
func MergeHeuristics(existing []Finding, s *Scan, rules []Rule, meta Metadata) []Finding {
	titles := make(map[string]bool, len(existing))
	for _, f := range existing {
		titles[titleKey(f.Title)] = true
	}

	out := append([]Finding{}, existing...)
	for _, f := range Evaluate(s, rules, meta) {
		key := titleKey(f.Title)
		if titles[key] {
			continue
		}
		titles[key] = true
		out = append(out, f)
	}
	return out
}

func titleKey(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}

func render(t *template.Template, raw string, data TemplateData) string {
	if t == nil {
		return raw
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return raw
	}
	return buf.String()
}
