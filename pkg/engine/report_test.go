package engine

import (
	"reflect"
	"testing"
)

func TestInferMetadata(t *testing.T) {
	tests := []struct {
		name        string
		text        string
		wantTitle   string
		wantJur     []string
		wantUpdated string
	}{
		{
			name:        "privacy policy with date",
			text:        "# Acme Health\nPrivacy Policy\nLast updated: 12 March 2024\nWe comply with the Privacy Act 1988 and the GDPR.",
			wantTitle:   "Privacy Policy",
			wantJur:     []string{"AU", "EU"},
			wantUpdated: "12 March 2024",
		},
		{
			name:        "iso date",
			text:        "Terms of Service\nEffective date: 2023-07-01\nGoverned by the laws of California.",
			wantTitle:   "Terms of Service",
			wantJur:     []string{"US"},
			wantUpdated: "2023-07-01",
		},
		{
			name:      "first line title and default jurisdiction",
			text:      "\n\n## Widget Handbook ##\nSome text.",
			wantTitle: "Widget Handbook",
			wantJur:   []string{"AU"},
		},
		{
			name:      "apps is not a privacy principle",
			text:      "Our apps are great. We comply with PIPEDA.",
			wantTitle: "Our apps are great. We comply with PIPEDA.",
			wantJur:   []string{"CA"},
		},
		{
			name:      "empty",
			text:      "",
			wantTitle: "Untitled document",
			wantJur:   []string{"AU"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meta := InferMetadata(Document{Name: "doc.txt", Text: tt.text}, []string{"AU"})
			if meta.Title != tt.wantTitle {
				t.Errorf("Expected title %q, got %q", tt.wantTitle, meta.Title)
			}
			if !reflect.DeepEqual(meta.Jurisdictions, tt.wantJur) {
				t.Errorf("Expected jurisdictions %v, got %v", tt.wantJur, meta.Jurisdictions)
			}
			if meta.LastUpdated != tt.wantUpdated {
				t.Errorf("Expected last updated %q, got %q", tt.wantUpdated, meta.LastUpdated)
			}
			if meta.Source != "doc.txt" {
				t.Errorf("Expected source doc.txt, got %q", meta.Source)
			}
		})
	}
}

func TestBuildReportNeverNilSlices(t *testing.T) {
	r := BuildReport(Metadata{}, Scores{}, nil, nil, SourceHeuristic, nil)
	if r.Findings == nil || r.RemediationPlan == nil {
		t.Errorf("Expected empty slices, got nil")
	}
}

func TestInferJurisdictionsAcronymsAreCaseSensitive(t *testing.T) {
	tests := []struct {
		text string
		want []string
	}{
		{"Download our app 2 today. The ico file and eea folder are attached.", []string{}},
		{"We follow APP 11 and the ICO guidance for the EEA.", []string{"AU", "EU", "UK"}},
		{"Handled under the privacy act 1988 and uk gdpr.", []string{"AU", "EU", "UK"}},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got := InferMetadata(Document{Text: tt.text}, nil).Jurisdictions
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}
