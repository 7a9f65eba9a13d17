package engine

import (
	"math/rand"
	"testing"
)

func TestScoreCategoriesPenalties(t *testing.T) {
	findings := []Finding{
		{Theme: ThemePrivacy, Severity: SeverityHigh},
		{Theme: ThemePrivacy, Severity: SeverityMedium},
		{Theme: ThemePrivacy, Severity: "Low"},
		{Theme: ThemeVendorSharing, Severity: "critical"},
	}
	got := ScoreCategories(findings, nil)

	want := map[Theme]int{
		ThemePrivacy:          66,
		ThemeSecurityControls: 100,
		ThemeContractFairness: 100,
		ThemeVendorSharing:    96,
		ThemeDomainExemption:  100,
	}
	for theme, score := range want {
		if got[theme] != score {
			t.Errorf("%s: expected %d, got %d", theme, score, got[theme])
		}
	}
}

func TestScoreCategoriesSoftFloor(t *testing.T) {
	rs := mustDefaultRules(t)
	var findings []Finding
	for i := 0; i < 10; i++ {
		findings = append(findings,
			Finding{Theme: ThemePrivacy, Severity: SeverityHigh},
			Finding{Theme: ThemeSecurityControls, Severity: SeverityHigh},
		)
	}

	got := ScoreCategories(findings, NewScan("Our privacy practices.", rs))
	if got[ThemePrivacy] != SoftFloor {
		t.Errorf("Expected privacy floored at %d, got %d", SoftFloor, got[ThemePrivacy])
	}
	if got[ThemeSecurityControls] != 0 {
		t.Errorf("Expected security_controls at 0 without signals, got %d", got[ThemeSecurityControls])
	}
}

func TestEmptyDocumentScores(t *testing.T) {
	rs := mustDefaultRules(t)
	scan := NewScan("", rs)
	findings := Evaluate(scan, rs.Rules, Metadata{})
	got := ScoreCategories(findings, scan)

	penalty := make(map[Theme]int)
	for _, r := range rs.Rules {
		if r.When == "" {
			penalty[r.Theme] += r.Severity.Penalty()
		}
	}
	for _, theme := range Themes {
		want := 100 - penalty[theme]
		if want < 0 {
			want = 0
		}
		if got[theme] != want {
			t.Errorf("%s: expected %d, got %d", theme, want, got[theme])
		}
	}
}

func TestOverallScore(t *testing.T) {
	all := func(v int) map[Theme]int {
		m := make(map[Theme]int)
		for _, theme := range Themes {
			m[theme] = v
		}
		return m
	}

	if got := OverallScore(all(100), DefaultWeights()); got != 100 {
		t.Errorf("Expected 100, got %d", got)
	}
	if got := OverallScore(all(0), DefaultWeights()); got != 0 {
		t.Errorf("Expected 0, got %d", got)
	}

	cats := map[Theme]int{
		ThemePrivacy:          40,
		ThemeSecurityControls: 16,
		ThemeContractFairness: 96,
		ThemeVendorSharing:    90,
		ThemeDomainExemption:  40,
	}
	// 14 + 4 + 14.4 + 9 + 6 = 47.4
	if got := OverallScore(cats, DefaultWeights()); got != 47 {
		t.Errorf("Expected 47, got %d", got)
	}
}

func TestOverallScoreBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	severities := []Severity{SeverityHigh, SeverityMedium, SeverityLow, "unknown"}

	for i := 0; i < 500; i++ {
		var findings []Finding
		for n := rng.Intn(40); n > 0; n-- {
			findings = append(findings, Finding{
				Theme:    Themes[rng.Intn(len(Themes))],
				Severity: severities[rng.Intn(len(severities))],
			})
		}

		weights := make(map[Theme]float64)
		var sum float64
		for _, theme := range Themes {
			w := rng.Float64()
			weights[theme] = w
			sum += w
		}
		for theme := range weights {
			weights[theme] /= sum
		}

		scores, plan := Aggregate(findings, nil, weights)
		if scores.Overall < 0 || scores.Overall > 100 {
			t.Fatalf("Overall score %d out of range", scores.Overall)
		}
		for theme, s := range scores.Categories {
			if s < 0 || s > 100 {
				t.Fatalf("%s score %d out of range", theme, s)
			}
		}
		if len(plan) > MaxRemediationItems {
			t.Fatalf("Plan has %d items", len(plan))
		}
	}
}

func TestAggregateCopiesWeights(t *testing.T) {
	weights := DefaultWeights()
	scores, _ := Aggregate(nil, nil, weights)
	weights[ThemePrivacy] = 0
	if scores.Weights[ThemePrivacy] != 0.35 {
		t.Errorf("Expected report weights to be independent of the caller's map")
	}
}
