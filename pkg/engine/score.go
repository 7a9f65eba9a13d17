package engine

import "math"

// SoftFloor is the minimum category score for a theme the document visibly engages with
const SoftFloor = 20

// Scores is the scoring section of a report
type Scores struct {
	Categories map[Theme]int     `json:"categories"`
	Overall    int               `json:"overall"`
	Weights    map[Theme]float64 `json:"weights"`
}

// ScoreCategories computes max(100 - penalties, floor) for every theme. The floor is
// SoftFloor when the scan shows any signal for the theme, else 0.
func ScoreCategories(findings []Finding, s *Scan) map[Theme]int {
	penalties := make(map[Theme]int, len(Themes))
	for _, f := range findings {
		penalties[f.Theme] += f.Severity.Penalty()
	}

	scores := make(map[Theme]int, len(Themes))
	for _, theme := range Themes {
		raw := 100 - penalties[theme]
		if raw < 0 {
			raw = 0
		}
		floor := 0
		if s != nil && s.ThemePositive(theme) {
			floor = SoftFloor
		}
		if raw < floor {
			raw = floor
		}
		scores[theme] = raw
	}
	return scores
}

// OverallScore is the weighted sum of the category scores, rounded and clamped to
// [0,100]. Weights are expected to have passed Options.Validate.
func OverallScore(categories map[Theme]int, weights map[Theme]float64) int {
	var sum float64
	for _, theme := range Themes {
		sum += weights[theme] * float64(categories[theme])
	}
	overall := int(math.Round(sum))
	if overall < 0 {
		return 0
	}
	if overall > 100 {
		return 100
	}
	return overall
}

// Aggregate turns a finding list into scores and a remediation plan
func Aggregate(findings []Finding, s *Scan, weights map[Theme]float64) (Scores, []RemediationItem) {
	categories := ScoreCategories(findings, s)
	w := make(map[Theme]float64, len(weights))
	for k, v := range weights {
		w[k] = v
	}
	scores := Scores{
		Categories: categories,
		Overall:    OverallScore(categories, w),
		Weights:    w,
	}
	return scores, BuildRemediationPlan(findings)
}
