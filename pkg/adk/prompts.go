package adk

import (
	_ "embed"
	"strings"
)

//go:embed prompts/finding_prompt.md
var findingPrompt string

// DefaultScope is the review scope used when none is configured
const DefaultScope = "Scope: privacy, security controls, contract fairness, vendor data sharing and health software exemption conditions."

// GetFindingPrompt returns the embedded finding instructions
func GetFindingPrompt() string {
	return findingPrompt
}

// BuildFindingPrompt joins instructions, scope and one document chunk with newlines
func BuildFindingPrompt(scope, chunk string) string {
	if scope == "" {
		scope = DefaultScope
	}
	return strings.Join([]string{
		strings.TrimSpace(findingPrompt),
		scope,
		"Document excerpt:",
		chunk,
	}, "\n")
}
