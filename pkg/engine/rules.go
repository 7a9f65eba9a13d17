package engine

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"text/template"

	"github.com/user/policyrisk/pkg/adk"
	"gopkg.in/yaml.v3"
)

//go:embed rules/default.yaml
var defaultRules []byte

// Rule is one declarative heuristic check
type Rule struct {
	ID             string   `yaml:"id"`
	Theme          Theme    `yaml:"theme"`
	Title          string   `yaml:"title"`
	Severity       Severity `yaml:"severity"`
	Mandatory      bool     `yaml:"mandatory"`
	When           string   `yaml:"when"`
	RequireAll     []string `yaml:"require_all"`
	RequireAny     []string `yaml:"require_any"`
	Impact         string   `yaml:"impact"`
	Recommendation string   `yaml:"recommendation"`
	References     []string `yaml:"references"`

	impactTmpl *template.Template
	recTmpl    *template.Template
}

// ThemeSignals lists the patterns whose presence grants a theme its soft floor
type ThemeSignals struct {
	FloorSignals []string `yaml:"floor_signals"`
}

// RuleFile is the on-disk shape of a rule table
type RuleFile struct {
	Themes map[Theme]ThemeSignals `yaml:"themes"`
	Rules  []Rule                 `yaml:"rules"`
}

// RuleSet is a compiled, immutable rule table
type RuleSet struct {
	Rules  []Rule
	Themes map[Theme]ThemeSignals

	patterns map[string]*regexp.Regexp
}

// DefaultRuleSet compiles the built-in rule table
func DefaultRuleSet() (*RuleSet, error) {
	var f RuleFile
	if err := yaml.Unmarshal(defaultRules, &f); err != nil {
		return nil, fmt.Errorf("failed to parse built-in rules: %v", err)
	}
	return compileRuleSet(f)
}

// LoadRuleDir reads every YAML file in dir on top of the built-in table. Rules with an
// existing ID replace it in place, new rules are appended, and theme signals override.
func LoadRuleDir(dir string) (*RuleSet, error) {
	var base RuleFile
	if err := yaml.Unmarshal(defaultRules, &base); err != nil {
		return nil, fmt.Errorf("failed to parse built-in rules: %v", err)
	}
	if dir == "" {
		return compileRuleSet(base)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, entry := range entries {
		if !entry.IsDir() && isYAML(entry.Name()) {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		var overlay RuleFile
		if err := yaml.Unmarshal(data, &overlay); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %v", name, err)
		}
		base = mergeRuleFiles(base, overlay)
		adk.Debugf("loaded rule file %s (%d rules)", name, len(overlay.Rules))
	}
	return compileRuleSet(base)
}

func isYAML(name string) bool {
	ext := filepath.Ext(name)
	return ext == ".yaml" || ext == ".yml"
}

func mergeRuleFiles(base, overlay RuleFile) RuleFile {
	if base.Themes == nil {
		base.Themes = make(map[Theme]ThemeSignals)
	}
	for theme, sig := range overlay.Themes {
		base.Themes[theme] = sig
	}

	index := make(map[string]int, len(base.Rules))
	for i, r := range base.Rules {
		index[r.ID] = i
	}
	for _, r := range overlay.Rules {
		if i, ok := index[r.ID]; ok {
			base.Rules[i] = r
			continue
		}
		index[r.ID] = len(base.Rules)
		base.Rules = append(base.Rules, r)
	}
	return base
}

func compileRuleSet(f RuleFile) (*RuleSet, error) {
	rs := &RuleSet{
		Themes:   make(map[Theme]ThemeSignals),
		patterns: make(map[string]*regexp.Regexp),
	}

	for theme, sig := range f.Themes {
		if !theme.Valid() {
			return nil, fmt.Errorf("unknown theme %q in theme signals", theme)
		}
		for _, p := range sig.FloorSignals {
			if err := rs.compile(p); err != nil {
				return nil, fmt.Errorf("theme %s: %v", theme, err)
			}
		}
		rs.Themes[theme] = sig
	}

	seen := make(map[string]bool)
	for _, r := range f.Rules {
		if r.ID == "" {
			return nil, fmt.Errorf("rule %q has no id", r.Title)
		}
		if seen[r.ID] {
			return nil, fmt.Errorf("duplicate rule id %s", r.ID)
		}
		seen[r.ID] = true

		if !r.Theme.Valid() {
			return nil, fmt.Errorf("rule %s: unknown theme %q", r.ID, r.Theme)
		}
		if r.Title == "" {
			return nil, fmt.Errorf("rule %s: title is required", r.ID)
		}
		if r.Severity.Rank() > 2 {
			return nil, fmt.Errorf("rule %s: invalid severity %q", r.ID, r.Severity)
		}
		if len(r.RequireAll) == 0 && len(r.RequireAny) == 0 {
			return nil, fmt.Errorf("rule %s: needs require_all or require_any", r.ID)
		}

		patterns := append([]string{}, r.RequireAll...)
		patterns = append(patterns, r.RequireAny...)
		if r.When != "" {
			patterns = append(patterns, r.When)
		}
		for _, p := range patterns {
			if err := rs.compile(p); err != nil {
				return nil, fmt.Errorf("rule %s: %v", r.ID, err)
			}
		}

		var err error
		if r.impactTmpl, err = template.New(r.ID + ".impact").Parse(r.Impact); err != nil {
			return nil, fmt.Errorf("rule %s: failed to parse impact template: %v", r.ID, err)
		}
		if r.recTmpl, err = template.New(r.ID + ".recommendation").Parse(r.Recommendation); err != nil {
			return nil, fmt.Errorf("rule %s: failed to parse recommendation template: %v", r.ID, err)
		}
		rs.Rules = append(rs.Rules, r)
	}
	return rs, nil
}

func (rs *RuleSet) compile(p string) error {
	if p == "" {
		return fmt.Errorf("empty pattern")
	}
	if _, ok := rs.patterns[p]; ok {
		return nil
	}
	re, err := regexp.Compile("(?i)" + p)
	if err != nil {
		return fmt.Errorf("bad pattern %q: %v", p, err)
	}
	if re.MatchString("") {
		return fmt.Errorf("pattern %q matches empty text", p)
	}
	rs.patterns[p] = re
	return nil
}

// Mandatory returns the rules that gap-filling guarantees coverage for
func (rs *RuleSet) Mandatory() []Rule {
	var out []Rule
	for _, r := range rs.Rules {
		if r.Mandatory {
			out = append(out, r)
		}
	}
	return out
}

// ByTheme groups rules per theme, in table order
func (rs *RuleSet) ByTheme() map[Theme][]Rule {
	out := make(map[Theme][]Rule)
	for _, r := range rs.Rules {
		out[r.Theme] = append(out[r.Theme], r)
	}
	return out
}
