package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/user/policyrisk/pkg/adk"
	"golang.org/x/sync/errgroup"
)

// ErrModelUnavailable is returned when every model call of an analysis failed
var ErrModelUnavailable = errors.New("no model call succeeded")

// ModelGateway is the prompt-in, text-out model dependency
type ModelGateway interface {
	Generate(ctx context.Context, prompt string) (adk.Response, error)
}

// RuleSource yields the rule set to use for the next analysis
type RuleSource interface {
	Current() *RuleSet
}

// Current lets a fixed RuleSet act as its own RuleSource
func (rs *RuleSet) Current() *RuleSet {
	return rs
}

// Analyzer turns document text into a Report
type Analyzer struct {
	gateway ModelGateway
	rules   RuleSource
	opts    Options
}

// NewAnalyzer validates opts and builds an analyzer. A nil gateway runs heuristics
// only; nil rules use the built-in table.
func NewAnalyzer(gateway ModelGateway, rules RuleSource, opts Options) (*Analyzer, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if opts.ChunkFailure == "" {
		opts.ChunkFailure = ChunkFailureDegrade
	}
	if rules == nil {
		rs, err := DefaultRuleSet()
		if err != nil {
			return nil, err
		}
		rules = rs
	}
	return &Analyzer{gateway: gateway, rules: rules, opts: opts}, nil
}

// Options returns the validated options in use
func (a *Analyzer) Options() Options {
	return a.opts
}

// Analyze runs the full pipeline. With the abort policy a failed model call fails the
// whole analysis; no partial report is returned. With the degrade policy the rule table
// stands in for failed chunks, and ErrModelUnavailable is returned when no call succeeded.
func (a *Analyzer) Analyze(ctx context.Context, doc Document) (*Report, error) {
	rs := a.rules.Current()
	meta := InferMetadata(doc, a.opts.DefaultJurisdictions)
	chunks := Chunk(doc.Text, a.opts.ChunkSize, a.opts.Overlap)
	meta.Chunks = len(chunks)
	scan := NewScan(doc.Text, rs)

	var findings []Finding
	var diags []ChunkDiagnostic
	failed := 0
	if a.gateway != nil {
		var err error
		findings, diags, failed, err = a.collect(ctx, chunks)
		if err != nil {
			return nil, err
		}
	}

	source := SourceModel
	if len(findings) == 0 {
		adk.Debugf("no model findings for %q, running heuristic fallback", doc.Name)
		findings = Evaluate(scan, rs.Rules, meta)
		source = SourceHeuristic
	} else {
		// failed chunks are covered by the whole rule table, not just the mandatory rules
		rules := rs.Mandatory()
		if failed > 0 {
			rules = rs.Rules
		}
		before := len(findings)
		findings = MergeHeuristics(findings, scan, rules, meta)
		if len(findings) > before {
			adk.Debugf("heuristics added %d finding(s) (%d failed chunk(s))", len(findings)-before, failed)
			source = SourceModelGapFill
		}
	}

	findings = AssignIDs(doc.Text, findings)
	scores, plan := Aggregate(findings, scan, a.opts.Weights)
	return BuildReport(meta, scores, findings, plan, source, diags), nil
}

// collect fans chunks out to the gateway with bounded concurrency. Each worker writes
// only its own slot, and the merge walks slots in chunk order. It also reports how many
// calls failed under the degrade policy, and fails with ErrModelUnavailable when all did.
func (a *Analyzer) collect(ctx context.Context, chunks []string) ([]Finding, []ChunkDiagnostic, int, error) {
	results := make([][]Finding, len(chunks))
	diags := make([]ChunkDiagnostic, len(chunks))
	errs := make([]error, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.opts.Concurrency)

	for i, chunk := range chunks {
		g.Go(func() error {
			diags[i] = ChunkDiagnostic{Index: i, Tier: TierNone}
			if strings.TrimSpace(chunk) == "" {
				return nil
			}

			resp, err := a.gateway.Generate(gctx, adk.BuildFindingPrompt(a.opts.Scope, chunk))
			if err != nil {
				if a.opts.ChunkFailure == ChunkFailureAbort {
					return fmt.Errorf("chunk %d: %w", i, err)
				}
				adk.Warnf("model call for chunk %d failed, continuing without it: %v", i, err)
				diags[i].Error = err.Error()
				errs[i] = err
				return nil
			}

			raw, tier := RecoverFindings(resp.Text)
			kept := make([]Finding, 0, len(raw))
			for _, f := range raw {
				nf, ok := normalizeFinding(f)
				if !ok {
					adk.Debugf("chunk %d: dropping finding %q with unknown theme %q", i, f.Title, f.Theme)
					continue
				}
				kept = append(kept, nf)
			}
			adk.Debugf("chunk %d: recovered %d finding(s) via %s", i, len(kept), tier)

			results[i] = kept
			diags[i].Tier = tier
			diags[i].Findings = len(kept)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, 0, err
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, 0, err
	}

	attempted, failed := 0, 0
	var firstErr error
	for i, chunk := range chunks {
		if strings.TrimSpace(chunk) == "" {
			continue
		}
		attempted++
		if errs[i] != nil {
			failed++
			if firstErr == nil {
				firstErr = errs[i]
			}
		}
	}
	if attempted > 0 && failed == attempted {
		return nil, nil, failed, fmt.Errorf("%w: all %d model call(s) failed: %w", ErrModelUnavailable, failed, firstErr)
	}

	var merged []Finding
	for _, r := range results {
		merged = append(merged, r...)
	}
	return merged, diags, failed, nil
}
