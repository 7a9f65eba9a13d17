package cmd

import (
	"context"
	"fmt"

	"github.com/user/policyrisk/pkg/adk"
	"github.com/user/policyrisk/pkg/config"
	"github.com/user/policyrisk/pkg/engine"
)

// buildAnalyzer wires config, rules and (unless offline) the model gateway. The
// returned cleanup closes the provider if it holds a connection.
func buildAnalyzer(ctx context.Context, cfg *config.Config, opts engine.Options, rules engine.RuleSource, offline bool) (*engine.Analyzer, func(), error) {
	cleanup := func() {}
	if offline {
		a, err := engine.NewAnalyzer(nil, rules, opts)
		return a, cleanup, err
	}

	providerName := cfg.SelectedProvider
	if providerName == "" {
		providerName = "gemini"
	}
	apiKey := cfg.GetAPIKey(providerName)
	if apiKey == "" {
		return nil, cleanup, fmt.Errorf("no API key found for %s; run 'policyrisk config setup' or use --offline", providerName)
	}

	adk.Debugf("connecting to %s (model: %s)", providerName, cfg.SelectedModel)
	provider, err := adk.NewProvider(ctx, providerName, apiKey, cfg.SelectedModel)
	if err != nil {
		return nil, cleanup, fmt.Errorf("error creating AI provider: %v", err)
	}
	if closer, ok := provider.(interface{ Close() }); ok {
		cleanup = closer.Close
	}

	gateway := adk.NewGateway(provider, adk.GatewayOptions{
		Timeout: opts.ModelTimeout,
		Retries: opts.ModelRetries,
	})
	a, err := engine.NewAnalyzer(gateway, rules, opts)
	if err != nil {
		cleanup()
		return nil, func() {}, err
	}
	return a, cleanup, nil
}

// analysisFlags are shared by analyze and serve
type analysisFlags struct {
	offline     bool
	rulesDir    string
	chunkSize   int
	overlap     int
	concurrency int
}

func (f *analysisFlags) options(cfg *config.Config) (engine.Options, error) {
	if f.chunkSize > 0 {
		cfg.Analysis.ChunkSize = f.chunkSize
	}
	if f.overlap >= 0 {
		cfg.Analysis.Overlap = f.overlap
	}
	if f.concurrency > 0 {
		cfg.Analysis.Concurrency = f.concurrency
	}
	return cfg.AnalysisOptions()
}

func (f *analysisFlags) rulesDirOr(cfg *config.Config) string {
	if f.rulesDir != "" {
		return f.rulesDir
	}
	return cfg.Analysis.RulesDir
}
