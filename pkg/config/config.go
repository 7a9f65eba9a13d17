package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/user/policyrisk/pkg/engine"
	"gopkg.in/yaml.v3"
)

type ProviderConfig struct {
	APIKey string `yaml:"api_key"`
}

// AnalysisConfig holds the scoring and chunking knobs
type AnalysisConfig struct {
	Weights              map[string]float64 `yaml:"weights"`
	ChunkSize            int                `yaml:"chunk_size"`
	Overlap              int                `yaml:"overlap"`
	Concurrency          int                `yaml:"concurrency"`
	ModelTimeout         string             `yaml:"model_timeout"`
	ModelRetries         int                `yaml:"model_retries"`
	ChunkFailure         string             `yaml:"chunk_failure"`
	DefaultJurisdictions []string           `yaml:"default_jurisdictions"`
	RulesDir             string             `yaml:"rules_dir"`
	Scope                string             `yaml:"scope,omitempty"`
}

type Config struct {
	SelectedProvider string                    `yaml:"selected_provider"`
	SelectedModel    string                    `yaml:"selected_model"`
	Providers        map[string]ProviderConfig `yaml:"providers"`
	Analysis         AnalysisConfig            `yaml:"analysis"`
}

// envKeys maps providers to the environment variable consulted when no key is stored
var envKeys = map[string]string{
	"gemini":    "GOOGLE_API_KEY",
	"openai":    "OPENAI_API_KEY",
	"anthropic": "ANTHROPIC_API_KEY",
}

// DefaultConfig is used when no config file exists yet
func DefaultConfig() *Config {
	d := engine.DefaultOptions()
	weights := make(map[string]float64, len(d.Weights))
	for theme, w := range d.Weights {
		weights[string(theme)] = w
	}
	return &Config{
		SelectedProvider: "gemini",
		SelectedModel:    "gemini-1.5-flash",
		Providers:        make(map[string]ProviderConfig),
		Analysis: AnalysisConfig{
			Weights:              weights,
			ChunkSize:            d.ChunkSize,
			Overlap:              d.Overlap,
			Concurrency:          d.Concurrency,
			ModelTimeout:         d.ModelTimeout.String(),
			ModelRetries:         d.ModelRetries,
			ChunkFailure:         string(d.ChunkFailure),
			DefaultJurisdictions: d.DefaultJurisdictions,
		},
	}
}

// PathOverride, when set, replaces the default config location
var PathOverride string

func GetConfigPath() (string, error) {
	if PathOverride != "" {
		return PathOverride, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	configDir := filepath.Join(home, ".policyrisk")
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.yaml"), nil
}

func LoadConfig() (*Config, error) {
	path, err := GetConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadConfigFile(path)
}

// LoadConfigFile reads path, filling anything the file leaves out from DefaultConfig
func LoadConfigFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}

	defaultWeights := cfg.Analysis.Weights
	cfg.Analysis.Weights = nil
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %v", path, err)
	}
	if cfg.Analysis.Weights == nil {
		cfg.Analysis.Weights = defaultWeights
	}
	if cfg.Providers == nil {
		cfg.Providers = make(map[string]ProviderConfig)
	}
	return cfg, nil
}

func SaveConfig(cfg *Config) error {
	path, err := GetConfigPath()
	if err != nil {
		return err
	}
	return SaveConfigFile(path, cfg)
}

func SaveConfigFile(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	// 0600 permissions for security (api keys)
	return os.WriteFile(path, data, 0600)
}

func (c *Config) SetAPIKey(provider, key string) {
	p := c.Providers[provider]
	p.APIKey = key
	c.Providers[provider] = p
}

// GetAPIKey returns the stored key, falling back to the provider's environment variable
func (c *Config) GetAPIKey(provider string) string {
	if key := c.Providers[provider].APIKey; key != "" {
		return key
	}
	if env, ok := envKeys[provider]; ok {
		return os.Getenv(env)
	}
	return ""
}

// AnalysisOptions converts the analysis block and validates it
func (c *Config) AnalysisOptions() (engine.Options, error) {
	a := c.Analysis
	opts := engine.Options{
		Weights:              make(map[engine.Theme]float64, len(a.Weights)),
		ChunkSize:            a.ChunkSize,
		Overlap:              a.Overlap,
		Concurrency:          a.Concurrency,
		ModelRetries:         a.ModelRetries,
		ChunkFailure:         engine.ChunkFailure(strings.ToLower(a.ChunkFailure)),
		DefaultJurisdictions: a.DefaultJurisdictions,
		Scope:                a.Scope,
	}
	names := make([]string, 0, len(a.Weights))
	for name := range a.Weights {
		names = append(names, name)
	}
	sort.Strings(names)
	seen := make(map[engine.Theme]string, len(names))
	for _, name := range names {
		theme, ok := engine.ParseTheme(name)
		if !ok {
			return opts, fmt.Errorf("%w: unknown theme %q in weights", engine.ErrInvalidOptions, name)
		}
		if prev, dup := seen[theme]; dup {
			return opts, fmt.Errorf("%w: weights %q and %q both name theme %s", engine.ErrInvalidOptions, prev, name, theme)
		}
		seen[theme] = name
		opts.Weights[theme] = a.Weights[name]
	}
	if a.ModelTimeout != "" {
		d, err := time.ParseDuration(a.ModelTimeout)
		if err != nil {
			return opts, fmt.Errorf("%w: model_timeout: %v", engine.ErrInvalidOptions, err)
		}
		opts.ModelTimeout = d
	}
	if err := opts.Validate(); err != nil {
		return opts, err
	}
	return opts, nil
}
