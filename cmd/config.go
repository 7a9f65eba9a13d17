package cmd

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"github.com/user/policyrisk/pkg/adk"
	"github.com/user/policyrisk/pkg/config"
	"github.com/user/policyrisk/pkg/engine"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration (providers, models, keys, scoring)",
}

var setKeyCmd = &cobra.Command{
	Use:   "set-key",
	Short: "Store the API key for a model provider",
	Run: func(cmd *cobra.Command, args []string) {
		provider, _ := cmd.Flags().GetString("provider")
		key, _ := cmd.Flags().GetString("key")
		provider = strings.ToLower(provider)

		if !slices.Contains(adk.Providers, provider) || key == "" {
			fmt.Printf("Error: --provider (%s) and --key are required\n", strings.Join(adk.Providers, ", "))
			return
		}

		updateConfig(func(cfg *config.Config) {
			cfg.SetAPIKey(provider, key)
		})
		fmt.Printf("API key saved for provider: %s\n", provider)
	},
}

var setModelCmd = &cobra.Command{
	Use:   "set-model",
	Short: "Select the provider and model used for finding generation",
	Run: func(cmd *cobra.Command, args []string) {
		provider, _ := cmd.Flags().GetString("provider")
		model, _ := cmd.Flags().GetString("model")
		provider = strings.ToLower(provider)

		if provider != "" && !slices.Contains(adk.Providers, provider) {
			fmt.Printf("Error: unknown provider %q (%s)\n", provider, strings.Join(adk.Providers, ", "))
			return
		}

		cfg := updateConfig(func(cfg *config.Config) {
			if provider != "" {
				cfg.SelectedProvider = provider
			}
			if model != "" {
				cfg.SelectedModel = model
			}
		})
		if cfg != nil {
			fmt.Printf("Active model: %s/%s\n", cfg.SelectedProvider, cfg.SelectedModel)
		}
	},
}

var setWeightCmd = &cobra.Command{
	Use:   "set-weight <theme> <weight>",
	Short: "Set the overall-score weight of one theme (weights must sum to 1.0)",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		theme, ok := engine.ParseTheme(args[0])
		if !ok {
			fmt.Printf("Error: unknown theme %q\n", args[0])
			return
		}
		var w float64
		if _, err := fmt.Sscanf(args[1], "%g", &w); err != nil {
			fmt.Printf("Error: invalid weight %q\n", args[1])
			return
		}

		cfg := updateConfig(func(cfg *config.Config) {
			cfg.Analysis.Weights[string(theme)] = w
		})
		if cfg == nil {
			return
		}
		if _, err := cfg.AnalysisOptions(); err != nil {
			fmt.Printf("Saved, but analysis will refuse to run until fixed: %v\n", err)
			return
		}
		fmt.Printf("Weight for %s set to %.2f\n", theme, w)
	},
}

var listModelsCmd = &cobra.Command{
	Use:   "list-models",
	Short: "List available models from the configured provider",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.LoadConfig()
		if err != nil {
			fmt.Println("Error loading config:", err)
			return
		}

		provider := cfg.SelectedProvider
		apiKey := cfg.GetAPIKey(provider)
		if apiKey == "" {
			fmt.Printf("No API key found for %s. Please run 'policyrisk config setup'.\n", provider)
			return
		}

		ctx := context.Background()
		p, err := adk.NewProvider(ctx, provider, apiKey, "")
		if err != nil {
			fmt.Println("Error initializing provider:", err)
			return
		}
		if closer, ok := p.(interface{ Close() }); ok {
			defer closer.Close()
		}

		models, err := p.ListModels(ctx)
		if err != nil {
			fmt.Println("Error fetching models:", err)
			return
		}

		fmt.Printf("Available Models (%s):\n", provider)
		for _, m := range models {
			mark := " "
			if m == cfg.SelectedModel {
				mark = "*"
			}
			fmt.Printf("%s %s\n", mark, m)
		}
	},
}

var showConfigCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration (API keys masked)",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.LoadConfig()
		if err != nil {
			fmt.Printf("Error loading config: %v\n", err)
			return
		}
		masked := *cfg
		masked.Providers = make(map[string]config.ProviderConfig, len(cfg.Providers))
		for name, p := range cfg.Providers {
			p.APIKey = maskKey(p.APIKey)
			masked.Providers[name] = p
		}
		data, err := yaml.Marshal(&masked)
		if err != nil {
			fmt.Printf("Error encoding config: %v\n", err)
			return
		}
		fmt.Print(string(data))
		if _, err := cfg.AnalysisOptions(); err != nil {
			fmt.Printf("\nWarning: analysis settings are invalid: %v\n", err)
		}
	},
}

func maskKey(key string) string {
	if len(key) <= 4 {
		return strings.Repeat("*", len(key))
	}
	return strings.Repeat("*", len(key)-4) + key[len(key)-4:]
}

// updateConfig loads, mutates and saves the config, printing errors the way the
// other config subcommands do. It returns nil when anything failed.
func updateConfig(mutate func(cfg *config.Config)) *config.Config {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		return nil
	}
	mutate(cfg)
	if err := config.SaveConfig(cfg); err != nil {
		fmt.Printf("Error saving config: %v\n", err)
		return nil
	}
	return cfg
}

func init() {
	providerHelp := "Provider (" + strings.Join(adk.Providers, ", ") + ")"
	setKeyCmd.Flags().StringP("provider", "p", "", providerHelp)
	setKeyCmd.Flags().StringP("key", "k", "", "API Key")

	setModelCmd.Flags().StringP("provider", "p", "", providerHelp)
	setModelCmd.Flags().StringP("model", "m", "", "Model name")

	configCmd.AddCommand(setKeyCmd, setModelCmd, setWeightCmd, listModelsCmd, showConfigCmd)
	rootCmd.AddCommand(configCmd)
}
