package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/user/policyrisk/pkg/adk"
	"github.com/user/policyrisk/pkg/config"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Interactive setup wizard",
	Run: func(cmd *cobra.Command, args []string) {
		in := bufio.NewScanner(os.Stdin)
		ask := func(prompt string) string {
			fmt.Print(prompt)
			in.Scan()
			return strings.TrimSpace(in.Text())
		}

		fmt.Println("policyrisk setup")
		fmt.Println("----------------")

		fmt.Println("Step 1: Choose the model provider used for finding generation")
		for i, p := range adk.Providers {
			fmt.Printf("%d. %s\n", i+1, p)
		}
		choice := strings.ToLower(ask("Enter number or name > "))
		provider := ""
		for i, p := range adk.Providers {
			if choice == p || choice == strconv.Itoa(i+1) {
				provider = p
			}
		}
		if provider == "" {
			fmt.Println("Invalid choice. Aborting.")
			return
		}

		fmt.Printf("\nStep 2: API key for %s\n", provider)
		apiKey := ask("> ")
		if apiKey == "" {
			fmt.Println("API Key cannot be empty.")
			return
		}

		fmt.Println("\nStep 3: Validating key and fetching available models...")
		ctx := context.Background()
		selectedModel := ""
		p, err := adk.NewProvider(ctx, provider, apiKey, "")
		var models []string
		if err == nil {
			models, err = p.ListModels(ctx)
			if closer, ok := p.(interface{ Close() }); ok {
				closer.Close()
			}
		}
		if err != nil || len(models) == 0 {
			fmt.Printf("Warning: Could not fetch models from API: %v\n", err)
			selectedModel = ask("Enter model name manually > ")
		} else {
			for i, m := range models {
				fmt.Printf("%d. %s\n", i+1, m)
			}
			idx, err := strconv.Atoi(ask("Select Model (number) > "))
			if err != nil || idx < 1 || idx > len(models) {
				fmt.Println("Invalid selection. Using first available model.")
				idx = 1
			}
			selectedModel = models[idx-1]
		}

		fmt.Println("\nStep 4: Concurrent model calls per document")
		cfg, err := config.LoadConfig()
		if err != nil {
			fmt.Printf("Error loading config: %v\n", err)
			return
		}
		if n, err := strconv.Atoi(ask(fmt.Sprintf("[%d] > ", cfg.Analysis.Concurrency))); err == nil && n > 0 {
			cfg.Analysis.Concurrency = n
		}

		cfg.SelectedProvider = provider
		cfg.SelectedModel = selectedModel
		cfg.SetAPIKey(provider, apiKey)
		if err := config.SaveConfig(cfg); err != nil {
			fmt.Printf("Error saving config: %v\n", err)
			return
		}

		fmt.Println("----------------")
		fmt.Println("Setup Complete!")
		fmt.Printf("Provider:    %s\n", provider)
		fmt.Printf("Model:       %s\n", selectedModel)
		fmt.Printf("Concurrency: %d\n", cfg.Analysis.Concurrency)
		fmt.Println("You can now run 'policyrisk analyze <file>'")
	},
}

func init() {
	configCmd.AddCommand(setupCmd)
}
