package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/user/policyrisk/pkg/adk"
	"github.com/user/policyrisk/pkg/attest"
	"github.com/user/policyrisk/pkg/config"
	"github.com/user/policyrisk/pkg/engine"
	"github.com/user/policyrisk/pkg/extract"
)

var (
	analyzeFlags  = analysisFlags{overlap: -1}
	outPath       string
	outputFormat  string
	signKeyPath   string
	passphraseEnv string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>",
	Short: "Analyze a policy document and print a risk report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		if signKeyPath != "" && outPath == "" {
			return fmt.Errorf("--sign-key requires --out")
		}

		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("error loading config: %v", err)
		}
		opts, err := analyzeFlags.options(cfg)
		if err != nil {
			return err
		}
		rules, err := engine.LoadRuleDir(analyzeFlags.rulesDirOr(cfg))
		if err != nil {
			return fmt.Errorf("error loading rules: %v", err)
		}

		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		text, err := extract.Extract(args[0], data)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		analyzer, cleanup, err := buildAnalyzer(ctx, cfg, opts, rules, analyzeFlags.offline)
		if err != nil {
			return err
		}
		defer cleanup()

		used := analyzer.Options()
		adk.Infof("Analyzing %s (%d chunk(s), %d concurrent)...", filepath.Base(args[0]), len(engine.Chunk(text, used.ChunkSize, used.Overlap)), used.Concurrency)
		report, err := analyzer.Analyze(ctx, engine.Document{Name: filepath.Base(args[0]), Text: text})
		if err != nil {
			return fmt.Errorf("analysis failed: %w", err)
		}

		var out []byte
		switch outputFormat {
		case "json":
			out, err = json.MarshalIndent(report, "", "  ")
			if err != nil {
				return err
			}
			out = append(out, '\n')
		case "text":
			out = []byte(formatReport(report))
		default:
			return fmt.Errorf("unknown format %q (json, text)", outputFormat)
		}

		if outPath == "" {
			_, err = os.Stdout.Write(out)
			return err
		}
		if err := os.WriteFile(outPath, out, 0644); err != nil {
			return err
		}
		adk.Infof("Report written to %s", outPath)

		if signKeyPath != "" {
			signer, err := attest.LoadSignerFile(signKeyPath, []byte(os.Getenv(passphraseEnv)))
			if err != nil {
				return err
			}
			sig, err := signer.Sign(out)
			if err != nil {
				return err
			}
			if err := os.WriteFile(outPath+".asc", sig, 0644); err != nil {
				return err
			}
			adk.Infof("Signature written to %s.asc", outPath)
		}
		return nil
	},
}

func formatReport(r *engine.Report) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s\n", r.Document.Title))
	sb.WriteString(fmt.Sprintf("Jurisdictions: %s\n", strings.Join(r.Document.Jurisdictions, ", ")))
	if r.Document.LastUpdated != "" {
		sb.WriteString(fmt.Sprintf("Last updated: %s\n", r.Document.LastUpdated))
	}
	sb.WriteString(fmt.Sprintf("Findings source: %s\n", r.GeneratedBy))
	sb.WriteString("--------------------------------------------------\n")

	sb.WriteString(fmt.Sprintf("OVERALL SCORE: %d/100\n", r.Scores.Overall))
	for _, theme := range engine.Themes {
		sb.WriteString(fmt.Sprintf("  %-18s %3d  (weight %.2f)\n", theme, r.Scores.Categories[theme], r.Scores.Weights[theme]))
	}
	sb.WriteString("\n")

	sb.WriteString(fmt.Sprintf("FINDINGS: %d\n", len(r.Findings)))
	for _, f := range r.Findings {
		sb.WriteString(fmt.Sprintf("  [%s] %s (%s, %s)\n", strings.ToUpper(string(f.Severity)), f.Title, f.Theme, f.Status))
		sb.WriteString(fmt.Sprintf("    Evidence: %s\n", f.Evidence))
	}
	sb.WriteString("\n")
	sb.WriteString(engine.FormatPlan(r.RemediationPlan))

	for _, d := range r.Diagnostics {
		if d.Error != "" {
			sb.WriteString(fmt.Sprintf("\nWarning: chunk %d failed: %s\n", d.Index, d.Error))
		}
	}
	return sb.String()
}

func addAnalysisFlags(cmd *cobra.Command, f *analysisFlags) {
	cmd.Flags().BoolVar(&f.offline, "offline", false, "Skip the model and use heuristic rules only")
	cmd.Flags().StringVar(&f.rulesDir, "rules-dir", "", "Directory of YAML rule overrides")
	cmd.Flags().IntVar(&f.chunkSize, "chunk-size", 0, "Chunk size in characters (overrides config)")
	cmd.Flags().IntVar(&f.overlap, "overlap", -1, "Chunk overlap in characters (overrides config)")
	cmd.Flags().IntVar(&f.concurrency, "concurrency", 0, "Concurrent model calls (overrides config)")
}

func init() {
	addAnalysisFlags(analyzeCmd, &analyzeFlags)
	analyzeCmd.Flags().StringVarP(&outPath, "out", "o", "", "Write the report to a file instead of stdout")
	analyzeCmd.Flags().StringVarP(&outputFormat, "format", "f", "json", "Output format (json, text)")
	analyzeCmd.Flags().StringVar(&signKeyPath, "sign-key", "", "Armored OpenPGP private key used to sign the report")
	analyzeCmd.Flags().StringVar(&passphraseEnv, "passphrase-env", "POLICYRISK_KEY_PASSPHRASE", "Environment variable holding the signing key passphrase")
	rootCmd.AddCommand(analyzeCmd)
}
