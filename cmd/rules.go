package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/user/policyrisk/pkg/engine"
	"github.com/user/policyrisk/pkg/extract"
)

var rulesDir string

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Inspect the heuristic rule table",
}

var listRulesCmd = &cobra.Command{
	Use:   "list",
	Short: "List heuristic rules grouped by theme",
	RunE: func(cmd *cobra.Command, args []string) error {
		rs, err := engine.LoadRuleDir(rulesDir)
		if err != nil {
			return err
		}
		byTheme := rs.ByTheme()
		for _, theme := range engine.Themes {
			fmt.Printf("%s (%d rules)\n", theme, len(byTheme[theme]))
			for _, r := range byTheme[theme] {
				flags := ""
				if r.Mandatory {
					flags += " mandatory"
				}
				if r.When != "" {
					flags += " conditional"
				}
				fmt.Printf("  %-32s %-7s %s%s\n", r.ID, r.Severity, r.Title, flags)
			}
		}
		return nil
	},
}

var checkRulesCmd = &cobra.Command{
	Use:   "check <file>",
	Short: "Show which heuristic rules fire on a document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rs, err := engine.LoadRuleDir(rulesDir)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		text, err := extract.Extract(args[0], data)
		if err != nil {
			return err
		}

		scan := engine.NewScan(text, rs)
		fired := 0
		for _, r := range rs.Rules {
			ok, evidence := r.Fires(scan)
			status := "PASS"
			if ok {
				status = "FIRE"
				fired++
			}
			fmt.Printf("[%s] %s: %s\n", status, r.ID, r.Title)
			if ok && evidence != engine.EvidenceNotFound {
				fmt.Printf("  Evidence: %s\n", evidence)
			}
		}

		var positive []string
		for _, theme := range engine.Themes {
			if scan.ThemePositive(theme) {
				positive = append(positive, string(theme))
			}
		}
		fmt.Printf("\nSummary: %d rules, %d fired. Themes with soft floor: %s\n", len(rs.Rules), fired, strings.Join(positive, ", "))
		return nil
	},
}

func init() {
	rulesCmd.PersistentFlags().StringVar(&rulesDir, "rules-dir", "", "Directory of YAML rule overrides")
	rulesCmd.AddCommand(listRulesCmd, checkRulesCmd)
	rootCmd.AddCommand(rulesCmd)
}
