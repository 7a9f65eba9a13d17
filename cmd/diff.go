package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/user/policyrisk/pkg/engine"
)

var diffCmd = &cobra.Command{
	Use:   "diff <baseline.json> <current.json>",
	Short: "Compare two saved reports for the same document",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		baseline, err := engine.LoadReport(args[0])
		if err != nil {
			return err
		}
		current, err := engine.LoadReport(args[1])
		if err != nil {
			return err
		}
		fmt.Print(engine.FormatDiff(engine.CompareReports(baseline, current)))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(diffCmd)
}
