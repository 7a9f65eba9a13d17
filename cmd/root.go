package cmd

import (
	"github.com/spf13/cobra"
	"github.com/user/policyrisk/pkg/adk"
	"github.com/user/policyrisk/pkg/config"
)

var rootCmd = &cobra.Command{
	Use:   "policyrisk",
	Short: "Citation-backed compliance risk reports for policy documents",
	Long: `policyrisk reads a legal or compliance document, asks a language model for
line-cited findings, fills coverage gaps with deterministic heuristic rules and
scores the result per regulatory theme.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		adk.DebugEnabled = DebugMode
		config.PathOverride = ConfigPath
	},
}

var (
	DebugMode  bool
	ConfigPath string
)

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&DebugMode, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&ConfigPath, "config", "", "Config file (default ~/.policyrisk/config.yaml)")
}
