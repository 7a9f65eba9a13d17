package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/user/policyrisk/pkg/attest"
)

var verifyKeyPath string

var verifyCmd = &cobra.Command{
	Use:   "verify <report.json> [signature.asc]",
	Short: "Verify the OpenPGP signature of a saved report",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		sigPath := args[0] + ".asc"
		if len(args) == 2 {
			sigPath = args[1]
		}
		if verifyKeyPath == "" {
			return fmt.Errorf("--key is required")
		}

		report, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		sig, err := os.ReadFile(sigPath)
		if err != nil {
			return err
		}
		keyring, err := os.Open(verifyKeyPath)
		if err != nil {
			return err
		}
		defer keyring.Close()

		signer, err := attest.Verify(keyring, report, sig)
		if err != nil {
			return err
		}
		fmt.Printf("Good signature from %s\n", signer)
		return nil
	},
}

func init() {
	verifyCmd.Flags().StringVarP(&verifyKeyPath, "key", "k", "", "Armored OpenPGP public keyring")
	rootCmd.AddCommand(verifyCmd)
}
