package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"minechain/logx"
)

var rootCmd = &cobra.Command{
	Use:   "minechain",
	Short: "Proof-of-work chain node CLI",
	Long:  "Command line interface for running a proof-of-work chain node and its hash-search worker.",
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logx.Error("CMD", "Command execution failed:", err)
		os.Exit(1)
	}
}
