package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "supplychain",
	Short: "Textile supply-chain quality control service",
	Long: `Tracks production lots across multi-factory supply chains: the role
catalog, factory capabilities, per-supplier stage pipelines, inspections and
the one-time approval gate.`,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}
