package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "agentcoord",
	Short: "Coordinate concurrent agents over shared files",
	Long: `agentcoord admits agents up to a concurrency ceiling, arbitrates exclusive
file locks, orders agents by their dependencies, detects and resolves
conflicts, and recovers failed agents with a bounded retry budget.

Scenarios describe a set of agents in YAML; 'agentcoord simulate' plays one
against a live coordinator and records every coordination event to the
journal for 'agentcoord status'.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(signalCmd)
	rootCmd.AddCommand(versionCmd)
}
