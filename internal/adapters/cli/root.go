package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	configPath string
	verbose    bool
)

// NewRootCommand creates the root command for the CLI
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "quartermaster",
		Short: "Quartermaster CLI - supply chain demand propagation and task prioritization",
		Long: `Quartermaster tracks demand through a player-driven supply graph and turns
it into a prioritized, claimable task list.

The CLI operates directly on the configured database. Run the daemon for
continuous event ingestion and background maintenance.

Examples:
  quartermaster topology load --file topology.yaml
  quartermaster event ingest --node frontline-1 --item Bandages --quantity 2
  quartermaster task list --limit 10
  quartermaster task claim --id <task-id> --actor hauler-7
  quartermaster order status --id <order-id>
  quartermaster dashboard`,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Path to config file (default: search ./config.yaml, ./configs, /etc/quartermaster)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Enable verbose output")

	rootCmd.AddCommand(NewTopologyCommand())
	rootCmd.AddCommand(NewEventCommand())
	rootCmd.AddCommand(NewTaskCommand())
	rootCmd.AddCommand(NewOrderCommand())
	rootCmd.AddCommand(NewDashboardCommand())
	rootCmd.AddCommand(NewSnapshotCommand())
	rootCmd.AddCommand(NewSweepCommand())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
