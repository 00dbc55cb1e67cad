package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "remold",
	Short: "Remold - declarative field transformation engine",
	Long: `Remold rewrites fields of string-keyed entries according to declarative
rules.

Each rule names a destination field and an operation:
  - extract: pull capture groups out of a source field
  - replace: rewrite every regex match in a source field
  - remove:  delete the field entirely

Rules run in one of three fixed phases (initial-collection, filtering,
post-filter-modification), so a field can be normalized before filtering
and restored afterwards.`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global persistent flags (available to all subcommands)
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (optional)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
