package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "archloom",
	Short: "Generate browsable Markdown architecture documentation for a codebase",
	Long: `archloom walks a repository, builds a dependency graph of its
components, clusters them into a module hierarchy, and drives an LLM
agent to author a Markdown + Mermaid documentation site describing the
architecture it found. This CLI is a manual-invocation harness over
that pipeline, not a hosted service.`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", ".archloom.yml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

func exitOnError(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
