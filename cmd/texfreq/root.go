package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for texfreq.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "texfreq",
		Short: "Word frequency analyzer for LaTeX documents",
		Long: `texfreq counts how often each word occurs in the prose of LaTeX documents.

Everything that is not prose is skipped: the preamble, comments, inline
math, commands and block environments such as figures, tables and
equations. Results can be printed as plain text, JSON or Markdown, drawn as
a rank-frequency plot, and are kept in a local history for comparison.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().Bool("log-json", false, "Write log records as JSON")

	cmd.AddCommand(NewAnalyzeCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "texfreq:", err)
		os.Exit(1)
	}
}
