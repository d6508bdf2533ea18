package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

var (
	noColor bool
	cfgPath string
)

var rootCmd = &cobra.Command{
	Use:   "convrev",
	Short: "Review generated conversations for cyberbullying presence and authenticity",
	Long: `convrev is a review tool for generated conversation datasets.

Reviewers work through a catalog of conversations and score each one for
cyberbullying presence and content authenticity on 1-5 scales. Reviews are
stored with one record per (item, reviewer) pair; reviewing an item again
replaces the earlier record.

Run "convrev review" for the interactive terminal UI, or "convrev serve" to
expose the same workflow over HTTP and MCP.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	Version:       version,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to config file")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(reviewCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(itemsCmd)
	rootCmd.AddCommand(progressCmd)
	rootCmd.AddCommand(exportCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
