// Package main implements match-cli, an offline tool that scores and ranks
// caregivers from a fixture file.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "match-cli",
	Short:         "Score and rank caregivers against a job offline",
	Long:          "Reads a fixture with a job, its family, children and candidate caregivers in storage-record form and runs the matching engine locally.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var (
	inputFile  string
	configFile string
	outputFmt  string
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&inputFile, "input", "i", "", "Path to fixture JSON file (required)")
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "YAML file with a matching.scoring section")
	rootCmd.PersistentFlags().StringVarP(&outputFmt, "output", "o", "text", "Output format: text or json")
	if err := rootCmd.MarkPersistentFlagRequired("input"); err != nil {
		panic(fmt.Sprintf("failed to mark input flag as required: %v", err))
	}
}

func main() {
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
