package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "track-api",
	Short: "Track Generator API: AI-generated learning tracks and answer grading.",
	RunE:  runServe,
}

// Execute runs the root command; with no subcommand it serves HTTP.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
