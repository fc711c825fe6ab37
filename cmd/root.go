// Package cmd implements the valet command line interface.
package cmd

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "valet",
	Short: "Valet - a personal assistant with knowledge of your documents",
	Long: `Valet is a personal assistant backend. It indexes your documents
into a vector store, answers questions grounded in them, and can act on
your behalf through tools: calendar events, email, and notes.

Run "valet serve" to start the HTTP server, or "valet ask" for a
one-shot question from the terminal.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	// A missing .env file is fine; the environment may already be set.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		return fmt.Errorf("valet: %w", err)
	}
	return nil
}
