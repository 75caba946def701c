// Package main provides the resume_builder command: the HTTP API, the compile worker and one-shot tools.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "resume_builder",
	Short: "Resume Builder API server and tools",
	Long: "Resume Builder stores resumes, tailors them to job descriptions with an LLM and " +
		"renders them as LaTeX and PDF documents.",
	SilenceUsage: true,
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
