package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-builder/internal/ingestion"
	"github.com/jonathan/resume-builder/internal/tailoring"
)

var extractCmd = &cobra.Command{
	Use:   "extract <resume-file>",
	Short: "Extract a resume record from a .txt, .md, .pdf or .docx file",
	Args:  cobra.ExactArgs(1),
	RunE:  runExtract,
}

var (
	extractOut      string
	extractProvider string
	extractAPIKey   string
)

func init() {
	extractCmd.Flags().StringVarP(&extractOut, "out", "o", "", "Path to output JSON file (stdout when omitted)")
	extractCmd.Flags().StringVar(&extractProvider, "provider", "", "LLM provider: gemini or anthropic (default from LLM_PROVIDER)")
	extractCmd.Flags().StringVar(&extractAPIKey, "api-key", "", "LLM API key (default from LLM_API_KEY)")
	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	text, err := ingestion.ReadFile(args[0])
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	client, err := newOneShotLLM(ctx, extractProvider, extractAPIKey)
	if err != nil {
		return err
	}
	defer client.Close()

	record, err := tailoring.Extract(ctx, client, text)
	if err != nil {
		return err
	}
	return writeRecord(cmd.OutOrStdout(), extractOut, record)
}
