package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-builder/internal/config"
	"github.com/jonathan/resume-builder/internal/fetch"
	"github.com/jonathan/resume-builder/internal/ingestion"
	"github.com/jonathan/resume-builder/internal/logger"
	"github.com/jonathan/resume-builder/internal/tailoring"
)

var tailorCmd = &cobra.Command{
	Use:   "tailor",
	Short: "Tailor a resume record to a job description",
	Long: `Rewrite a ResumeRecord JSON file for a job description read from a file (--job) or fetched
from a posting URL (--job-url), and write the tailored record as JSON.`,
	RunE: runTailor,
}

var (
	tailorFlags      config.CLIConfig
	tailorConfigFile string
)

func init() {
	tailorCmd.Flags().StringVarP(&tailorFlags.Record, "record", "r", "", "Path to ResumeRecord JSON file (required)")
	tailorCmd.Flags().StringVarP(&tailorFlags.Job, "job", "j", "", "Path to job description text file")
	tailorCmd.Flags().StringVar(&tailorFlags.JobURL, "job-url", "", "URL of the job posting")
	tailorCmd.Flags().StringVar(&tailorFlags.Role, "role", "", "Target role (default \""+tailoring.DefaultRole+"\")")
	tailorCmd.Flags().StringVar(&tailorFlags.Company, "company", "", "Target company (default \""+tailoring.DefaultCompany+"\")")
	tailorCmd.Flags().StringVarP(&tailorFlags.Out, "out", "o", "", "Path to output JSON file (stdout when omitted)")
	tailorCmd.Flags().StringVar(&tailorFlags.Provider, "provider", "", "LLM provider: gemini or anthropic (default from LLM_PROVIDER)")
	tailorCmd.Flags().StringVar(&tailorFlags.APIKey, "api-key", "", "LLM API key (default from LLM_API_KEY)")
	tailorCmd.Flags().BoolVar(&tailorFlags.UseBrowser, "use-browser", false, "Render the posting in headless Chrome when plain fetching yields too little text")
	tailorCmd.Flags().StringVarP(&tailorConfigFile, "config", "c", "", "Path to JSON config file with defaults for these flags")
	rootCmd.AddCommand(tailorCmd)
}

func runTailor(cmd *cobra.Command, _ []string) error {
	opts := tailorFlags
	if err := loadCLIDefaults(tailorConfigFile, &opts); err != nil {
		return err
	}
	if (opts.Job == "") == (opts.JobURL == "") {
		return fmt.Errorf("exactly one of --job or --job-url is required")
	}

	record, err := readRecord(opts.Record)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	jobText, err := readJobDescription(ctx, opts)
	if err != nil {
		return err
	}

	client, err := newOneShotLLM(ctx, opts.Provider, opts.APIKey)
	if err != nil {
		return err
	}
	defer client.Close()

	tailored, err := tailoring.Tailor(ctx, client, record, tailoring.Target{
		JobDescription: jobText,
		Role:           opts.Role,
		Company:        opts.Company,
	})
	if err != nil {
		return err
	}
	return writeRecord(cmd.OutOrStdout(), opts.Out, tailored)
}

// readJobDescription returns the job text from --job or by fetching --job-url
func readJobDescription(ctx context.Context, opts config.CLIConfig) (string, error) {
	if opts.Job != "" {
		return ingestion.ReadFile(opts.Job)
	}

	in := &ingestion.URLIngester{Options: fetch.DefaultOptions(), Log: logger.NewNop()}
	if opts.UseBrowser {
		in.Renderer = fetch.NewChromeRenderer()
	}
	page, err := in.IngestURL(ctx, opts.JobURL)
	if err != nil {
		return "", err
	}
	if opts.Verbose {
		fmt.Fprintf(os.Stderr, "Fetched %d characters from %s (platform %s)\n", len(page.Text), page.URL, page.Platform)
	}
	return page.Text, nil
}
