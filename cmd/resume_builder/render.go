package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-builder/internal/compiler"
	"github.com/jonathan/resume-builder/internal/config"
	"github.com/jonathan/resume-builder/internal/logger"
	"github.com/jonathan/resume-builder/internal/rendering"
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render a resume record as a LaTeX document",
	Long: `Render a ResumeRecord JSON file as a LaTeX document, using the built-in layout or a custom
text/template file. With --compile the document is also compiled to PDF with pdflatex.`,
	RunE: runRender,
}

var (
	renderFlags      config.CLIConfig
	renderConfigFile string
)

func init() {
	renderCmd.Flags().StringVarP(&renderFlags.Record, "record", "r", "", "Path to ResumeRecord JSON file (required)")
	renderCmd.Flags().StringVarP(&renderFlags.Template, "template", "t", "", "Path to a custom LaTeX text/template file")
	renderCmd.Flags().StringVarP(&renderFlags.Out, "out", "o", "", "Path to output .tex file (stdout when omitted)")
	renderCmd.Flags().BoolVar(&renderFlags.Compile, "compile", false, "Compile the document to PDF next to the output file")
	renderCmd.Flags().BoolVarP(&renderFlags.Verbose, "verbose", "v", false, "Print compiler output")
	renderCmd.Flags().StringVarP(&renderConfigFile, "config", "c", "", "Path to JSON config file with defaults for these flags")
	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, _ []string) error {
	opts := renderFlags
	if err := loadCLIDefaults(renderConfigFile, &opts); err != nil {
		return err
	}

	record, err := readRecord(opts.Record)
	if err != nil {
		return err
	}

	var latex string
	if opts.Template != "" {
		latex, err = rendering.RenderWithTemplate(record, opts.Template)
		if err != nil {
			return err
		}
	} else {
		latex = rendering.RenderDocument(record)
	}

	if !opts.Compile {
		return writeOutput(cmd.OutOrStdout(), opts.Out, []byte(latex))
	}

	if opts.Out == "" {
		return fmt.Errorf("--out is required with --compile")
	}
	if err := writeOutput(cmd.OutOrStdout(), opts.Out, []byte(latex)); err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	name := strings.TrimSuffix(filepath.Base(opts.Out), filepath.Ext(opts.Out))
	pdfPath := filepath.Join(filepath.Dir(opts.Out), name+".pdf")

	comp := compiler.New(compiler.Config{}, logger.NewNop())
	result, workDir, err := comp.CompileSource(ctx, name, latex, "")
	defer func() {
		if cleanupErr := compiler.Cleanup(workDir, name); cleanupErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to remove work directory: %v\n", cleanupErr)
		}
	}()
	if err != nil {
		var compErr *compiler.CompilationError
		if opts.Verbose && errors.As(err, &compErr) {
			fmt.Fprintln(os.Stderr, compErr.LogOutput)
		}
		return err
	}
	if opts.Verbose {
		fmt.Fprintln(os.Stderr, result.LogOutput)
	}

	pdf, err := os.ReadFile(result.PDFPath)
	if err != nil {
		return fmt.Errorf("failed to read compiled PDF: %w", err)
	}
	if err := os.WriteFile(pdfPath, pdf, 0o644); err != nil {
		return fmt.Errorf("failed to write PDF: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "PDF written to %s\n", pdfPath)
	return nil
}
