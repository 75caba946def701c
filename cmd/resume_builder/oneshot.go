package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/jonathan/resume-builder/internal/config"
	"github.com/jonathan/resume-builder/internal/llm"
	"github.com/jonathan/resume-builder/internal/types"
)

// loadCLIDefaults reads the --config JSON file of the one-shot commands, if given.
// Its values fill flags that were left empty.
func loadCLIDefaults(path string, flags *config.CLIConfig) error {
	if path == "" {
		return nil
	}
	fileCfg, err := config.LoadCLIConfig(path)
	if err != nil {
		return err
	}
	if err := fileCfg.Validate(); err != nil {
		return err
	}
	*flags = flags.MergeWithDefaults(*fileCfg)
	flags.UseBrowser = flags.UseBrowser || fileCfg.UseBrowser
	flags.Compile = flags.Compile || fileCfg.Compile
	flags.Verbose = flags.Verbose || fileCfg.Verbose
	return nil
}

// readRecord loads a ResumeRecord JSON file
func readRecord(path string) (*types.ResumeRecord, error) {
	if path == "" {
		return nil, fmt.Errorf("--record is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read record file: %w", err)
	}
	var record types.ResumeRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to parse record JSON: %w", err)
	}
	return &record, nil
}

// writeOutput writes data to path, or to w when path is empty
func writeOutput(w io.Writer, path string, data []byte) error {
	if path == "" {
		_, err := w.Write(data)
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}

// writeRecord writes record as indented JSON
func writeRecord(w io.Writer, path string, record *types.ResumeRecord) error {
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}
	return writeOutput(w, path, append(data, '\n'))
}

// newOneShotLLM builds a model client from the environment, with provider and key overridable by flags
func newOneShotLLM(ctx context.Context, provider, apiKey string) (llm.Client, error) {
	cfg, err := config.Load("")
	if err != nil {
		return nil, err
	}
	if provider != "" {
		cfg.LLM.Provider = provider
	}
	if apiKey != "" {
		cfg.LLM.APIKey = apiKey
	}
	if err := cfg.RequireLLM(); err != nil {
		return nil, err
	}
	modelCfg, err := cfg.ModelConfig()
	if err != nil {
		return nil, err
	}
	return llm.NewClient(ctx, modelCfg, cfg.LLM.APIKey)
}
