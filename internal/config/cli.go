package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// CLIConfig represents the configuration of the one-shot commands that can be loaded from a JSON file.
// All fields are optional; missing values use defaults or must be provided via CLI flags.
type CLIConfig struct {
	// Paths
	Record   string `json:"record,omitempty"`   // Path to ResumeRecord JSON file
	Job      string `json:"job,omitempty"`      // Path to job description text file
	JobURL   string `json:"job_url,omitempty"`  // URL to fetch the job description from
	Template string `json:"template,omitempty"` // Path to a custom LaTeX template
	Out      string `json:"out,omitempty"`      // Output path

	// Tailoring target
	Role    string `json:"role,omitempty"`
	Company string `json:"company,omitempty"`

	// Behavior
	Provider   string `json:"provider,omitempty"`    // LLM provider: gemini or anthropic
	APIKey     string `json:"api_key,omitempty"`     // LLM API key
	UseBrowser bool   `json:"use_browser,omitempty"` // Use headless browser for SPA sites
	Compile    bool   `json:"compile,omitempty"`     // Run pdflatex after rendering
	Verbose    bool   `json:"verbose,omitempty"`     // Print detailed debug information
}

// LoadCLIConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadCLIConfig(path string) (*CLIConfig, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg CLIConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// Validate checks that the configuration has valid values.
// Required fields are left to CLI flag validation after merging.
func (c *CLIConfig) Validate() error {
	if c.Job != "" && c.JobURL != "" {
		return fmt.Errorf("config error: 'job' and 'job_url' are mutually exclusive")
	}

	for name, path := range map[string]string{"record": c.Record, "job": c.Job, "template": c.Template} {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return fmt.Errorf("config error: %s file not found: %s", name, path)
		}
	}

	return nil
}

// MergeWithDefaults returns a new CLIConfig with empty string fields filled from defaults.
// Config file values act as defaults for CLI flags this way.
func (c *CLIConfig) MergeWithDefaults(defaults CLIConfig) CLIConfig {
	result := *c

	fill := func(dst *string, fallback string) {
		if *dst == "" {
			*dst = fallback
		}
	}
	fill(&result.Record, defaults.Record)
	fill(&result.Job, defaults.Job)
	fill(&result.JobURL, defaults.JobURL)
	fill(&result.Template, defaults.Template)
	fill(&result.Out, defaults.Out)
	fill(&result.Role, defaults.Role)
	fill(&result.Company, defaults.Company)
	fill(&result.Provider, defaults.Provider)
	fill(&result.APIKey, defaults.APIKey)

	// Bools cannot distinguish unset from false, so CLI flags always win

	return result
}
