// Package tailoring rewrites resumes against job descriptions and extracts resumes from plain text with an LLM.
package tailoring

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jonathan/resume-builder/internal/apperror"
	"github.com/jonathan/resume-builder/internal/llm"
	"github.com/jonathan/resume-builder/internal/prompts"
	"github.com/jonathan/resume-builder/internal/schemas"
	"github.com/jonathan/resume-builder/internal/types"
)

// Defaults used when the caller names no target
const (
	DefaultRole    = "Software Engineer"
	DefaultCompany = "Tech Company"
)

// Generator is the part of llm.Client this package needs
type Generator interface {
	GenerateJSON(ctx context.Context, prompt string, tier llm.ModelTier) (string, error)
}

// Target describes the job a resume is tailored for
type Target struct {
	JobDescription string
	Role           string
	Company        string
}

// Tailor asks the model for a version of record aligned with the target job.
// The contact block is always carried over from the original.
func Tailor(ctx context.Context, client Generator, record *types.ResumeRecord, target Target) (*types.ResumeRecord, error) {
	if record == nil {
		return nil, apperror.NewInvalidInput("resume is required")
	}
	jobDescription := strings.TrimSpace(target.JobDescription)
	if jobDescription == "" {
		return nil, apperror.NewInvalidInput("job description is required")
	}

	resumeJSON, err := json.Marshal(record)
	if err != nil {
		return nil, apperror.NewInternal("failed to encode resume", err)
	}

	prompt := buildTailorPrompt(string(resumeJSON), jobDescription, target.Role, target.Company)

	response, err := client.GenerateJSON(ctx, prompt, llm.TierAdvanced)
	if err != nil {
		return nil, callFailed("tailor resume", err)
	}

	tailored, err := decodeRecord(response)
	if err != nil {
		return nil, badOutput("tailor resume", err)
	}
	tailored.PersonalInfo = record.PersonalInfo
	return tailored, nil
}

func buildTailorPrompt(resumeJSON, jobDescription, role, company string) string {
	if strings.TrimSpace(role) == "" {
		role = DefaultRole
	}
	if strings.TrimSpace(company) == "" {
		company = DefaultCompany
	}
	return prompts.MustRender(prompts.TailorResume, map[string]string{
		"Role":           role,
		"Company":        company,
		"JobDescription": jobDescription,
		"Resume":         resumeJSON,
	})
}

// decodeRecord validates model output before decoding it tolerantly
func decodeRecord(response string) (*types.ResumeRecord, error) {
	text := llm.CleanJSONBlock(response)
	if err := schemas.Validate(schemas.ResumeRecord, []byte(text)); err != nil {
		return nil, fmt.Errorf("does not match the resume shape: %w", err)
	}

	var record types.ResumeRecord
	if err := json.Unmarshal([]byte(text), &record); err != nil {
		return nil, err
	}
	return &record, nil
}
