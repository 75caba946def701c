package tailoring

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/resume-builder/internal/apperror"
	"github.com/jonathan/resume-builder/internal/llm"
	"github.com/jonathan/resume-builder/internal/prompts"
	"github.com/jonathan/resume-builder/internal/schemas"
	"github.com/jonathan/resume-builder/internal/types"
)

// MinResumeTextLength is the shortest text Extract will send to the model
const MinResumeTextLength = 50

// extractionSections holds the list-valued fields of the flat extraction shape
type extractionSections struct {
	Education  json.RawMessage `json:"education"`
	Experience json.RawMessage `json:"experience"`
	Skills     json.RawMessage `json:"skills"`
	Projects   json.RawMessage `json:"projects"`
}

// Extract turns free resume text into a ResumeRecord
func Extract(ctx context.Context, client Generator, text string) (*types.ResumeRecord, error) {
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) < MinResumeTextLength {
		return nil, apperror.NewInvalidInput("Invalid resume text")
	}

	prompt := prompts.MustRender(prompts.ExtractResume, map[string]string{"Text": text})

	response, err := client.GenerateJSON(ctx, prompt, llm.TierLite)
	if err != nil {
		return nil, callFailed("extract resume", err)
	}
	if strings.TrimSpace(response) == "" {
		return nil, badOutput("extract resume", ErrEmptyResponse)
	}

	record, err := decodeExtraction(response)
	if err != nil {
		return nil, badOutput("extract resume", err)
	}
	return record, nil
}

// decodeExtraction maps the flat extraction shape onto a ResumeRecord.
// The contact fields sit at the top level and share PersonalInfo's keys.
func decodeExtraction(response string) (*types.ResumeRecord, error) {
	data := []byte(llm.CleanJSONBlock(response))
	if err := schemas.Validate(schemas.Extraction, data); err != nil {
		return nil, fmt.Errorf("does not match the extraction shape: %w", err)
	}

	var sections extractionSections
	if err := json.Unmarshal(data, &sections); err != nil {
		return nil, err
	}

	record := types.RecordFromSections(nil, sections.Education, sections.Experience, sections.Skills, sections.Projects, nil)
	if err := json.Unmarshal(data, &record.PersonalInfo); err != nil {
		return nil, fmt.Errorf("contact fields: %w", err)
	}
	return record, nil
}
