package tailoring

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/jonathan/resume-builder/internal/apperror"
	"github.com/jonathan/resume-builder/internal/llm"
)

// maxPostingPrompt bounds how much fetched page text is sent for headline extraction
const maxPostingPrompt = 12000

// Posting is the headline of a job posting
type Posting struct {
	Title    string `json:"title"`
	Company  string `json:"company"`
	Location string `json:"location"`
}

// ExtractPosting identifies title, company and location in job posting text
func ExtractPosting(ctx context.Context, client Generator, text string) (*Posting, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperror.NewInvalidInput("job posting text is empty")
	}
	if len(text) > maxPostingPrompt {
		text = text[:maxPostingPrompt]
	}

	prompt := llm.BuildExtractionPrompt(llm.JobPostingSchema(), text)
	response, err := client.GenerateJSON(ctx, prompt, llm.TierLite)
	if err != nil {
		return nil, callFailed("extract job posting", err)
	}

	var posting Posting
	if err := json.Unmarshal([]byte(llm.CleanJSONBlock(response)), &posting); err != nil {
		return nil, badOutput("extract job posting", err)
	}
	posting.Title = strings.TrimSpace(posting.Title)
	posting.Company = strings.TrimSpace(posting.Company)
	posting.Location = strings.TrimSpace(posting.Location)
	return &posting, nil
}
