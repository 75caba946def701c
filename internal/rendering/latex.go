package rendering

import (
	"os"
	"strings"
	"text/template"

	"github.com/jonathan/resume-builder/internal/types"
)

// TemplateData represents the data structure passed to a custom LaTeX template.
// Contact fields are pre-escaped; section fragments are complete LaTeX ready for insertion.
type TemplateData struct {
	Name     string
	Email    string
	Phone    string
	Location string
	LinkedIn string
	GitHub   string
	Website  string

	// Hyperlink targets, encoded for the first argument of \href
	EmailURL    string
	LinkedInURL string
	GitHubURL   string
	WebsiteURL  string

	Sections    Sections
	SkillGroups []SkillGroup
	Record      *types.ResumeRecord

	Preamble string
	Epilogue string
}

// RenderWithTemplate renders a resume through a user-provided text/template file.
// Templates get the "escape", "escapeValue", "bullets", "cleanLink", "linkTarget" and "join" functions.
func RenderWithTemplate(record *types.ResumeRecord, templatePath string) (string, error) {
	tmpl, err := parseTemplate(templatePath)
	if err != nil {
		return "", err
	}
	return executeTemplate(tmpl, record)
}

// RenderWithTemplateText is RenderWithTemplate for a template held in memory
func RenderWithTemplateText(record *types.ResumeRecord, text string) (string, error) {
	tmpl, err := newTemplate().Parse(text)
	if err != nil {
		return "", &TemplateError{Stage: StageParse, Err: err}
	}
	return executeTemplate(tmpl, record)
}

func executeTemplate(tmpl *template.Template, record *types.ResumeRecord) (string, error) {
	if record == nil {
		return "", ErrNilRecord
	}

	data := buildTemplateData(record)

	var result strings.Builder
	if err := tmpl.Execute(&result, data); err != nil {
		return "", &TemplateError{Stage: StageExecute, Err: err}
	}

	return result.String(), nil
}

// parseTemplate reads and parses a LaTeX template file
func parseTemplate(templatePath string) (*template.Template, error) {
	content, err := os.ReadFile(templatePath)
	if err != nil {
		return nil, &TemplateError{Stage: StageRead, Path: templatePath, Err: err}
	}
	tmpl, err := newTemplate().Parse(string(content))
	if err != nil {
		return nil, &TemplateError{Stage: StageParse, Path: templatePath, Err: err}
	}
	return tmpl, nil
}

func newTemplate() *template.Template {
	return template.New("resume").Funcs(template.FuncMap{
		"escape":      EscapeLaTeX,
		"escapeValue": EscapeValue,
		"bullets":     NormalizeBullets,
		"cleanLink":   cleanLink,
		"linkTarget":  linkTarget,
		"join":        strings.Join,
	})
}

// buildTemplateData escapes the contact fields and renders every section
func buildTemplateData(record *types.ResumeRecord) *TemplateData {
	info := record.PersonalInfo
	return &TemplateData{
		Name:        EscapeLaTeX(field(info.FullName)),
		Email:       EscapeLaTeX(field(info.Email)),
		EmailURL:    mailtoTarget(field(info.Email)),
		Phone:       EscapeLaTeX(field(info.Phone)),
		Location:    EscapeLaTeX(field(info.Location)),
		LinkedIn:    EscapeLaTeX(cleanLink(field(info.LinkedIn))),
		GitHub:      EscapeLaTeX(cleanLink(field(info.GitHub))),
		Website:     EscapeLaTeX(cleanLink(field(info.Website))),
		LinkedInURL: linkTarget(field(info.LinkedIn)),
		GitHubURL:   linkTarget(field(info.GitHub)),
		WebsiteURL:  linkTarget(field(info.Website)),
		Sections:    RenderSections(record),
		SkillGroups: NormalizeSkills(record.Skills),
		Record:      record,
		Preamble:    Preamble,
		Epilogue:    Epilogue,
	}
}

func mailtoTarget(email string) string {
	if email == "" {
		return ""
	}
	return linkTarget("mailto:" + email)
}
