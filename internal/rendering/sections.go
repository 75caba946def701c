package rendering

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/jonathan/resume-builder/internal/types"
)

// Section headings, as they appear in the rendered document
const (
	HeadingEducation    = `\section{Education}`
	HeadingSkills       = `\section{Technical Skills}`
	HeadingExperience   = `\section{Experience}`
	HeadingProjects     = `\section{Projects}`
	HeadingAchievements = `\section{Achievements \& Leadership}`
)

// HeaderSeparator is placed between present contact fields
const HeaderSeparator = " $|$ "

// unlabeledSkillsLabel is used for skills that arrived without a category
const unlabeledSkillsLabel = "Technical Skills"

var linkPrefix = regexp.MustCompile(`(?i)^(https?://)?(www\.)?`)

// cleanLink strips a leading protocol and "www." for display
func cleanLink(url string) string {
	return linkPrefix.ReplaceAllString(strings.TrimSpace(url), "")
}

func field(t types.Text) string {
	return strings.TrimSpace(string(t))
}

func allBlank(values ...types.Text) bool {
	for _, v := range values {
		if field(v) != "" {
			return false
		}
	}
	return true
}

// dropBlank removes entries that would render as an empty subheading
func dropBlank[T any](entries []T, blank func(T) bool) []T {
	kept := entries[:0:0]
	for _, e := range entries {
		if !blank(e) {
			kept = append(kept, e)
		}
	}
	return kept
}

func isBlankEducation(e types.Education) bool {
	return allBlank(e.Institution, e.Location, e.Degree, e.Field, e.GraduationDate, e.Date, e.GPA)
}

func isBlankExperience(e types.Experience) bool {
	return allBlank(e.Company, e.Position, e.Location, e.StartDate, e.EndDate) && len(NormalizeBullets(e.Description)) == 0
}

func isBlankProject(p types.Project) bool {
	return allBlank(p.Title, p.Tech, p.Date) && len(NormalizeBullets(p.Points)) == 0
}

// RenderHeader renders the name and the contact line.
// Absent fields are skipped without leaving a separator behind.
func RenderHeader(info types.PersonalInfo) string {
	var contacts []string
	if email := field(info.Email); email != "" {
		contacts = append(contacts, fmt.Sprintf(`\href{%s}{%s}`, linkTarget("mailto:"+email), EscapeLaTeX(email)))
	}
	if phone := field(info.Phone); phone != "" {
		contacts = append(contacts, EscapeLaTeX(phone))
	}
	for _, link := range []types.Text{info.LinkedIn, info.GitHub, info.Website} {
		if url := field(link); url != "" {
			contacts = append(contacts, fmt.Sprintf(`\href{%s}{%s}`, linkTarget(url), EscapeLaTeX(cleanLink(url))))
		}
	}
	if location := field(info.Location); location != "" {
		contacts = append(contacts, EscapeLaTeX(location))
	}

	name := field(info.FullName)
	if name == "" && len(contacts) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("\\begin{center}\n")
	if name != "" {
		fmt.Fprintf(&b, "    \\textbf{\\Huge \\scshape %s}", EscapeLaTeX(name))
		if len(contacts) > 0 {
			b.WriteString(` \\ \vspace{1pt}`)
		}
		b.WriteString("\n")
	}
	if len(contacts) > 0 {
		fmt.Fprintf(&b, "    \\small %s\n", strings.Join(contacts, HeaderSeparator))
	}
	b.WriteString("\\end{center}\n")
	return b.String()
}

// RenderEducation renders one subheading per entry, institution/location over degree/date.
// Entries with every field blank are skipped.
func RenderEducation(entries []types.Education) string {
	entries = dropBlank(entries, isBlankEducation)
	if len(entries) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(HeadingEducation + "\n")
	b.WriteString("\\resumeSubHeadingListStart\n")
	for _, edu := range entries {
		writeSubheading(&b, field(edu.Institution), field(edu.Location), degreeLine(edu), strings.TrimSpace(edu.When()))
	}
	b.WriteString("\\resumeSubHeadingListEnd\n")
	return b.String()
}

// degreeLine combines degree, field of study and GPA, skipping whatever is absent
func degreeLine(edu types.Education) string {
	degree, study, gpa := field(edu.Degree), field(edu.Field), field(edu.GPA)

	line := degree
	switch {
	case degree != "" && study != "":
		line = degree + " in " + study
	case degree == "":
		line = study
	}
	if gpa != "" {
		if line != "" {
			line += "; "
		}
		line += "GPA: " + gpa
	}
	return line
}

// RenderSkills renders one line per group, items joined with ", "
func RenderSkills(groups []SkillGroup) string {
	var lines []string
	for _, group := range groups {
		if len(group.Items) == 0 {
			continue
		}
		label := group.Label
		if label == "" {
			label = unlabeledSkillsLabel
		}
		lines = append(lines, fmt.Sprintf(`\textbf{%s:} %s \\`, EscapeLaTeX(label), EscapeLaTeX(strings.Join(group.Items, ", "))))
	}
	if len(lines) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(HeadingSkills + "\n")
	b.WriteString("\\begin{itemize}[leftmargin=0.15in, label={}]\n")
	b.WriteString("\\small{\\item{\n")
	b.WriteString(strings.Join(lines, "\n"))
	b.WriteString("\n}}\n")
	b.WriteString("\\end{itemize}\n")
	return b.String()
}

// RenderExperience renders company/location, position/date range and the description bullets
func RenderExperience(entries []types.Experience) string {
	entries = dropBlank(entries, isBlankExperience)
	if len(entries) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(HeadingExperience + "\n")
	b.WriteString("\\resumeSubHeadingListStart\n")
	for _, exp := range entries {
		writeSubheading(&b, field(exp.Company), field(exp.Location), field(exp.Position), dateRange(field(exp.StartDate), field(exp.EndDate)))
		writeItems(&b, NormalizeBullets(exp.Description))
	}
	b.WriteString("\\resumeSubHeadingListEnd\n")
	return b.String()
}

func dateRange(start, end string) string {
	switch {
	case start != "" && end != "":
		return start + " -- " + end
	case start != "":
		return start
	default:
		return end
	}
}

// RenderProjects renders title with optional tech annotation, optional date and the points
func RenderProjects(entries []types.Project) string {
	entries = dropBlank(entries, isBlankProject)
	if len(entries) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(HeadingProjects + "\n")
	b.WriteString("\\resumeSubHeadingListStart\n")
	for _, proj := range entries {
		heading := `\textbf{` + EscapeLaTeX(field(proj.Title)) + `}`
		if tech := field(proj.Tech); tech != "" {
			heading += HeaderSeparator + `\emph{` + EscapeLaTeX(tech) + `}`
		}
		fmt.Fprintf(&b, "  \\resumeProjectHeading\n    {%s}{%s}\n", heading, EscapeLaTeX(field(proj.Date)))
		writeItems(&b, NormalizeBullets(proj.Points))
	}
	b.WriteString("\\resumeSubHeadingListEnd\n")
	return b.String()
}

// RenderAchievements renders a flat bulleted list
func RenderAchievements(items []string) string {
	if len(items) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(HeadingAchievements + "\n")
	b.WriteString("\\resumeSubHeadingListStart\n")
	for _, item := range items {
		fmt.Fprintf(&b, "  \\resumeItem{%s}\n", EscapeLaTeX(item))
	}
	b.WriteString("\\resumeSubHeadingListEnd\n")
	return b.String()
}

func writeSubheading(b *strings.Builder, title, location, subtitle, when string) {
	fmt.Fprintf(b, "  \\resumeSubheading\n    {%s}{%s}\n    {%s}{%s}\n",
		EscapeLaTeX(title), EscapeLaTeX(location), EscapeLaTeX(subtitle), EscapeLaTeX(when))
}

// writeItems emits the bullet list, or nothing when there are no bullets (an empty itemize does not compile)
func writeItems(b *strings.Builder, bullets []string) {
	if len(bullets) == 0 {
		return
	}
	b.WriteString("  \\resumeItemListStart\n")
	for _, bullet := range bullets {
		fmt.Fprintf(b, "    \\resumeItem{%s}\n", EscapeLaTeX(bullet))
	}
	b.WriteString("  \\resumeItemListEnd\n")
}
