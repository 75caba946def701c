package rendering

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/jonathan/resume-builder/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderHeader_SkipsAbsentFields(t *testing.T) {
	header := RenderHeader(types.PersonalInfo{
		FullName: "A. Singh",
		Email:    "a@x.com",
		Phone:    "",
		Location: "Pune",
	})

	assert.Contains(t, header, `\textbf{\Huge \scshape A. Singh}`)
	assert.Contains(t, header, `\href{mailto:a@x.com}{a@x.com} $|$ Pune`)
	assert.NotContains(t, header, "$|$  $|$")
	assert.NotContains(t, header, "$|$ $|$")
	assert.Equal(t, 1, strings.Count(header, "$|$"))
}

func TestRenderHeader_CleansLinkDisplay(t *testing.T) {
	header := RenderHeader(types.PersonalInfo{
		LinkedIn: "https://www.linkedin.com/in/jane_doe",
		GitHub:   "http://github.com/jane",
	})

	assert.Contains(t, header, `\href{https://www.linkedin.com/in/jane_doe}{linkedin.com/in/jane\_doe}`)
	assert.Contains(t, header, `\href{http://github.com/jane}{github.com/jane}`)
	assert.NotContains(t, header, `\scshape`)
}

func TestRenderHeader_Empty(t *testing.T) {
	assert.Equal(t, "", RenderHeader(types.PersonalInfo{}))
}

func TestRenderHeader_NameOnly(t *testing.T) {
	header := RenderHeader(types.PersonalInfo{FullName: "Jane"})
	assert.Contains(t, header, `\scshape Jane}`)
	assert.NotContains(t, header, `\small`)
}

func TestRenderEducation(t *testing.T) {
	fragment := RenderEducation([]types.Education{
		{Institution: "MIT", Location: "Cambridge", Degree: "B.S.", Field: "CS", GraduationDate: "2020", GPA: "3.9"},
		{Institution: "State U", Date: "2016"},
	})

	assert.Contains(t, fragment, HeadingEducation)
	assert.Contains(t, fragment, "{MIT}{Cambridge}\n    {B.S. in CS; GPA: 3.9}{2020}")
	assert.Contains(t, fragment, "{State U}{}\n    {}{2016}")
	assert.Equal(t, "", RenderEducation(nil))
}

func TestRenderSkills_LabelsAndUnlabeled(t *testing.T) {
	fragment := RenderSkills([]SkillGroup{
		{Items: []string{"Go", "C#"}},
		{Label: "Cloud", Items: []string{"AWS"}},
		{Label: "Empty"},
	})

	assert.Contains(t, fragment, HeadingSkills)
	assert.Contains(t, fragment, `\textbf{Technical Skills:} Go, C\# \\`)
	assert.Contains(t, fragment, `\textbf{Cloud:} AWS \\`)
	assert.NotContains(t, fragment, "Empty")
	assert.Equal(t, "", RenderSkills(nil))
	assert.Equal(t, "", RenderSkills([]SkillGroup{{Label: "Empty"}}))
}

func TestRenderSkills_SameContentAcrossShapes(t *testing.T) {
	inputs := []string{`"Python, Go"`, `["Python", "Go"]`, `{"Languages": "Python, Go"}`, `[{"category": "Languages", "items": ["Python", "Go"]}]`}

	for _, input := range inputs {
		var skills types.SkillSet
		require.NoError(t, json.Unmarshal([]byte(input), &skills))
		fragment := RenderSkills(NormalizeSkills(skills))

		assert.Equal(t, 1, strings.Count(fragment, "Python"), input)
		assert.Equal(t, 1, strings.Count(fragment, "Go"), input)
		assert.Less(t, strings.Index(fragment, "Python"), strings.Index(fragment, "Go"), input)
	}
}

func TestRenderExperience_StringDescription(t *testing.T) {
	fragment := RenderExperience([]types.Experience{
		{Company: "Acme", Position: "Engineer", StartDate: "2020", EndDate: "Present", Description: types.TextListFromString("Built X\nShipped Y")},
	})

	assert.Contains(t, fragment, HeadingExperience)
	assert.Contains(t, fragment, "{Engineer}{2020 -- Present}")
	assert.Equal(t, 2, strings.Count(fragment, `\resumeItem{`))
	assert.Less(t, strings.Index(fragment, `\resumeItem{Built X}`), strings.Index(fragment, `\resumeItem{Shipped Y}`))
}

func TestRenderExperience_SameBulletsAcrossShapes(t *testing.T) {
	fromString := RenderExperience([]types.Experience{{Company: "Acme", Description: types.TextListFromString("50% faster\nA & B")}})
	fromList := RenderExperience([]types.Experience{{Company: "Acme", Description: types.TextListOf("50% faster", "A & B")}})

	assert.Equal(t, fromString, fromList)
	assert.Contains(t, fromList, `\resumeItem{50\% faster}`)
	assert.Contains(t, fromList, `\resumeItem{A \& B}`)
}

func TestRenderExperience_NoBulletsNoList(t *testing.T) {
	fragment := RenderExperience([]types.Experience{{Company: "Acme", StartDate: "2021"}})
	assert.NotContains(t, fragment, `\resumeItemListStart`)
	assert.Contains(t, fragment, "{}{2021}")
}

func TestRenderProjects(t *testing.T) {
	fragment := RenderProjects([]types.Project{
		{Title: "50% faster & $2M saved", Tech: "Go", Date: "2023", Points: types.TextListOf("One", "Two")},
		{Title: "Plain"},
	})

	assert.Contains(t, fragment, HeadingProjects)
	assert.Contains(t, fragment, `{\textbf{50\% faster \& \$2M saved} $|$ \emph{Go}}{2023}`)
	assert.Contains(t, fragment, `{\textbf{Plain}}{}`)
	assert.Equal(t, 2, strings.Count(fragment, `\resumeItem{`))
	assert.Equal(t, "", RenderProjects(nil))
}

func TestRenderAchievements(t *testing.T) {
	fragment := RenderAchievements([]string{"Won #1", "Led team"})
	assert.Contains(t, fragment, HeadingAchievements)
	assert.Contains(t, fragment, `\resumeItem{Won \#1}`)
	assert.Equal(t, "", RenderAchievements(nil))
}

func TestCleanLink(t *testing.T) {
	assert.Equal(t, "example.com/x", cleanLink("https://www.example.com/x"))
	assert.Equal(t, "example.com", cleanLink("HTTP://example.com"))
	assert.Equal(t, "example.com", cleanLink("www.example.com"))
	assert.Equal(t, "", cleanLink(""))
}

func TestRenderHeader_LinkTargetCannotLeaveHref(t *testing.T) {
	header := RenderHeader(types.PersonalInfo{
		Email:    `a@x.com}\input{/etc/hostname}`,
		LinkedIn: `https://x.com/}\input{/etc/passwd}\iffalse{`,
	})

	assert.Contains(t, header, `\href{mailto:a@x.com\%7D\%5Cinput\%7B/etc/hostname\%7D}{`)
	assert.Contains(t, header, `\href{https://x.com/\%7D\%5Cinput\%7B/etc/passwd\%7D\%5Ciffalse\%7B}{`)
	assert.NotContains(t, header, `\input{`)
	assert.NotContains(t, header, `\iffalse`)
}

func TestRenderSections_SkipBlankEntries(t *testing.T) {
	assert.Equal(t, "", RenderEducation([]types.Education{{}, {Institution: "  "}}))
	assert.Equal(t, "", RenderExperience([]types.Experience{{Company: " ", Description: types.TextListOf("", " ")}}))
	assert.Equal(t, "", RenderProjects([]types.Project{{}}))

	fragment := RenderExperience([]types.Experience{{}, {Company: "Acme", Position: "Engineer"}})
	assert.Equal(t, 1, strings.Count(fragment, `\resumeSubheading`))
	assert.Contains(t, fragment, "{Acme}")

	fragment = RenderProjects([]types.Project{{}, {Points: types.TextListOf("Shipped it")}})
	assert.Equal(t, 1, strings.Count(fragment, `\resumeProjectHeading`))
}
