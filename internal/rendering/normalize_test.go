package rendering

import (
	"encoding/json"
	"testing"

	"github.com/jonathan/resume-builder/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeBullets_StringForm(t *testing.T) {
	bullets := NormalizeBullets(types.TextListFromString("Built X\nShipped Y"))
	assert.Equal(t, []string{"Built X", "Shipped Y"}, bullets)
}

func TestNormalizeBullets_LineBreakVariants(t *testing.T) {
	bullets := NormalizeBullets(types.TextListFromString("One\r\nTwo\\nThree\n\n   \nFour"))
	assert.Equal(t, []string{"One", "Two", "Three", "Four"}, bullets)
}

func TestNormalizeBullets_SequenceForm(t *testing.T) {
	bullets := NormalizeBullets(types.TextListOf("  ", "Built X ", "", "Shipped Y", "\t"))
	assert.Equal(t, []string{"Built X", "Shipped Y"}, bullets)
}

func TestNormalizeBullets_AbsentAndUnknown(t *testing.T) {
	assert.Empty(t, NormalizeBullets(types.TextList{}))
	assert.Empty(t, NormalizeBullets(types.TextList{Form: types.FormUnknown}))
	assert.Empty(t, NormalizeBullets(types.TextListFromString("  \n ")))
}

func TestNormalizeSkills_CommaString(t *testing.T) {
	groups := NormalizeSkills(types.SkillsFromString("Python, Go,, "))
	require.Len(t, groups, 1)
	assert.Equal(t, "", groups[0].Label)
	assert.Equal(t, []string{"Python", "Go"}, groups[0].Items)
}

func TestNormalizeSkills_StringWithoutSeparators(t *testing.T) {
	groups := NormalizeSkills(types.SkillsFromString("Go"))
	require.Len(t, groups, 1)
	assert.Equal(t, []string{"Go"}, groups[0].Items)
}

func TestNormalizeSkills_FlatSequence(t *testing.T) {
	groups := NormalizeSkills(types.SkillsFromList("Python", " ", "Go"))
	require.Len(t, groups, 1)
	assert.Equal(t, []string{"Python", "Go"}, groups[0].Items)
}

func TestNormalizeSkills_CategoriesKeepDeclaredOrder(t *testing.T) {
	var skills types.SkillSet
	input := `[{"category": "Tools", "items": "Docker, Git"}, {"category": "Empty", "items": []}, {"name": "Languages", "items": ["Go"]}]`
	require.NoError(t, json.Unmarshal([]byte(input), &skills))

	groups := NormalizeSkills(skills)
	require.Len(t, groups, 2)
	assert.Equal(t, SkillGroup{Label: "Tools", Items: []string{"Docker", "Git"}}, groups[0])
	assert.Equal(t, SkillGroup{Label: "Languages", Items: []string{"Go"}}, groups[1])
}

func TestNormalizeSkills_KeyedMapping(t *testing.T) {
	var skills types.SkillSet
	require.NoError(t, json.Unmarshal([]byte(`{"Languages": "Python, Go", "Frameworks": ["Gin"]}`), &skills))

	groups := NormalizeSkills(skills)
	require.Len(t, groups, 2)
	assert.Equal(t, "Languages", groups[0].Label)
	assert.Equal(t, "Frameworks", groups[1].Label)
}

func TestNormalizeSkills_EmptyShapes(t *testing.T) {
	assert.Empty(t, NormalizeSkills(types.SkillSet{}))
	assert.Empty(t, NormalizeSkills(types.SkillsFromString(" , ")))
	assert.Empty(t, NormalizeSkills(types.SkillSet{Form: types.FormUnknown}))
}
