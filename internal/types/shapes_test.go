package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestText_Coercion(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Text
	}{
		{"string", `"hello"`, "hello"},
		{"integer", `2020`, "2020"},
		{"float", `3.75`, "3.75"},
		{"bool", `true`, "true"},
		{"null", `null`, ""},
		{"object", `{"a": 1}`, ""},
		{"array", `["a"]`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got Text
			require.NoError(t, json.Unmarshal([]byte(tt.input), &got))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTextList_Forms(t *testing.T) {
	var list TextList

	require.NoError(t, json.Unmarshal([]byte(`"a\nb"`), &list))
	assert.Equal(t, FormString, list.Form)
	assert.Equal(t, "a\nb", list.Text)

	require.NoError(t, json.Unmarshal([]byte(`["a", 2, null, {"x": 1}, "b"]`), &list))
	assert.Equal(t, FormSequence, list.Form)
	assert.Equal(t, []string{"a", "2", "b"}, list.Items)

	require.NoError(t, json.Unmarshal([]byte(`null`), &list))
	assert.Equal(t, FormAbsent, list.Form)

	require.NoError(t, json.Unmarshal([]byte(`{"x": "y"}`), &list))
	assert.Equal(t, FormUnknown, list.Form)
}

func TestSkillSet_CommaString(t *testing.T) {
	var skills SkillSet
	require.NoError(t, json.Unmarshal([]byte(`"Python, Go"`), &skills))
	assert.Equal(t, FormString, skills.Form)
	assert.Equal(t, "Python, Go", skills.Text)
}

func TestSkillSet_FlatSequence(t *testing.T) {
	var skills SkillSet
	require.NoError(t, json.Unmarshal([]byte(`[null, "Python", "Go"]`), &skills))
	assert.Equal(t, FormSequence, skills.Form)
	assert.Equal(t, []string{"Python", "Go"}, skills.Items)
}

func TestSkillSet_CategoryObjects(t *testing.T) {
	var skills SkillSet
	input := `[
		{"category": "Languages", "items": ["Python", "Go"]},
		{"name": "Tools", "items": "Docker, Git"},
		{"category": "Cloud", "skills": ["AWS"]},
		"stray"
	]`
	require.NoError(t, json.Unmarshal([]byte(input), &skills))

	assert.Equal(t, FormGroups, skills.Form)
	require.Len(t, skills.Categories, 3)
	assert.Equal(t, Text("Languages"), skills.Categories[0].Category)
	assert.Equal(t, Text("Tools"), skills.Categories[1].Category)
	assert.Equal(t, FormString, skills.Categories[1].Items.Form)
	assert.Equal(t, []string{"AWS"}, skills.Categories[2].Items.Items)
}

func TestSkillSet_KeyedPreservesDocumentOrder(t *testing.T) {
	var skills SkillSet
	input := `{"Zeta": "z", "Alpha": "a", "Mid": ["m"]}`
	require.NoError(t, json.Unmarshal([]byte(input), &skills))

	assert.Equal(t, FormKeyed, skills.Form)
	require.Len(t, skills.Categories, 3)
	assert.Equal(t, Text("Zeta"), skills.Categories[0].Category)
	assert.Equal(t, Text("Alpha"), skills.Categories[1].Category)
	assert.Equal(t, Text("Mid"), skills.Categories[2].Category)
}

func TestSkillSet_Constructors(t *testing.T) {
	assert.Equal(t, FormString, SkillsFromString("a").Form)
	assert.Equal(t, FormSequence, SkillsFromList("a").Form)
	keyed := SkillsFromCategories(SkillCategory{Category: "X", Items: TextListOf("a")})
	assert.Equal(t, FormKeyed, keyed.Form)

	out, err := json.Marshal(keyed)
	require.NoError(t, err)
	assert.JSONEq(t, `{"X": ["a"]}`, string(out))
}

func TestForm_String(t *testing.T) {
	assert.Equal(t, "keyed", FormKeyed.String())
	assert.Equal(t, "unknown", Form(99).String())
}
