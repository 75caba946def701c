package ingestion

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanText_PreservesStructure(t *testing.T) {
	input := "  # Jane Doe\n## Experience\n- Built   X\n• Shipped   Y\n    Indented    line"
	result := CleanText(input)

	assert.Equal(t, "# Jane Doe\n## Experience\n- Built   X\n• Shipped   Y\n    Indented line", result)
}

func TestCleanText_NormalizeWhitespace(t *testing.T) {
	assert.Equal(t, "Line with multiple spaces", CleanText("Line    with \t multiple    spaces   "))
	assert.Equal(t, "a b", CleanText("a b"))
}

func TestCleanText_BlankLines(t *testing.T) {
	assert.Equal(t, "Line 1\n\nLine 2", CleanText("Line 1\n\n\n\n\nLine 2"))
	assert.Equal(t, "Line 1\n\nLine 2", CleanText("\n\nLine 1\n   \n \nLine 2\n\n"))
}

func TestCleanText_NormalizeLineEndings(t *testing.T) {
	assert.Equal(t, "Line 1\nLine 2\nLine 3\nLine 4", CleanText("Line 1\r\nLine 2\rLine 3\nLine 4"))
}

func TestCleanText_EmptyAndWhitespace(t *testing.T) {
	assert.Empty(t, CleanText(""))
	assert.Empty(t, CleanText("   \n  \n  "))
}

func TestCleanText_SpecialCharacters(t *testing.T) {
	input := "Test with émojis 🚀 and spéciàl chàracters"
	assert.Equal(t, input, CleanText(input))
}
