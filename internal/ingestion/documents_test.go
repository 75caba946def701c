package ingestion

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractText_PlainText(t *testing.T) {
	text, err := ExtractText("resume.TXT", []byte("Jane   Doe\r\n\r\n\r\nEngineer"))
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe\n\nEngineer", text)
}

func TestExtractText_Unsupported(t *testing.T) {
	_, err := ExtractText("resume.rtf", []byte("{\\rtf1}"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestExtractText_InvalidUTF8(t *testing.T) {
	_, err := ExtractText("resume.txt", []byte{0xff, 0xfe, 0x00})
	assert.Error(t, err)
}

func TestExtractText_CorruptBinaryFormats(t *testing.T) {
	_, err := ExtractText("resume.pdf", []byte("not a pdf"))
	assert.ErrorContains(t, err, "failed to read pdf")

	_, err = ExtractText("resume.docx", []byte("not a zip"))
	assert.ErrorContains(t, err, "failed to parse docx")
}

func TestExtractText_TooLarge(t *testing.T) {
	_, err := ExtractText("resume.txt", []byte(strings.Repeat("a", MaxDocumentBytes+1)))
	assert.Error(t, err)
}

func TestDocxXMLToText(t *testing.T) {
	xml := `<w:document><w:body>` +
		`<w:p><w:r><w:t>Jane Doe</w:t></w:r></w:p>` +
		`<w:p><w:r><w:t>Go</w:t><w:tab/><w:t>SQL &amp; Redis</w:t></w:r></w:p>` +
		`<w:p><w:r><w:t>Line one</w:t><w:br/><w:t>Line two</w:t></w:r></w:p>` +
		`</w:body></w:document>`

	assert.Equal(t, "Jane Doe\nGo SQL & Redis\nLine one\nLine two\n", docxXMLToText(xml))
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "resume.md")
	require.NoError(t, os.WriteFile(path, []byte("# Jane\n- Go"), 0o644))

	text, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "# Jane\n- Go", text)

	_, err = ReadFile(filepath.Join(dir, "missing.pdf"))
	assert.ErrorContains(t, err, "file not found")
}
