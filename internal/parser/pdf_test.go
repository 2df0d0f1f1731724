package parser

import (
	"os"
	"path/filepath"
	"testing"

	"quiz-doc/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePDF(t *testing.T, pages ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "doc.pdf")
	require.NoError(t, os.WriteFile(path, buildTextPDF(pages...), 0o644))
	return path
}

func TestPDFParser_Parse(t *testing.T) {
	path := writePDF(t, "Cell biology\nThe cell is the unit of life", "", "Mitochondria (powerhouse)")

	sections, err := NewPDFParser(path).Parse()
	require.NoError(t, err)
	require.Len(t, sections, 3, "empty pages keep their slot")

	assert.Equal(t, domain.Section{Title: "Cell biology\nThe cell is the unit of life", Level: 1, Content: "Cell biology\nThe cell is the unit of life", Page: 1}, sections[0])
	assert.Equal(t, domain.Section{Title: "", Level: 1, Content: "", Page: 2}, sections[1])
	assert.Equal(t, "Mitochondria (powerhouse)", sections[2].Content)
	assert.Equal(t, 3, sections[2].Page)
}

func TestPDFParser_ExtractText(t *testing.T) {
	path := writePDF(t, "first page", "second page")

	text, err := NewPDFParser(path).ExtractText()
	require.NoError(t, err)
	assert.Equal(t, "first page\nsecond page", text)
}

func TestPDFParser_Corrupt(t *testing.T) {
	path := writeFile(t, "broken.pdf", "%PDF-1.4\nthis is not a pdf")

	_, err := NewPDFParser(path).Parse()
	require.Error(t, err)
	assert.False(t, domain.HasCode(err, domain.ErrNotFound))
}

func TestExtractTextFromStream(t *testing.T) {
	tests := []struct {
		name   string
		stream string
		want   string
	}{
		{"simple Tj", "BT /F1 12 Tf 72 720 Td (Hello World) Tj ET", "Hello World"},
		{"TJ kerning", "BT [(Hel) 20 (lo) -300 (World)] TJ ET", "Hello World"},
		{"next line operators", "BT (one) Tj T* (two) Tj (three) ' ET", "one\ntwo\nthree"},
		{"horizontal move keeps line", "BT (a) Tj 10 0 Td (b) Tj ET", "a b"},
		{"escapes", `BT (caf\351 \(x\) \\ end) Tj ET`, `café (x) \ end`},
		{"nested parens", "BT (f(x)) Tj ET", "f(x)"},
		{"utf16 hex", "BT <FEFF00E9007400E9> Tj ET", "été"},
		{"comments ignored", "% comment (skip) Tj\nBT (kept) Tj ET", "kept"},
		{"no text", "q 1 0 0 1 0 0 cm Q", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractTextFromStream([]byte(tt.stream)))
		})
	}
}
