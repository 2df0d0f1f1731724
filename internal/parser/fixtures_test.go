package parser

import (
	"archive/zip"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const (
	wordNS  = `xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"`
	drawNS  = `xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main"`
	presNS  = `xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main"`
	relsNS  = `xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"`
	pkgRels = `xmlns="http://schemas.openxmlformats.org/package/2006/relationships"`
)

// writeZip writes parts into a new archive under t.TempDir().
func writeZip(t *testing.T, name string, parts map[string]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	w := zip.NewWriter(f)
	for partName, content := range parts {
		fw, err := w.Create(partName)
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return path
}

func docxDocument(body string) string {
	return `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<w:document ` + wordNS + `><w:body>` + body + `</w:body></w:document>`
}

func docxStyles(styles map[string]string) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?><w:styles ` + wordNS + `>`)
	for id, name := range styles {
		b.WriteString(`<w:style w:type="paragraph" w:styleId="` + id + `"><w:name w:val="` + name + `"/></w:style>`)
	}
	b.WriteString(`</w:styles>`)
	return b.String()
}

func docxPara(style, text string) string {
	var b strings.Builder
	b.WriteString(`<w:p>`)
	if style != "" {
		b.WriteString(`<w:pPr><w:pStyle w:val="` + style + `"/></w:pPr>`)
	}
	if text != "" {
		b.WriteString(`<w:r><w:t xml:space="preserve">` + text + `</w:t></w:r>`)
	}
	b.WriteString(`</w:p>`)
	return b.String()
}

func pptxShape(placeholder string, paragraphs ...string) string {
	var b strings.Builder
	b.WriteString(`<p:sp><p:nvSpPr><p:cNvPr id="2" name="Shape"/><p:cNvSpPr/><p:nvPr>`)
	if placeholder != "" {
		b.WriteString(`<p:ph type="` + placeholder + `"/>`)
	}
	b.WriteString(`</p:nvPr></p:nvSpPr><p:txBody><a:bodyPr/>`)
	for _, para := range paragraphs {
		b.WriteString(`<a:p><a:r><a:t>` + para + `</a:t></a:r></a:p>`)
	}
	b.WriteString(`</p:txBody></p:sp>`)
	return b.String()
}

func pptxSlideXML(shapes ...string) string {
	return `<?xml version="1.0" encoding="UTF-8"?><p:sld ` + drawNS + ` ` + presNS + ` ` + relsNS + `>` +
		`<p:cSld><p:spTree><p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr>` +
		strings.Join(shapes, "") +
		`</p:spTree></p:cSld></p:sld>`
}

// pptxParts builds a deck whose presentation order is given by order, a list
// of slide file numbers.
func pptxParts(slides map[int]string, order []int) map[string]string {
	parts := make(map[string]string)
	var ids, rels strings.Builder
	for i, n := range order {
		rid := "rId" + strconv.Itoa(i+10)
		ids.WriteString(`<p:sldId id="` + strconv.Itoa(256+i) + `" r:id="` + rid + `"/>`)
		rels.WriteString(`<Relationship Id="` + rid + `" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slide" Target="slides/slide` + strconv.Itoa(n) + `.xml"/>`)
	}
	parts["ppt/presentation.xml"] = `<?xml version="1.0" encoding="UTF-8"?><p:presentation ` + presNS + ` ` + relsNS + `><p:sldIdLst>` + ids.String() + `</p:sldIdLst></p:presentation>`
	parts["ppt/_rels/presentation.xml.rels"] = `<?xml version="1.0" encoding="UTF-8"?><Relationships ` + pkgRels + `>` + rels.String() + `</Relationships>`
	for n, xml := range slides {
		parts["ppt/slides/slide"+strconv.Itoa(n)+".xml"] = xml
	}
	return parts
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// buildTextPDF builds a minimal PDF with one page per entry; each page shows
// its lines with Tj and T*. An empty entry yields a page without text.
func buildTextPDF(pages ...string) []byte {
	n := len(pages)
	// objects: 1 catalog, 2 pages, 3 font, then page/content pairs
	total := 3 + 2*n
	offsets := make([]int, total+1)

	var b strings.Builder
	b.WriteString("%PDF-1.4\n")

	offsets[1] = b.Len()
	b.WriteString("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")

	kids := make([]string, n)
	for i := range pages {
		kids[i] = pdfItoa(4+2*i) + " 0 R"
	}
	offsets[2] = b.Len()
	b.WriteString("2 0 obj\n<< /Type /Pages /Kids [" + strings.Join(kids, " ") + "] /Count " + pdfItoa(n) + " >>\nendobj\n")

	offsets[3] = b.Len()
	b.WriteString("3 0 obj\n<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>\nendobj\n")

	for i, text := range pages {
		pageObj, contentObj := 4+2*i, 5+2*i

		stream := "BT\nET"
		if text != "" {
			var s strings.Builder
			s.WriteString("BT\n/F1 12 Tf\n14 TL\n72 720 Td\n")
			for j, line := range strings.Split(text, "\n") {
				if j > 0 {
					s.WriteString("T*\n")
				}
				s.WriteString("(" + pdfEscape(line) + ") Tj\n")
			}
			s.WriteString("ET")
			stream = s.String()
		}

		offsets[pageObj] = b.Len()
		b.WriteString(pdfItoa(pageObj) + " 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Contents " +
			pdfItoa(contentObj) + " 0 R /Resources << /Font << /F1 3 0 R >> >> >>\nendobj\n")

		offsets[contentObj] = b.Len()
		b.WriteString(pdfItoa(contentObj) + " 0 obj\n<< /Length " + pdfItoa(len(stream)) + " >>\nstream\n")
		b.WriteString(stream)
		b.WriteString("\nendstream\nendobj\n")
	}

	xrefOffset := b.Len()
	b.WriteString("xref\n0 " + pdfItoa(total+1) + "\n")
	b.WriteString("0000000000 65535 f \n")
	for i := 1; i <= total; i++ {
		b.WriteString(pdfPadOffset(offsets[i]))
		b.WriteString(" 00000 n \n")
	}
	b.WriteString("trailer\n<< /Size " + pdfItoa(total+1) + " /Root 1 0 R >>\nstartxref\n")
	b.WriteString(pdfItoa(xrefOffset))
	b.WriteString("\n%%EOF\n")

	return []byte(b.String())
}

func pdfEscape(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "(", `\(`)
	return strings.ReplaceAll(s, ")", `\)`)
}

func pdfItoa(n int) string {
	return strconv.Itoa(n)
}

func pdfPadOffset(n int) string {
	s := strconv.Itoa(n)
	return strings.Repeat("0", 10-len(s)) + s
}
