package parser

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf16"

	"quiz-doc/internal/domain"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

func init() {
	// pdfcpu would otherwise create a configuration directory on first use.
	api.DisableConfigDir()
}

// PDFParser reads PDF files, one section per physical page.
type PDFParser struct {
	base
}

func NewPDFParser(path string) *PDFParser {
	return &PDFParser{base: base{path: path, format: domain.DocumentPDF}}
}

// Parse returns one section per page. Title and content both hold the page
// text; pages without extractable text keep an empty section so that the
// slice index stays aligned with page numbers.
func (p *PDFParser) Parse() ([]domain.Section, error) {
	pages, err := p.pages()
	if err != nil {
		return nil, err
	}
	sections := make([]domain.Section, len(pages))
	for i, text := range pages {
		sections[i] = domain.Section{Title: text, Level: 1, Content: text, Page: i + 1}
	}
	return sections, nil
}

func (p *PDFParser) ExtractText() (string, error) {
	pages, err := p.pages()
	if err != nil {
		return "", err
	}
	return strings.Join(pages, "\n"), nil
}

func (p *PDFParser) pages() ([]string, error) {
	if err := p.ensureExists(); err != nil {
		return nil, err
	}

	f, err := os.Open(p.path)
	if err != nil {
		return nil, fmt.Errorf("open pdf %s: %w", p.path, err)
	}
	defer f.Close()

	ctx, err := api.ReadValidateAndOptimize(f, model.NewDefaultConfiguration())
	if err != nil {
		return nil, fmt.Errorf("pdfcpu read: %w", err)
	}

	pages := make([]string, ctx.PageCount)
	for pageNr := 1; pageNr <= ctx.PageCount; pageNr++ {
		pages[pageNr-1] = extractPageText(ctx, pageNr)
	}
	return pages, nil
}

// extractPageText returns "" for pages whose content stream cannot be read.
func extractPageText(ctx *model.Context, pageNr int) string {
	r, err := pdfcpu.ExtractPageContent(ctx, pageNr)
	if err != nil || r == nil {
		return ""
	}
	data, err := io.ReadAll(r)
	if err != nil || len(data) == 0 {
		return ""
	}
	return extractTextFromStream(data)
}

// extractTextFromStream interprets the text showing operators of a page
// content stream. Text positioning operators that move to a new line become
// newlines; large negative kerning inside TJ arrays becomes a space.
func extractTextFromStream(data []byte) string {
	var (
		sb       strings.Builder
		operands []string
		pending  []string
		inArray  bool
	)

	for i := 0; i < len(data); {
		c := data[i]
		switch {
		case isPDFSpace(c):
			i++

		case c == '%':
			for i < len(data) && data[i] != '\n' && data[i] != '\r' {
				i++
			}

		case c == '(':
			s, n := readPDFLiteral(data[i:])
			pending = append(pending, s)
			i += n

		case c == '<' && i+1 < len(data) && data[i+1] == '<':
			i += 2

		case c == '>' && i+1 < len(data) && data[i+1] == '>':
			i += 2

		case c == '<':
			s, n := readPDFHex(data[i:])
			pending = append(pending, s)
			i += n

		case c == '[':
			inArray = true
			i++

		case c == ']':
			inArray = false
			i++

		case c == '/':
			i++
			for i < len(data) && !isPDFSpace(data[i]) && !isPDFDelimiter(data[i]) {
				i++
			}

		case c == '+' || c == '-' || c == '.' || (c >= '0' && c <= '9'):
			start := i
			i++
			for i < len(data) && (data[i] == '.' || (data[i] >= '0' && data[i] <= '9')) {
				i++
			}
			num := string(data[start:i])
			if inArray {
				if v, err := strconv.ParseFloat(num, 64); err == nil && v <= -200 {
					pending = append(pending, " ")
				}
				continue
			}
			operands = append(operands, num)

		case c == '\'' || c == '"':
			sb.WriteByte('\n')
			sb.WriteString(strings.Join(pending, ""))
			operands, pending = operands[:0], pending[:0]
			i++

		default:
			start := i
			for i < len(data) && !isPDFSpace(data[i]) && !isPDFDelimiter(data[i]) {
				i++
			}
			if i == start {
				i++
				continue
			}
			op := string(data[start:i])
			switch op {
			case "Tj", "TJ":
				sb.WriteString(strings.Join(pending, ""))
			case "T*", "ET":
				sb.WriteByte('\n')
			case "Td", "TD":
				if len(operands) >= 2 && !isPDFZero(operands[len(operands)-1]) {
					sb.WriteByte('\n')
				} else {
					sb.WriteByte(' ')
				}
			case "Tm":
				sb.WriteByte('\n')
			case "BI":
				i = skipInlineImage(data, i)
			}
			operands, pending = operands[:0], pending[:0]
		}
	}

	return cleanPDFText(sb.String())
}

func isPDFSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\f', 0:
		return true
	}
	return false
}

func isPDFDelimiter(c byte) bool {
	switch c {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}

func isPDFZero(num string) bool {
	v, err := strconv.ParseFloat(num, 64)
	return err == nil && v == 0
}

// skipInlineImage moves past the binary data of a BI ... ID ... EI block.
func skipInlineImage(data []byte, i int) int {
	idx := strings.Index(string(data[i:]), "EI")
	if idx < 0 {
		return len(data)
	}
	return i + idx + 2
}

// readPDFLiteral decodes a (string) literal starting at data[0] and returns
// the text plus the number of bytes consumed. Balanced parentheses may nest.
func readPDFLiteral(data []byte) (string, int) {
	var raw []byte
	depth := 0
	i := 0
	for ; i < len(data); i++ {
		c := data[i]
		switch {
		case c == '\\' && i+1 < len(data):
			i++
			switch e := data[i]; e {
			case 'n':
				raw = append(raw, '\n')
			case 'r':
				raw = append(raw, '\r')
			case 't':
				raw = append(raw, '\t')
			case 'b':
				raw = append(raw, '\b')
			case 'f':
				raw = append(raw, '\f')
			case '\r':
				if i+1 < len(data) && data[i+1] == '\n' {
					i++
				}
			case '\n':
			default:
				if e >= '0' && e <= '7' {
					val := int(e - '0')
					for k := 0; k < 2 && i+1 < len(data) && data[i+1] >= '0' && data[i+1] <= '7'; k++ {
						i++
						val = val*8 + int(data[i]-'0')
					}
					raw = append(raw, byte(val))
				} else {
					raw = append(raw, e)
				}
			}
		case c == '(':
			depth++
			if depth > 1 {
				raw = append(raw, c)
			}
		case c == ')':
			depth--
			if depth == 0 {
				return decodePDFBytes(raw), i + 1
			}
			raw = append(raw, c)
		default:
			raw = append(raw, c)
		}
	}
	return decodePDFBytes(raw), i
}

// readPDFHex decodes a <hex> string starting at data[0].
func readPDFHex(data []byte) (string, int) {
	var raw []byte
	var hi byte
	odd := false
	i := 1
	for ; i < len(data) && data[i] != '>'; i++ {
		v, ok := hexValue(data[i])
		if !ok {
			continue
		}
		if odd {
			raw = append(raw, hi<<4|v)
		} else {
			hi = v
		}
		odd = !odd
	}
	if odd {
		raw = append(raw, hi<<4)
	}
	if i < len(data) {
		i++
	}
	return decodePDFBytes(raw), i
}

func hexValue(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}

// decodePDFBytes handles UTF-16BE strings with a byte order mark; anything
// else is read as Latin-1, which covers the common simple-font encodings.
func decodePDFBytes(raw []byte) string {
	if len(raw) >= 2 && raw[0] == 0xFE && raw[1] == 0xFF {
		units := make([]uint16, 0, (len(raw)-2)/2)
		for i := 2; i+1 < len(raw); i += 2 {
			units = append(units, uint16(raw[i])<<8|uint16(raw[i+1]))
		}
		return string(utf16.Decode(units))
	}
	runes := make([]rune, len(raw))
	for i, b := range raw {
		runes[i] = rune(b)
	}
	return string(runes)
}

// cleanPDFText collapses runs of whitespace inside each line, drops
// non-printable characters and empty lines.
func cleanPDFText(text string) string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		printable := strings.Map(func(r rune) rune {
			if unicode.IsSpace(r) {
				return ' '
			}
			if !unicode.IsPrint(r) {
				return -1
			}
			return r
		}, line)
		if fields := strings.Fields(printable); len(fields) > 0 {
			lines = append(lines, strings.Join(fields, " "))
		}
	}
	return strings.Join(lines, "\n")
}
