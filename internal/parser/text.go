package parser

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"quiz-doc/internal/domain"
)

// TextParser reads .txt and .md files. With markdown enabled, lines starting
// with "# ", "## " or "### " open sections at levels 1 to 3.
type TextParser struct {
	base
	markdown bool
}

func NewTextParser(path string, markdown bool) *TextParser {
	format := domain.DocumentText
	if strings.EqualFold(filepath.Ext(path), ".md") {
		format = domain.DocumentMarkdown
	}
	return &TextParser{base: base{path: path, format: format}, markdown: markdown}
}

var markdownHeadings = []struct {
	prefix string
	level  int
}{
	{"# ", 1},
	{"## ", 2},
	{"### ", 3},
}

func (p *TextParser) Parse() ([]domain.Section, error) {
	content, err := p.read()
	if err != nil {
		return nil, err
	}
	if content == "" {
		return nil, nil
	}

	if !p.markdown {
		return []domain.Section{{Title: domain.PlainTextTitle, Level: 1, Content: content}}, nil
	}

	lines := strings.Split(strings.TrimSuffix(content, "\n"), "\n")

	var (
		sections []domain.Section
		current  *sectionBuilder
	)
	flush := func() {
		if current != nil {
			sections = append(sections, current.section())
		}
	}

	for _, line := range lines {
		if title, level, ok := markdownHeading(line); ok {
			flush()
			current = &sectionBuilder{title: title, level: level}
			continue
		}
		if current == nil {
			current = &sectionBuilder{title: domain.ImplicitTextTitle, level: 1}
		}
		current.content.WriteString(line)
		current.content.WriteByte('\n')
	}
	flush()

	return sections, nil
}

func (p *TextParser) ExtractText() (string, error) {
	return p.read()
}

func (p *TextParser) read() (string, error) {
	if err := p.ensureExists(); err != nil {
		return "", err
	}
	data, err := os.ReadFile(p.path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", p.path, err)
	}
	return normalizeNewlines(strings.ToValidUTF8(string(data), "\uFFFD")), nil
}

// markdownHeading matches the heading markers exactly at line start.
func markdownHeading(line string) (string, int, bool) {
	for _, h := range markdownHeadings {
		if strings.HasPrefix(line, h.prefix) {
			return strings.TrimSpace(line[len(h.prefix):]), h.level, true
		}
	}
	return "", 0, false
}

func normalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}
