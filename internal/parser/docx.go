package parser

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"quiz-doc/internal/domain"
)

// DocxParser reads Word documents. Paragraphs styled as headings open new
// sections; everything else is appended to the current one.
type DocxParser struct {
	base
}

func NewDocxParser(path string) *DocxParser {
	return &DocxParser{base: base{path: path, format: domain.DocumentDocx}}
}

// docxParagraph is one body-level w:p with its resolved style name.
type docxParagraph struct {
	style string
	text  string
}

func (p *DocxParser) Parse() ([]domain.Section, error) {
	paragraphs, err := p.paragraphs()
	if err != nil {
		return nil, err
	}

	var (
		sections []domain.Section
		current  *sectionBuilder
	)
	flush := func() {
		if current != nil {
			sections = append(sections, current.section())
		}
	}

	for _, para := range paragraphs {
		if level, ok := docxHeadingLevel(para.style); ok {
			flush()
			current = &sectionBuilder{title: strings.TrimSpace(para.text), level: level}
			continue
		}
		if current == nil {
			current = &sectionBuilder{title: domain.IntroductionTitle, level: 1}
		}
		current.content.WriteString(para.text)
		current.content.WriteByte('\n')
	}
	flush()

	return sections, nil
}

func (p *DocxParser) ExtractText() (string, error) {
	paragraphs, err := p.paragraphs()
	if err != nil {
		return "", err
	}
	lines := make([]string, len(paragraphs))
	for i, para := range paragraphs {
		lines[i] = para.text
	}
	return strings.Join(lines, "\n"), nil
}

func (p *DocxParser) paragraphs() ([]docxParagraph, error) {
	if err := p.ensureExists(); err != nil {
		return nil, err
	}

	r, err := zip.OpenReader(p.path)
	if err != nil {
		return nil, fmt.Errorf("open docx %s: %w", p.path, err)
	}
	defer r.Close()

	styles, err := docxStyleNames(r.File)
	if err != nil {
		return nil, err
	}

	body, err := readZipFile(r.File, "word/document.xml")
	if err != nil {
		return nil, err
	}
	paragraphs, err := scanDocxParagraphs(body)
	if err != nil {
		return nil, fmt.Errorf("parse word/document.xml: %w", err)
	}

	for i := range paragraphs {
		if name, ok := styles[paragraphs[i].style]; ok {
			paragraphs[i].style = name
		}
	}
	return paragraphs, nil
}

// docxStyleNames maps style IDs (what w:pStyle references) to display names
// such as "heading 1". A document without styles.xml yields an empty map.
func docxStyleNames(files []*zip.File) (map[string]string, error) {
	names := make(map[string]string)
	data, err := readZipFile(files, "word/styles.xml")
	if errors.Is(err, errPartNotFound) {
		return names, nil
	}
	if err != nil {
		return nil, err
	}

	w := newXMLWalker(data)
	var styleID string
	for {
		tok, err := w.next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse word/styles.xml: %w", err)
		}
		el, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		switch el.Name.Local {
		case "style":
			styleID = attrValue(el, "styleId")
		case "name":
			if styleID != "" {
				names[styleID] = attrValue(el, "val")
			}
		}
	}
	return names, nil
}

// scanDocxParagraphs collects the paragraphs that are direct children of
// w:body, in order. Paragraphs inside tables, text boxes or content controls
// are not part of the body flow and are skipped.
func scanDocxParagraphs(data []byte) ([]docxParagraph, error) {
	w := newXMLWalker(data)

	var (
		out       []docxParagraph
		stack     []string
		inPara    bool
		paraDepth int // stack depth of the open body-level w:p
		inText    bool
		style     string
		text      strings.Builder
	)

	for {
		tok, err := w.next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			parent := ""
			if len(stack) > 0 {
				parent = stack[len(stack)-1]
			}
			stack = append(stack, t.Name.Local)

			if !inPara {
				if t.Name.Local == "p" && parent == "body" {
					inPara = true
					paraDepth = len(stack)
					style = ""
					text.Reset()
				}
				continue
			}
			// Only runs of the body paragraph itself count, not nested text boxes.
			if nestedParagraph(stack[paraDepth:]) {
				continue
			}
			switch t.Name.Local {
			case "pStyle":
				style = attrValue(t, "val")
			case "t":
				inText = true
			case "tab":
				if parent == "r" {
					text.WriteByte('\t')
				}
			case "br", "cr":
				text.WriteByte('\n')
			}

		case xml.CharData:
			if inPara && inText {
				text.Write(t)
			}

		case xml.EndElement:
			if len(stack) == 0 {
				continue
			}
			stack = stack[:len(stack)-1]
			switch {
			case t.Name.Local == "t":
				inText = false
			case inPara && t.Name.Local == "p" && len(stack) == paraDepth-1:
				out = append(out, docxParagraph{style: style, text: text.String()})
				inPara = false
				inText = false
			}
		}
	}
	return out, nil
}

// nestedParagraph reports whether the element path below the body paragraph
// enters another paragraph container.
func nestedParagraph(path []string) bool {
	for _, name := range path {
		if name == "txbxContent" || name == "p" {
			return true
		}
	}
	return false
}

// docxHeadingLevel reports whether a style name denotes a heading, and its
// level: the trailing digit of the name, 1 when there is none.
func docxHeadingLevel(style string) (int, bool) {
	name := strings.TrimSpace(style)
	if !strings.HasPrefix(strings.ToLower(name), "heading") {
		return 0, false
	}
	last := name[len(name)-1]
	if last >= '1' && last <= '9' {
		return int(last - '0'), true
	}
	return 1, true
}
