package parser

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strconv"
	"strings"

	"quiz-doc/internal/domain"
)

// PptxParser reads PowerPoint decks, one section per slide.
type PptxParser struct {
	base
}

func NewPptxParser(path string) *PptxParser {
	return &PptxParser{base: base{path: path, format: domain.DocumentPptx}}
}

// pptxSlide holds the text of one slide: the title placeholder and the other
// text shapes in drawing order.
type pptxSlide struct {
	title  string
	shapes []string
}

func (p *PptxParser) Parse() ([]domain.Section, error) {
	slides, err := p.slides()
	if err != nil {
		return nil, err
	}

	sections := make([]domain.Section, 0, len(slides))
	for i, slide := range slides {
		sections = append(sections, domain.Section{
			Title:   slide.title,
			Level:   1,
			Content: strings.Join(slide.shapes, "\n"),
			Page:    i + 1,
		})
	}
	return sections, nil
}

func (p *PptxParser) ExtractText() (string, error) {
	slides, err := p.slides()
	if err != nil {
		return "", err
	}
	var lines []string
	for _, slide := range slides {
		if slide.title != "" {
			lines = append(lines, slide.title)
		}
		lines = append(lines, slide.shapes...)
	}
	return strings.Join(lines, "\n"), nil
}

func (p *PptxParser) slides() ([]pptxSlide, error) {
	if err := p.ensureExists(); err != nil {
		return nil, err
	}

	r, err := zip.OpenReader(p.path)
	if err != nil {
		return nil, fmt.Errorf("open pptx %s: %w", p.path, err)
	}
	defer r.Close()

	names, err := pptxSlideOrder(r.File)
	if err != nil {
		return nil, err
	}

	slides := make([]pptxSlide, 0, len(names))
	for _, name := range names {
		data, err := readZipFile(r.File, name)
		if err != nil {
			return nil, err
		}
		slide, err := scanPptxSlide(data)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		slides = append(slides, slide)
	}
	return slides, nil
}

// pptxSlideOrder returns the slide part names in presentation order. The
// order comes from p:sldIdLst resolved through the presentation
// relationships; decks lacking either part fall back to numeric file order.
func pptxSlideOrder(files []*zip.File) ([]string, error) {
	ordered, err := pptxOrderFromPresentation(files)
	if err != nil {
		return nil, err
	}
	if len(ordered) > 0 {
		return ordered, nil
	}

	names := findZipFiles(files, "ppt/slides/slide", ".xml")
	sort.Slice(names, func(i, j int) bool {
		return slideNumber(names[i]) < slideNumber(names[j])
	})
	return names, nil
}

func pptxOrderFromPresentation(files []*zip.File) ([]string, error) {
	pres, err := readZipFile(files, "ppt/presentation.xml")
	if errors.Is(err, errPartNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	rels, err := readZipFile(files, "ppt/_rels/presentation.xml.rels")
	if errors.Is(err, errPartNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	targets := make(map[string]string)
	w := newXMLWalker(rels)
	for {
		tok, err := w.next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse presentation relationships: %w", err)
		}
		if el, ok := tok.(xml.StartElement); ok && el.Name.Local == "Relationship" {
			targets[attrValue(el, "Id")] = attrValue(el, "Target")
		}
	}

	var ordered []string
	w = newXMLWalker(pres)
	for {
		tok, err := w.next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse ppt/presentation.xml: %w", err)
		}
		el, ok := tok.(xml.StartElement)
		if !ok || el.Name.Local != "sldId" {
			continue
		}
		// The relationship id is the namespaced r:id, not the numeric id.
		for _, a := range el.Attr {
			if a.Name.Local != "id" || a.Name.Space == "" {
				continue
			}
			target, ok := targets[a.Value]
			if !ok {
				continue
			}
			name := path.Clean(path.Join("ppt", target))
			if strings.HasPrefix(target, "/") {
				name = strings.TrimPrefix(path.Clean(target), "/")
			}
			if findZipEntry(files, name) != nil {
				ordered = append(ordered, name)
			}
		}
	}
	return ordered, nil
}

// slideNumber extracts N from ppt/slides/slideN.xml.
func slideNumber(name string) int {
	base := strings.TrimSuffix(path.Base(name), ".xml")
	n, err := strconv.Atoi(strings.TrimPrefix(strings.ToLower(base), "slide"))
	if err != nil {
		return 1 << 30
	}
	return n
}

// scanPptxSlide walks the shape tree in drawing order. Each p:sp contributes
// its text body with paragraphs separated by newlines. Tables and pictures
// carry no text frame and are ignored.
func scanPptxSlide(data []byte) (pptxSlide, error) {
	w := newXMLWalker(data)

	var (
		slide     pptxSlide
		inShape   bool
		isTitle   bool
		inText    bool
		paraCount int
		text      strings.Builder
	)

	for {
		tok, err := w.next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return pptxSlide{}, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "sp":
				if !inShape {
					inShape = true
					isTitle = false
					paraCount = 0
					text.Reset()
				}
			case "ph":
				if inShape {
					switch attrValue(t, "type") {
					case "title", "ctrTitle":
						isTitle = true
					}
				}
			case "p":
				if inShape {
					if paraCount > 0 {
						text.WriteByte('\n')
					}
					paraCount++
				}
			case "br":
				if inShape {
					text.WriteByte('\n')
				}
			case "t":
				inText = inShape
			}

		case xml.CharData:
			if inText {
				text.Write(t)
			}

		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "sp":
				if !inShape {
					continue
				}
				inShape = false
				content := strings.TrimSpace(text.String())
				if isTitle && slide.title == "" {
					slide.title = content
					continue
				}
				if content != "" {
					slide.shapes = append(slide.shapes, content)
				}
			}
		}
	}
	return slide, nil
}
