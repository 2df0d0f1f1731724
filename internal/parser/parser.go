// Package parser turns source documents into ordered domain.Section values.
package parser

import (
	"os"
	"path/filepath"
	"slices"
	"strings"

	"quiz-doc/internal/domain"
)

// Options tune format specific behaviour.
type Options struct {
	// Markdown enables heading detection in .txt and .md files.
	Markdown bool
}

// DefaultOptions matches the command line behaviour: markdown headings are
// recognised in every text file.
func DefaultOptions() Options {
	return Options{Markdown: true}
}

type constructor func(path string, opts Options) domain.DocumentParser

var registry = map[string]constructor{
	".pdf":  func(path string, _ Options) domain.DocumentParser { return NewPDFParser(path) },
	".docx": func(path string, _ Options) domain.DocumentParser { return NewDocxParser(path) },
	".pptx": func(path string, _ Options) domain.DocumentParser { return NewPptxParser(path) },
	".txt":  func(path string, opts Options) domain.DocumentParser { return NewTextParser(path, opts.Markdown) },
	".md":   func(path string, opts Options) domain.DocumentParser { return NewTextParser(path, opts.Markdown) },
}

// ForFile returns the parser registered for the file extension of path.
// Unknown extensions fail with UNSUPPORTED_DOCUMENT before anything is read.
func ForFile(path string, opts Options) (domain.DocumentParser, error) {
	ext := strings.ToLower(filepath.Ext(path))
	newParser, ok := registry[ext]
	if !ok {
		return nil, domain.NewUnsupportedDocumentError(ext)
	}
	return newParser(path, opts), nil
}

// SupportedExtensions lists the accepted file extensions, sorted.
func SupportedExtensions() []string {
	exts := make([]string, 0, len(registry))
	for ext := range registry {
		exts = append(exts, ext)
	}
	slices.Sort(exts)
	return exts
}

// base carries the path handling shared by every format.
type base struct {
	path   string
	format domain.DocumentFormat
}

func (b base) Path() string {
	return b.path
}

func (b base) Format() domain.DocumentFormat {
	return b.format
}

func (b base) Validate() bool {
	_, err := os.Stat(b.path)
	return err == nil
}

// ensureExists converts a failed Validate into a NOT_FOUND error.
func (b base) ensureExists() error {
	if !b.Validate() {
		return domain.NewNotFoundError(b.path)
	}
	return nil
}

// sectionBuilder accumulates one section's content while a parse runs.
type sectionBuilder struct {
	title   string
	level   int
	page    int
	content strings.Builder
}

func (s *sectionBuilder) section() domain.Section {
	return domain.Section{
		Title:   s.title,
		Level:   s.level,
		Content: s.content.String(),
		Page:    s.page,
	}
}
