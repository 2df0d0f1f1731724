// Package export serializes quizzes into the supported output formats.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"quiz-doc/internal/domain"
)

// Options toggle optional parts of the human readable formats.
type Options struct {
	IncludeExplanations bool
	IncludeDifficulty   bool
}

// DefaultOptions renders everything.
func DefaultOptions() Options {
	return Options{IncludeExplanations: true, IncludeDifficulty: true}
}

// Exporter renders a quiz in one format.
type Exporter interface {
	Format() domain.ExportFormat
	Extension() string
	ContentType() string
	Render(quiz *domain.Quiz) ([]byte, error)
}

// aliases maps accepted format names to their canonical format.
var aliases = map[string]domain.ExportFormat{
	"json":         domain.ExportJSON,
	"markdown":     domain.ExportMarkdown,
	"md":           domain.ExportMarkdown,
	"flashcard":    domain.ExportFlashcard,
	"anki":         domain.ExportFlashcard,
	"plaintext-qa": domain.ExportPlaintextQA,
	"quizlet":      domain.ExportPlaintextQA,
}

// ParseFormat resolves a format name or alias, case-insensitively.
func ParseFormat(name string) (domain.ExportFormat, error) {
	format, ok := aliases[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return "", domain.NewUnsupportedFormatError(name)
	}
	return format, nil
}

// FormatNames lists every accepted format name, aliases included, sorted.
func FormatNames() []string {
	names := make([]string, 0, len(aliases))
	for name := range aliases {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New returns the exporter for a format name or alias.
func New(name string, opts Options) (Exporter, error) {
	format, err := ParseFormat(name)
	if err != nil {
		return nil, err
	}
	switch format {
	case domain.ExportJSON:
		return jsonExporter{}, nil
	case domain.ExportMarkdown:
		return markdownExporter{opts: opts}, nil
	case domain.ExportFlashcard:
		return flashcardExporter{}, nil
	case domain.ExportPlaintextQA:
		return plaintextExporter{}, nil
	}
	return nil, domain.NewUnsupportedFormatError(name)
}

// Document is a rendered export ready to be written or sent.
type Document struct {
	Format      domain.ExportFormat
	FileName    string
	ContentType string
	Data        []byte
}

// Render resolves the format and renders quiz without touching the disk.
func Render(quiz *domain.Quiz, format string, opts Options) (*Document, error) {
	if quiz == nil {
		return nil, domain.NewInvalidInputError("quiz cannot be nil")
	}
	exporter, err := New(format, opts)
	if err != nil {
		return nil, err
	}
	data, err := exporter.Render(quiz)
	if err != nil {
		return nil, domain.NewInternalError(fmt.Sprintf("failed to render %s export", exporter.Format()), err)
	}
	return &Document{
		Format:      exporter.Format(),
		FileName:    FileName(quiz.Title, exporter.Extension()),
		ContentType: exporter.ContentType(),
		Data:        data,
	}, nil
}

// FileName returns quiz_{title}.{ext}. Spaces and path separators in the
// title become underscores; an empty title becomes "default".
func FileName(title, ext string) string {
	name := strings.TrimSpace(title)
	if name == "" {
		name = "default"
	}
	name = strings.NewReplacer(" ", "_", "/", "_", `\`, "_").Replace(name)
	if name == "." || name == ".." {
		name = "default"
	}
	return "quiz_" + name + "." + ext
}

// Writer writes exports into a directory.
type Writer struct {
	Options Options
}

func NewWriter(opts Options) *Writer {
	return &Writer{Options: opts}
}

// Export renders quiz and writes exactly one file into dir, creating it when
// needed. The format is resolved before any file system access, so an unknown
// format leaves no trace. An existing file with the same name is replaced.
func (w *Writer) Export(quiz *domain.Quiz, format, dir string) (string, error) {
	doc, err := Render(quiz, format, w.Options)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", domain.NewInternalError("failed to create output directory", err)
	}
	path := filepath.Join(dir, doc.FileName)
	if err := os.WriteFile(path, doc.Data, 0o644); err != nil {
		return "", domain.NewInternalError("failed to write export", err)
	}
	return path, nil
}
