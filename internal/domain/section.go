package domain

// DocumentFormat identifies a supported input document type.
type DocumentFormat string

const (
	DocumentPDF      DocumentFormat = "pdf"
	DocumentDocx     DocumentFormat = "docx"
	DocumentPptx     DocumentFormat = "pptx"
	DocumentText     DocumentFormat = "txt"
	DocumentMarkdown DocumentFormat = "md"
)

// Default titles for content that no heading precedes.
const (
	IntroductionTitle = "Introduction"
	ImplicitTextTitle = "Texte"
	PlainTextTitle    = "Contenu"
)

// Section is one titled, ordered chunk of extracted document content.
type Section struct {
	Title   string `json:"title"`
	Level   int    `json:"level"`
	Content string `json:"content"`
	// Page is the 1-based page (PDF) or slide (PPTX) number, 0 when the
	// format has no physical positions.
	Page int `json:"page,omitempty"`
}

// DocumentParser converts one source file into an ordered sequence of sections.
type DocumentParser interface {
	// Parse returns the sections in document order. It fails with a
	// NOT_FOUND DomainError when the source path does not exist.
	Parse() ([]Section, error)

	// ExtractText returns every piece of text in the document, newline
	// separated, ignoring section boundaries.
	ExtractText() (string, error)

	// Validate reports whether the source path exists.
	Validate() bool

	Path() string
	Format() DocumentFormat
}
