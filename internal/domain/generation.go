package domain

import "context"

// ResponseFormat tells the generation service how the answer must be shaped.
type ResponseFormat string

const (
	ResponseFormatText ResponseFormat = "text"
	ResponseFormatJSON ResponseFormat = "json_object"
)

// TextGenerator is the language-model boundary. Implementations own
// transport, authentication, timeouts and retries.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string, format ResponseFormat) (string, error)
	// Model returns the identifier recorded in quiz metadata.
	Model() string
}

// ExportFormat selects a quiz serializer.
type ExportFormat string

const (
	ExportJSON        ExportFormat = "json"
	ExportMarkdown    ExportFormat = "markdown"
	ExportFlashcard   ExportFormat = "flashcard"
	ExportPlaintextQA ExportFormat = "plaintext-qa"
)
