package validation

import (
	"path/filepath"
	"slices"
	"strings"

	"quiz-doc/internal/domain"
	"quiz-doc/internal/dto"
	"quiz-doc/internal/export"
	"quiz-doc/internal/parser"
)

// Validator provides request validation functionality
type Validator struct{}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateGenerateRequest checks the shape of the generation form. Ranges that
// depend on configuration are left to the quiz service.
func (v *Validator) ValidateGenerateRequest(req dto.GenerateQuizRequest) domain.ValidationErrors {
	var errors domain.ValidationErrors

	if req.NumQuestions < 0 {
		errors = append(errors, domain.FieldError{Field: "num_questions", Message: "must not be negative"})
	}
	if req.NumOptions != 0 && req.NumOptions < 2 {
		errors = append(errors, domain.FieldError{Field: "num_options", Message: "must be at least 2"})
	}
	if req.Difficulty != 0 && (req.Difficulty < 1 || req.Difficulty > 5) {
		errors = append(errors, domain.FieldError{Field: "difficulty", Message: "must be within 1-5"})
	}
	if _, err := domain.ParseQuestionTypes(req.QuestionType); err != nil {
		errors = append(errors, domain.FieldError{Field: "question_type", Message: "must be one of qcm, ouvert, mixed"})
	}

	return errors
}

// ValidateUpload checks that an uploaded file name carries a supported extension.
func (v *Validator) ValidateUpload(fileName string) domain.ValidationErrors {
	if strings.TrimSpace(fileName) == "" {
		return domain.ValidationErrors{{Field: "file", Message: "is required"}}
	}
	ext := strings.ToLower(filepath.Ext(fileName))
	if !slices.Contains(parser.SupportedExtensions(), ext) {
		return domain.ValidationErrors{{Field: "file", Message: "unsupported document type " + ext}}
	}
	return nil
}

// ValidateExportFormat checks an export format name or alias.
func (v *Validator) ValidateExportFormat(format string) domain.ValidationErrors {
	if strings.TrimSpace(format) == "" {
		return domain.ValidationErrors{{Field: "format", Message: "is required"}}
	}
	if _, err := export.ParseFormat(format); err != nil {
		return domain.ValidationErrors{{Field: "format", Message: "must be one of " + strings.Join(export.FormatNames(), ", ")}}
	}
	return nil
}
