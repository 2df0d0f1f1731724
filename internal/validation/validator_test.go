package validation

import (
	"testing"

	"quiz-doc/internal/dto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateGenerateRequest(t *testing.T) {
	v := NewValidator()

	assert.Empty(t, v.ValidateGenerateRequest(dto.GenerateQuizRequest{}))
	assert.Empty(t, v.ValidateGenerateRequest(dto.GenerateQuizRequest{NumQuestions: 10, NumOptions: 3, Difficulty: 5, QuestionType: "ouvert"}))

	errs := v.ValidateGenerateRequest(dto.GenerateQuizRequest{NumQuestions: -1, NumOptions: 1, Difficulty: 9, QuestionType: "essay"})
	require.Len(t, errs, 4)
	fields := make([]string, len(errs))
	for i, e := range errs {
		fields[i] = e.Field
	}
	assert.Equal(t, []string{"num_questions", "num_options", "difficulty", "question_type"}, fields)
}

func TestValidateUpload(t *testing.T) {
	v := NewValidator()

	for _, name := range []string{"cours.pdf", "Notes.DOCX", "slides.pptx", "a.txt", "b.md"} {
		assert.Empty(t, v.ValidateUpload(name), name)
	}

	errs := v.ValidateUpload("")
	require.Len(t, errs, 1)
	assert.Equal(t, "is required", errs[0].Message)

	errs = v.ValidateUpload("tableur.xlsx")
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Message, ".xlsx")
}

func TestValidateExportFormat(t *testing.T) {
	v := NewValidator()

	for _, format := range []string{"json", "Markdown", "anki", "quizlet", "plaintext-qa"} {
		assert.Empty(t, v.ValidateExportFormat(format), format)
	}
	assert.Len(t, v.ValidateExportFormat(""), 1)
	errs := v.ValidateExportFormat("docx")
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Message, "flashcard")
}
