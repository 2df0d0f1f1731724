package service

import (
	"context"

	"quiz-doc/internal/domain"

	"github.com/stretchr/testify/mock"
)

// --- MockTextGenerator ---
type MockTextGenerator struct {
	mock.Mock
}

func (m *MockTextGenerator) Generate(ctx context.Context, prompt string, format domain.ResponseFormat) (string, error) {
	args := m.Called(ctx, prompt, format)
	return args.String(0), args.Error(1)
}

func (m *MockTextGenerator) Model() string {
	return "test-model"
}

const validQuizJSON = `{
  "title": "Les volcans",
  "description": "Quiz sur les volcans",
  "questions": [
    {"id": 1, "type": "qcm", "difficulty": 2, "question": "Qu'est-ce que le magma ?", "options": ["Roche fondue", "Eau", "Gaz", "Sable"], "correct_answer": "Roche fondue", "explanation": "Le magma est de la roche fondue."},
    {"id": 2, "type": "ouvert", "difficulty": 3, "question": "Pourquoi les volcans entrent-ils en éruption ?", "correct_answer": "La pression du magma.", "explanation": ""}
  ]
}`
