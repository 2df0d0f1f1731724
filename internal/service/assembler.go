package service

import (
	"encoding/json"
	"errors"
	"strings"

	"quiz-doc/internal/domain"
)

var errNoJSONObject = errors.New("no JSON object found in generation output")

// CleanModelOutput isolates the JSON object in raw model output: reasoning
// blocks wrapped in <think> tags and any text around the outermost braces
// (code fences included) are dropped. Output without braces is returned
// trimmed and unchanged.
func CleanModelOutput(raw string) string {
	cleaned := strings.TrimSpace(raw)

	for {
		thinkStart := strings.Index(cleaned, "<think>")
		if thinkStart == -1 {
			break
		}
		thinkEnd := strings.Index(cleaned[thinkStart:], "</think>")
		if thinkEnd == -1 {
			break
		}
		thinkEnd += thinkStart + len("</think>")
		cleaned = strings.TrimSpace(cleaned[:thinkStart] + cleaned[thinkEnd:])
	}

	jsonStart := strings.Index(cleaned, "{")
	jsonEnd := strings.LastIndex(cleaned, "}")
	if jsonStart != -1 && jsonEnd > jsonStart {
		return cleaned[jsonStart : jsonEnd+1]
	}
	return cleaned
}

// ValidateQuizJSON reports whether data is a JSON object holding both a
// "title" and a "questions" key, whatever their values.
func ValidateQuizJSON(data []byte) bool {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return false
	}
	_, hasTitle := fields["title"]
	_, hasQuestions := fields["questions"]
	return hasTitle && hasQuestions
}

// Assemble decodes model output into a Quiz and attaches meta. Metadata the
// model produced itself is kept; meta only fills the fields it left empty.
// Question fields are not validated.
func Assemble(raw string, meta domain.QuizMetadata) (*domain.Quiz, error) {
	payload := CleanModelOutput(raw)
	if !strings.HasPrefix(payload, "{") {
		return nil, domain.NewMalformedResponseError(errNoJSONObject)
	}

	var quiz domain.Quiz
	if err := json.Unmarshal([]byte(payload), &quiz); err != nil {
		return nil, domain.NewMalformedResponseError(err)
	}

	if quiz.Questions == nil {
		quiz.Questions = []domain.Question{}
	}
	if quiz.Metadata == nil {
		quiz.Metadata = &domain.QuizMetadata{}
	}
	quiz.Metadata.Merge(meta)

	return &quiz, nil
}
