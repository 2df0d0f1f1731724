package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// QuestionType is the wire value of a question kind.
type QuestionType string

const (
	QuestionTypeMultipleChoice QuestionType = "qcm"
	QuestionTypeOpen           QuestionType = "ouvert"
)

// ParseQuestionType accepts the wire names as well as their English aliases.
func ParseQuestionType(s string) (QuestionType, error) {
	switch s {
	case "qcm", "multiple_choice":
		return QuestionTypeMultipleChoice, nil
	case "ouvert", "open":
		return QuestionTypeOpen, nil
	default:
		return "", NewInvalidInputError(fmt.Sprintf("unknown question type: %q", s))
	}
}

// ParseQuestionTypes reads a question type selection. Empty and "mixed"
// select every kind and return nil.
func ParseQuestionTypes(s string) ([]QuestionType, error) {
	switch s = strings.ToLower(strings.TrimSpace(s)); s {
	case "", "mixed", "mixte":
		return nil, nil
	}
	qt, err := ParseQuestionType(s)
	if err != nil {
		return nil, err
	}
	return []QuestionType{qt}, nil
}

// Question is a single assessment item.
type Question struct {
	ID            int          `json:"id"`
	Type          QuestionType `json:"type"`
	Difficulty    int          `json:"difficulty"`
	Question      string       `json:"question"`
	Options       []string     `json:"options,omitempty"`
	CorrectAnswer string       `json:"correct_answer"`
	Explanation   string       `json:"explanation,omitempty"`
}

// UnmarshalJSON accepts the loosely typed questions language models tend to
// produce: numeric fields given as strings, answers given as numbers, and
// null where a value is missing. Values that cannot be read become zero.
func (q *Question) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID            json.RawMessage `json:"id"`
		Type          json.RawMessage `json:"type"`
		Difficulty    json.RawMessage `json:"difficulty"`
		Question      json.RawMessage `json:"question"`
		Options       json.RawMessage `json:"options"`
		CorrectAnswer json.RawMessage `json:"correct_answer"`
		Explanation   json.RawMessage `json:"explanation"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		// Not an object: keep an empty question in its slot.
		*q = Question{}
		return nil
	}

	*q = Question{
		ID:            looseInt(raw.ID),
		Type:          QuestionType(looseString(raw.Type)),
		Difficulty:    looseInt(raw.Difficulty),
		Question:      looseString(raw.Question),
		CorrectAnswer: looseString(raw.CorrectAnswer),
		Explanation:   looseString(raw.Explanation),
	}
	var options []json.RawMessage
	if err := json.Unmarshal(raw.Options, &options); err == nil && len(options) > 0 {
		q.Options = make([]string, len(options))
		for i, option := range options {
			q.Options[i] = looseString(option)
		}
	}
	return nil
}

func looseString(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	// Numbers and booleans keep their literal form.
	if raw[0] != '{' && raw[0] != '[' {
		return string(raw)
	}
	return ""
}

func looseInt(raw json.RawMessage) int {
	s := strings.TrimSpace(looseString(raw))
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int(f)
	}
	return 0
}

// IsMultipleChoice reports whether the question carries options.
func (q *Question) IsMultipleChoice() bool {
	return q.Type == QuestionTypeMultipleChoice
}

// QuizMetadata records the generation parameters. It never influences
// question content.
type QuizMetadata struct {
	GeneratedAt  string `json:"generated_at,omitempty"`
	Model        string `json:"model,omitempty"`
	NumQuestions int    `json:"num_questions,omitempty"`
	Difficulty   int    `json:"difficulty,omitempty"`
	GenerationID string `json:"generation_id,omitempty"`
	Source       string `json:"source,omitempty"`
}

// Merge fills the zero fields of m from other. Fields already set are kept.
func (m *QuizMetadata) Merge(other QuizMetadata) {
	if m.GeneratedAt == "" {
		m.GeneratedAt = other.GeneratedAt
	}
	if m.Model == "" {
		m.Model = other.Model
	}
	if m.NumQuestions == 0 {
		m.NumQuestions = other.NumQuestions
	}
	if m.Difficulty == 0 {
		m.Difficulty = other.Difficulty
	}
	if m.GenerationID == "" {
		m.GenerationID = other.GenerationID
	}
	if m.Source == "" {
		m.Source = other.Source
	}
}

// Quiz is a titled collection of ordered questions plus generation metadata.
type Quiz struct {
	Title       string        `json:"title"`
	Description string        `json:"description,omitempty"`
	Questions   []Question    `json:"questions"`
	Metadata    *QuizMetadata `json:"metadata,omitempty"`
}

// UnmarshalJSON reads title and description loosely. A metadata object of an
// unexpected shape is dropped; questions must be an array when present.
func (q *Quiz) UnmarshalJSON(data []byte) error {
	var raw struct {
		Title       json.RawMessage `json:"title"`
		Description json.RawMessage `json:"description"`
		Questions   []Question      `json:"questions"`
		Metadata    json.RawMessage `json:"metadata"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*q = Quiz{
		Title:       looseString(raw.Title),
		Description: looseString(raw.Description),
		Questions:   raw.Questions,
	}
	var meta QuizMetadata
	if len(raw.Metadata) > 0 && json.Unmarshal(raw.Metadata, &meta) == nil && !bytes.Equal(raw.Metadata, []byte("null")) {
		q.Metadata = &meta
	}
	return nil
}

// Inconsistencies lists multiple-choice questions whose answer does not match
// exactly one option or whose option count differs from expectedOptions
// (ignored when expectedOptions <= 0). The quiz is not modified.
func (q *Quiz) Inconsistencies(expectedOptions int) []string {
	var out []string
	for _, question := range q.Questions {
		if !question.IsMultipleChoice() {
			continue
		}
		if len(question.Options) == 0 {
			out = append(out, fmt.Sprintf("question %d: multiple-choice without options", question.ID))
			continue
		}
		if expectedOptions > 0 && len(question.Options) != expectedOptions {
			out = append(out, fmt.Sprintf("question %d: %d options, expected %d", question.ID, len(question.Options), expectedOptions))
		}
		if !slices.Contains(question.Options, question.CorrectAnswer) {
			out = append(out, fmt.Sprintf("question %d: correct answer %q is not one of the options", question.ID, question.CorrectAnswer))
		}
	}
	return out
}
