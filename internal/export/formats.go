package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"quiz-doc/internal/domain"
)

type jsonExporter struct{}

func (jsonExporter) Format() domain.ExportFormat { return domain.ExportJSON }
func (jsonExporter) Extension() string           { return "json" }
func (jsonExporter) ContentType() string         { return "application/json; charset=utf-8" }

// Render indents with two spaces and keeps non-ASCII text and <>& literal.
func (jsonExporter) Render(quiz *domain.Quiz) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(quiz); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

type markdownExporter struct {
	opts Options
}

func (markdownExporter) Format() domain.ExportFormat { return domain.ExportMarkdown }
func (markdownExporter) Extension() string           { return "md" }
func (markdownExporter) ContentType() string         { return "text/markdown; charset=utf-8" }

func (e markdownExporter) Render(quiz *domain.Quiz) ([]byte, error) {
	title := quiz.Title
	if title == "" {
		title = "Quiz"
	}
	lines := []string{"# " + title, ""}
	if quiz.Description != "" {
		lines = append(lines, quiz.Description+"\n")
	}

	for i, q := range quiz.Questions {
		lines = append(lines,
			fmt.Sprintf("## Question %d", i+1),
			"",
			"**"+q.Question+"**",
			"",
		)

		if q.IsMultipleChoice() {
			for _, option := range q.Options {
				lines = append(lines, "- "+option)
			}
			lines = append(lines, "", "**Réponse correcte:** "+q.CorrectAnswer)
		} else {
			lines = append(lines, "**Réponse:** "+q.CorrectAnswer)
		}

		if e.opts.IncludeExplanations && q.Explanation != "" {
			lines = append(lines, "", "**Explication:** "+q.Explanation)
		}
		if e.opts.IncludeDifficulty && q.Difficulty != 0 {
			lines = append(lines, "", fmt.Sprintf("**Difficulté:** %d/5", q.Difficulty))
		}
		lines = append(lines, "")
	}

	return []byte(strings.Join(lines, "\n")), nil
}

type flashcardExporter struct{}

func (flashcardExporter) Format() domain.ExportFormat { return domain.ExportFlashcard }
func (flashcardExporter) Extension() string           { return "csv" }
func (flashcardExporter) ContentType() string         { return "text/csv; charset=utf-8" }

// flashcardField keeps a value on one tab separated cell.
var flashcardField = strings.NewReplacer("\t", " ", "\r\n", " ", "\n", " ", "\r", " ")

// Render writes a tab separated sheet: a header row, then one row per question.
func (flashcardExporter) Render(quiz *domain.Quiz) ([]byte, error) {
	lines := []string{"Question\tRéponse\tExplication\tDifficulté"}
	for _, q := range quiz.Questions {
		difficulty := q.Difficulty
		if difficulty == 0 {
			difficulty = 1
		}
		lines = append(lines, strings.Join([]string{
			flashcardField.Replace(q.Question),
			flashcardField.Replace(q.CorrectAnswer),
			flashcardField.Replace(q.Explanation),
			strconv.Itoa(difficulty),
		}, "\t"))
	}
	return []byte(strings.Join(lines, "\n")), nil
}

type plaintextExporter struct{}

func (plaintextExporter) Format() domain.ExportFormat { return domain.ExportPlaintextQA }
func (plaintextExporter) Extension() string           { return "txt" }
func (plaintextExporter) ContentType() string         { return "text/plain; charset=utf-8" }

func (plaintextExporter) Render(quiz *domain.Quiz) ([]byte, error) {
	title := quiz.Title
	if title == "" {
		title = "Quiz"
	}
	lines := []string{title, strings.Repeat("=", 50), ""}
	for _, q := range quiz.Questions {
		lines = append(lines, "Q: "+q.Question, "A: "+q.CorrectAnswer, "")
	}
	return []byte(strings.Join(lines, "\n")), nil
}
