// Package prompt renders the instruction sent to the language model.
package prompt

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"quiz-doc/internal/domain"
)

// DefaultMaxContentChars is the content budget used when none is configured.
const DefaultMaxContentChars = 8000

// Builder renders quiz generation prompts. The zero value is usable and
// produces French prompts with the default content budget.
type Builder struct {
	Language        string
	MaxContentChars int
}

// Params are the per-request generation parameters.
type Params struct {
	NumQuestions int
	NumOptions   int
	// QuestionTypes restricts the generated kinds; empty means mixed.
	QuestionTypes []domain.QuestionType
}

const template = `Vous êtes un expert pédagogique spécialisé dans la création de quiz de formation.
À partir du contenu suivant, générez un quiz avec %[1]d questions.

## Règles de génération:
1. %[3]s
2. Incluez des niveaux de difficulté différents (1-5)
3. Pour les QCM, créez %[2]d options avec exactement une bonne réponse
4. Fournissez des explications détaillées pour chaque réponse
5. Utilisez la taxonomie de Bloom pour varier les niveaux cognitifs

## Format de sortie (JSON):
{
    "title": "Titre du quiz",
    "description": "Description du quiz",
    "questions": [
        {
            "id": 1,
            "type": "qcm" ou "ouvert",
            "difficulty": 1-5,
            "question": "La question",
            "options": ["Option A", "Option B", "Option C", "Option D"],
            "correct_answer": "La bonne option ou réponse",
            "explanation": "Explication détaillée"
        }
    ]
}

## Contenu:
%[5]s

## Instructions spécifiques:
- Générez exactement %[1]d questions
- %[4]s
- Assurez-vous que les questions couvrent l'ensemble du contenu
- Les questions doivent être %[6]s
`

// JoinSections concatenates sections as "## title\n\ncontent\n\n" in order.
func JoinSections(sections []domain.Section) string {
	var b strings.Builder
	for _, s := range sections {
		title := s.Title
		if title == "" {
			title = "Section"
		}
		b.WriteString("## ")
		b.WriteString(title)
		b.WriteString("\n\n")
		b.WriteString(s.Content)
		b.WriteString("\n\n")
	}
	return b.String()
}

// FromSections renders a prompt for a parsed document. The boolean reports
// whether the content was cut to fit the budget.
func (b Builder) FromSections(sections []domain.Section, p Params) (string, bool) {
	return b.FromText(JoinSections(sections), p)
}

// FromText renders a prompt for raw text.
func (b Builder) FromText(text string, p Params) (string, bool) {
	content, truncated := Truncate(text, b.maxContentChars())

	numOptions := p.NumOptions
	if numOptions <= 0 {
		numOptions = 4
	}
	variety, mix := typeInstructions(p.QuestionTypes)

	return fmt.Sprintf(template,
		p.NumQuestions,
		numOptions,
		variety,
		mix,
		content,
		languageName(b.Language),
	), truncated
}

func (b Builder) maxContentChars() int {
	if b.MaxContentChars > 0 {
		return b.MaxContentChars
	}
	return DefaultMaxContentChars
}

// Truncate keeps the first max characters of s. The cut is a hard one and
// ignores sentence boundaries, but never splits a UTF-8 sequence.
func Truncate(s string, max int) (string, bool) {
	if utf8.RuneCountInString(s) <= max {
		return s, false
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i], true
		}
		n++
	}
	return s, false
}

func typeInstructions(types []domain.QuestionType) (variety, mix string) {
	var qcm, open bool
	for _, t := range types {
		switch t {
		case domain.QuestionTypeMultipleChoice:
			qcm = true
		case domain.QuestionTypeOpen:
			open = true
		}
	}
	switch {
	case qcm && !open:
		return `Créez uniquement des questions à choix multiples (type "qcm")`,
			`Toutes les questions doivent être de type "qcm"`
	case open && !qcm:
		return `Créez uniquement des questions ouvertes (type "ouvert")`,
			`Toutes les questions doivent être de type "ouvert"`
	default:
		return "Créez des questions variées (QCM et questions ouvertes)",
			"Mélangez les types de questions"
	}
}

var languages = map[string]string{
	"fr": "en français",
	"en": "en anglais",
	"es": "en espagnol",
	"de": "en allemand",
	"it": "en italien",
	"pt": "en portugais",
	"nl": "en néerlandais",
}

func languageName(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		code = "fr"
	}
	if name, ok := languages[code]; ok {
		return name
	}
	return "dans la langue « " + code + " »"
}
