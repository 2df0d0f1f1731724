package dto

import "quiz-doc/internal/domain"

// HealthResponse is returned by the liveness endpoint.
type HealthResponse struct {
	Status string `json:"status"`
	// Cache is "ok" or "unavailable"; omitted when no response cache is configured.
	Cache string `json:"cache,omitempty"`
}

// FormatsResponse lists the accepted document extensions and export formats.
type FormatsResponse struct {
	Documents []string `json:"documents"`
	Exports   []string `json:"exports"`
}

// SectionsResponse represents a parsed document in the API response
type SectionsResponse struct {
	FileName string           `json:"file_name"`
	Count    int              `json:"count"`
	Sections []domain.Section `json:"sections"`
}

// GenerateQuizRequest holds the form fields sent along with the uploaded
// document. Zero values select the configured defaults.
type GenerateQuizRequest struct {
	NumQuestions int    `form:"num_questions"`
	NumOptions   int    `form:"num_options"`
	Difficulty   int    `form:"difficulty"`
	QuestionType string `form:"question_type"`
}
