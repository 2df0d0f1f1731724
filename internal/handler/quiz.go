package handler

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"quiz-doc/internal/domain"
	"quiz-doc/internal/dto"
	"quiz-doc/internal/export"
	"quiz-doc/internal/logger"
	"quiz-doc/internal/metrics"
	"quiz-doc/internal/middleware"
	"quiz-doc/internal/parser"
	"quiz-doc/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"go.uber.org/zap"
)

// healthCheckTimeout bounds the cache ping done by /health.
const healthCheckTimeout = 2 * time.Second

// Pinger is a dependency that can report whether it is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// QuizHandler handles document and quiz HTTP requests
type QuizHandler struct {
	documents service.DocumentService
	quizzes   service.QuizService
	cache     Pinger
}

// NewQuizHandler creates a new QuizHandler instance
func NewQuizHandler(documents service.DocumentService, quizzes service.QuizService) *QuizHandler {
	return &QuizHandler{
		documents: documents,
		quizzes:   quizzes,
	}
}

// WithCacheCheck makes /health report the state of the response cache.
func (h *QuizHandler) WithCacheCheck(cache Pinger) *QuizHandler {
	h.cache = cache
	return h
}

// RegisterRoutes mounts the API on app. m may be nil, then /metrics serves
// the default Prometheus registry.
func RegisterRoutes(app *fiber.App, h *QuizHandler, m *metrics.Metrics) {
	vm := middleware.NewValidationMiddleware()

	app.Get("/health", h.Health)
	app.Get("/metrics", adaptor.HTTPHandler(m.Handler()))

	api := app.Group("/api")
	api.Get("/formats", h.Formats)
	api.Post("/documents/sections", vm.ValidateUpload(), h.Sections)
	api.Post("/quizzes", vm.ValidateUpload(), vm.ValidateGenerateForm(), h.GenerateQuiz)
	api.Post("/quizzes/export", vm.ValidateExportFormat(), h.ExportQuiz)
}

// Health handles GET /health. An unreachable cache is reported but does not
// fail the check, generation still works without it.
func (h *QuizHandler) Health(c *fiber.Ctx) error {
	resp := dto.HealthResponse{Status: "ok"}
	if h.cache != nil {
		ctx, cancel := context.WithTimeout(c.UserContext(), healthCheckTimeout)
		defer cancel()
		resp.Cache = "ok"
		if err := h.cache.Ping(ctx); err != nil {
			logger.Get().Warn("Response cache ping failed", zap.Error(err))
			resp.Cache = "unavailable"
		}
	}
	return c.JSON(resp)
}

// Formats handles GET /api/formats
func (h *QuizHandler) Formats(c *fiber.Ctx) error {
	return c.JSON(dto.FormatsResponse{
		Documents: parser.SupportedExtensions(),
		Exports:   export.FormatNames(),
	})
}

// Sections handles POST /api/documents/sections
func (h *QuizHandler) Sections(c *fiber.Ctx) error {
	path, name, cleanup, err := saveUpload(c)
	if err != nil {
		return err
	}
	defer cleanup()

	sections, err := h.documents.Sections(path)
	if err != nil {
		return err
	}
	if sections == nil {
		sections = []domain.Section{}
	}

	return c.JSON(dto.SectionsResponse{
		FileName: name,
		Count:    len(sections),
		Sections: sections,
	})
}

// GenerateQuiz handles POST /api/quizzes
func (h *QuizHandler) GenerateQuiz(c *fiber.Ctx) error {
	req, _ := c.Locals(middleware.GenerateRequestKey).(dto.GenerateQuizRequest)
	questionTypes, err := domain.ParseQuestionTypes(req.QuestionType)
	if err != nil {
		return err
	}

	path, name, cleanup, err := saveUpload(c)
	if err != nil {
		return err
	}
	defer cleanup()

	result, err := h.documents.Process(c.UserContext(), path, service.GenerateOptions{
		NumQuestions:  req.NumQuestions,
		NumOptions:    req.NumOptions,
		Difficulty:    req.Difficulty,
		QuestionTypes: questionTypes,
		Source:        name,
	})
	if err != nil {
		return err
	}

	c.Set("X-Section-Count", strconv.Itoa(result.SectionCount))
	return c.JSON(result.Quiz)
}

// ExportQuiz handles POST /api/quizzes/export
func (h *QuizHandler) ExportQuiz(c *fiber.Ctx) error {
	format, _ := c.Locals(middleware.ExportFormatKey).(string)

	if !service.ValidateQuizJSON(c.Body()) {
		return domain.NewInvalidInputError("request body must be a quiz with title and questions")
	}

	var quiz domain.Quiz
	if err := json.Unmarshal(c.Body(), &quiz); err != nil {
		return domain.NewError(domain.ErrInvalidInput, "request body is not a quiz", err)
	}

	doc, err := h.quizzes.Render(&quiz, format)
	if err != nil {
		return err
	}

	c.Attachment(doc.FileName)
	c.Set(fiber.HeaderContentType, doc.ContentType)
	return c.Send(doc.Data)
}

// saveUpload stores the multipart "file" field in a temporary directory under
// its original base name, so the extension drives parser selection.
func saveUpload(c *fiber.Ctx) (path, name string, cleanup func(), err error) {
	file, err := c.FormFile("file")
	if err != nil {
		return "", "", nil, domain.NewInvalidInputError("file is required")
	}

	dir, err := os.MkdirTemp("", "quizdoc-upload-*")
	if err != nil {
		return "", "", nil, domain.NewInternalError("failed to create upload directory", err)
	}
	cleanup = func() {
		if rmErr := os.RemoveAll(dir); rmErr != nil {
			logger.Get().Warn("Failed to remove upload directory", zap.String("dir", dir), zap.Error(rmErr))
		}
	}

	name = filepath.Base(file.Filename)
	path = filepath.Join(dir, name)
	if err := c.SaveFile(file, path); err != nil {
		cleanup()
		return "", "", nil, domain.NewInternalError("failed to store upload", err)
	}
	return path, name, cleanup, nil
}
