package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"quiz-doc/internal/domain"
	"quiz-doc/internal/dto"
	"quiz-doc/internal/metrics"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp() *fiber.App {
	return fiber.New(fiber.Config{ErrorHandler: ErrorHandler()})
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(body, &out), string(body))
	return out
}

func TestErrorHandler_StatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"not found", domain.NewNotFoundError("/tmp/x.pdf"), http.StatusNotFound, "NOT_FOUND"},
		{"invalid input", domain.NewInvalidInputError("bad"), http.StatusBadRequest, "INVALID_INPUT"},
		{"unsupported format", domain.NewUnsupportedFormatError("docx"), http.StatusBadRequest, "UNSUPPORTED_FORMAT"},
		{"unsupported document", domain.NewUnsupportedDocumentError(".xlsx"), http.StatusBadRequest, "UNSUPPORTED_DOCUMENT"},
		{"malformed response", domain.NewMalformedResponseError(errors.New("eof")), http.StatusBadGateway, "MALFORMED_RESPONSE"},
		{"llm failure", domain.NewLLMServiceError(errors.New("timeout")), http.StatusServiceUnavailable, "LLM_SERVICE_ERROR"},
		{"internal", domain.NewInternalError("boom", nil), http.StatusInternalServerError, "INTERNAL_ERROR"},
		{"wrapped domain error", errors.Join(errors.New("ctx"), domain.NewNotFoundError("x")), http.StatusNotFound, "NOT_FOUND"},
		{"fiber error", fiber.NewError(http.StatusMethodNotAllowed, "nope"), http.StatusMethodNotAllowed, "HTTP_ERROR"},
		{"unknown", errors.New("plain"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp()
			app.Get("/", func(c *fiber.Ctx) error { return tt.err })

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)

			body := decode[ErrorResponse](t, resp)
			assert.Equal(t, tt.code, body.Code)
			assert.Equal(t, tt.status, body.Status)
		})
	}
}

func TestErrorHandler_ValidationErrors(t *testing.T) {
	app := newTestApp()
	app.Get("/", func(c *fiber.Ctx) error {
		return domain.ValidationErrors{{Field: "difficulty", Message: "must be within 1-5"}}
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	body := decode[ValidationErrorResponse](t, resp)
	assert.Equal(t, "INVALID_INPUT", body.Code)
	require.Len(t, body.Errors, 1)
	assert.Equal(t, "difficulty", body.Errors[0].Field)
}

func multipartRequest(t *testing.T, fileName string, fields map[string]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if fileName != "" {
		fw, err := w.CreateFormFile("file", fileName)
		require.NoError(t, err)
		_, err = fw.Write([]byte("# Titre\ncontenu\n"))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestValidationMiddleware_GenerateForm(t *testing.T) {
	vm := NewValidationMiddleware()
	app := newTestApp()
	app.Post("/", vm.ValidateUpload(), vm.ValidateGenerateForm(), func(c *fiber.Ctx) error {
		req, ok := c.Locals(GenerateRequestKey).(dto.GenerateQuizRequest)
		require.True(t, ok)
		return c.JSON(req)
	})

	resp, err := app.Test(multipartRequest(t, "cours.md", map[string]string{"num_questions": "7", "difficulty": "2", "question_type": "qcm"}))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decode[dto.GenerateQuizRequest](t, resp)
	assert.Equal(t, dto.GenerateQuizRequest{NumQuestions: 7, Difficulty: 2, QuestionType: "qcm"}, got)

	resp, err = app.Test(multipartRequest(t, "cours.md", map[string]string{"difficulty": "9"}))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = app.Test(multipartRequest(t, "", map[string]string{"difficulty": "2"}))
	require.NoError(t, err)
	body := decode[ValidationErrorResponse](t, resp)
	require.Len(t, body.Errors, 1)
	assert.Equal(t, "file", body.Errors[0].Field)

	resp, err = app.Test(multipartRequest(t, "tableur.xlsx", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestValidationMiddleware_ExportFormat(t *testing.T) {
	vm := NewValidationMiddleware()
	app := newTestApp()
	app.Get("/", vm.ValidateExportFormat(), func(c *fiber.Ctx) error {
		return c.SendString(c.Locals(ExportFormatKey).(string))
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "json", string(body))

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/?format=anki", nil))
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	assert.Equal(t, "anki", string(body))

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/?format=pdf", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRequestLogger_RecordsRenderedStatus(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg, reg)

	app := newTestApp()
	app.Use(RequestLogger(m))
	app.Get("/missing/:id", func(c *fiber.Ctx) error { return domain.NewNotFoundError(c.Params("id")) })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/missing/42", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestCounter.WithLabelValues(http.MethodGet, "/missing/:id", "404")))
}
