package middleware

import (
	"quiz-doc/internal/domain"
	"quiz-doc/internal/dto"
	"quiz-doc/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// Locals keys set by the validation middleware.
const (
	GenerateRequestKey = "validated_generate_request"
	ExportFormatKey    = "validated_export_format"
)

// ValidationMiddleware provides request validation middleware
type ValidationMiddleware struct {
	validator *validation.Validator
}

// NewValidationMiddleware creates a new validation middleware instance
func NewValidationMiddleware() *ValidationMiddleware {
	return &ValidationMiddleware{
		validator: validation.NewValidator(),
	}
}

// ValidateUpload requires a multipart "file" field with a supported extension.
func (vm *ValidationMiddleware) ValidateUpload() fiber.Handler {
	return func(c *fiber.Ctx) error {
		file, err := c.FormFile("file")
		if err != nil {
			return domain.ValidationErrors{{Field: "file", Message: "is required"}}
		}
		if errors := vm.validator.ValidateUpload(file.Filename); len(errors) > 0 {
			return errors // This will be handled by ErrorHandler middleware
		}
		return c.Next()
	}
}

// ValidateGenerateForm parses and validates the generation form fields.
func (vm *ValidationMiddleware) ValidateGenerateForm() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req dto.GenerateQuizRequest
		if err := c.BodyParser(&req); err != nil {
			return domain.ValidationErrors{{Field: "form", Message: err.Error()}}
		}
		if errors := vm.validator.ValidateGenerateRequest(req); len(errors) > 0 {
			return errors
		}

		// Store validated value in context for handlers to use
		c.Locals(GenerateRequestKey, req)
		return c.Next()
	}
}

// ValidateExportFormat validates the format query parameter, json by default.
func (vm *ValidationMiddleware) ValidateExportFormat() fiber.Handler {
	return func(c *fiber.Ctx) error {
		format := c.Query("format", string(domain.ExportJSON))
		if errors := vm.validator.ValidateExportFormat(format); len(errors) > 0 {
			return errors
		}
		c.Locals(ExportFormatKey, format)
		return c.Next()
	}
}
