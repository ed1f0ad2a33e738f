package httpapi

import (
	"errors"

	"github.com/dmitrijs2005/bkjournal/internal/common"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

func success(c *fiber.Ctx, code int, message string, data any) error {
	return c.Status(code).JSON(fiber.Map{
		"code":    code,
		"status":  "success",
		"message": message,
		"data":    data,
	})
}

func errorResponse(c *fiber.Ctx, code int, errorCode, message string) error {
	return c.Status(code).JSON(fiber.Map{
		"code":       code,
		"status":     "error",
		"error_code": errorCode,
		"message":    message,
	})
}

func validationError(c *fiber.Ctx, err error) error {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return errorResponse(c, fiber.StatusBadRequest, "validation_failed", "invalid input")
	}

	fields := make(map[string]string, len(ve))
	for _, fe := range ve {
		fields[fe.Field()] = fe.Tag()
	}

	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"code":       fiber.StatusBadRequest,
		"status":     "error",
		"error_code": "validation_failed",
		"message":    "invalid input",
		"errors":     fields,
	})
}

// serviceError maps journal service errors to responses. Envelope and
// integrity failures keep distinct codes so operators can tell them apart
// from access errors.
func (s *HTTPServer) serviceError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, common.ErrForbidden):
		return errorResponse(c, fiber.StatusForbidden, "forbidden", "forbidden")
	case errors.Is(err, common.ErrorNotFound):
		return errorResponse(c, fiber.StatusNotFound, "not_found", "journal not found")
	case errors.Is(err, common.ErrValidation):
		return errorResponse(c, fiber.StatusBadRequest, "validation_failed", err.Error())
	case errors.Is(err, common.ErrInvalidAssignment):
		return errorResponse(c, fiber.StatusUnprocessableEntity, "invalid_assignment", err.Error())
	case errors.Is(err, common.ErrInvalidEnvelope):
		return errorResponse(c, fiber.StatusInternalServerError, "invalid_envelope", "stored journal is malformed")
	case errors.Is(err, common.ErrIntegrity):
		return errorResponse(c, fiber.StatusInternalServerError, "integrity_error", "stored journal failed verification")
	default:
		s.logger.Error(c.UserContext(), "request failed", "path", c.Path(), "error", err)
		return errorResponse(c, fiber.StatusInternalServerError, "internal_error", "internal error")
	}
}

func (s *HTTPServer) errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return errorResponse(c, fe.Code, "http_error", fe.Message)
	}
	return s.serviceError(c, err)
}
