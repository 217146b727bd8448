package middleware

import (
	"errors"
	"log"

	"tutorhub/apperr"

	"github.com/gofiber/fiber/v2"
)

func JsonResponse(c *fiber.Ctx, statusCode int, status bool, message string, data interface{}) error {
	return c.Status(statusCode).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"data":    data,
	})
}

func ValidationErrorResponse(c *fiber.Ctx, errors map[string]string) error {
	return JsonResponse(c, fiber.StatusBadRequest, false, "Validation failed!", errors)
}

// StatusFor maps an error kind to its HTTP status. Business-rule conflicts answer 400.
func StatusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation, apperr.KindConflict:
		return fiber.StatusBadRequest
	case apperr.KindUnauthorized:
		return fiber.StatusUnauthorized
	case apperr.KindForbidden:
		return fiber.StatusForbidden
	case apperr.KindNotFound:
		return fiber.StatusNotFound
	default:
		return fiber.StatusInternalServerError
	}
}

// HandleError writes err using the JSON envelope. Internal errors are logged with their
// cause and answered with a generic message.
func HandleError(c *fiber.Ctx, err error) error {
	var appErr *apperr.Error
	if !errors.As(err, &appErr) || appErr.Kind == apperr.KindInternal {
		log.Printf("[ERROR] %s %s: %v", c.Method(), c.Path(), err)
		return JsonResponse(c, fiber.StatusInternalServerError, false, "Something went wrong, please try again later!", nil)
	}
	if appErr.Fields != nil {
		return JsonResponse(c, StatusFor(appErr.Kind), false, appErr.Message, appErr.Fields)
	}
	return JsonResponse(c, StatusFor(appErr.Kind), false, appErr.Message, nil)
}

// ErrorHandler is installed as fiber.Config.ErrorHandler so stray errors share the envelope.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return JsonResponse(c, fiberErr.Code, false, fiberErr.Message, nil)
	}
	return HandleError(c, err)
}
