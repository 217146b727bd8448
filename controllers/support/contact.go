package supportControllers

import (
	"context"
	"errors"
	"log"

	"tutorhub/middleware"
	"tutorhub/utils"
	supportValidator "tutorhub/validators/support"

	"github.com/gofiber/fiber/v2"
)

// Relay delivers contact form submissions.
type Relay interface {
	Send(ctx context.Context, form utils.ContactForm) error
}

type Controller struct {
	Relay Relay
}

func New(relay Relay) *Controller {
	return &Controller{Relay: relay}
}

// SubmitContact forwards the form. Nothing is stored locally.
func (ctl *Controller) SubmitContact(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedContact").(*supportValidator.ContactBody)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	err := ctl.Relay.Send(c.UserContext(), utils.ContactForm{
		Name:    reqData.Name,
		Email:   reqData.Email,
		Subject: reqData.Subject,
		Message: reqData.Message,
	})
	switch {
	case err == nil:
		return middleware.JsonResponse(c, fiber.StatusOK, true, "Message sent successfully!", nil)
	case errors.Is(err, utils.ErrRelayNotConfigured):
		return middleware.JsonResponse(c, fiber.StatusServiceUnavailable, false, "Contact form is not available!", nil)
	default:
		log.Printf("[CONTACT] relay failed for %s: %v", reqData.Email, err)
		return middleware.JsonResponse(c, fiber.StatusBadGateway, false, "Failed to deliver message", nil)
	}
}
