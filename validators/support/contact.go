package supportValidator

import (
	"strings"

	"tutorhub/validators"

	"github.com/gofiber/fiber/v2"
)

type ContactBody struct {
	Name    string `json:"name" validate:"required,max=100"`
	Email   string `json:"email" validate:"required,email"`
	Subject string `json:"subject" validate:"max=200"`
	Message string `json:"message" validate:"required,min=5,max=5000"`
}

// Contact validator middleware
func Contact() fiber.Handler {
	return validators.Body[ContactBody]("validatedContact", func(req *ContactBody, errs map[string]string) {
		req.Name = strings.TrimSpace(req.Name)
		req.Email = strings.TrimSpace(req.Email)
		req.Message = strings.TrimSpace(req.Message)
	})
}
