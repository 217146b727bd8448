package supportRoutes

import (
	supportControllers "tutorhub/controllers/support"
	supportValidator "tutorhub/validators/support"

	"github.com/gofiber/fiber/v2"
)

func SetupSupportRoutes(app *fiber.App, relay supportControllers.Relay, limit fiber.Handler) {
	ctl := supportControllers.New(relay)
	app.Post("/contact", limit, supportValidator.Contact(), ctl.SubmitContact)
}
