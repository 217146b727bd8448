package chatRoutes

import (
	chatController "tutorhub/controllers/chat"
	"tutorhub/middleware"
	chatService "tutorhub/services/chat"
	"tutorhub/validators"
	chatValidator "tutorhub/validators/chat"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func SetupChatRoutes(app *fiber.App, db *gorm.DB, svc *chatService.Service) {
	ctl := chatController.New(svc)
	id := validators.ParamID("id")
	chatGroup := app.Group("/chats")

	chatGroup.Post("/", middleware.JWTMiddleware, chatValidator.CreateChat(), ctl.CreateChat)
	chatGroup.Get("/", middleware.JWTMiddleware, ctl.ListChats)
	chatGroup.Get("/:id/messages", middleware.JWTMiddleware, id, chatValidator.MessageList(), ctl.ListMessages)
	chatGroup.Post("/:id/messages", middleware.JWTMiddleware, id, chatValidator.PostMessage(), ctl.PostMessage)
	chatGroup.Post("/:id/read", middleware.JWTMiddleware, id, chatValidator.MarkRead(), ctl.MarkRead)
	// The service needs the actor's role to allow staff
	chatGroup.Post("/:id/participants", middleware.JWTMiddleware, middleware.RequireRoles(db), id, chatValidator.AddParticipant(), ctl.AddParticipant)
}
