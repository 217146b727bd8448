package userRoutes

import (
	userController "tutorhub/controllers/userControllers"
	"tutorhub/middleware"
	"tutorhub/models"
	"tutorhub/validators"
	userValidator "tutorhub/validators/userValidator"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// SetupUserRoutes registers account management for admins and owners.
func SetupUserRoutes(app *fiber.App, db *gorm.DB) {
	ctl := userController.New(db)
	admins := middleware.RequireRoles(db, models.RoleAdmin, models.RoleOwner)
	userGroup := app.Group("/admin/users")

	userGroup.Get("/", middleware.JWTMiddleware, admins, userValidator.UserList(), ctl.ListUsers)
	userGroup.Post("/", middleware.JWTMiddleware, admins, userValidator.CreateUser(), ctl.CreateUser)
	userGroup.Get("/:id", middleware.JWTMiddleware, admins, validators.ParamID("id"), ctl.GetUser)
	userGroup.Put("/:id", middleware.JWTMiddleware, admins, validators.ParamID("id"), userValidator.UpdateUser(), ctl.UpdateUser)
	userGroup.Delete("/:id", middleware.JWTMiddleware, admins, validators.ParamID("id"), ctl.DeleteUser)
}
