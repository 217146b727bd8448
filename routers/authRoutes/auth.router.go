package authRoutes

import (
	authController "tutorhub/controllers/auth"
	"tutorhub/middleware"
	authValidator "tutorhub/validators/auth"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func SetupAuthRoutes(app *fiber.App, db *gorm.DB, limit fiber.Handler) {
	ctl := authController.New(db)
	signedIn := middleware.RequireRoles(db)
	authGroup := app.Group("/auth")

	authGroup.Post("/signup", limit, authValidator.Signup(), ctl.Signup)
	authGroup.Post("/login", limit, authValidator.Login(), ctl.Login)
	authGroup.Post("/logout", ctl.Logout)
	authGroup.Get("/me", middleware.JWTMiddleware, signedIn, ctl.Me)
	authGroup.Put("/me", middleware.JWTMiddleware, signedIn, authValidator.UpdateProfile(), ctl.UpdateProfile)
	authGroup.Get("/login/history", middleware.JWTMiddleware, authValidator.LoginHistoryList(), ctl.LoginHistoryList)
	authGroup.Put("/change/password", middleware.JWTMiddleware, signedIn, authValidator.ChangePassword(), ctl.ChangePassword)
}
