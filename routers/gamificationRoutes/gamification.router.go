package gamificationRoutes

import (
	gamificationController "tutorhub/controllers/gamification"
	"tutorhub/middleware"
	"tutorhub/models"
	gamificationService "tutorhub/services/gamification"
	"tutorhub/validators"
	gamificationValidator "tutorhub/validators/gamification"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func SetupGamificationRoutes(app *fiber.App, db *gorm.DB, ledger *gamificationService.Ledger) {
	ctl := gamificationController.New(ledger)
	id := validators.ParamID("id")
	staff := middleware.RequireRoles(db, models.StaffRoles...)

	app.Get("/leaderboard", gamificationValidator.Leaderboard(), ctl.Leaderboard)
	app.Get("/achievements", ctl.ListAchievements)
	app.Get("/challenges", gamificationValidator.ChallengeList(), ctl.ListChallenges)
	app.Post("/challenges/:id/complete", middleware.JWTMiddleware, middleware.RequireRoles(db, models.RoleStudent), id, ctl.CompleteChallenge)

	me := app.Group("/me")
	me.Get("/points", middleware.JWTMiddleware, gamificationValidator.History(), ctl.MyPoints)
	me.Get("/achievements", middleware.JWTMiddleware, ctl.MyAchievements)

	admin := app.Group("/admin")
	admin.Post("/points", middleware.JWTMiddleware, staff, gamificationValidator.AwardPoints(), ctl.AwardPoints)
	admin.Post("/achievements", middleware.JWTMiddleware, staff, gamificationValidator.Achievement(), ctl.CreateAchievement)
	admin.Delete("/achievements/:id", middleware.JWTMiddleware, staff, id, ctl.DeleteAchievement)
	admin.Post("/challenges", middleware.JWTMiddleware, staff, gamificationValidator.Challenge(), ctl.CreateChallenge)
}
