package superAdminRoutes

import (
	superAdminController "tutorhub/controllers/superAdmin"
	"tutorhub/middleware"
	"tutorhub/models"
	reportingService "tutorhub/services/reporting"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func SetupSuperAdminRoutes(app *fiber.App, db *gorm.DB, svc *reportingService.Service) {
	ctl := superAdminController.New(svc)
	staff := middleware.RequireRoles(db, models.StaffRoles...)
	dashboard := app.Group("/admin/dashboard")

	dashboard.Get("/stats", middleware.JWTMiddleware, staff, ctl.GetDashboardStats)
	dashboard.Get("/tutors", middleware.JWTMiddleware, staff, ctl.GetTutorLoads)
	dashboard.Get("/courses", middleware.JWTMiddleware, staff, ctl.GetCourseLoads)
}
