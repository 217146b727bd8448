package courseRoutes

import (
	courseController "tutorhub/controllers/course"
	"tutorhub/middleware"
	"tutorhub/models"
	"tutorhub/validators"
	courseValidator "tutorhub/validators/course"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// SetupCourseRoutes registers the public catalog and the tutor/staff authoring routes.
func SetupCourseRoutes(app *fiber.App, db *gorm.DB) {
	ctl := courseController.New(db)
	id := validators.ParamID("id")

	// Public catalog, published courses only
	catalog := app.Group("/courses")
	catalog.Get("/", courseValidator.CourseList(), ctl.ListPublished)
	catalog.Get("/:id", id, ctl.GetPublished)

	authors := middleware.RequireRoles(db, append([]string{models.RoleTutor}, models.StaffRoles...)...)
	manage := app.Group("/manage")

	manage.Get("/courses", middleware.JWTMiddleware, authors, courseValidator.CourseList(), ctl.ListManaged)
	manage.Post("/courses", middleware.JWTMiddleware, authors, courseValidator.CreateCourse(), ctl.CreateCourse)
	manage.Get("/courses/:id", middleware.JWTMiddleware, authors, id, ctl.GetManaged)
	manage.Put("/courses/:id", middleware.JWTMiddleware, authors, id, courseValidator.UpdateCourse(), ctl.UpdateCourse)
	manage.Patch("/courses/:id/publish", middleware.JWTMiddleware, authors, id, courseValidator.PublishCourse(), ctl.PublishCourse)
	manage.Delete("/courses/:id", middleware.JWTMiddleware, authors, id, ctl.DeleteCourse)

	manage.Post("/courses/:id/topics", middleware.JWTMiddleware, authors, id, courseValidator.Topic(), ctl.CreateTopic)
	manage.Put("/topics/:id", middleware.JWTMiddleware, authors, id, courseValidator.Topic(), ctl.UpdateTopic)
	manage.Delete("/topics/:id", middleware.JWTMiddleware, authors, id, ctl.DeleteTopic)

	manage.Post("/topics/:id/subtopics", middleware.JWTMiddleware, authors, id, courseValidator.Subtopic(), ctl.CreateSubtopic)
	manage.Put("/subtopics/:id", middleware.JWTMiddleware, authors, id, courseValidator.Subtopic(), ctl.UpdateSubtopic)
	manage.Delete("/subtopics/:id", middleware.JWTMiddleware, authors, id, ctl.DeleteSubtopic)

	manage.Post("/subtopics/:id/materials", middleware.JWTMiddleware, authors, id, courseValidator.Material(), ctl.CreateMaterial)
	manage.Put("/materials/:id", middleware.JWTMiddleware, authors, id, courseValidator.Material(), ctl.UpdateMaterial)
	manage.Delete("/materials/:id", middleware.JWTMiddleware, authors, id, ctl.DeleteMaterial)

	manage.Post("/topics/:id/tests", middleware.JWTMiddleware, authors, id, courseValidator.Test(), ctl.CreateTest)
	manage.Put("/tests/:id", middleware.JWTMiddleware, authors, id, courseValidator.Test(), ctl.UpdateTest)
	manage.Delete("/tests/:id", middleware.JWTMiddleware, authors, id, ctl.DeleteTest)
}
