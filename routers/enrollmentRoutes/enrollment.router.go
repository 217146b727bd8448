package enrollmentRoutes

import (
	enrollmentController "tutorhub/controllers/enrollment"
	"tutorhub/middleware"
	"tutorhub/models"
	enrollmentService "tutorhub/services/enrollment"
	"tutorhub/validators"
	enrollmentValidator "tutorhub/validators/enrollment"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func SetupEnrollmentRoutes(app *fiber.App, db *gorm.DB, svc *enrollmentService.Service, limit fiber.Handler) {
	ctl := enrollmentController.New(svc)
	id := validators.ParamID("id")
	staff := middleware.RequireRoles(db, models.StaffRoles...)
	students := middleware.RequireRoles(db, models.RoleStudent)
	tutors := middleware.RequireRoles(db, models.RoleTutor)

	// Prospective students submit without an account
	app.Post("/enrollment-requests", limit, enrollmentValidator.SubmitRequest(), ctl.SubmitRequest)

	admin := app.Group("/admin")
	admin.Get("/enrollment-requests", middleware.JWTMiddleware, staff, enrollmentValidator.RequestList(), ctl.ListRequests)
	admin.Post("/enrollment-requests/:id/approve", middleware.JWTMiddleware, staff, id, enrollmentValidator.Approve(), ctl.Approve)
	admin.Post("/enrollment-requests/:id/reject", middleware.JWTMiddleware, staff, id, enrollmentValidator.Reject(), ctl.Reject)
	admin.Post("/enrollments", middleware.JWTMiddleware, staff, enrollmentValidator.DirectEnroll(), ctl.DirectEnroll)
	admin.Get("/enrollments/:id", middleware.JWTMiddleware, staff, id, ctl.GetEnrollment)
	admin.Patch("/enrollments/:id/status", middleware.JWTMiddleware, staff, id, enrollmentValidator.UpdateStatus(), ctl.UpdateStatus)
	admin.Get("/courses/:id/enrollments", middleware.JWTMiddleware, staff, id, enrollmentValidator.EnrollmentList(), ctl.CourseEnrollments)

	student := app.Group("/student")
	student.Post("/courses/:id/enroll", middleware.JWTMiddleware, students, id, ctl.SelfEnroll)
	student.Get("/enrollments", middleware.JWTMiddleware, students, enrollmentValidator.EnrollmentList(), ctl.StudentEnrollments)

	app.Get("/tutor/enrollments", middleware.JWTMiddleware, tutors, enrollmentValidator.EnrollmentList(), ctl.TutorEnrollments)
}
