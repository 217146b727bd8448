package superAdminController

import (
	"tutorhub/middleware"
	reportingService "tutorhub/services/reporting"

	"github.com/gofiber/fiber/v2"
)

type Controller struct {
	Service *reportingService.Service
}

func New(svc *reportingService.Service) *Controller {
	return &Controller{Service: svc}
}

func (ctl *Controller) GetDashboardStats(c *fiber.Ctx) error {
	stats, err := ctl.Service.Stats(c.UserContext())
	if err != nil {
		return middleware.HandleError(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Dashboard stats fetched successfully!", stats)
}

func (ctl *Controller) GetTutorLoads(c *fiber.Ctx) error {
	loads, err := ctl.Service.TutorLoads(c.UserContext())
	if err != nil {
		return middleware.HandleError(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Tutor loads fetched successfully!", loads)
}

func (ctl *Controller) GetCourseLoads(c *fiber.Ctx) error {
	loads, err := ctl.Service.CourseLoads(c.UserContext())
	if err != nil {
		return middleware.HandleError(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course loads fetched successfully!", loads)
}
