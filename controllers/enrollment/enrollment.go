package enrollmentController

import (
	"tutorhub/middleware"
	enrollmentModels "tutorhub/models/enrollment"
	enrollmentService "tutorhub/services/enrollment"
	"tutorhub/utils"
	enrollmentValidator "tutorhub/validators/enrollment"

	"github.com/gofiber/fiber/v2"
)

type Controller struct {
	Service *enrollmentService.Service
}

func New(svc *enrollmentService.Service) *Controller {
	return &Controller{Service: svc}
}

// SubmitRequest is public: prospective students need no account.
func (ctl *Controller) SubmitRequest(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedRequest").(*enrollmentValidator.SubmitRequestBody)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	request, err := ctl.Service.SubmitRequest(c.UserContext(), enrollmentService.SubmitInput{
		CourseID:         reqData.CourseID,
		Name:             reqData.Name,
		Email:            reqData.Email,
		Phone:            reqData.Phone,
		PreferredContact: reqData.PreferredContact,
		Message:          reqData.Message,
	})
	if err != nil {
		return middleware.HandleError(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Enrollment request submitted successfully!", request)
}

func (ctl *Controller) ListRequests(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedList").(*enrollmentValidator.RequestListQuery)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}
	page, limit := reqData.Normalized()

	requests, total, err := ctl.Service.ListRequests(c.UserContext(), enrollmentService.RequestFilter{
		Status:   reqData.Status,
		CourseID: reqData.CourseID,
		Page:     enrollmentService.Page{Page: page, Limit: limit},
	})
	if err != nil {
		return middleware.HandleError(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Enrollment requests fetched successfully!", fiber.Map{
		"requests":   requests,
		"pagination": utils.Paginate(total, page, limit),
	})
}

func (ctl *Controller) Approve(c *fiber.Ctx) error {
	userId, _ := c.Locals("userId").(uint)
	requestId, _ := c.Locals("id").(uint)
	reqData, ok := c.Locals("validatedApprove").(*enrollmentValidator.ApproveBody)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	result, err := ctl.Service.Approve(c.UserContext(), enrollmentService.ApproveInput{
		RequestID:     requestId,
		ProcessedByID: userId,
		TutorID:       reqData.TutorID,
		PaymentMethod: reqData.PaymentMethod,
		Amount:        reqData.Amount,
	})
	if err != nil {
		return middleware.HandleError(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Enrollment request approved successfully!", result)
}

func (ctl *Controller) Reject(c *fiber.Ctx) error {
	userId, _ := c.Locals("userId").(uint)
	requestId, _ := c.Locals("id").(uint)
	reqData, ok := c.Locals("validatedReject").(*enrollmentValidator.RejectBody)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	request, err := ctl.Service.Reject(c.UserContext(), requestId, userId, reqData.Reason)
	if err != nil {
		return middleware.HandleError(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Enrollment request rejected successfully!", request)
}

// SelfEnroll enrolls the signed-in student into a published course; the course creator
// tutors them.
func (ctl *Controller) SelfEnroll(c *fiber.Ctx) error {
	userId, _ := c.Locals("userId").(uint)
	courseId, _ := c.Locals("id").(uint)

	result, err := ctl.Service.Enroll(c.UserContext(), enrollmentService.EnrollInput{
		CourseID:      courseId,
		PaymentMethod: enrollmentModels.MethodSelf,
		Source:        enrollmentService.SourceSelf,
	}, enrollmentService.ByUserID{UserID: userId})
	if err != nil {
		return middleware.HandleError(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Enrolled successfully!", result)
}

func (ctl *Controller) DirectEnroll(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedEnroll").(*enrollmentValidator.DirectEnrollBody)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	result, err := ctl.Service.Enroll(c.UserContext(), enrollmentService.EnrollInput{
		CourseID:      reqData.CourseID,
		TutorID:       reqData.TutorID,
		PaymentMethod: reqData.PaymentMethod,
		Amount:        reqData.Amount,
		Source:        enrollmentService.SourceAdmin,
	}, enrollmentService.ByUserID{UserID: reqData.StudentID})
	if err != nil {
		return middleware.HandleError(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Student enrolled successfully!", result)
}

func (ctl *Controller) UpdateStatus(c *fiber.Ctx) error {
	enrollmentId, _ := c.Locals("id").(uint)
	reqData, ok := c.Locals("validatedStatus").(*enrollmentValidator.StatusBody)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	enrollment, err := ctl.Service.UpdateStatus(c.UserContext(), enrollmentId, reqData.Status)
	if err != nil {
		return middleware.HandleError(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Enrollment status updated successfully!", enrollment)
}

func (ctl *Controller) list(c *fiber.Ctx, filter enrollmentService.EnrollmentFilter) error {
	reqData, ok := c.Locals("validatedList").(*enrollmentValidator.EnrollmentListQuery)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}
	page, limit := reqData.Normalized()
	filter.Status = reqData.Status
	filter.Page = enrollmentService.Page{Page: page, Limit: limit}

	enrollments, total, err := ctl.Service.ListEnrollments(c.UserContext(), filter)
	if err != nil {
		return middleware.HandleError(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Enrollments fetched successfully!", fiber.Map{
		"enrollments": enrollments,
		"pagination":  utils.Paginate(total, page, limit),
	})
}

func (ctl *Controller) StudentEnrollments(c *fiber.Ctx) error {
	userId, _ := c.Locals("userId").(uint)
	return ctl.list(c, enrollmentService.EnrollmentFilter{StudentID: userId})
}

func (ctl *Controller) TutorEnrollments(c *fiber.Ctx) error {
	userId, _ := c.Locals("userId").(uint)
	return ctl.list(c, enrollmentService.EnrollmentFilter{TutorID: userId})
}

func (ctl *Controller) CourseEnrollments(c *fiber.Ctx) error {
	courseId, _ := c.Locals("id").(uint)
	return ctl.list(c, enrollmentService.EnrollmentFilter{CourseID: courseId})
}

func (ctl *Controller) GetEnrollment(c *fiber.Ctx) error {
	enrollmentId, _ := c.Locals("id").(uint)
	enrollment, payment, err := ctl.Service.GetEnrollment(c.UserContext(), enrollmentId)
	if err != nil {
		return middleware.HandleError(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Enrollment fetched successfully!", fiber.Map{
		"enrollment": enrollment,
		"payment":    payment,
	})
}
