package enrollmentValidator

import (
	"tutorhub/validators"

	"github.com/gofiber/fiber/v2"
)

type SubmitRequestBody struct {
	CourseID         uint   `json:"course_id" validate:"required"`
	Name             string `json:"name" validate:"required,min=2,max=120"`
	Email            string `json:"email" validate:"required,email"`
	Phone            string `json:"phone" validate:"required,min=5,max=30"`
	PreferredContact string `json:"preferred_contact" validate:"required"`
	Message          string `json:"message" validate:"max=2000"`
}

// SubmitRequest checks shape only; channel and duplicate rules live in the service.
func SubmitRequest() fiber.Handler {
	return validators.Body[SubmitRequestBody]("validatedRequest")
}

type RequestListQuery struct {
	Status   string `query:"status" validate:"omitempty,oneof=PENDING APPROVED REJECTED"`
	CourseID uint   `query:"course_id"`
	validators.Pagination
}

func RequestList() fiber.Handler {
	return validators.Query[RequestListQuery]("validatedList")
}

type ApproveBody struct {
	TutorID       uint   `json:"tutor_id"`
	PaymentMethod string `json:"payment_method" validate:"omitempty,oneof=MANUAL CASH CARD BANK_TRANSFER"`
	Amount        *int64 `json:"amount" validate:"omitempty,gte=0"`
}

func Approve() fiber.Handler {
	return validators.Body[ApproveBody]("validatedApprove")
}

type RejectBody struct {
	Reason string `json:"reason" validate:"max=500"`
}

func Reject() fiber.Handler {
	return validators.Body[RejectBody]("validatedReject")
}

type DirectEnrollBody struct {
	StudentID     uint   `json:"student_id" validate:"required"`
	CourseID      uint   `json:"course_id" validate:"required"`
	TutorID       uint   `json:"tutor_id"`
	PaymentMethod string `json:"payment_method" validate:"omitempty,oneof=MANUAL CASH CARD BANK_TRANSFER"`
	Amount        *int64 `json:"amount" validate:"omitempty,gte=0"`
}

func DirectEnroll() fiber.Handler {
	return validators.Body[DirectEnrollBody]("validatedEnroll")
}

type StatusBody struct {
	Status string `json:"status" validate:"required,oneof=CANCELLED COMPLETED"`
}

func UpdateStatus() fiber.Handler {
	return validators.Body[StatusBody]("validatedStatus")
}

type EnrollmentListQuery struct {
	Status string `query:"status" validate:"omitempty,oneof=ACTIVE CANCELLED COMPLETED"`
	validators.Pagination
}

func EnrollmentList() fiber.Handler {
	return validators.Query[EnrollmentListQuery]("validatedList")
}
