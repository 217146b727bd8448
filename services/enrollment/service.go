// Package enrollmentService runs the enrollment workflow: requests, approval,
// rejection and direct enrollment. Every path that creates an enrollment goes
// through Enroll so capacity and duplicate checks live in one place.
package enrollmentService

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"tutorhub/apperr"
	"tutorhub/metrics"
	"tutorhub/models"
	courseModels "tutorhub/models/course"
	enrollmentModels "tutorhub/models/enrollment"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const DefaultTutorCapacity = 40

var validate = validator.New()

// Notifier is told about workflow events after their transaction commits.
type Notifier interface {
	RequestSubmitted(req enrollmentModels.EnrollmentRequest, course courseModels.Course)
	EnrollmentCreated(res Result)
	RequestRejected(req enrollmentModels.EnrollmentRequest, course courseModels.Course)
}

// PointsAwarder credits gamification points for a new enrollment.
type PointsAwarder interface {
	AwardEnrollment(ctx context.Context, studentID, enrollmentID uint) error
}

type Service struct {
	DB            *gorm.DB
	TutorCapacity int
	Notifier      Notifier
	Points        PointsAwarder
	HashPassword  func(string) (string, error)
	Now           func() time.Time
}

func New(db *gorm.DB, tutorCapacity int) *Service {
	return &Service{DB: db, TutorCapacity: tutorCapacity}
}

// Result is everything one enrollment produced.
type Result struct {
	Enrollment enrollmentModels.CourseEnrollment   `json:"enrollment"`
	Payment    enrollmentModels.Payment            `json:"payment"`
	Student    models.User                         `json:"student"`
	Course     courseModels.Course                 `json:"course"`
	Request    *enrollmentModels.EnrollmentRequest `json:"request,omitempty"`
}

type SubmitInput struct {
	CourseID         uint
	Name             string
	Email            string
	Phone            string
	PreferredContact string
	Message          string
}

func (in *SubmitInput) normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Phone = strings.TrimSpace(in.Phone)
	in.PreferredContact = strings.ToUpper(strings.TrimSpace(in.PreferredContact))
	in.Message = strings.TrimSpace(in.Message)
}

func (in SubmitInput) validate() map[string]string {
	fields := map[string]string{}
	if in.CourseID == 0 {
		fields["course_id"] = "course_id is required"
	}
	if in.Name == "" {
		fields["name"] = "name is required"
	}
	if in.Email == "" {
		fields["email"] = "email is required"
	} else if err := validate.Var(in.Email, "email"); err != nil {
		fields["email"] = "email must be a valid email address"
	}
	if in.Phone == "" {
		fields["phone"] = "phone is required"
	}
	if in.PreferredContact == "" {
		fields["preferred_contact"] = "preferred_contact is required"
	} else if !contains(enrollmentModels.ContactChannels, in.PreferredContact) {
		fields["preferred_contact"] = "preferred_contact must be one of " + strings.Join(enrollmentModels.ContactChannels, ", ")
	}
	return fields
}

// SubmitRequest records a PENDING enrollment request. Only one pending request per
// course and email may exist at a time.
func (s *Service) SubmitRequest(ctx context.Context, in SubmitInput) (*enrollmentModels.EnrollmentRequest, error) {
	in.normalize()
	if fields := in.validate(); len(fields) > 0 {
		metrics.ObserveEnrollmentRequest("invalid")
		return nil, apperr.ValidationFields(fields)
	}

	db := s.DB.WithContext(ctx)

	var course courseModels.Course
	if err := db.First(&course, in.CourseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, apperr.Internal("Failed to load course!", err)
	}

	var pending int64
	if err := db.Model(&enrollmentModels.EnrollmentRequest{}).
		Where("course_id = ? AND email = ? AND status = ?", course.ID, in.Email, enrollmentModels.RequestPending).
		Count(&pending).Error; err != nil {
		return nil, apperr.Internal("Failed to check existing requests!", err)
	}
	if pending > 0 {
		metrics.ObserveEnrollmentRequest("duplicate")
		return nil, ErrDuplicateRequest
	}

	req := enrollmentModels.EnrollmentRequest{
		Reference:        uuid.NewString(),
		CourseID:         course.ID,
		Name:             in.Name,
		Email:            in.Email,
		Phone:            in.Phone,
		PreferredContact: in.PreferredContact,
		Message:          in.Message,
		Status:           enrollmentModels.RequestPending,
	}
	if err := db.Create(&req).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			metrics.ObserveEnrollmentRequest("duplicate")
			return nil, ErrDuplicateRequest
		}
		return nil, apperr.Internal("Failed to save enrollment request!", err)
	}

	metrics.ObserveEnrollmentRequest("submitted")
	log.Printf("[ENROLLMENT] Request %s submitted for course %d by %s", req.Reference, course.ID, req.Email)
	if s.Notifier != nil {
		go s.Notifier.RequestSubmitted(req, course)
	}
	return &req, nil
}

// Enrollment sources. A student enrolling themselves may only join published courses.
const (
	SourceSelf     = "self"
	SourceAdmin    = "admin"
	sourceApproval = "approval"
)

type EnrollInput struct {
	CourseID      uint
	TutorID       uint   // 0 assigns the course creator
	PaymentMethod string // empty records MANUAL
	Amount        *int64 // nil charges the course price
	Source        string // SourceSelf or SourceAdmin; empty counts as SourceAdmin

	requestID *uint
}

// Enroll creates an ACTIVE enrollment and its PAID payment in one transaction.
// The course and tutor rows are locked first so concurrent enrollments against the
// same tutor or course serialize and the capacity checks see committed counts.
func (s *Service) Enroll(ctx context.Context, in EnrollInput, resolver StudentResolver) (*Result, error) {
	var res *Result
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		res, err = s.enroll(tx, in, resolver)
		return err
	})
	source := in.Source
	if source != SourceSelf {
		source = SourceAdmin
	}
	metrics.ObserveDirectEnrollment(source, resultLabel(err))
	if err != nil {
		return nil, err
	}
	s.afterEnroll(ctx, res)
	return res, nil
}

func (s *Service) enroll(tx *gorm.DB, in EnrollInput, resolver StudentResolver) (*Result, error) {
	if in.Amount != nil && *in.Amount < 0 {
		return nil, ErrInvalidAmount
	}
	method := strings.ToUpper(strings.TrimSpace(in.PaymentMethod))
	if method == "" {
		method = enrollmentModels.MethodManual
	}
	if !contains(enrollmentModels.PaymentMethods, method) {
		return nil, apperr.ValidationFields(map[string]string{
			"payment_method": "payment_method must be one of " + strings.Join(enrollmentModels.PaymentMethods, ", "),
		})
	}

	var course courseModels.Course
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&course, in.CourseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, apperr.Internal("Failed to load course!", err)
	}
	if in.Source == SourceSelf && course.Status != courseModels.StatusActive {
		return nil, ErrCourseNotPublished
	}

	student, err := resolver.ResolveStudent(tx)
	if err != nil {
		return nil, err
	}

	tutorID := in.TutorID
	if tutorID == 0 {
		tutorID = course.CreatedByID
	}
	var tutor models.User
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&tutor, tutorID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTutorNotFound
		}
		return nil, apperr.Internal("Failed to load tutor!", err)
	}
	if !tutor.HasRole(append([]string{models.RoleTutor}, models.StaffRoles...)...) {
		return nil, ErrInvalidTutor
	}

	active := func() *gorm.DB {
		return tx.Model(&enrollmentModels.CourseEnrollment{}).Where("status = ?", enrollmentModels.StatusActive)
	}

	var existing int64
	if err := active().Where("student_id = ? AND course_id = ?", student.ID, course.ID).Count(&existing).Error; err != nil {
		return nil, apperr.Internal("Failed to check existing enrollment!", err)
	}
	if existing > 0 {
		return nil, ErrAlreadyEnrolled
	}

	var tutorLoad int64
	if err := active().Where("tutor_id = ?", tutor.ID).Count(&tutorLoad).Error; err != nil {
		return nil, apperr.Internal("Failed to count tutor students!", err)
	}
	if tutorLoad >= int64(s.capacity()) {
		return nil, ErrTutorAtCapacity
	}

	if course.MaxStudents > 0 {
		var seats int64
		if err := active().Where("course_id = ?", course.ID).Count(&seats).Error; err != nil {
			return nil, apperr.Internal("Failed to count course students!", err)
		}
		if seats >= int64(course.MaxStudents) {
			return nil, ErrCourseFull
		}
	}

	now := s.now()
	enrollment := enrollmentModels.CourseEnrollment{
		StudentID:  student.ID,
		CourseID:   course.ID,
		TutorID:    tutor.ID,
		RequestID:  in.requestID,
		Status:     enrollmentModels.StatusActive,
		EnrolledAt: now,
	}
	if err := tx.Create(&enrollment).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrAlreadyEnrolled
		}
		return nil, apperr.Internal("Failed to create enrollment!", err)
	}

	amount := course.Price
	if in.Amount != nil {
		amount = *in.Amount
	}
	payment := enrollmentModels.Payment{
		Reference:    uuid.NewString(),
		EnrollmentID: enrollment.ID,
		Amount:       amount,
		Method:       method,
		Status:       enrollmentModels.PaymentPaid,
		PaidAt:       &now,
	}
	if err := tx.Create(&payment).Error; err != nil {
		return nil, apperr.Internal("Failed to record payment!", err)
	}

	return &Result{Enrollment: enrollment, Payment: payment, Student: *student, Course: course}, nil
}

type ApproveInput struct {
	RequestID     uint
	ProcessedByID uint
	TutorID       uint
	PaymentMethod string
	Amount        *int64
}

// Approve turns a PENDING request into an enrollment. The request row is locked so a
// second approval waits and then sees the request already processed.
func (s *Service) Approve(ctx context.Context, in ApproveInput) (*Result, error) {
	var res *Result
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var req enrollmentModels.EnrollmentRequest
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&req, in.RequestID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRequestNotFound
			}
			return apperr.Internal("Failed to load enrollment request!", err)
		}
		if req.Status != enrollmentModels.RequestPending {
			return ErrAlreadyProcessed
		}

		r, err := s.enroll(tx, EnrollInput{
			CourseID:      req.CourseID,
			TutorID:       in.TutorID,
			PaymentMethod: in.PaymentMethod,
			Amount:        in.Amount,
			Source:        sourceApproval,
			requestID:     &req.ID,
		}, ByContact{Name: req.Name, Email: req.Email, Phone: req.Phone, HashPassword: s.HashPassword})
		if err != nil {
			return err
		}

		now := s.now()
		req.Status = enrollmentModels.RequestApproved
		req.ProcessedAt = &now
		req.ProcessedByID = &in.ProcessedByID
		req.EnrollmentID = &r.Enrollment.ID
		if err := tx.Save(&req).Error; err != nil {
			return apperr.Internal("Failed to update enrollment request!", err)
		}

		r.Request = &req
		res = r
		return nil
	})
	metrics.ObserveApproval(resultLabel(err))
	if err != nil {
		return nil, err
	}
	log.Printf("[ENROLLMENT] Request %s approved by user %d", res.Request.Reference, in.ProcessedByID)
	s.afterEnroll(ctx, res)
	return res, nil
}

// Reject closes a PENDING request without creating anything else.
func (s *Service) Reject(ctx context.Context, requestID, processedByID uint, reason string) (*enrollmentModels.EnrollmentRequest, error) {
	var req enrollmentModels.EnrollmentRequest
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&req, requestID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRequestNotFound
			}
			return apperr.Internal("Failed to load enrollment request!", err)
		}
		if req.Status != enrollmentModels.RequestPending {
			return ErrAlreadyProcessed
		}

		now := s.now()
		req.Status = enrollmentModels.RequestRejected
		req.ProcessedAt = &now
		req.ProcessedByID = &processedByID
		req.RejectionReason = strings.TrimSpace(reason)
		if err := tx.Save(&req).Error; err != nil {
			return apperr.Internal("Failed to update enrollment request!", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[ENROLLMENT] Request %s rejected by user %d", req.Reference, processedByID)
	if s.Notifier != nil {
		var course courseModels.Course
		if err := s.DB.WithContext(ctx).First(&course, req.CourseID).Error; err == nil {
			go s.Notifier.RequestRejected(req, course)
		}
	}
	return &req, nil
}

// UpdateStatus moves an ACTIVE enrollment to CANCELLED or COMPLETED. Both are terminal.
func (s *Service) UpdateStatus(ctx context.Context, enrollmentID uint, status string) (*enrollmentModels.CourseEnrollment, error) {
	status = strings.ToUpper(strings.TrimSpace(status))
	if status != enrollmentModels.StatusCancelled && status != enrollmentModels.StatusCompleted {
		return nil, ErrInvalidStatus
	}

	var enrollment enrollmentModels.CourseEnrollment
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&enrollment, enrollmentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrEnrollmentNotFound
			}
			return apperr.Internal("Failed to load enrollment!", err)
		}
		if enrollment.Status != enrollmentModels.StatusActive {
			return ErrNotActive
		}

		now := s.now()
		enrollment.Status = status
		if status == enrollmentModels.StatusCompleted {
			enrollment.CompletedAt = &now
		} else {
			enrollment.CancelledAt = &now
		}
		if err := tx.Save(&enrollment).Error; err != nil {
			return apperr.Internal("Failed to update enrollment!", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Printf("[ENROLLMENT] Enrollment %d is now %s", enrollment.ID, status)
	return &enrollment, nil
}

// afterEnroll runs side effects that must not roll back the enrollment.
func (s *Service) afterEnroll(ctx context.Context, res *Result) {
	log.Printf("[ENROLLMENT] Student %d enrolled in course %d with tutor %d", res.Student.ID, res.Course.ID, res.Enrollment.TutorID)
	if s.Points != nil {
		if err := s.Points.AwardEnrollment(ctx, res.Student.ID, res.Enrollment.ID); err != nil {
			log.Printf("[ENROLLMENT] Failed to award points for enrollment %d: %v", res.Enrollment.ID, err)
		}
	}
	if s.Notifier != nil {
		go s.Notifier.EnrollmentCreated(*res)
	}
}

func (s *Service) capacity() int {
	if s.TutorCapacity <= 0 {
		return DefaultTutorCapacity
	}
	return s.TutorCapacity
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func contains(list []string, value string) bool {
	for _, v := range list {
		if v == value {
			return true
		}
	}
	return false
}
