package enrollmentService

import (
	"context"
	"time"

	"tutorhub/apperr"
	enrollmentModels "tutorhub/models/enrollment"

	"gorm.io/gorm"
)

// Page is a 1-based page request. Zero values mean the first page of 20.
type Page struct {
	Page  int
	Limit int
}

func (p Page) normalized() (limit, offset int) {
	limit = p.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	page := p.Page
	if page <= 0 {
		page = 1
	}
	return limit, (page - 1) * limit
}

type RequestFilter struct {
	Status   string
	CourseID uint
	Page
}

// ListRequests returns requests newest first.
func (s *Service) ListRequests(ctx context.Context, f RequestFilter) ([]enrollmentModels.EnrollmentRequest, int64, error) {
	scope := func() *gorm.DB {
		q := s.DB.WithContext(ctx).Model(&enrollmentModels.EnrollmentRequest{})
		if f.Status != "" {
			q = q.Where("status = ?", f.Status)
		}
		if f.CourseID != 0 {
			q = q.Where("course_id = ?", f.CourseID)
		}
		return q
	}

	var total int64
	if err := scope().Count(&total).Error; err != nil {
		return nil, 0, apperr.Internal("Failed to count enrollment requests!", err)
	}

	limit, offset := f.normalized()
	var requests []enrollmentModels.EnrollmentRequest
	if err := scope().Order("created_at DESC, id DESC").Limit(limit).Offset(offset).Find(&requests).Error; err != nil {
		return nil, 0, apperr.Internal("Failed to fetch enrollment requests!", err)
	}
	return requests, total, nil
}

type EnrollmentFilter struct {
	StudentID uint
	TutorID   uint
	CourseID  uint
	Status    string
	Page
}

// EnrollmentView is an enrollment joined with the names callers display next to it.
type EnrollmentView struct {
	ID            uint       `json:"id"`
	StudentID     uint       `json:"student_id"`
	CourseID      uint       `json:"course_id"`
	TutorID       uint       `json:"tutor_id"`
	RequestID     *uint      `json:"request_id"`
	Status        string     `json:"status"`
	EnrolledAt    time.Time  `json:"enrolled_at"`
	CompletedAt   *time.Time `json:"completed_at"`
	CancelledAt   *time.Time `json:"cancelled_at"`
	CourseTitle   string     `json:"course_title"`
	StudentName   string     `json:"student_name"`
	StudentEmail  string     `json:"student_email"`
	TutorName     string     `json:"tutor_name"`
	PaymentAmount *int64     `json:"payment_amount"`
	PaymentStatus *string    `json:"payment_status"`
}

// ListEnrollments returns enrollments matching every non-zero filter field, newest first.
func (s *Service) ListEnrollments(ctx context.Context, f EnrollmentFilter) ([]EnrollmentView, int64, error) {
	scope := func() *gorm.DB {
		q := s.DB.WithContext(ctx).Table("course_enrollments AS e").
			Joins("JOIN courses c ON c.id = e.course_id").
			Joins("JOIN users s ON s.id = e.student_id").
			Joins("JOIN users t ON t.id = e.tutor_id").
			Joins("LEFT JOIN payments p ON p.enrollment_id = e.id AND p.deleted_at IS NULL").
			Where("e.deleted_at IS NULL")
		if f.StudentID != 0 {
			q = q.Where("e.student_id = ?", f.StudentID)
		}
		if f.TutorID != 0 {
			q = q.Where("e.tutor_id = ?", f.TutorID)
		}
		if f.CourseID != 0 {
			q = q.Where("e.course_id = ?", f.CourseID)
		}
		if f.Status != "" {
			q = q.Where("e.status = ?", f.Status)
		}
		return q
	}

	var total int64
	if err := scope().Count(&total).Error; err != nil {
		return nil, 0, apperr.Internal("Failed to count enrollments!", err)
	}

	limit, offset := f.normalized()
	var views []EnrollmentView
	err := scope().
		Select(`e.id, e.student_id, e.course_id, e.tutor_id, e.request_id, e.status,
			e.enrolled_at, e.completed_at, e.cancelled_at,
			c.title AS course_title, s.name AS student_name, s.email AS student_email,
			t.name AS tutor_name, p.amount AS payment_amount, p.status AS payment_status`).
		Order("e.enrolled_at DESC, e.id DESC").
		Limit(limit).Offset(offset).
		Scan(&views).Error
	if err != nil {
		return nil, 0, apperr.Internal("Failed to fetch enrollments!", err)
	}
	return views, total, nil
}

// GetEnrollment loads one enrollment with its payment.
func (s *Service) GetEnrollment(ctx context.Context, id uint) (*enrollmentModels.CourseEnrollment, *enrollmentModels.Payment, error) {
	db := s.DB.WithContext(ctx)
	var enrollment enrollmentModels.CourseEnrollment
	if err := db.First(&enrollment, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil, ErrEnrollmentNotFound
		}
		return nil, nil, apperr.Internal("Failed to load enrollment!", err)
	}
	var payment enrollmentModels.Payment
	if err := db.Where("enrollment_id = ?", enrollment.ID).First(&payment).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return &enrollment, nil, nil
		}
		return nil, nil, apperr.Internal("Failed to load payment!", err)
	}
	return &enrollment, &payment, nil
}
