// Package reportingService aggregates dashboard figures. It only reads.
package reportingService

import (
	"context"
	"time"

	"tutorhub/apperr"
	"tutorhub/models"
	courseModels "tutorhub/models/course"
	enrollmentModels "tutorhub/models/enrollment"

	"gorm.io/gorm"
)

type Service struct {
	DB            *gorm.DB
	TutorCapacity int
}

func New(db *gorm.DB, tutorCapacity int) *Service {
	return &Service{DB: db, TutorCapacity: tutorCapacity}
}

type RecentEnrollment struct {
	ID          uint      `json:"id"`
	StudentName string    `json:"student_name"`
	CourseTitle string    `json:"course_title"`
	TutorName   string    `json:"tutor_name"`
	Status      string    `json:"status"`
	EnrolledAt  time.Time `json:"enrolled_at"`
}

type Stats struct {
	UsersByRole         map[string]int64   `json:"users_by_role"`
	CoursesByStatus     map[string]int64   `json:"courses_by_status"`
	EnrollmentsByStatus map[string]int64   `json:"enrollments_by_status"`
	PendingRequests     int64              `json:"pending_requests"`
	Revenue             int64              `json:"revenue"`
	RecentEnrollments   []RecentEnrollment `json:"recent_enrollments"`
}

type groupCount struct {
	GroupKey string
	Total    int64
}

func countBy(db *gorm.DB, model interface{}, column string) (map[string]int64, error) {
	var rows []groupCount
	if err := db.Model(model).Select(column + " AS group_key, COUNT(*) AS total").Group(column).Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, r := range rows {
		out[r.GroupKey] = r.Total
	}
	return out, nil
}

// Stats returns the admin dashboard summary.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	db := s.DB.WithContext(ctx)
	stats := &Stats{}
	var err error

	if stats.UsersByRole, err = countBy(db, &models.User{}, "role"); err != nil {
		return nil, apperr.Internal("Failed to count users!", err)
	}
	if stats.CoursesByStatus, err = countBy(db, &courseModels.Course{}, "status"); err != nil {
		return nil, apperr.Internal("Failed to count courses!", err)
	}
	if stats.EnrollmentsByStatus, err = countBy(db, &enrollmentModels.CourseEnrollment{}, "status"); err != nil {
		return nil, apperr.Internal("Failed to count enrollments!", err)
	}
	if err := db.Model(&enrollmentModels.EnrollmentRequest{}).
		Where("status = ?", enrollmentModels.RequestPending).Count(&stats.PendingRequests).Error; err != nil {
		return nil, apperr.Internal("Failed to count requests!", err)
	}
	if err := db.Model(&enrollmentModels.Payment{}).
		Where("status = ?", enrollmentModels.PaymentPaid).
		Select("COALESCE(SUM(amount), 0)").Scan(&stats.Revenue).Error; err != nil {
		return nil, apperr.Internal("Failed to sum revenue!", err)
	}

	err = db.Table("course_enrollments AS e").
		Select("e.id, s.name AS student_name, c.title AS course_title, t.name AS tutor_name, e.status, e.enrolled_at").
		Joins("JOIN users s ON s.id = e.student_id").
		Joins("JOIN users t ON t.id = e.tutor_id").
		Joins("JOIN courses c ON c.id = e.course_id").
		Where("e.deleted_at IS NULL").
		Order("e.enrolled_at DESC, e.id DESC").
		Limit(5).
		Scan(&stats.RecentEnrollments).Error
	if err != nil {
		return nil, apperr.Internal("Failed to fetch recent enrollments!", err)
	}
	if stats.RecentEnrollments == nil {
		stats.RecentEnrollments = []RecentEnrollment{}
	}
	return stats, nil
}

type TutorLoad struct {
	TutorID        uint   `json:"tutor_id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	ActiveStudents int64  `json:"active_students"`
	Capacity       int    `json:"capacity" gorm:"-"`
	Available      int64  `json:"available" gorm:"-"`
}

// TutorLoads lists every tutor with their ACTIVE enrollment count against the ceiling,
// busiest first.
func (s *Service) TutorLoads(ctx context.Context) ([]TutorLoad, error) {
	var loads []TutorLoad
	err := s.DB.WithContext(ctx).Table("users AS u").
		Select("u.id AS tutor_id, u.name, u.email, COUNT(e.id) AS active_students").
		Joins("LEFT JOIN course_enrollments e ON e.tutor_id = u.id AND e.status = ? AND e.deleted_at IS NULL", enrollmentModels.StatusActive).
		Where("u.role = ? AND u.deleted_at IS NULL", models.RoleTutor).
		Group("u.id, u.name, u.email").
		Order("active_students DESC, u.id ASC").
		Scan(&loads).Error
	if err != nil {
		return nil, apperr.Internal("Failed to compute tutor load!", err)
	}
	for i := range loads {
		loads[i].Capacity = s.TutorCapacity
		loads[i].Available = int64(s.TutorCapacity) - loads[i].ActiveStudents
		if loads[i].Available < 0 {
			loads[i].Available = 0
		}
	}
	return loads, nil
}

type CourseLoad struct {
	CourseID       uint   `json:"course_id"`
	Title          string `json:"title"`
	Status         string `json:"status"`
	MaxStudents    int    `json:"max_students"`
	ActiveStudents int64  `json:"active_students"`
	Revenue        int64  `json:"revenue"`
}

// CourseLoads lists every course with its ACTIVE enrollments and PAID revenue.
func (s *Service) CourseLoads(ctx context.Context) ([]CourseLoad, error) {
	db := s.DB.WithContext(ctx)

	active := db.Table("course_enrollments").
		Select("course_id, COUNT(*) AS n").
		Where("status = ? AND deleted_at IS NULL", enrollmentModels.StatusActive).
		Group("course_id")
	revenue := db.Table("payments AS p").
		Select("e.course_id, SUM(p.amount) AS amount").
		Joins("JOIN course_enrollments e ON e.id = p.enrollment_id").
		Where("p.status = ? AND p.deleted_at IS NULL", enrollmentModels.PaymentPaid).
		Group("e.course_id")

	var loads []CourseLoad
	err := db.Table("courses AS c").
		Select("c.id AS course_id, c.title, c.status, c.max_students, COALESCE(a.n, 0) AS active_students, COALESCE(r.amount, 0) AS revenue").
		Joins("LEFT JOIN (?) a ON a.course_id = c.id", active).
		Joins("LEFT JOIN (?) r ON r.course_id = c.id", revenue).
		Where("c.deleted_at IS NULL").
		Order("active_students DESC, c.id ASC").
		Scan(&loads).Error
	if err != nil {
		return nil, apperr.Internal("Failed to compute course load!", err)
	}
	return loads, nil
}
