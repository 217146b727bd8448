package enrollment

import (
	"time"

	"gorm.io/gorm"
)

const (
	StatusActive    = "ACTIVE"
	StatusCancelled = "CANCELLED"
	StatusCompleted = "COMPLETED"
)

// CourseEnrollment links a student to a course and the tutor assigned to them.
type CourseEnrollment struct {
	gorm.Model
	StudentID   uint       `json:"student_id" gorm:"index;not null"`
	CourseID    uint       `json:"course_id" gorm:"index;not null"`
	TutorID     uint       `json:"tutor_id" gorm:"index;not null"`
	RequestID   *uint      `json:"request_id" gorm:"index"`
	Status      string     `json:"status" gorm:"type:varchar(20);default:'ACTIVE';index"`
	EnrolledAt  time.Time  `json:"enrolled_at"`
	CompletedAt *time.Time `json:"completed_at"`
	CancelledAt *time.Time `json:"cancelled_at"`
}
