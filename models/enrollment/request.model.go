package enrollment

import (
	"time"

	"gorm.io/gorm"
)

const (
	RequestPending  = "PENDING"
	RequestApproved = "APPROVED"
	RequestRejected = "REJECTED"
)

const (
	ContactEmail    = "EMAIL"
	ContactPhone    = "PHONE"
	ContactWhatsApp = "WHATSAPP"
	ContactTelegram = "TELEGRAM"
)

// ContactChannels lists the accepted preferred contact channels.
var ContactChannels = []string{ContactEmail, ContactPhone, ContactWhatsApp, ContactTelegram}

// EnrollmentRequest is a prospective student's ask to join a course. It is terminal once
// APPROVED or REJECTED; reapplying means a new row.
type EnrollmentRequest struct {
	gorm.Model
	Reference        string     `json:"reference" gorm:"type:varchar(36);uniqueIndex;not null"`
	CourseID         uint       `json:"course_id" gorm:"index;not null"`
	Name             string     `json:"name" gorm:"not null"`
	Email            string     `json:"email" gorm:"index;not null"`
	Phone            string     `json:"phone" gorm:"not null"`
	PreferredContact string     `json:"preferred_contact" gorm:"type:varchar(20);not null"`
	Message          string     `json:"message" gorm:"type:text"`
	Status           string     `json:"status" gorm:"type:varchar(20);default:'PENDING';index"`
	ProcessedAt      *time.Time `json:"processed_at"`
	ProcessedByID    *uint      `json:"processed_by_id"`
	RejectionReason  string     `json:"rejection_reason"`
	EnrollmentID     *uint      `json:"enrollment_id"`
}
