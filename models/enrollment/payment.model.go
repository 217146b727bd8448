package enrollment

import (
	"time"

	"gorm.io/gorm"
)

const (
	PaymentPending  = "PENDING"
	PaymentPaid     = "PAID"
	PaymentRefunded = "REFUNDED"
)

const (
	MethodManual = "MANUAL"
	MethodCash   = "CASH"
	MethodCard   = "CARD"
	MethodBank   = "BANK_TRANSFER"
	MethodSelf   = "SELF"
)

// PaymentMethods lists the methods accepted on approval.
var PaymentMethods = []string{MethodManual, MethodCash, MethodCard, MethodBank, MethodSelf}

// Payment funds exactly one enrollment.
type Payment struct {
	gorm.Model
	Reference    string     `json:"reference" gorm:"type:varchar(36);uniqueIndex;not null"`
	EnrollmentID uint       `json:"enrollment_id" gorm:"uniqueIndex;not null"`
	Amount       int64      `json:"amount" gorm:"not null"`
	Method       string     `json:"method" gorm:"type:varchar(20);not null"`
	Status       string     `json:"status" gorm:"type:varchar(20);default:'PENDING'"`
	PaidAt       *time.Time `json:"paid_at"`
}
