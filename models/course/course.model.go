package course

import "gorm.io/gorm"

const (
	StatusDraft  = "DRAFT"
	StatusActive = "ACTIVE"
)

// Course is the root of the content tree. Price is stored in minor currency units.
type Course struct {
	gorm.Model
	Title       string  `json:"title" gorm:"not null"`
	Description string  `json:"description" gorm:"type:text"`
	Price       int64   `json:"price" gorm:"default:0"`
	MaxStudents int     `json:"max_students" gorm:"default:0"` // 0 means unlimited seats
	Status      string  `json:"status" gorm:"type:varchar(20);default:'DRAFT';index"`
	CreatedByID uint    `json:"created_by_id" gorm:"index;not null"`
	Topics      []Topic `json:"topics,omitempty" gorm:"constraint:OnDelete:CASCADE"`
}
