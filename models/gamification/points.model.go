package gamification

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	ReasonEnrollment  = "ENROLLMENT"
	ReasonMessage     = "MESSAGE"
	ReasonChallenge   = "CHALLENGE"
	ReasonAchievement = "ACHIEVEMENT"
	ReasonManual      = "MANUAL"
)

// PointEntry is one line of the append-only points ledger. A user's total is the sum of their entries.
type PointEntry struct {
	gorm.Model
	UserID   uint              `json:"user_id" gorm:"index;not null"`
	Points   int64             `json:"points" gorm:"not null"`
	Reason   string            `json:"reason" gorm:"type:varchar(20);not null;index"`
	RefType  string            `json:"ref_type" gorm:"type:varchar(30)"`
	RefID    uint              `json:"ref_id"`
	Metadata datatypes.JSONMap `json:"metadata"`
}
