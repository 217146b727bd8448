package gamification

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	MetricPointsTotal = "points_total"
	MetricEnrollments = "enrollments"
	MetricMessages    = "messages"
)

// Criteria decides when an achievement is earned: the user's Metric reaches Threshold.
type Criteria struct {
	Metric    string `json:"metric"`
	Threshold int64  `json:"threshold"`
}

type Achievement struct {
	gorm.Model
	Code         string                       `json:"code" gorm:"type:varchar(50);uniqueIndex;not null"`
	Title        string                       `json:"title"`
	Description  string                       `json:"description"`
	Criteria     datatypes.JSONType[Criteria] `json:"criteria"`
	RewardPoints int64                        `json:"reward_points" gorm:"default:0"`
}

type UserAchievement struct {
	gorm.Model
	UserID        uint      `json:"user_id" gorm:"uniqueIndex:idx_user_achievement;not null"`
	AchievementID uint      `json:"achievement_id" gorm:"uniqueIndex:idx_user_achievement;not null"`
	AwardedAt     time.Time `json:"awarded_at"`
}
