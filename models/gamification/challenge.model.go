package gamification

import (
	"time"

	"gorm.io/gorm"
)

type Challenge struct {
	gorm.Model
	Title        string    `json:"title" gorm:"not null"`
	Description  string    `json:"description" gorm:"type:text"`
	RewardPoints int64     `json:"reward_points" gorm:"not null"`
	StartsAt     time.Time `json:"starts_at"`
	EndsAt       time.Time `json:"ends_at"`
	IsActive     bool      `json:"is_active"`
}

// OpenAt reports whether the challenge accepts completions at t.
func (c Challenge) OpenAt(t time.Time) bool {
	return c.IsActive && !t.Before(c.StartsAt) && t.Before(c.EndsAt)
}

type ChallengeCompletion struct {
	gorm.Model
	ChallengeID uint      `json:"challenge_id" gorm:"uniqueIndex:idx_challenge_user;not null"`
	UserID      uint      `json:"user_id" gorm:"uniqueIndex:idx_challenge_user;not null"`
	CompletedAt time.Time `json:"completed_at"`
}
