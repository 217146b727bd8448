package models

import (
	"time"

	"gorm.io/gorm"
)

// LoginTracking records one successful login. Role is captured as it was at login time.
type LoginTracking struct {
	gorm.Model
	UserID     uint      `json:"user_id" gorm:"not null;index:idx_login_user_time,priority:1"`
	Role       string    `json:"role" gorm:"type:varchar(20)"`
	IPAddress  string    `json:"ip_address" gorm:"type:varchar(64)"`
	UserAgent  string    `json:"user_agent"`
	LoggedInAt time.Time `json:"logged_in_at" gorm:"not null;index:idx_login_user_time,priority:2"`
}
