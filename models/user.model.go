package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	RoleStudent = "STUDENT"
	RoleTutor   = "TUTOR"
	RoleAdmin   = "ADMIN"
	RoleOwner   = "OWNER"
	RoleManager = "MANAGER"
)

// Roles lists every role a user may hold.
var Roles = []string{RoleStudent, RoleTutor, RoleAdmin, RoleOwner, RoleManager}

// StaffRoles may process enrollment requests and read admin reports.
var StaffRoles = []string{RoleAdmin, RoleOwner, RoleManager}

type User struct {
	gorm.Model
	Name                string     `json:"name" gorm:"default:''"`
	Email               string     `json:"email" gorm:"uniqueIndex;not null"`
	Phone               string     `json:"phone" gorm:"default:''"`
	Role                string     `json:"role" gorm:"type:varchar(20);default:'STUDENT';index"`
	Password            string     `json:"-" gorm:"not null"`
	Bio                 string     `json:"bio" gorm:"type:text"`
	Subjects            string     `json:"subjects"` // Comma separated, tutors only
	LastLogin           *time.Time `json:"last_login"`
	FailedLoginAttempts int        `json:"-" gorm:"default:0"`
	LastFailedLogin     *time.Time `json:"-"`
	IsBlocked           bool       `json:"-" gorm:"default:false"`
	BlockedUntil        *time.Time `json:"-"`
}

// HasRole reports whether the user holds any of the given roles.
func (u User) HasRole(roles ...string) bool {
	for _, r := range roles {
		if u.Role == r {
			return true
		}
	}
	return false
}

// IsValidRole reports whether role is one of Roles.
func IsValidRole(role string) bool {
	for _, r := range Roles {
		if r == role {
			return true
		}
	}
	return false
}
