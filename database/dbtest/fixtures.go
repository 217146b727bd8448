package dbtest

import (
	"fmt"
	"testing"

	"tutorhub/models"
	courseModels "tutorhub/models/course"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// User inserts a user with the given role and a throwaway password hash.
func User(t testing.TB, db *gorm.DB, role, name string) models.User {
	t.Helper()
	user := models.User{
		Name:     name,
		Email:    fmt.Sprintf("%s-%s@example.com", name, uuid.NewString()[:8]),
		Role:     role,
		Password: "not-a-real-hash",
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}

// Course inserts an ACTIVE course created by creatorID.
func Course(t testing.TB, db *gorm.DB, creatorID uint, title string, price int64) courseModels.Course {
	t.Helper()
	course := courseModels.Course{
		Title:       title,
		Price:       price,
		Status:      courseModels.StatusActive,
		CreatedByID: creatorID,
	}
	require.NoError(t, db.Create(&course).Error)
	return course
}
