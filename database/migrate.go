package database

import (
	"fmt"
	"log"

	"tutorhub/models"
	chatModels "tutorhub/models/chat"
	courseModels "tutorhub/models/course"
	enrollmentModels "tutorhub/models/enrollment"
	gamificationModels "tutorhub/models/gamification"

	"gorm.io/gorm"
)

// Models returns every table the application owns, parents first.
func Models() []interface{} {
	return []interface{}{
		&models.User{},
		&models.LoginTracking{},
		&courseModels.Course{},
		&courseModels.Topic{},
		&courseModels.Subtopic{},
		&courseModels.Material{},
		&courseModels.Test{},
		&enrollmentModels.EnrollmentRequest{},
		&enrollmentModels.CourseEnrollment{},
		&enrollmentModels.Payment{},
		&chatModels.Chat{},
		&chatModels.Participant{},
		&chatModels.Message{},
		&gamificationModels.PointEntry{},
		&gamificationModels.Achievement{},
		&gamificationModels.UserAchievement{},
		&gamificationModels.Challenge{},
		&gamificationModels.ChallengeCompletion{},
	}
}

// partialIndexes back the "one ACTIVE enrollment per student and course" and
// "one PENDING request per course and email" rules at the storage layer.
var partialIndexes = []struct {
	name  string
	table string
	cols  string
	where string
}{
	{"idx_active_enrollment_student_course", "course_enrollments", "student_id, course_id", "status = 'ACTIVE' AND deleted_at IS NULL"},
	{"idx_pending_request_course_email", "enrollment_requests", "course_id, email", "status = 'PENDING' AND deleted_at IS NULL"},
}

// Migrate brings the schema up to date. It is idempotent and is meant to run once
// before the server starts, either from cmd/migrate or with AUTO_MIGRATE=true.
func Migrate(db *gorm.DB) error {
	log.Println("Running Migrations...")

	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	switch db.Dialector.Name() {
	case "postgres", "sqlite":
		for _, idx := range partialIndexes {
			stmt := fmt.Sprintf("CREATE UNIQUE INDEX IF NOT EXISTS %s ON %s (%s) WHERE %s", idx.name, idx.table, idx.cols, idx.where)
			if err := db.Exec(stmt).Error; err != nil {
				return fmt.Errorf("create index %s: %w", idx.name, err)
			}
		}
	default:
		// MySQL has no partial indexes. Approvals still serialise on the tutor row lock, but
		// duplicate PENDING requests are only caught by SubmitRequest's count check.
		log.Printf("Skipping partial unique indexes on %s", db.Dialector.Name())
	}

	log.Println("Migrations completed successfully.")
	return nil
}
