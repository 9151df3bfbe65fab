package database

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/noah-isme/classroom-api/internal/models"
)

// Migrate creates or updates every table of the classroom schema.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Class{},
		&models.JoinRequest{},
		&models.Enrollment{},
		&models.Course{},
		&models.CourseResource{},
		&models.Quiz{},
		&models.QuizQuestion{},
		&models.QuizResult{},
		&models.Exam{},
		&models.ExamQuestion{},
		&models.ExamResult{},
		&models.ExamAnswer{},
		&models.ActivityLog{},
		&models.Notification{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
