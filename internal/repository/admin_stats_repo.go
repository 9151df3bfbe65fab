package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/classroom-api/internal/models"
)

// PlatformCounts aggregates the headline numbers of the admin dashboard.
type PlatformCounts struct {
	Users           int64 `json:"users"`
	Admins          int64 `json:"admins"`
	Teachers        int64 `json:"teachers"`
	Students        int64 `json:"students"`
	PendingTeachers int64 `json:"pending_teachers"`
	Classes         int64 `json:"classes"`
	Courses         int64 `json:"courses"`
	PublicCourses   int64 `json:"public_courses"`
	Quizzes         int64 `json:"quizzes"`
	Exams           int64 `json:"exams"`
	PendingRequests int64 `json:"pending_requests"`
}

// AdminStatsRepository supplies counts for administrator dashboards.
type AdminStatsRepository interface {
	Counts(ctx context.Context) (PlatformCounts, error)
}

type adminStatsRepository struct {
	db *gorm.DB
}

// NewAdminStatsRepository constructs the stats repository.
func NewAdminStatsRepository(db *gorm.DB) AdminStatsRepository {
	return &adminStatsRepository{db: db}
}

func (r *adminStatsRepository) Counts(ctx context.Context) (PlatformCounts, error) {
	var counts PlatformCounts
	db := r.db.WithContext(ctx)

	type roleRow struct {
		Role  string
		Total int64
	}
	var rows []roleRow
	if err := db.Model(&models.User{}).Select("role, COUNT(*) AS total").Group("role").Scan(&rows).Error; err != nil {
		return PlatformCounts{}, err
	}
	for _, row := range rows {
		counts.Users += row.Total
		switch row.Role {
		case models.RoleAdmin:
			counts.Admins = row.Total
		case models.RoleTeacher:
			counts.Teachers = row.Total
		case models.RoleStudent:
			counts.Students = row.Total
		}
	}

	steps := []struct {
		target *int64
		query  *gorm.DB
	}{
		{&counts.PendingTeachers, db.Model(&models.User{}).Where("role = ? AND status = ?", models.RoleTeacher, models.StatusPending)},
		{&counts.Classes, db.Model(&models.Class{})},
		{&counts.Courses, db.Model(&models.Course{})},
		{&counts.PublicCourses, db.Model(&models.Course{}).Where("is_public = ?", true)},
		{&counts.Quizzes, db.Model(&models.Quiz{})},
		{&counts.Exams, db.Model(&models.Exam{})},
		{&counts.PendingRequests, db.Model(&models.JoinRequest{}).Where("status = ?", models.JoinRequestPending)},
	}
	for _, step := range steps {
		if err := step.query.Count(step.target).Error; err != nil {
			return PlatformCounts{}, err
		}
	}

	return counts, nil
}
