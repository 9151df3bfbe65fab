package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/classroom-api/internal/models"
)

// GradeRepository reads the results of one student across assessments.
type GradeRepository interface {
	QuizResultsForStudent(ctx context.Context, studentID uint, courseID *uint) ([]models.QuizResult, error)
	ExamResultsForStudent(ctx context.Context, studentID uint, courseID *uint) ([]models.ExamResult, error)
}

type gradeRepository struct {
	db *gorm.DB
}

// NewGradeRepository constructs a GORM-backed grade repository.
func NewGradeRepository(db *gorm.DB) GradeRepository {
	return &gradeRepository{db: db}
}

func (r *gradeRepository) QuizResultsForStudent(ctx context.Context, studentID uint, courseID *uint) ([]models.QuizResult, error) {
	query := r.db.WithContext(ctx).Where("quiz_results.student_id = ?", studentID)
	if courseID != nil {
		query = query.
			Joins("JOIN quizzes ON quizzes.id = quiz_results.quiz_id").
			Where("quizzes.course_id = ?", *courseID)
	}

	var results []models.QuizResult
	err := query.
		Preload("Quiz.Course").
		Order("quiz_results.created_at DESC").
		Order("quiz_results.id DESC").
		Find(&results).Error
	return results, err
}

func (r *gradeRepository) ExamResultsForStudent(ctx context.Context, studentID uint, courseID *uint) ([]models.ExamResult, error) {
	query := r.db.WithContext(ctx).Where("exam_results.student_id = ?", studentID)
	if courseID != nil {
		query = query.
			Joins("JOIN exams ON exams.id = exam_results.exam_id").
			Where("exams.course_id = ?", *courseID)
	}

	var results []models.ExamResult
	err := query.
		Preload("Exam.Course").
		Order("exam_results.created_at DESC").
		Order("exam_results.id DESC").
		Find(&results).Error
	return results, err
}
