package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/classroom-api/internal/models"
)

// ExamRepository persists exams, their questions, results and answers.
type ExamRepository interface {
	Create(ctx context.Context, exam *models.Exam) error
	GetByID(ctx context.Context, id uint) (models.Exam, error)
	Update(ctx context.Context, exam *models.Exam) error
	Delete(ctx context.Context, id uint) error
	ListByCourse(ctx context.Context, courseID uint) ([]models.Exam, error)
	ListByTeacher(ctx context.Context, teacherID *uint) ([]models.Exam, error)
	HasResults(ctx context.Context, examID uint) (bool, error)

	ListQuestions(ctx context.Context, examID uint) ([]models.ExamQuestion, error)
	GetQuestion(ctx context.Context, examID, questionID uint) (models.ExamQuestion, error)
	CreateQuestion(ctx context.Context, question *models.ExamQuestion) error
	UpdateQuestion(ctx context.Context, question *models.ExamQuestion) error
	DeleteQuestion(ctx context.Context, examID, questionID uint) error

	CreateResult(ctx context.Context, result *models.ExamResult) error
	CreateAnswer(ctx context.Context, answer *models.ExamAnswer) error
	GetResult(ctx context.Context, examID, studentID uint) (models.ExamResult, error)
	GetResultByID(ctx context.Context, examID, resultID uint) (models.ExamResult, error)
	HasResult(ctx context.Context, examID, studentID uint) (bool, error)
	ListResults(ctx context.Context, examID uint) ([]models.ExamResult, error)
	UpdateScore(ctx context.Context, resultID uint, score float64, gradedAt time.Time) error
}

type examRepository struct {
	db *gorm.DB
}

// NewExamRepository constructs a GORM-backed exam repository.
func NewExamRepository(db *gorm.DB) ExamRepository {
	return &examRepository{db: db}
}

func (r *examRepository) Create(ctx context.Context, exam *models.Exam) error {
	return r.db.WithContext(ctx).Omit("Course").Create(exam).Error
}

func (r *examRepository) GetByID(ctx context.Context, id uint) (models.Exam, error) {
	var exam models.Exam
	if err := r.db.WithContext(ctx).Preload("Course").First(&exam, id).Error; err != nil {
		return models.Exam{}, err
	}
	return exam, nil
}

func (r *examRepository) Update(ctx context.Context, exam *models.Exam) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(exam).Error
}

func (r *examRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := deleteExamChildren(tx, []uint{id}); err != nil {
			return err
		}
		result := tx.Delete(&models.Exam{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *examRepository) ListByCourse(ctx context.Context, courseID uint) ([]models.Exam, error) {
	var exams []models.Exam
	err := r.db.WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&exams).Error
	return exams, err
}

// ListByTeacher lists exams of courses owned by the teacher, or every exam when teacherID is nil.
func (r *examRepository) ListByTeacher(ctx context.Context, teacherID *uint) ([]models.Exam, error) {
	query := r.db.WithContext(ctx).Model(&models.Exam{})
	if teacherID != nil {
		query = query.
			Joins("JOIN courses ON courses.id = exams.course_id").
			Where("courses.teacher_id = ?", *teacherID)
	}

	var exams []models.Exam
	err := query.
		Preload("Course").
		Order("exams.created_at DESC").
		Order("exams.id DESC").
		Find(&exams).Error
	return exams, err
}

func (r *examRepository) HasResults(ctx context.Context, examID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.ExamResult{}).
		Where("exam_id = ?", examID).
		Count(&count).Error
	return count > 0, err
}

func (r *examRepository) ListQuestions(ctx context.Context, examID uint) ([]models.ExamQuestion, error) {
	var questions []models.ExamQuestion
	err := r.db.WithContext(ctx).
		Where("exam_id = ?", examID).
		Order("id ASC").
		Find(&questions).Error
	return questions, err
}

func (r *examRepository) GetQuestion(ctx context.Context, examID, questionID uint) (models.ExamQuestion, error) {
	var question models.ExamQuestion
	err := r.db.WithContext(ctx).
		Where("exam_id = ?", examID).
		First(&question, questionID).Error
	if err != nil {
		return models.ExamQuestion{}, err
	}
	return question, nil
}

func (r *examRepository) CreateQuestion(ctx context.Context, question *models.ExamQuestion) error {
	return r.db.WithContext(ctx).Create(question).Error
}

func (r *examRepository) UpdateQuestion(ctx context.Context, question *models.ExamQuestion) error {
	return r.db.WithContext(ctx).Save(question).Error
}

func (r *examRepository) DeleteQuestion(ctx context.Context, examID, questionID uint) error {
	result := r.db.WithContext(ctx).
		Where("exam_id = ?", examID).
		Delete(&models.ExamQuestion{}, questionID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// CreateResult inserts the single attempt of a student. A second attempt fails with ErrDuplicate.
func (r *examRepository) CreateResult(ctx context.Context, result *models.ExamResult) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Create(result).Error)
}

func (r *examRepository) CreateAnswer(ctx context.Context, answer *models.ExamAnswer) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(answer).Error
}

func (r *examRepository) GetResult(ctx context.Context, examID, studentID uint) (models.ExamResult, error) {
	var result models.ExamResult
	err := r.db.WithContext(ctx).
		Where("exam_id = ? AND student_id = ?", examID, studentID).
		Preload("Exam").
		Preload("Answers", orderAnswers).
		Preload("Answers.Question").
		First(&result).Error
	if err != nil {
		return models.ExamResult{}, err
	}
	return result, nil
}

func (r *examRepository) GetResultByID(ctx context.Context, examID, resultID uint) (models.ExamResult, error) {
	var result models.ExamResult
	err := r.db.WithContext(ctx).
		Where("exam_id = ?", examID).
		First(&result, resultID).Error
	if err != nil {
		return models.ExamResult{}, err
	}
	return result, nil
}

func (r *examRepository) HasResult(ctx context.Context, examID, studentID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.ExamResult{}).
		Where("exam_id = ? AND student_id = ?", examID, studentID).
		Count(&count).Error
	return count > 0, err
}

func (r *examRepository) ListResults(ctx context.Context, examID uint) ([]models.ExamResult, error) {
	var results []models.ExamResult
	err := r.db.WithContext(ctx).
		Where("exam_id = ?", examID).
		Preload("Student").
		Preload("Answers", orderAnswers).
		Preload("Answers.Question").
		Order("created_at DESC").
		Order("id DESC").
		Find(&results).Error
	return results, err
}

// UpdateScore overwrites the score of a result; grading may be repeated.
func (r *examRepository) UpdateScore(ctx context.Context, resultID uint, score float64, gradedAt time.Time) error {
	result := r.db.WithContext(ctx).Model(&models.ExamResult{}).
		Where("id = ?", resultID).
		Updates(map[string]interface{}{"score": score, "graded_at": gradedAt})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func orderAnswers(db *gorm.DB) *gorm.DB {
	return db.Order("id ASC")
}
