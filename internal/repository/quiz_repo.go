package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/classroom-api/internal/models"
)

// QuizRepository persists quizzes, their questions and results.
type QuizRepository interface {
	Create(ctx context.Context, quiz *models.Quiz) error
	GetByID(ctx context.Context, id uint) (models.Quiz, error)
	Update(ctx context.Context, quiz *models.Quiz) error
	Delete(ctx context.Context, id uint) error
	ListByCourse(ctx context.Context, courseID uint) ([]models.Quiz, error)
	ListByTeacher(ctx context.Context, teacherID *uint) ([]models.Quiz, error)

	ListQuestions(ctx context.Context, quizID uint) ([]models.QuizQuestion, error)
	GetQuestion(ctx context.Context, quizID, questionID uint) (models.QuizQuestion, error)
	CreateQuestion(ctx context.Context, question *models.QuizQuestion) error
	UpdateQuestion(ctx context.Context, question *models.QuizQuestion) error
	DeleteQuestion(ctx context.Context, quizID, questionID uint) error

	CreateResult(ctx context.Context, result *models.QuizResult) error
	GetResult(ctx context.Context, quizID, studentID uint) (models.QuizResult, error)
	HasResult(ctx context.Context, quizID, studentID uint) (bool, error)
	ListResults(ctx context.Context, quizID uint) ([]models.QuizResult, error)
}

type quizRepository struct {
	db *gorm.DB
}

// NewQuizRepository constructs a GORM-backed quiz repository.
func NewQuizRepository(db *gorm.DB) QuizRepository {
	return &quizRepository{db: db}
}

func (r *quizRepository) Create(ctx context.Context, quiz *models.Quiz) error {
	return r.db.WithContext(ctx).Omit("Course").Create(quiz).Error
}

func (r *quizRepository) GetByID(ctx context.Context, id uint) (models.Quiz, error) {
	var quiz models.Quiz
	if err := r.db.WithContext(ctx).Preload("Course").First(&quiz, id).Error; err != nil {
		return models.Quiz{}, err
	}
	return quiz, nil
}

func (r *quizRepository) Update(ctx context.Context, quiz *models.Quiz) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(quiz).Error
}

func (r *quizRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("quiz_id = ?", id).Delete(&models.QuizResult{}).Error; err != nil {
			return err
		}
		if err := tx.Where("quiz_id = ?", id).Delete(&models.QuizQuestion{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.Quiz{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *quizRepository) ListByCourse(ctx context.Context, courseID uint) ([]models.Quiz, error) {
	var quizzes []models.Quiz
	err := r.db.WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&quizzes).Error
	return quizzes, err
}

// ListByTeacher lists quizzes of courses owned by the teacher, or every quiz when teacherID is nil.
func (r *quizRepository) ListByTeacher(ctx context.Context, teacherID *uint) ([]models.Quiz, error) {
	query := r.db.WithContext(ctx).Model(&models.Quiz{})
	if teacherID != nil {
		query = query.
			Joins("JOIN courses ON courses.id = quizzes.course_id").
			Where("courses.teacher_id = ?", *teacherID)
	}

	var quizzes []models.Quiz
	err := query.
		Preload("Course").
		Order("quizzes.created_at DESC").
		Order("quizzes.id DESC").
		Find(&quizzes).Error
	return quizzes, err
}

func (r *quizRepository) ListQuestions(ctx context.Context, quizID uint) ([]models.QuizQuestion, error) {
	var questions []models.QuizQuestion
	err := r.db.WithContext(ctx).
		Where("quiz_id = ?", quizID).
		Order("id ASC").
		Find(&questions).Error
	return questions, err
}

func (r *quizRepository) GetQuestion(ctx context.Context, quizID, questionID uint) (models.QuizQuestion, error) {
	var question models.QuizQuestion
	err := r.db.WithContext(ctx).
		Where("quiz_id = ?", quizID).
		First(&question, questionID).Error
	if err != nil {
		return models.QuizQuestion{}, err
	}
	return question, nil
}

func (r *quizRepository) CreateQuestion(ctx context.Context, question *models.QuizQuestion) error {
	return r.db.WithContext(ctx).Create(question).Error
}

func (r *quizRepository) UpdateQuestion(ctx context.Context, question *models.QuizQuestion) error {
	return r.db.WithContext(ctx).Save(question).Error
}

func (r *quizRepository) DeleteQuestion(ctx context.Context, quizID, questionID uint) error {
	result := r.db.WithContext(ctx).
		Where("quiz_id = ?", quizID).
		Delete(&models.QuizQuestion{}, questionID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// CreateResult inserts the single attempt of a student. A second attempt fails with ErrDuplicate.
func (r *quizRepository) CreateResult(ctx context.Context, result *models.QuizResult) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Create(result).Error)
}

func (r *quizRepository) GetResult(ctx context.Context, quizID, studentID uint) (models.QuizResult, error) {
	var result models.QuizResult
	err := r.db.WithContext(ctx).
		Where("quiz_id = ? AND student_id = ?", quizID, studentID).
		Preload("Quiz").
		First(&result).Error
	if err != nil {
		return models.QuizResult{}, err
	}
	return result, nil
}

func (r *quizRepository) HasResult(ctx context.Context, quizID, studentID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.QuizResult{}).
		Where("quiz_id = ? AND student_id = ?", quizID, studentID).
		Count(&count).Error
	return count > 0, err
}

func (r *quizRepository) ListResults(ctx context.Context, quizID uint) ([]models.QuizResult, error) {
	var results []models.QuizResult
	err := r.db.WithContext(ctx).
		Where("quiz_id = ?", quizID).
		Preload("Student").
		Order("created_at DESC").
		Order("id DESC").
		Find(&results).Error
	return results, err
}
