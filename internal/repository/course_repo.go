package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/classroom-api/internal/models"
)

// CourseFilter narrows teacher-side course listings.
type CourseFilter struct {
	TeacherID *uint
	ClassID   *uint
	Search    string
}

// CourseRepository persists courses and their resources.
type CourseRepository interface {
	Create(ctx context.Context, course *models.Course) error
	GetByID(ctx context.Context, id uint) (models.Course, error)
	GetPublic(ctx context.Context, id uint) (models.Course, error)
	ListPublic(ctx context.Context) ([]models.Course, error)
	List(ctx context.Context, filter CourseFilter) ([]models.Course, error)
	Update(ctx context.Context, course *models.Course) error
	Delete(ctx context.Context, id uint) error
	AddResources(ctx context.Context, resources []models.CourseResource) error
	ReplaceResources(ctx context.Context, courseID uint, resources []models.CourseResource) error
}

type courseRepository struct {
	db *gorm.DB
}

// NewCourseRepository constructs a GORM-backed course repository.
func NewCourseRepository(db *gorm.DB) CourseRepository {
	return &courseRepository{db: db}
}

// Create inserts the course together with its resources.
func (r *courseRepository) Create(ctx context.Context, course *models.Course) error {
	return r.db.WithContext(ctx).Omit("Teacher", "Class").Create(course).Error
}

func (r *courseRepository) GetByID(ctx context.Context, id uint) (models.Course, error) {
	var course models.Course
	err := r.db.WithContext(ctx).
		Preload("Resources", orderResources).
		Preload("Teacher").
		Preload("Class").
		First(&course, id).Error
	if err != nil {
		return models.Course{}, err
	}
	return course, nil
}

func (r *courseRepository) GetPublic(ctx context.Context, id uint) (models.Course, error) {
	var course models.Course
	err := r.db.WithContext(ctx).
		Where("is_public = ? AND class_id IS NULL", true).
		Preload("Resources", orderResources).
		Preload("Teacher").
		First(&course, id).Error
	if err != nil {
		return models.Course{}, err
	}
	return course, nil
}

func (r *courseRepository) ListPublic(ctx context.Context) ([]models.Course, error) {
	var courses []models.Course
	err := r.db.WithContext(ctx).
		Where("is_public = ? AND class_id IS NULL", true).
		Preload("Resources", orderResources).
		Preload("Teacher").
		Order("created_at DESC").
		Order("id DESC").
		Find(&courses).Error
	return courses, err
}

func (r *courseRepository) List(ctx context.Context, filter CourseFilter) ([]models.Course, error) {
	query := r.db.WithContext(ctx).Model(&models.Course{})
	if filter.TeacherID != nil {
		query = query.Where("teacher_id = ?", *filter.TeacherID)
	}
	if filter.ClassID != nil {
		query = query.Where("class_id = ?", *filter.ClassID)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", pattern, pattern)
	}

	var courses []models.Course
	err := query.
		Preload("Resources", orderResources).
		Preload("Class").
		Order("created_at DESC").
		Order("id DESC").
		Find(&courses).Error
	return courses, err
}

// Update saves the course columns without touching its resources.
func (r *courseRepository) Update(ctx context.Context, course *models.Course) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(course).Error
}

func (r *courseRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Course{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return gorm.ErrRecordNotFound
		}
		return deleteCourses(tx, []uint{id})
	})
}

func (r *courseRepository) AddResources(ctx context.Context, resources []models.CourseResource) error {
	if len(resources) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&resources).Error
}

// ReplaceResources deletes every resource of the course and inserts the given list.
func (r *courseRepository) ReplaceResources(ctx context.Context, courseID uint, resources []models.CourseResource) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("course_id = ?", courseID).Delete(&models.CourseResource{}).Error; err != nil {
			return err
		}
		if len(resources) == 0 {
			return nil
		}
		for i := range resources {
			resources[i].CourseID = courseID
		}
		return tx.Create(&resources).Error
	})
}

func orderResources(db *gorm.DB) *gorm.DB {
	return db.Order("id ASC")
}
