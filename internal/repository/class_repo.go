package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/classroom-api/internal/models"
)

// ClassSummary is a class with its roster size.
type ClassSummary struct {
	models.Class
	StudentCount int64 `json:"student_count"`
}

// ClassRepository persists classes, their rosters and join requests.
type ClassRepository interface {
	Create(ctx context.Context, class *models.Class) error
	GetByID(ctx context.Context, id uint) (models.Class, error)
	Update(ctx context.Context, class *models.Class) error
	Delete(ctx context.Context, id uint) error
	ListByTeacher(ctx context.Context, teacherID uint) ([]ClassSummary, error)
	ListAll(ctx context.Context) ([]ClassSummary, error)
	ListForStudent(ctx context.Context, studentID uint) ([]models.Class, error)
	ListStudents(ctx context.Context, classID uint) ([]models.User, error)
	IsEnrolled(ctx context.Context, classID, studentID uint) (bool, error)
	AddStudent(ctx context.Context, classID, studentID uint) error
	RemoveStudent(ctx context.Context, classID, studentID uint) (bool, error)

	CreateJoinRequest(ctx context.Context, request *models.JoinRequest) error
	GetJoinRequest(ctx context.Context, id uint) (models.JoinRequest, error)
	ListPendingRequests(ctx context.Context, teacherID *uint) ([]models.JoinRequest, error)
	ListRequestsByStudent(ctx context.Context, studentID uint) ([]models.JoinRequest, error)
	AcceptJoinRequest(ctx context.Context, id uint) error
	RejectJoinRequest(ctx context.Context, id uint) error
}

type classRepository struct {
	db *gorm.DB
}

// NewClassRepository constructs a GORM-backed class repository.
func NewClassRepository(db *gorm.DB) ClassRepository {
	return &classRepository{db: db}
}

func (r *classRepository) Create(ctx context.Context, class *models.Class) error {
	return r.db.WithContext(ctx).Create(class).Error
}

func (r *classRepository) GetByID(ctx context.Context, id uint) (models.Class, error) {
	var class models.Class
	if err := r.db.WithContext(ctx).First(&class, id).Error; err != nil {
		return models.Class{}, err
	}
	return class, nil
}

func (r *classRepository) Update(ctx context.Context, class *models.Class) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(class).Error
}

// Delete removes the class together with its join requests, enrollments and
// class-scoped courses in one transaction.
func (r *classRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("class_id = ?", id).Delete(&models.JoinRequest{}).Error; err != nil {
			return err
		}
		if err := tx.Where("class_id = ?", id).Delete(&models.Enrollment{}).Error; err != nil {
			return err
		}

		var courseIDs []uint
		if err := tx.Model(&models.Course{}).Where("class_id = ?", id).Pluck("id", &courseIDs).Error; err != nil {
			return err
		}
		if err := deleteCourses(tx, courseIDs); err != nil {
			return err
		}

		result := tx.Delete(&models.Class{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *classRepository) ListByTeacher(ctx context.Context, teacherID uint) ([]ClassSummary, error) {
	return r.listSummaries(ctx, &teacherID)
}

func (r *classRepository) ListAll(ctx context.Context) ([]ClassSummary, error) {
	return r.listSummaries(ctx, nil)
}

func (r *classRepository) listSummaries(ctx context.Context, teacherID *uint) ([]ClassSummary, error) {
	query := r.db.WithContext(ctx).Model(&models.Class{})
	if teacherID != nil {
		query = query.Where("teacher_id = ?", *teacherID)
	}

	var classes []models.Class
	if err := query.Order("created_at DESC").Order("id DESC").Find(&classes).Error; err != nil {
		return nil, err
	}
	if len(classes) == 0 {
		return []ClassSummary{}, nil
	}

	ids := make([]uint, 0, len(classes))
	for _, class := range classes {
		ids = append(ids, class.ID)
	}

	type countRow struct {
		ClassID uint
		Total   int64
	}
	var rows []countRow
	if err := r.db.WithContext(ctx).Model(&models.Enrollment{}).
		Select("class_id, COUNT(*) AS total").
		Where("class_id IN ?", ids).
		Group("class_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[uint]int64, len(rows))
	for _, row := range rows {
		counts[row.ClassID] = row.Total
	}

	summaries := make([]ClassSummary, 0, len(classes))
	for _, class := range classes {
		summaries = append(summaries, ClassSummary{Class: class, StudentCount: counts[class.ID]})
	}
	return summaries, nil
}

func (r *classRepository) ListForStudent(ctx context.Context, studentID uint) ([]models.Class, error) {
	var classes []models.Class
	err := r.db.WithContext(ctx).
		Joins("JOIN class_students ON class_students.class_id = classes.id").
		Where("class_students.student_id = ?", studentID).
		Preload("Teacher").
		Order("classes.name ASC").
		Find(&classes).Error
	return classes, err
}

func (r *classRepository) ListStudents(ctx context.Context, classID uint) ([]models.User, error) {
	var students []models.User
	err := r.db.WithContext(ctx).
		Joins("JOIN class_students ON class_students.student_id = users.id").
		Where("class_students.class_id = ?", classID).
		Order("users.name ASC").
		Find(&students).Error
	return students, err
}

func (r *classRepository) IsEnrolled(ctx context.Context, classID, studentID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Enrollment{}).
		Where("class_id = ? AND student_id = ?", classID, studentID).
		Count(&count).Error
	return count > 0, err
}

// AddStudent enrolls the student and clears any join request left for the pair.
// A second enrollment of the same pair fails with ErrDuplicate.
func (r *classRepository) AddStudent(ctx context.Context, classID, studentID uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		enrollment := models.Enrollment{ClassID: classID, StudentID: studentID}
		if err := tx.Create(&enrollment).Error; err != nil {
			return translate(err)
		}
		return tx.Where("class_id = ? AND student_id = ?", classID, studentID).
			Delete(&models.JoinRequest{}).Error
	})
}

// RemoveStudent deletes the enrollment and any join request of the pair. It
// reports whether an enrollment existed.
func (r *classRepository) RemoveStudent(ctx context.Context, classID, studentID uint) (bool, error) {
	var removed bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("class_id = ? AND student_id = ?", classID, studentID).Delete(&models.Enrollment{})
		if result.Error != nil {
			return result.Error
		}
		removed = result.RowsAffected > 0
		return tx.Where("class_id = ? AND student_id = ?", classID, studentID).
			Delete(&models.JoinRequest{}).Error
	})
	return removed, err
}

func (r *classRepository) CreateJoinRequest(ctx context.Context, request *models.JoinRequest) error {
	return translate(r.db.WithContext(ctx).Create(request).Error)
}

func (r *classRepository) GetJoinRequest(ctx context.Context, id uint) (models.JoinRequest, error) {
	var request models.JoinRequest
	if err := r.db.WithContext(ctx).Preload("Class").Preload("Student").First(&request, id).Error; err != nil {
		return models.JoinRequest{}, err
	}
	return request, nil
}

// ListPendingRequests returns pending requests of the teacher's classes, or of
// every class when teacherID is nil.
func (r *classRepository) ListPendingRequests(ctx context.Context, teacherID *uint) ([]models.JoinRequest, error) {
	query := r.db.WithContext(ctx).
		Joins("JOIN classes ON classes.id = join_requests.class_id").
		Where("join_requests.status = ?", models.JoinRequestPending)
	if teacherID != nil {
		query = query.Where("classes.teacher_id = ?", *teacherID)
	}

	var requests []models.JoinRequest
	err := query.
		Preload("Class").
		Preload("Student").
		Order("join_requests.created_at ASC").
		Order("join_requests.id ASC").
		Find(&requests).Error
	return requests, err
}

func (r *classRepository) ListRequestsByStudent(ctx context.Context, studentID uint) ([]models.JoinRequest, error) {
	var requests []models.JoinRequest
	err := r.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Preload("Class").
		Order("created_at DESC").
		Order("id DESC").
		Find(&requests).Error
	return requests, err
}

// AcceptJoinRequest moves a pending request to accepted and inserts the
// enrollment. A request that is no longer pending yields ErrStaleState.
func (r *classRepository) AcceptJoinRequest(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var request models.JoinRequest
		if err := tx.First(&request, id).Error; err != nil {
			return err
		}

		result := tx.Model(&models.JoinRequest{}).
			Where("id = ? AND status = ?", id, models.JoinRequestPending).
			Update("status", models.JoinRequestAccepted)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrStaleState
		}

		enrollment := models.Enrollment{ClassID: request.ClassID, StudentID: request.StudentID}
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&enrollment).Error
	})
}

func (r *classRepository) RejectJoinRequest(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Model(&models.JoinRequest{}).
		Where("id = ? AND status = ?", id, models.JoinRequestPending).
		Update("status", models.JoinRequestRejected)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrStaleState
	}
	return nil
}
