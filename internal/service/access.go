package service

import (
	"context"

	"github.com/noah-isme/classroom-api/internal/models"
	"github.com/noah-isme/classroom-api/internal/repository"
)

// accessPolicy resolves owning entities and applies the ownership and
// enrollment rules shared by every service.
type accessPolicy struct {
	classes repository.ClassRepository
	courses repository.CourseRepository
}

func (p accessPolicy) class(ctx context.Context, id uint) (models.Class, error) {
	class, err := p.classes.GetByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return models.Class{}, ErrClassNotFound
		}
		return models.Class{}, err
	}
	return class, nil
}

func (p accessPolicy) ownedClass(ctx context.Context, actor Actor, id uint) (models.Class, error) {
	class, err := p.class(ctx, id)
	if err != nil {
		return models.Class{}, err
	}
	if !actor.Owns(class.TeacherID) {
		return models.Class{}, ErrNotClassOwner
	}
	return class, nil
}

func (p accessPolicy) course(ctx context.Context, id uint) (models.Course, error) {
	course, err := p.courses.GetByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return models.Course{}, ErrCourseNotFound
		}
		return models.Course{}, err
	}
	return course, nil
}

func (p accessPolicy) ownedCourse(ctx context.Context, actor Actor, id uint) (models.Course, error) {
	course, err := p.course(ctx, id)
	if err != nil {
		return models.Course{}, err
	}
	if !actor.Owns(course.TeacherID) {
		return models.Course{}, ErrNotCourseOwner
	}
	return course, nil
}

// requireMember allows the class owner, administrators and enrolled students.
func (p accessPolicy) requireMember(ctx context.Context, actor Actor, class models.Class) error {
	if actor.Owns(class.TeacherID) {
		return nil
	}
	if !actor.IsStudent() {
		return ErrNotClassOwner
	}
	enrolled, err := p.classes.IsEnrolled(ctx, class.ID, actor.ID)
	if err != nil {
		return err
	}
	if !enrolled {
		return ErrNotEnrolled
	}
	return nil
}

// requireCourseAccess is the enrollment gate: public courses are open to every
// authenticated caller, class-scoped ones only to members of the class.
func (p accessPolicy) requireCourseAccess(ctx context.Context, actor Actor, course models.Course) error {
	if course.IsPublic && course.ClassID == nil {
		return nil
	}
	if actor.Owns(course.TeacherID) {
		return nil
	}
	if course.ClassID == nil {
		return ErrNotEnrolled
	}
	class, err := p.class(ctx, *course.ClassID)
	if err != nil {
		return err
	}
	return p.requireMember(ctx, actor, class)
}
