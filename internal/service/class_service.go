package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/noah-isme/classroom-api/internal/dto"
	"github.com/noah-isme/classroom-api/internal/models"
	"github.com/noah-isme/classroom-api/internal/observability"
	"github.com/noah-isme/classroom-api/internal/repository"
)

// ClassService implements classes and the enrollment workflow.
type ClassService interface {
	Create(ctx context.Context, actor Actor, payload dto.ClassCreateRequest) (dto.ClassResponse, error)
	List(ctx context.Context, actor Actor) ([]dto.ClassResponse, error)
	Update(ctx context.Context, actor Actor, classID uint, payload dto.ClassUpdateRequest) (dto.ClassResponse, error)
	Delete(ctx context.Context, actor Actor, classID uint) error
	Roster(ctx context.Context, actor Actor, classID uint) ([]dto.UserResponse, error)
	SearchStudents(ctx context.Context, query string) ([]dto.UserResponse, error)

	AddStudent(ctx context.Context, actor Actor, classID, studentID uint) error
	RemoveStudent(ctx context.Context, actor Actor, classID, studentID uint) error

	RequestJoin(ctx context.Context, actor Actor, classID uint) (dto.JoinRequestResponse, error)
	MyRequests(ctx context.Context, actor Actor) ([]dto.JoinRequestResponse, error)
	MyClasses(ctx context.Context, actor Actor) ([]dto.ClassResponse, error)
	PendingRequests(ctx context.Context, actor Actor) ([]dto.JoinRequestResponse, error)
	Accept(ctx context.Context, actor Actor, requestID uint) error
	Reject(ctx context.Context, actor Actor, requestID uint) error
}

type classService struct {
	classes   repository.ClassRepository
	users     repository.UserRepository
	access    accessPolicy
	validator *validator.Validate
	activity  ActivityRecorder
	notifier  Notifier
	logger    zerolog.Logger
}

// NewClassService constructs the class and enrollment service.
func NewClassService(
	classes repository.ClassRepository,
	courses repository.CourseRepository,
	users repository.UserRepository,
	validate *validator.Validate,
	activity ActivityRecorder,
	notifier Notifier,
	logger zerolog.Logger,
) ClassService {
	return &classService{
		classes:   classes,
		users:     users,
		access:    accessPolicy{classes: classes, courses: courses},
		validator: validate,
		activity:  activity,
		notifier:  notifier,
		logger:    logger.With().Str("component", "class_service").Logger(),
	}
}

func (s *classService) Create(ctx context.Context, actor Actor, payload dto.ClassCreateRequest) (dto.ClassResponse, error) {
	if err := validateStruct(s.validator, payload); err != nil {
		return dto.ClassResponse{}, err
	}
	name, err := requireText("name", payload.Name)
	if err != nil {
		return dto.ClassResponse{}, err
	}

	class := models.Class{
		Name:        name,
		Description: plainText(payload.Description),
		TeacherID:   actor.ID,
	}
	if err := s.classes.Create(ctx, &class); err != nil {
		return dto.ClassResponse{}, err
	}

	s.logger.Info().Uint("class_id", class.ID).Uint("teacher_id", actor.ID).Msg("class created")
	return dto.NewClassResponseWithCount(class, 0), nil
}

func (s *classService) List(ctx context.Context, actor Actor) ([]dto.ClassResponse, error) {
	var (
		summaries []repository.ClassSummary
		err       error
	)
	if actor.IsAdmin() {
		summaries, err = s.classes.ListAll(ctx)
	} else {
		summaries, err = s.classes.ListByTeacher(ctx, actor.ID)
	}
	if err != nil {
		return nil, err
	}

	responses := make([]dto.ClassResponse, 0, len(summaries))
	for _, summary := range summaries {
		responses = append(responses, dto.NewClassResponseWithCount(summary.Class, summary.StudentCount))
	}
	return responses, nil
}

func (s *classService) Update(ctx context.Context, actor Actor, classID uint, payload dto.ClassUpdateRequest) (dto.ClassResponse, error) {
	if err := validateStruct(s.validator, payload); err != nil {
		return dto.ClassResponse{}, err
	}

	class, err := s.access.ownedClass(ctx, actor, classID)
	if err != nil {
		return dto.ClassResponse{}, err
	}

	if payload.Name != nil {
		name, err := requireText("name", *payload.Name)
		if err != nil {
			return dto.ClassResponse{}, err
		}
		class.Name = name
	}
	if payload.Description != nil {
		class.Description = plainText(*payload.Description)
	}

	if err := s.classes.Update(ctx, &class); err != nil {
		return dto.ClassResponse{}, err
	}
	return dto.NewClassResponse(class), nil
}

func (s *classService) Delete(ctx context.Context, actor Actor, classID uint) error {
	class, err := s.access.ownedClass(ctx, actor, classID)
	if err != nil {
		return err
	}

	if err := s.classes.Delete(ctx, class.ID); err != nil {
		if repository.IsNotFound(err) {
			return ErrClassNotFound
		}
		return err
	}

	s.logger.Info().Uint("class_id", class.ID).Uint("actor_id", actor.ID).Msg("class deleted")
	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		Actor:      actor,
		Action:     models.ActionClassDeleted,
		EntityType: "class",
		EntityID:   uintPtr(class.ID),
		Metadata:   map[string]interface{}{"name": class.Name},
	})
	return nil
}

func (s *classService) Roster(ctx context.Context, actor Actor, classID uint) ([]dto.UserResponse, error) {
	class, err := s.access.ownedClass(ctx, actor, classID)
	if err != nil {
		return nil, err
	}
	students, err := s.classes.ListStudents(ctx, class.ID)
	if err != nil {
		return nil, err
	}
	return dto.NewUserResponseSlice(students), nil
}

func (s *classService) SearchStudents(ctx context.Context, query string) ([]dto.UserResponse, error) {
	query = strings.TrimSpace(query)
	if len(query) < 2 {
		return []dto.UserResponse{}, nil
	}
	students, err := s.users.SearchStudents(ctx, query, 20)
	if err != nil {
		return nil, err
	}
	return dto.NewUserResponseSlice(students), nil
}

func (s *classService) AddStudent(ctx context.Context, actor Actor, classID, studentID uint) error {
	class, err := s.access.ownedClass(ctx, actor, classID)
	if err != nil {
		return err
	}

	student, err := s.users.GetByID(ctx, studentID)
	if err != nil {
		if repository.IsNotFound(err) {
			return ErrUserNotFound
		}
		return err
	}
	if student.Role != models.RoleStudent {
		return fieldError("student_id", "must reference a student account")
	}

	if err := s.classes.AddStudent(ctx, class.ID, student.ID); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return ErrAlreadyEnrolled
		}
		return err
	}

	s.logger.Info().Uint("class_id", class.ID).Uint("student_id", student.ID).Msg("student added to class")
	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		Actor:      actor,
		Action:     models.ActionStudentAdded,
		EntityType: "class",
		EntityID:   uintPtr(class.ID),
		Metadata:   map[string]interface{}{"student_id": student.ID},
	})
	notify(ctx, s.notifier, s.logger, student.ID, models.NotificationAddedToClass,
		fmt.Sprintf("You have been added to the class %s", class.Name))
	return nil
}

func (s *classService) RemoveStudent(ctx context.Context, actor Actor, classID, studentID uint) error {
	class, err := s.access.ownedClass(ctx, actor, classID)
	if err != nil {
		return err
	}

	removed, err := s.classes.RemoveStudent(ctx, class.ID, studentID)
	if err != nil {
		return err
	}
	if !removed {
		s.logger.Debug().Uint("class_id", class.ID).Uint("student_id", studentID).Msg("student was not enrolled")
		return nil
	}

	s.logger.Info().Uint("class_id", class.ID).Uint("student_id", studentID).Msg("student removed from class")
	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		Actor:      actor,
		Action:     models.ActionStudentRemoved,
		EntityType: "class",
		EntityID:   uintPtr(class.ID),
		Metadata:   map[string]interface{}{"student_id": studentID},
	})
	return nil
}

func (s *classService) RequestJoin(ctx context.Context, actor Actor, classID uint) (dto.JoinRequestResponse, error) {
	class, err := s.access.class(ctx, classID)
	if err != nil {
		return dto.JoinRequestResponse{}, err
	}

	enrolled, err := s.classes.IsEnrolled(ctx, class.ID, actor.ID)
	if err != nil {
		return dto.JoinRequestResponse{}, err
	}
	if enrolled {
		return dto.JoinRequestResponse{}, ErrAlreadyEnrolled
	}

	request := models.JoinRequest{
		ClassID:   class.ID,
		StudentID: actor.ID,
		Status:    models.JoinRequestPending,
	}
	if err := s.classes.CreateJoinRequest(ctx, &request); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return dto.JoinRequestResponse{}, ErrJoinRequestExists
		}
		return dto.JoinRequestResponse{}, err
	}

	observability.JoinRequests().WithLabelValues("requested").Inc()
	s.logger.Info().Uint("class_id", class.ID).Uint("student_id", actor.ID).Msg("join request created")

	request.Class = &class
	return dto.NewJoinRequestResponse(request), nil
}

func (s *classService) MyRequests(ctx context.Context, actor Actor) ([]dto.JoinRequestResponse, error) {
	requests, err := s.classes.ListRequestsByStudent(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	return dto.NewJoinRequestResponseSlice(requests), nil
}

func (s *classService) MyClasses(ctx context.Context, actor Actor) ([]dto.ClassResponse, error) {
	classes, err := s.classes.ListForStudent(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	responses := make([]dto.ClassResponse, 0, len(classes))
	for _, class := range classes {
		responses = append(responses, dto.NewClassResponse(class))
	}
	return responses, nil
}

func (s *classService) PendingRequests(ctx context.Context, actor Actor) ([]dto.JoinRequestResponse, error) {
	requests, err := s.classes.ListPendingRequests(ctx, actor.scope())
	if err != nil {
		return nil, err
	}
	return dto.NewJoinRequestResponseSlice(requests), nil
}

func (s *classService) Accept(ctx context.Context, actor Actor, requestID uint) error {
	return s.decide(ctx, actor, requestID, true)
}

func (s *classService) Reject(ctx context.Context, actor Actor, requestID uint) error {
	return s.decide(ctx, actor, requestID, false)
}

func (s *classService) decide(ctx context.Context, actor Actor, requestID uint, accept bool) error {
	request, err := s.classes.GetJoinRequest(ctx, requestID)
	if err != nil {
		if repository.IsNotFound(err) {
			return ErrJoinRequestNotFound
		}
		return err
	}
	if request.Class == nil || !actor.Owns(request.Class.TeacherID) {
		return ErrNotClassOwner
	}
	if !request.IsPending() {
		return ErrJoinRequestResolved
	}

	action, outcome, kind, message := models.ActionJoinRejected, "rejected", models.NotificationJoinRejected,
		fmt.Sprintf("Your request to join %s was rejected", request.Class.Name)
	if accept {
		action, outcome, kind, message = models.ActionJoinAccepted, "accepted", models.NotificationJoinAccepted,
			fmt.Sprintf("Your request to join %s was accepted", request.Class.Name)
		err = s.classes.AcceptJoinRequest(ctx, request.ID)
	} else {
		err = s.classes.RejectJoinRequest(ctx, request.ID)
	}
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrStaleState):
			return ErrJoinRequestResolved
		case repository.IsNotFound(err):
			return ErrJoinRequestNotFound
		}
		return err
	}

	observability.JoinRequests().WithLabelValues(outcome).Inc()
	s.logger.Info().
		Uint("request_id", request.ID).
		Uint("class_id", request.ClassID).
		Uint("student_id", request.StudentID).
		Str("outcome", outcome).
		Msg("join request decided")

	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		Actor:      actor,
		Action:     action,
		EntityType: "join_request",
		EntityID:   uintPtr(request.ID),
		Metadata:   map[string]interface{}{"class_id": request.ClassID, "student_id": request.StudentID},
	})
	notify(ctx, s.notifier, s.logger, request.StudentID, kind, message)
	return nil
}
