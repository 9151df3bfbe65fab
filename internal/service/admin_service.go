package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/noah-isme/classroom-api/internal/auth"
	"github.com/noah-isme/classroom-api/internal/dto"
	"github.com/noah-isme/classroom-api/internal/models"
	"github.com/noah-isme/classroom-api/internal/repository"
)

// AdminService manages accounts and platform statistics for administrators.
type AdminService interface {
	ListUsers(ctx context.Context, req dto.AdminUserListRequest) (dto.AdminUserListResponse, error)
	GetUser(ctx context.Context, id uint) (dto.UserResponse, error)
	CreateUser(ctx context.Context, actor Actor, payload dto.AdminUserCreateRequest) (dto.UserResponse, error)
	UpdateUser(ctx context.Context, actor Actor, id uint, payload dto.AdminUserUpdateRequest) (dto.UserResponse, error)
	DeleteUser(ctx context.Context, actor Actor, id uint) error
	Stats(ctx context.Context) (dto.AdminStatsResponse, error)
}

type adminService struct {
	users     repository.UserRepository
	stats     repository.AdminStatsRepository
	validator *validator.Validate
	activity  ActivityRecorder
	logger    zerolog.Logger
}

// NewAdminService constructs the administration service.
func NewAdminService(users repository.UserRepository, stats repository.AdminStatsRepository, validate *validator.Validate, activity ActivityRecorder, logger zerolog.Logger) AdminService {
	return &adminService{
		users:     users,
		stats:     stats,
		validator: validate,
		activity:  activity,
		logger:    logger.With().Str("component", "admin_service").Logger(),
	}
}

func (s *adminService) ListUsers(ctx context.Context, req dto.AdminUserListRequest) (dto.AdminUserListResponse, error) {
	filter := repository.UserFilter{
		Role:     strings.ToLower(strings.TrimSpace(req.Role)),
		Status:   strings.ToLower(strings.TrimSpace(req.Status)),
		Search:   strings.TrimSpace(req.Search),
		Page:     req.Page,
		PageSize: req.PageSize,
	}
	users, total, err := s.users.List(ctx, filter)
	if err != nil {
		return dto.AdminUserListResponse{}, err
	}

	return dto.AdminUserListResponse{
		Items:      dto.NewUserResponseSlice(users),
		Pagination: dto.NewPaginationMeta(req.Page, req.PageSize, total),
	}, nil
}

func (s *adminService) GetUser(ctx context.Context, id uint) (dto.UserResponse, error) {
	user, err := s.user(ctx, id)
	if err != nil {
		return dto.UserResponse{}, err
	}
	return dto.NewUserResponse(user), nil
}

func (s *adminService) CreateUser(ctx context.Context, actor Actor, payload dto.AdminUserCreateRequest) (dto.UserResponse, error) {
	if err := validateStruct(s.validator, payload); err != nil {
		return dto.UserResponse{}, err
	}
	name, err := requireText("name", payload.Name)
	if err != nil {
		return dto.UserResponse{}, err
	}

	hash, err := auth.HashPassword(payload.Password)
	if err != nil {
		return dto.UserResponse{}, err
	}

	status := payload.Status
	if status == "" {
		status = models.StatusActive
	}
	user := models.User{
		Name:         name,
		Email:        strings.ToLower(strings.TrimSpace(payload.Email)),
		PasswordHash: hash,
		Role:         payload.Role,
		Status:       status,
	}
	if err := s.users.Create(ctx, &user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return dto.UserResponse{}, ErrEmailTaken
		}
		return dto.UserResponse{}, err
	}

	s.logger.Info().Uint("user_id", user.ID).Str("role", user.Role).Uint("actor_id", actor.ID).Msg("user created by admin")
	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		Actor:      actor,
		Action:     models.ActionUserCreated,
		EntityType: "user",
		EntityID:   uintPtr(user.ID),
		Metadata:   map[string]interface{}{"email": user.Email, "role": user.Role, "status": user.Status},
	})
	return dto.NewUserResponse(user), nil
}

func (s *adminService) UpdateUser(ctx context.Context, actor Actor, id uint, payload dto.AdminUserUpdateRequest) (dto.UserResponse, error) {
	if err := validateStruct(s.validator, payload); err != nil {
		return dto.UserResponse{}, err
	}
	user, err := s.user(ctx, id)
	if err != nil {
		return dto.UserResponse{}, err
	}

	changes := map[string]interface{}{}
	if payload.Name != nil {
		name, err := requireText("name", *payload.Name)
		if err != nil {
			return dto.UserResponse{}, err
		}
		user.Name = name
		changes["name"] = name
	}
	if payload.Email != nil {
		user.Email = strings.ToLower(strings.TrimSpace(*payload.Email))
		changes["email"] = user.Email
	}
	if payload.Password != nil {
		hash, err := auth.HashPassword(*payload.Password)
		if err != nil {
			return dto.UserResponse{}, err
		}
		user.PasswordHash = hash
		changes["password"] = "changed"
	}
	if payload.Role != nil {
		user.Role = *payload.Role
		changes["role"] = user.Role
	}
	if payload.Status != nil {
		user.Status = *payload.Status
		changes["status"] = user.Status
	}

	if err := s.users.Update(ctx, &user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return dto.UserResponse{}, ErrEmailTaken
		}
		return dto.UserResponse{}, err
	}

	s.logger.Info().Uint("user_id", user.ID).Uint("actor_id", actor.ID).Msg("user updated by admin")
	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		Actor:      actor,
		Action:     models.ActionUserUpdated,
		EntityType: "user",
		EntityID:   uintPtr(user.ID),
		Metadata:   changes,
	})
	return dto.NewUserResponse(user), nil
}

func (s *adminService) DeleteUser(ctx context.Context, actor Actor, id uint) error {
	if actor.ID == id {
		return ErrCannotDeleteSelf
	}
	user, err := s.user(ctx, id)
	if err != nil {
		return err
	}

	if err := s.users.Delete(ctx, user.ID); err != nil {
		switch {
		case errors.Is(err, repository.ErrInUse):
			return ErrUserInUse
		case repository.IsNotFound(err):
			return ErrUserNotFound
		}
		return err
	}

	s.logger.Info().Uint("user_id", user.ID).Uint("actor_id", actor.ID).Msg("user deleted by admin")
	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		Actor:      actor,
		Action:     models.ActionUserDeleted,
		EntityType: "user",
		EntityID:   uintPtr(user.ID),
		Metadata:   map[string]interface{}{"email": user.Email, "role": user.Role},
	})
	return nil
}

func (s *adminService) Stats(ctx context.Context) (dto.AdminStatsResponse, error) {
	counts, err := s.stats.Counts(ctx)
	if err != nil {
		return dto.AdminStatsResponse{}, err
	}
	return dto.AdminStatsResponse{
		Users:           counts.Users,
		Admins:          counts.Admins,
		Teachers:        counts.Teachers,
		Students:        counts.Students,
		PendingTeachers: counts.PendingTeachers,
		Classes:         counts.Classes,
		Courses:         counts.Courses,
		PublicCourses:   counts.PublicCourses,
		Quizzes:         counts.Quizzes,
		Exams:           counts.Exams,
		PendingRequests: counts.PendingRequests,
	}, nil
}

func (s *adminService) user(ctx context.Context, id uint) (models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, err
	}
	return user, nil
}
