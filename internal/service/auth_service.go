package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/noah-isme/classroom-api/internal/auth"
	"github.com/noah-isme/classroom-api/internal/dto"
	"github.com/noah-isme/classroom-api/internal/models"
	"github.com/noah-isme/classroom-api/internal/repository"
)

// AuthService registers accounts, exchanges credentials for tokens and
// resolves tokens back to users.
type AuthService interface {
	Register(ctx context.Context, payload dto.RegisterRequest) (dto.AuthResponse, error)
	Login(ctx context.Context, payload dto.LoginRequest) (dto.AuthResponse, error)
	ResolveToken(ctx context.Context, token string) (models.User, error)
	Profile(ctx context.Context, actor Actor) (dto.UserResponse, error)
	UpdateProfile(ctx context.Context, actor Actor, payload dto.ProfileUpdateRequest) (dto.UserResponse, error)
}

type authService struct {
	users     repository.UserRepository
	tokens    *auth.TokenManager
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewAuthService constructs the identity service.
func NewAuthService(users repository.UserRepository, tokens *auth.TokenManager, validate *validator.Validate, logger zerolog.Logger) AuthService {
	return &authService{
		users:     users,
		tokens:    tokens,
		validator: validate,
		logger:    logger.With().Str("component", "auth_service").Logger(),
	}
}

func (s *authService) Register(ctx context.Context, payload dto.RegisterRequest) (dto.AuthResponse, error) {
	if err := validateStruct(s.validator, payload); err != nil {
		return dto.AuthResponse{}, err
	}

	name, err := requireText("name", payload.Name)
	if err != nil {
		return dto.AuthResponse{}, err
	}

	role := payload.Role
	if role == "" {
		role = models.RoleStudent
	}
	status := models.StatusActive
	if role == models.RoleTeacher {
		status = models.StatusPending
	}

	hash, err := auth.HashPassword(payload.Password)
	if err != nil {
		return dto.AuthResponse{}, err
	}

	user := models.User{
		Name:         name,
		Email:        strings.ToLower(strings.TrimSpace(payload.Email)),
		PasswordHash: hash,
		Role:         role,
		Status:       status,
	}
	if err := s.users.Create(ctx, &user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return dto.AuthResponse{}, ErrEmailTaken
		}
		return dto.AuthResponse{}, err
	}

	s.logger.Info().Uint("user_id", user.ID).Str("role", role).Str("status", status).Msg("user registered")

	if !user.IsActive() {
		return dto.AuthResponse{User: dto.NewUserResponse(user)}, nil
	}
	return s.issue(user)
}

func (s *authService) Login(ctx context.Context, payload dto.LoginRequest) (dto.AuthResponse, error) {
	if err := validateStruct(s.validator, payload); err != nil {
		return dto.AuthResponse{}, err
	}

	user, err := s.users.GetByEmail(ctx, payload.Email)
	if err != nil {
		if repository.IsNotFound(err) {
			return dto.AuthResponse{}, ErrInvalidCredentials
		}
		return dto.AuthResponse{}, err
	}
	if !auth.CheckPassword(user.PasswordHash, payload.Password) {
		return dto.AuthResponse{}, ErrInvalidCredentials
	}
	if !user.IsActive() {
		return dto.AuthResponse{}, ErrPendingApproval
	}

	return s.issue(user)
}

func (s *authService) ResolveToken(ctx context.Context, token string) (models.User, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return models.User{}, newError(ErrUnauthenticated, "invalid or expired token")
	}
	userID, err := claims.UserID()
	if err != nil {
		return models.User{}, newError(ErrUnauthenticated, "invalid or expired token")
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if repository.IsNotFound(err) {
			return models.User{}, newError(ErrUnauthenticated, "account no longer exists")
		}
		return models.User{}, err
	}
	if !user.IsActive() {
		return models.User{}, ErrPendingApproval
	}
	return user, nil
}

func (s *authService) Profile(ctx context.Context, actor Actor) (dto.UserResponse, error) {
	user, err := s.users.GetByID(ctx, actor.ID)
	if err != nil {
		if repository.IsNotFound(err) {
			return dto.UserResponse{}, ErrUserNotFound
		}
		return dto.UserResponse{}, err
	}
	return dto.NewUserResponse(user), nil
}

func (s *authService) UpdateProfile(ctx context.Context, actor Actor, payload dto.ProfileUpdateRequest) (dto.UserResponse, error) {
	if err := validateStruct(s.validator, payload); err != nil {
		return dto.UserResponse{}, err
	}

	user, err := s.users.GetByID(ctx, actor.ID)
	if err != nil {
		if repository.IsNotFound(err) {
			return dto.UserResponse{}, ErrUserNotFound
		}
		return dto.UserResponse{}, err
	}

	if payload.Name != nil {
		name, err := requireText("name", *payload.Name)
		if err != nil {
			return dto.UserResponse{}, err
		}
		user.Name = name
	}

	if err := s.users.Update(ctx, &user); err != nil {
		return dto.UserResponse{}, err
	}
	return dto.NewUserResponse(user), nil
}

func (s *authService) issue(user models.User) (dto.AuthResponse, error) {
	token, expiresAt, err := s.tokens.Issue(user.ID, user.Role)
	if err != nil {
		return dto.AuthResponse{}, err
	}
	exp := expiresAt.UTC().Truncate(time.Second)
	return dto.AuthResponse{
		User:      dto.NewUserResponse(user),
		Token:     token,
		TokenType: "Bearer",
		ExpiresAt: &exp,
	}, nil
}
