package service

import (
	"context"
	"mime/multipart"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/classroom-api/internal/dto"
	"github.com/noah-isme/classroom-api/internal/models"
	"github.com/noah-isme/classroom-api/internal/repository"
	"github.com/noah-isme/classroom-api/pkg/storage"
)

// CourseService manages the course catalog and course resources.
type CourseService interface {
	Create(ctx context.Context, actor Actor, payload dto.CourseCreateRequest, files []*multipart.FileHeader, baseURL string) (dto.CourseResponse, error)
	ListPublic(ctx context.Context) ([]dto.CourseResponse, error)
	GetPublic(ctx context.Context, courseID uint) (dto.CourseResponse, error)
	ListForClass(ctx context.Context, actor Actor, classID uint) ([]dto.CourseResponse, error)
	List(ctx context.Context, actor Actor, search string) ([]dto.CourseResponse, error)
	Get(ctx context.Context, actor Actor, courseID uint) (dto.CourseResponse, error)
	Update(ctx context.Context, actor Actor, courseID uint, payload dto.CourseUpdateRequest) (dto.CourseResponse, error)
	AddSupports(ctx context.Context, actor Actor, courseID uint, files []*multipart.FileHeader, baseURL string) (dto.CourseResponse, error)
	ReplaceSupports(ctx context.Context, actor Actor, courseID uint, payload dto.SupportsReplaceRequest) (dto.CourseResponse, error)
	Delete(ctx context.Context, actor Actor, courseID uint) error
}

type courseService struct {
	courses       repository.CourseRepository
	access        accessPolicy
	uploader      *resourceUploader
	publicBaseURL string
	validator     *validator.Validate
	activity      ActivityRecorder
	logger        zerolog.Logger
	tracer        trace.Tracer
}

// CourseServiceConfig carries the storage settings of the course service.
type CourseServiceConfig struct {
	Storage        FileStorage
	MaxUploadBytes int64
	PublicBaseURL  string
}

// NewCourseService constructs the course service.
func NewCourseService(
	courses repository.CourseRepository,
	classes repository.ClassRepository,
	cfg CourseServiceConfig,
	validate *validator.Validate,
	activity ActivityRecorder,
	logger zerolog.Logger,
) CourseService {
	return &courseService{
		courses:       courses,
		access:        accessPolicy{classes: classes, courses: courses},
		uploader:      newResourceUploader(cfg.Storage, cfg.MaxUploadBytes, logger),
		publicBaseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
		validator:     validate,
		activity:      activity,
		logger:        logger.With().Str("component", "course_service").Logger(),
		tracer:        otel.Tracer("github.com/noah-isme/classroom-api/internal/service/course"),
	}
}

func (s *courseService) Create(ctx context.Context, actor Actor, payload dto.CourseCreateRequest, files []*multipart.FileHeader, baseURL string) (dto.CourseResponse, error) {
	ctx, span := s.tracer.Start(ctx, "course.create")
	defer span.End()
	span.SetAttributes(
		attribute.Int("course.teacher_id", int(actor.ID)),
		attribute.Int("course.files", len(files)),
	)

	if err := validateStruct(s.validator, payload); err != nil {
		span.SetStatus(codes.Error, "validation failed")
		return dto.CourseResponse{}, err
	}
	title, err := requireText("title", payload.Title)
	if err != nil {
		span.SetStatus(codes.Error, "validation failed")
		return dto.CourseResponse{}, err
	}

	if payload.ClassID != nil {
		if _, err := s.access.ownedClass(ctx, actor, *payload.ClassID); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "class access denied")
			return dto.CourseResponse{}, err
		}
	}

	course := models.Course{
		Title:       title,
		Description: richText(payload.Description),
		TeacherID:   actor.ID,
	}
	course.ScopeToClass(payload.ClassID)

	stored, err := s.uploader.storeAll(ctx, files)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "upload failed")
		return dto.CourseResponse{}, err
	}
	course.Resources = s.resourceRows(0, stored, baseURL)

	if err := s.courses.Create(ctx, &course); err != nil {
		s.uploader.discard(ctx, stored)
		span.RecordError(err)
		span.SetStatus(codes.Error, "persistence failed")
		return dto.CourseResponse{}, err
	}

	span.SetAttributes(attribute.Int("course.id", int(course.ID)), attribute.Bool("course.public", course.IsPublic))
	span.SetStatus(codes.Ok, "created")
	s.logger.Info().
		Uint("course_id", course.ID).
		Uint("teacher_id", actor.ID).
		Bool("public", course.IsPublic).
		Int("resources", len(course.Resources)).
		Msg("course created")

	return s.load(ctx, course.ID)
}

func (s *courseService) ListPublic(ctx context.Context) ([]dto.CourseResponse, error) {
	courses, err := s.courses.ListPublic(ctx)
	if err != nil {
		return nil, err
	}
	return dto.NewCourseResponseSlice(courses), nil
}

func (s *courseService) GetPublic(ctx context.Context, courseID uint) (dto.CourseResponse, error) {
	course, err := s.courses.GetPublic(ctx, courseID)
	if err != nil {
		if repository.IsNotFound(err) {
			return dto.CourseResponse{}, ErrCourseNotFound
		}
		return dto.CourseResponse{}, err
	}
	return dto.NewCourseResponse(course), nil
}

func (s *courseService) ListForClass(ctx context.Context, actor Actor, classID uint) ([]dto.CourseResponse, error) {
	class, err := s.access.class(ctx, classID)
	if err != nil {
		return nil, err
	}
	if err := s.access.requireMember(ctx, actor, class); err != nil {
		return nil, err
	}

	courses, err := s.courses.List(ctx, repository.CourseFilter{ClassID: &class.ID})
	if err != nil {
		return nil, err
	}
	return dto.NewCourseResponseSlice(courses), nil
}

func (s *courseService) List(ctx context.Context, actor Actor, search string) ([]dto.CourseResponse, error) {
	courses, err := s.courses.List(ctx, repository.CourseFilter{
		TeacherID: actor.scope(),
		Search:    strings.TrimSpace(search),
	})
	if err != nil {
		return nil, err
	}
	return dto.NewCourseResponseSlice(courses), nil
}

func (s *courseService) Get(ctx context.Context, actor Actor, courseID uint) (dto.CourseResponse, error) {
	course, err := s.access.ownedCourse(ctx, actor, courseID)
	if err != nil {
		return dto.CourseResponse{}, err
	}
	return dto.NewCourseResponse(course), nil
}

func (s *courseService) Update(ctx context.Context, actor Actor, courseID uint, payload dto.CourseUpdateRequest) (dto.CourseResponse, error) {
	if err := validateStruct(s.validator, payload); err != nil {
		return dto.CourseResponse{}, err
	}

	course, err := s.access.ownedCourse(ctx, actor, courseID)
	if err != nil {
		return dto.CourseResponse{}, err
	}

	if payload.Title != nil {
		title, err := requireText("title", *payload.Title)
		if err != nil {
			return dto.CourseResponse{}, err
		}
		course.Title = title
	}
	if payload.Description != nil {
		course.Description = richText(*payload.Description)
	}

	if err := s.courses.Update(ctx, &course); err != nil {
		return dto.CourseResponse{}, err
	}
	return s.load(ctx, course.ID)
}

func (s *courseService) AddSupports(ctx context.Context, actor Actor, courseID uint, files []*multipart.FileHeader, baseURL string) (dto.CourseResponse, error) {
	course, err := s.access.ownedCourse(ctx, actor, courseID)
	if err != nil {
		return dto.CourseResponse{}, err
	}
	if len(files) == 0 {
		return dto.CourseResponse{}, fieldError("files", "at least one file is required")
	}

	stored, err := s.uploader.storeAll(ctx, files)
	if err != nil {
		return dto.CourseResponse{}, err
	}
	if err := s.courses.AddResources(ctx, s.resourceRows(course.ID, stored, baseURL)); err != nil {
		s.uploader.discard(ctx, stored)
		return dto.CourseResponse{}, err
	}

	s.logger.Info().Uint("course_id", course.ID).Int("resources", len(stored)).Msg("course supports added")
	return s.load(ctx, course.ID)
}

func (s *courseService) ReplaceSupports(ctx context.Context, actor Actor, courseID uint, payload dto.SupportsReplaceRequest) (dto.CourseResponse, error) {
	if err := validateStruct(s.validator, payload); err != nil {
		return dto.CourseResponse{}, err
	}

	course, err := s.access.ownedCourse(ctx, actor, courseID)
	if err != nil {
		return dto.CourseResponse{}, err
	}

	resources := make([]models.CourseResource, 0, len(payload.Supports))
	for _, link := range payload.Supports {
		link = strings.TrimSpace(link)
		if link == "" {
			continue
		}
		resources = append(resources, models.CourseResource{
			CourseID: course.ID,
			Type:     models.ResourceTypeURL,
			Path:     link,
		})
	}

	if err := s.courses.ReplaceResources(ctx, course.ID, resources); err != nil {
		return dto.CourseResponse{}, err
	}

	s.logger.Info().Uint("course_id", course.ID).Int("resources", len(resources)).Msg("course supports replaced")
	return s.load(ctx, course.ID)
}

func (s *courseService) Delete(ctx context.Context, actor Actor, courseID uint) error {
	course, err := s.access.ownedCourse(ctx, actor, courseID)
	if err != nil {
		return err
	}

	if err := s.courses.Delete(ctx, course.ID); err != nil {
		if repository.IsNotFound(err) {
			return ErrCourseNotFound
		}
		return err
	}

	s.logger.Info().Uint("course_id", course.ID).Uint("actor_id", actor.ID).Msg("course deleted")
	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		Actor:      actor,
		Action:     models.ActionCourseDeleted,
		EntityType: "course",
		EntityID:   uintPtr(course.ID),
		Metadata:   map[string]interface{}{"title": course.Title, "class_id": course.ClassID},
	})
	return nil
}

func (s *courseService) load(ctx context.Context, courseID uint) (dto.CourseResponse, error) {
	course, err := s.access.course(ctx, courseID)
	if err != nil {
		return dto.CourseResponse{}, err
	}
	return dto.NewCourseResponse(course), nil
}

func (s *courseService) resourceRows(courseID uint, stored []storedFile, baseURL string) []models.CourseResource {
	base := s.publicBaseURL
	if base == "" {
		base = strings.TrimRight(baseURL, "/")
	}

	rows := make([]models.CourseResource, 0, len(stored))
	for _, file := range stored {
		rows = append(rows, models.CourseResource{
			CourseID: courseID,
			Type:     file.Type,
			Path:     storage.PublicURL(base, file.Location),
		})
	}
	return rows
}
