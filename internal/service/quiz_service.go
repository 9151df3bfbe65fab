package service

import (
	"context"
	"errors"
	"maps"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/classroom-api/internal/dto"
	"github.com/noah-isme/classroom-api/internal/models"
	"github.com/noah-isme/classroom-api/internal/observability"
	"github.com/noah-isme/classroom-api/internal/repository"
)

// QuizService manages quizzes for teachers and quiz attempts for students.
type QuizService interface {
	List(ctx context.Context, actor Actor) ([]dto.QuizResponse, error)
	Create(ctx context.Context, actor Actor, payload dto.QuizCreateRequest) (dto.QuizResponse, error)
	Get(ctx context.Context, actor Actor, quizID uint) (dto.QuizResponse, error)
	Update(ctx context.Context, actor Actor, quizID uint, payload dto.QuizUpdateRequest) (dto.QuizResponse, error)
	Delete(ctx context.Context, actor Actor, quizID uint) error
	Questions(ctx context.Context, actor Actor, quizID uint) ([]dto.QuizQuestionResponse, error)
	CreateQuestion(ctx context.Context, actor Actor, quizID uint, payload dto.QuizQuestionRequest) (dto.QuizQuestionResponse, error)
	UpdateQuestion(ctx context.Context, actor Actor, quizID, questionID uint, payload dto.QuizQuestionUpdateRequest) (dto.QuizQuestionResponse, error)
	DeleteQuestion(ctx context.Context, actor Actor, quizID, questionID uint) error

	ListForCourse(ctx context.Context, actor Actor, courseID uint) ([]dto.QuizResponse, error)
	Show(ctx context.Context, actor Actor, quizID uint) (dto.QuizResponse, error)
	StudentQuestions(ctx context.Context, actor Actor, quizID uint) ([]dto.QuizQuestionResponse, error)
	Taken(ctx context.Context, actor Actor, quizID uint) (dto.TakenResponse, error)
	Submit(ctx context.Context, actor Actor, quizID uint, payload dto.QuizSubmitRequest) (dto.QuizResultResponse, error)
	Result(ctx context.Context, actor Actor, quizID uint) (dto.QuizResultResponse, error)
}

type quizService struct {
	quizzes   repository.QuizRepository
	access    accessPolicy
	validator *validator.Validate
	logger    zerolog.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// NewQuizService constructs the quiz service.
func NewQuizService(
	quizzes repository.QuizRepository,
	courses repository.CourseRepository,
	classes repository.ClassRepository,
	validate *validator.Validate,
	logger zerolog.Logger,
) QuizService {
	return &quizService{
		quizzes:   quizzes,
		access:    accessPolicy{classes: classes, courses: courses},
		validator: validate,
		logger:    logger.With().Str("component", "quiz_service").Logger(),
		tracer:    otel.Tracer("github.com/noah-isme/classroom-api/internal/service/quiz"),
		now:       time.Now,
	}
}

func (s *quizService) List(ctx context.Context, actor Actor) ([]dto.QuizResponse, error) {
	quizzes, err := s.quizzes.ListByTeacher(ctx, actor.scope())
	if err != nil {
		return nil, err
	}
	return dto.NewQuizResponseSlice(quizzes), nil
}

func (s *quizService) Create(ctx context.Context, actor Actor, payload dto.QuizCreateRequest) (dto.QuizResponse, error) {
	if err := validateStruct(s.validator, payload); err != nil {
		return dto.QuizResponse{}, err
	}
	title, err := requireText("title", payload.Title)
	if err != nil {
		return dto.QuizResponse{}, err
	}

	course, err := s.access.ownedCourse(ctx, actor, payload.CourseID)
	if err != nil {
		return dto.QuizResponse{}, err
	}

	quiz := models.Quiz{Title: title, CourseID: course.ID}
	if err := s.quizzes.Create(ctx, &quiz); err != nil {
		return dto.QuizResponse{}, err
	}
	quiz.Course = &course

	s.logger.Info().Uint("quiz_id", quiz.ID).Uint("course_id", course.ID).Msg("quiz created")
	return dto.NewQuizResponse(quiz), nil
}

func (s *quizService) Get(ctx context.Context, actor Actor, quizID uint) (dto.QuizResponse, error) {
	quiz, err := s.ownedQuiz(ctx, actor, quizID)
	if err != nil {
		return dto.QuizResponse{}, err
	}
	return dto.NewQuizResponse(quiz), nil
}

func (s *quizService) Update(ctx context.Context, actor Actor, quizID uint, payload dto.QuizUpdateRequest) (dto.QuizResponse, error) {
	if err := validateStruct(s.validator, payload); err != nil {
		return dto.QuizResponse{}, err
	}
	quiz, err := s.ownedQuiz(ctx, actor, quizID)
	if err != nil {
		return dto.QuizResponse{}, err
	}

	if payload.Title != nil {
		title, err := requireText("title", *payload.Title)
		if err != nil {
			return dto.QuizResponse{}, err
		}
		quiz.Title = title
	}
	if err := s.quizzes.Update(ctx, &quiz); err != nil {
		return dto.QuizResponse{}, err
	}
	return dto.NewQuizResponse(quiz), nil
}

func (s *quizService) Delete(ctx context.Context, actor Actor, quizID uint) error {
	quiz, err := s.ownedQuiz(ctx, actor, quizID)
	if err != nil {
		return err
	}
	if err := s.quizzes.Delete(ctx, quiz.ID); err != nil {
		if repository.IsNotFound(err) {
			return ErrQuizNotFound
		}
		return err
	}
	s.logger.Info().Uint("quiz_id", quiz.ID).Uint("actor_id", actor.ID).Msg("quiz deleted")
	return nil
}

func (s *quizService) Questions(ctx context.Context, actor Actor, quizID uint) ([]dto.QuizQuestionResponse, error) {
	quiz, err := s.ownedQuiz(ctx, actor, quizID)
	if err != nil {
		return nil, err
	}
	questions, err := s.quizzes.ListQuestions(ctx, quiz.ID)
	if err != nil {
		return nil, err
	}
	return dto.NewQuizQuestionResponseSlice(questions, true), nil
}

func (s *quizService) CreateQuestion(ctx context.Context, actor Actor, quizID uint, payload dto.QuizQuestionRequest) (dto.QuizQuestionResponse, error) {
	if err := validateStruct(s.validator, payload); err != nil {
		return dto.QuizQuestionResponse{}, err
	}
	quiz, err := s.ownedQuiz(ctx, actor, quizID)
	if err != nil {
		return dto.QuizQuestionResponse{}, err
	}

	question := models.QuizQuestion{QuizID: quiz.ID}
	if err := applyQuizQuestion(&question, dto.QuizQuestionUpdateRequest{
		Question:      &payload.Question,
		OptionA:       &payload.OptionA,
		OptionB:       &payload.OptionB,
		OptionC:       &payload.OptionC,
		OptionD:       &payload.OptionD,
		CorrectOption: &payload.CorrectOption,
	}); err != nil {
		return dto.QuizQuestionResponse{}, err
	}

	if err := s.quizzes.CreateQuestion(ctx, &question); err != nil {
		return dto.QuizQuestionResponse{}, err
	}
	return dto.NewQuizQuestionResponse(question, true), nil
}

func (s *quizService) UpdateQuestion(ctx context.Context, actor Actor, quizID, questionID uint, payload dto.QuizQuestionUpdateRequest) (dto.QuizQuestionResponse, error) {
	if err := validateStruct(s.validator, payload); err != nil {
		return dto.QuizQuestionResponse{}, err
	}
	quiz, err := s.ownedQuiz(ctx, actor, quizID)
	if err != nil {
		return dto.QuizQuestionResponse{}, err
	}

	question, err := s.quizzes.GetQuestion(ctx, quiz.ID, questionID)
	if err != nil {
		if repository.IsNotFound(err) {
			return dto.QuizQuestionResponse{}, ErrQuestionNotFound
		}
		return dto.QuizQuestionResponse{}, err
	}
	if err := applyQuizQuestion(&question, payload); err != nil {
		return dto.QuizQuestionResponse{}, err
	}

	if err := s.quizzes.UpdateQuestion(ctx, &question); err != nil {
		return dto.QuizQuestionResponse{}, err
	}
	return dto.NewQuizQuestionResponse(question, true), nil
}

func (s *quizService) DeleteQuestion(ctx context.Context, actor Actor, quizID, questionID uint) error {
	quiz, err := s.ownedQuiz(ctx, actor, quizID)
	if err != nil {
		return err
	}
	if err := s.quizzes.DeleteQuestion(ctx, quiz.ID, questionID); err != nil {
		if repository.IsNotFound(err) {
			return ErrQuestionNotFound
		}
		return err
	}
	return nil
}

func (s *quizService) ListForCourse(ctx context.Context, actor Actor, courseID uint) ([]dto.QuizResponse, error) {
	course, err := s.access.course(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if err := s.access.requireCourseAccess(ctx, actor, course); err != nil {
		return nil, err
	}
	quizzes, err := s.quizzes.ListByCourse(ctx, course.ID)
	if err != nil {
		return nil, err
	}
	return dto.NewQuizResponseSlice(quizzes), nil
}

func (s *quizService) Show(ctx context.Context, actor Actor, quizID uint) (dto.QuizResponse, error) {
	quiz, err := s.accessibleQuiz(ctx, actor, quizID)
	if err != nil {
		return dto.QuizResponse{}, err
	}
	return dto.NewQuizResponse(quiz), nil
}

func (s *quizService) StudentQuestions(ctx context.Context, actor Actor, quizID uint) ([]dto.QuizQuestionResponse, error) {
	quiz, err := s.accessibleQuiz(ctx, actor, quizID)
	if err != nil {
		return nil, err
	}
	questions, err := s.quizzes.ListQuestions(ctx, quiz.ID)
	if err != nil {
		return nil, err
	}
	return dto.NewQuizQuestionResponseSlice(questions, false), nil
}

func (s *quizService) Taken(ctx context.Context, actor Actor, quizID uint) (dto.TakenResponse, error) {
	quiz, err := s.accessibleQuiz(ctx, actor, quizID)
	if err != nil {
		return dto.TakenResponse{}, err
	}
	taken, err := s.quizzes.HasResult(ctx, quiz.ID, actor.ID)
	if err != nil {
		return dto.TakenResponse{}, err
	}
	return dto.TakenResponse{Taken: taken}, nil
}

// Submit grades the attempt against the stored options and persists the result.
// The unique (quiz, student) index rejects a second attempt.
func (s *quizService) Submit(ctx context.Context, actor Actor, quizID uint, payload dto.QuizSubmitRequest) (dto.QuizResultResponse, error) {
	ctx, span := s.tracer.Start(ctx, "quiz.submit")
	defer span.End()
	span.SetAttributes(
		attribute.Int("quiz.id", int(quizID)),
		attribute.Int("quiz.student_id", int(actor.ID)),
		attribute.Int("quiz.answers", len(payload.Answers)),
	)

	if err := validateStruct(s.validator, payload); err != nil {
		span.SetStatus(codes.Error, "validation failed")
		return dto.QuizResultResponse{}, err
	}

	quiz, err := s.accessibleQuiz(ctx, actor, quizID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "access denied")
		return dto.QuizResultResponse{}, err
	}

	questions, err := s.quizzes.ListQuestions(ctx, quiz.ID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load questions failed")
		return dto.QuizResultResponse{}, err
	}
	if len(questions) == 0 {
		span.SetStatus(codes.Error, "no questions")
		return dto.QuizResultResponse{}, ErrNoQuestions
	}

	result := models.QuizResult{
		QuizID:    quiz.ID,
		StudentID: actor.ID,
		Score:     scoreQuiz(questions, payload.Answers),
		Total:     len(questions),
	}
	if err := s.quizzes.CreateResult(ctx, &result); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			observability.Submissions().WithLabelValues("quiz", "duplicate").Inc()
			span.SetStatus(codes.Error, "already taken")
			return dto.QuizResultResponse{}, ErrQuizAlreadyTaken
		}
		observability.Submissions().WithLabelValues("quiz", "failed").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "persistence failed")
		return dto.QuizResultResponse{}, err
	}

	observability.Submissions().WithLabelValues("quiz", "accepted").Inc()
	span.SetAttributes(attribute.Int("quiz.score", result.Score), attribute.Int("quiz.total", result.Total))
	span.SetStatus(codes.Ok, "graded")
	s.logger.Info().
		Uint("quiz_id", quiz.ID).
		Uint("student_id", actor.ID).
		Int("score", result.Score).
		Int("total", result.Total).
		Msg("quiz submitted")

	result.Quiz = &quiz
	if result.CreatedAt.IsZero() {
		result.CreatedAt = s.now()
	}
	return dto.NewQuizResultResponse(result), nil
}

func (s *quizService) Result(ctx context.Context, actor Actor, quizID uint) (dto.QuizResultResponse, error) {
	quiz, err := s.accessibleQuiz(ctx, actor, quizID)
	if err != nil {
		return dto.QuizResultResponse{}, err
	}
	result, err := s.quizzes.GetResult(ctx, quiz.ID, actor.ID)
	if err != nil {
		if repository.IsNotFound(err) {
			return dto.QuizResultResponse{}, ErrResultNotFound
		}
		return dto.QuizResultResponse{}, err
	}
	return dto.NewQuizResultResponse(result), nil
}

func (s *quizService) quiz(ctx context.Context, quizID uint) (models.Quiz, error) {
	quiz, err := s.quizzes.GetByID(ctx, quizID)
	if err != nil {
		if repository.IsNotFound(err) {
			return models.Quiz{}, ErrQuizNotFound
		}
		return models.Quiz{}, err
	}
	if quiz.Course == nil {
		return models.Quiz{}, ErrCourseNotFound
	}
	return quiz, nil
}

func (s *quizService) ownedQuiz(ctx context.Context, actor Actor, quizID uint) (models.Quiz, error) {
	quiz, err := s.quiz(ctx, quizID)
	if err != nil {
		return models.Quiz{}, err
	}
	if !actor.Owns(quiz.Course.TeacherID) {
		return models.Quiz{}, ErrNotCourseOwner
	}
	return quiz, nil
}

func (s *quizService) accessibleQuiz(ctx context.Context, actor Actor, quizID uint) (models.Quiz, error) {
	quiz, err := s.quiz(ctx, quizID)
	if err != nil {
		return models.Quiz{}, err
	}
	if err := s.access.requireCourseAccess(ctx, actor, *quiz.Course); err != nil {
		return models.Quiz{}, err
	}
	return quiz, nil
}

func applyQuizQuestion(question *models.QuizQuestion, payload dto.QuizQuestionUpdateRequest) error {
	fields := []struct {
		name   string
		value  *string
		target *string
	}{
		{"question", payload.Question, &question.Question},
		{"option_a", payload.OptionA, &question.OptionA},
		{"option_b", payload.OptionB, &question.OptionB},
		{"option_c", payload.OptionC, &question.OptionC},
		{"option_d", payload.OptionD, &question.OptionD},
	}
	for _, field := range fields {
		if field.value == nil {
			continue
		}
		cleaned, err := requireText(field.name, *field.value)
		if err != nil {
			return err
		}
		*field.target = cleaned
	}
	if payload.CorrectOption != nil {
		question.CorrectOption = *payload.CorrectOption
	}
	return nil
}

// scoreQuiz counts the questions whose chosen letter equals the stored one.
// Comparison is exact, so "A" does not match "a". When two keys name the
// same question the first in key order counts.
func scoreQuiz(questions []models.QuizQuestion, answers map[string]string) int {
	chosen := make(map[uint]string, len(answers))
	for _, key := range slices.Sorted(maps.Keys(answers)) {
		id, ok := parseQuestionID(key)
		if !ok {
			continue
		}
		if _, seen := chosen[id]; !seen {
			chosen[id] = answers[key]
		}
	}

	score := 0
	for _, question := range questions {
		if answer, ok := chosen[question.ID]; ok && answer == question.CorrectOption {
			score++
		}
	}
	return score
}

func parseQuestionID(key string) (uint, bool) {
	id, err := strconv.ParseUint(strings.TrimSpace(key), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
