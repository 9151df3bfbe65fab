package service

import (
	"context"
	"fmt"
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

// GradingService exposes results to teachers and students and records exam scores.
type GradingService interface {
	QuizResults(ctx context.Context, actor Actor, quizID uint) ([]dto.QuizResultResponse, error)
	ExamResults(ctx context.Context, actor Actor, examID uint) ([]dto.ExamResultResponse, error)
	SetExamScore(ctx context.Context, actor Actor, examID, resultID uint, payload dto.ExamScoreRequest) (dto.ExamResultResponse, error)
	MyGrades(ctx context.Context, actor Actor) (dto.GradesResponse, error)
	CourseResults(ctx context.Context, actor Actor, courseID uint) (dto.GradesResponse, error)
}

type gradingService struct {
	quizzes   repository.QuizRepository
	exams     repository.ExamRepository
	grades    repository.GradeRepository
	access    accessPolicy
	validator *validator.Validate
	activity  ActivityRecorder
	notifier  Notifier
	logger    zerolog.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// GradingRepositories groups the stores read by the grading service.
type GradingRepositories struct {
	Quizzes repository.QuizRepository
	Exams   repository.ExamRepository
	Grades  repository.GradeRepository
	Courses repository.CourseRepository
	Classes repository.ClassRepository
}

// NewGradingService constructs the grading service.
func NewGradingService(repos GradingRepositories, validate *validator.Validate, activity ActivityRecorder, notifier Notifier, logger zerolog.Logger) GradingService {
	return &gradingService{
		quizzes:   repos.Quizzes,
		exams:     repos.Exams,
		grades:    repos.Grades,
		access:    accessPolicy{classes: repos.Classes, courses: repos.Courses},
		validator: validate,
		activity:  activity,
		notifier:  notifier,
		logger:    logger.With().Str("component", "grading_service").Logger(),
		tracer:    otel.Tracer("github.com/noah-isme/classroom-api/internal/service/grading"),
		now:       time.Now,
	}
}

func (s *gradingService) QuizResults(ctx context.Context, actor Actor, quizID uint) ([]dto.QuizResultResponse, error) {
	quiz, err := s.quizzes.GetByID(ctx, quizID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrQuizNotFound
		}
		return nil, err
	}
	if quiz.Course == nil || !actor.Owns(quiz.Course.TeacherID) {
		return nil, ErrNotCourseOwner
	}

	results, err := s.quizzes.ListResults(ctx, quiz.ID)
	if err != nil {
		return nil, err
	}
	responses := make([]dto.QuizResultResponse, 0, len(results))
	for _, result := range results {
		result.Quiz = &quiz
		responses = append(responses, dto.NewQuizResultResponse(result))
	}
	return responses, nil
}

func (s *gradingService) ExamResults(ctx context.Context, actor Actor, examID uint) ([]dto.ExamResultResponse, error) {
	exam, err := s.ownedExam(ctx, actor, examID)
	if err != nil {
		return nil, err
	}

	results, err := s.exams.ListResults(ctx, exam.ID)
	if err != nil {
		return nil, err
	}
	responses := make([]dto.ExamResultResponse, 0, len(results))
	for _, result := range results {
		result.Exam = &exam
		responses = append(responses, dto.NewExamResultResponse(result))
	}
	return responses, nil
}

// SetExamScore overwrites the score of one result. Regrading is allowed and
// the last value written wins.
func (s *gradingService) SetExamScore(ctx context.Context, actor Actor, examID, resultID uint, payload dto.ExamScoreRequest) (dto.ExamResultResponse, error) {
	ctx, span := s.tracer.Start(ctx, "exam.grade")
	defer span.End()
	span.SetAttributes(
		attribute.Int("exam.id", int(examID)),
		attribute.Int("exam.result_id", int(resultID)),
		attribute.Int("exam.grader_id", int(actor.ID)),
	)

	if err := validateStruct(s.validator, payload); err != nil {
		span.SetStatus(codes.Error, "validation failed")
		return dto.ExamResultResponse{}, err
	}
	score := *payload.Score
	if score < models.ExamScoreMin || score > models.ExamScoreMax {
		span.SetStatus(codes.Error, "validation failed")
		return dto.ExamResultResponse{}, fieldError("score", fmt.Sprintf("must be between %d and %d", models.ExamScoreMin, models.ExamScoreMax))
	}

	exam, err := s.ownedExam(ctx, actor, examID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "access denied")
		return dto.ExamResultResponse{}, err
	}

	result, err := s.exams.GetResultByID(ctx, exam.ID, resultID)
	if err != nil {
		if repository.IsNotFound(err) {
			span.SetStatus(codes.Error, "result not found")
			return dto.ExamResultResponse{}, ErrResultNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "load failed")
		return dto.ExamResultResponse{}, err
	}

	gradedAt := s.now().UTC()
	if err := s.exams.UpdateScore(ctx, result.ID, score, gradedAt); err != nil {
		if repository.IsNotFound(err) {
			span.SetStatus(codes.Error, "result not found")
			return dto.ExamResultResponse{}, ErrResultNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "persistence failed")
		return dto.ExamResultResponse{}, err
	}

	previous := result.Score
	result.Score = &score
	result.GradedAt = &gradedAt
	result.Exam = &exam

	observability.ExamGrades().Inc()
	span.SetAttributes(attribute.Float64("exam.score", score))
	span.SetStatus(codes.Ok, "graded")
	s.logger.Info().
		Uint("exam_id", exam.ID).
		Uint("result_id", result.ID).
		Uint("student_id", result.StudentID).
		Float64("score", score).
		Bool("regrade", previous != nil).
		Msg("exam graded")

	metadata := map[string]interface{}{"exam_id": exam.ID, "student_id": result.StudentID, "score": score}
	if previous != nil {
		metadata["previous_score"] = *previous
	}
	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		Actor:      actor,
		Action:     models.ActionExamGraded,
		EntityType: "exam_result",
		EntityID:   uintPtr(result.ID),
		Metadata:   metadata,
	})
	notify(ctx, s.notifier, s.logger, result.StudentID, models.NotificationExamGraded,
		fmt.Sprintf("Your exam %s has been graded: %g/%d", exam.Title, score, models.ExamScoreMax))

	return dto.NewExamResultResponse(result), nil
}

func (s *gradingService) MyGrades(ctx context.Context, actor Actor) (dto.GradesResponse, error) {
	return s.collect(ctx, actor.ID, nil)
}

func (s *gradingService) CourseResults(ctx context.Context, actor Actor, courseID uint) (dto.GradesResponse, error) {
	course, err := s.access.course(ctx, courseID)
	if err != nil {
		return dto.GradesResponse{}, err
	}
	return s.collect(ctx, actor.ID, &course.ID)
}

func (s *gradingService) collect(ctx context.Context, studentID uint, courseID *uint) (dto.GradesResponse, error) {
	quizResults, err := s.grades.QuizResultsForStudent(ctx, studentID, courseID)
	if err != nil {
		return dto.GradesResponse{}, err
	}
	examResults, err := s.grades.ExamResultsForStudent(ctx, studentID, courseID)
	if err != nil {
		return dto.GradesResponse{}, err
	}

	response := dto.GradesResponse{
		QuizResults: make([]dto.QuizGrade, 0, len(quizResults)),
		ExamResults: make([]dto.ExamGrade, 0, len(examResults)),
	}
	for _, result := range quizResults {
		response.QuizResults = append(response.QuizResults, dto.NewQuizGrade(result))
	}
	for _, result := range examResults {
		response.ExamResults = append(response.ExamResults, dto.NewExamGrade(result))
	}
	return response, nil
}

func (s *gradingService) ownedExam(ctx context.Context, actor Actor, examID uint) (models.Exam, error) {
	exam, err := s.exams.GetByID(ctx, examID)
	if err != nil {
		if repository.IsNotFound(err) {
			return models.Exam{}, ErrExamNotFound
		}
		return models.Exam{}, err
	}
	if exam.Course == nil || !actor.Owns(exam.Course.TeacherID) {
		return models.Exam{}, ErrNotCourseOwner
	}
	return exam, nil
}
