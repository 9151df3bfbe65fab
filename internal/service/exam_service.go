package service

import (
	"context"
	"errors"
	"maps"
	"slices"
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

// ExamService manages exams for teachers and exam attempts for students.
// An exam and its questions are frozen as soon as one result exists.
type ExamService interface {
	List(ctx context.Context, actor Actor) ([]dto.ExamResponse, error)
	Create(ctx context.Context, actor Actor, payload dto.ExamCreateRequest) (dto.ExamResponse, error)
	Get(ctx context.Context, actor Actor, examID uint) (dto.ExamResponse, error)
	Update(ctx context.Context, actor Actor, examID uint, payload dto.ExamUpdateRequest) (dto.ExamResponse, error)
	Delete(ctx context.Context, actor Actor, examID uint) error
	Questions(ctx context.Context, actor Actor, examID uint) ([]dto.ExamQuestionResponse, error)
	CreateQuestion(ctx context.Context, actor Actor, examID uint, payload dto.ExamQuestionRequest) (dto.ExamQuestionResponse, error)
	UpdateQuestion(ctx context.Context, actor Actor, examID, questionID uint, payload dto.ExamQuestionUpdateRequest) (dto.ExamQuestionResponse, error)
	DeleteQuestion(ctx context.Context, actor Actor, examID, questionID uint) error

	ListForCourse(ctx context.Context, actor Actor, courseID uint) ([]dto.ExamResponse, error)
	Show(ctx context.Context, actor Actor, examID uint) (dto.ExamResponse, error)
	StudentQuestions(ctx context.Context, actor Actor, examID uint) ([]dto.ExamQuestionResponse, error)
	Taken(ctx context.Context, actor Actor, examID uint) (dto.TakenResponse, error)
	Submit(ctx context.Context, actor Actor, examID uint, payload dto.ExamSubmitRequest) (dto.ExamSubmitResponse, error)
	Result(ctx context.Context, actor Actor, examID uint) (dto.ExamResultResponse, error)
}

type examService struct {
	exams     repository.ExamRepository
	access    accessPolicy
	validator *validator.Validate
	logger    zerolog.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// NewExamService constructs the exam service.
func NewExamService(
	exams repository.ExamRepository,
	courses repository.CourseRepository,
	classes repository.ClassRepository,
	validate *validator.Validate,
	logger zerolog.Logger,
) ExamService {
	return &examService{
		exams:     exams,
		access:    accessPolicy{classes: classes, courses: courses},
		validator: validate,
		logger:    logger.With().Str("component", "exam_service").Logger(),
		tracer:    otel.Tracer("github.com/noah-isme/classroom-api/internal/service/exam"),
		now:       time.Now,
	}
}

func (s *examService) List(ctx context.Context, actor Actor) ([]dto.ExamResponse, error) {
	exams, err := s.exams.ListByTeacher(ctx, actor.scope())
	if err != nil {
		return nil, err
	}
	return dto.NewExamResponseSlice(exams), nil
}

func (s *examService) Create(ctx context.Context, actor Actor, payload dto.ExamCreateRequest) (dto.ExamResponse, error) {
	if err := validateStruct(s.validator, payload); err != nil {
		return dto.ExamResponse{}, err
	}
	title, err := requireText("title", payload.Title)
	if err != nil {
		return dto.ExamResponse{}, err
	}

	course, err := s.access.ownedCourse(ctx, actor, payload.CourseID)
	if err != nil {
		return dto.ExamResponse{}, err
	}

	exam := models.Exam{Title: title, CourseID: course.ID}
	if err := s.exams.Create(ctx, &exam); err != nil {
		return dto.ExamResponse{}, err
	}
	exam.Course = &course

	s.logger.Info().Uint("exam_id", exam.ID).Uint("course_id", course.ID).Msg("exam created")
	return dto.NewExamResponse(exam), nil
}

func (s *examService) Get(ctx context.Context, actor Actor, examID uint) (dto.ExamResponse, error) {
	exam, err := s.ownedExam(ctx, actor, examID)
	if err != nil {
		return dto.ExamResponse{}, err
	}
	hasResults, err := s.exams.HasResults(ctx, exam.ID)
	if err != nil {
		return dto.ExamResponse{}, err
	}

	response := dto.NewExamResponse(exam)
	response.HasResults = &hasResults
	return response, nil
}

func (s *examService) Update(ctx context.Context, actor Actor, examID uint, payload dto.ExamUpdateRequest) (dto.ExamResponse, error) {
	if err := validateStruct(s.validator, payload); err != nil {
		return dto.ExamResponse{}, err
	}
	exam, err := s.mutableExam(ctx, actor, examID)
	if err != nil {
		return dto.ExamResponse{}, err
	}

	if payload.Title != nil {
		title, err := requireText("title", *payload.Title)
		if err != nil {
			return dto.ExamResponse{}, err
		}
		exam.Title = title
	}
	if err := s.exams.Update(ctx, &exam); err != nil {
		return dto.ExamResponse{}, err
	}
	return dto.NewExamResponse(exam), nil
}

func (s *examService) Delete(ctx context.Context, actor Actor, examID uint) error {
	exam, err := s.mutableExam(ctx, actor, examID)
	if err != nil {
		return err
	}
	if err := s.exams.Delete(ctx, exam.ID); err != nil {
		if repository.IsNotFound(err) {
			return ErrExamNotFound
		}
		return err
	}
	s.logger.Info().Uint("exam_id", exam.ID).Uint("actor_id", actor.ID).Msg("exam deleted")
	return nil
}

func (s *examService) Questions(ctx context.Context, actor Actor, examID uint) ([]dto.ExamQuestionResponse, error) {
	exam, err := s.ownedExam(ctx, actor, examID)
	if err != nil {
		return nil, err
	}
	questions, err := s.exams.ListQuestions(ctx, exam.ID)
	if err != nil {
		return nil, err
	}
	return dto.NewExamQuestionResponseSlice(questions, true), nil
}

func (s *examService) CreateQuestion(ctx context.Context, actor Actor, examID uint, payload dto.ExamQuestionRequest) (dto.ExamQuestionResponse, error) {
	if err := validateStruct(s.validator, payload); err != nil {
		return dto.ExamQuestionResponse{}, err
	}
	exam, err := s.mutableExam(ctx, actor, examID)
	if err != nil {
		return dto.ExamQuestionResponse{}, err
	}

	text, err := requireText("question", payload.Question)
	if err != nil {
		return dto.ExamQuestionResponse{}, err
	}
	question := models.ExamQuestion{
		ExamID:        exam.ID,
		Question:      text,
		CorrectAnswer: plainText(payload.CorrectAnswer),
	}
	if err := s.exams.CreateQuestion(ctx, &question); err != nil {
		return dto.ExamQuestionResponse{}, err
	}
	return dto.NewExamQuestionResponse(question, true), nil
}

func (s *examService) UpdateQuestion(ctx context.Context, actor Actor, examID, questionID uint, payload dto.ExamQuestionUpdateRequest) (dto.ExamQuestionResponse, error) {
	if err := validateStruct(s.validator, payload); err != nil {
		return dto.ExamQuestionResponse{}, err
	}
	exam, err := s.mutableExam(ctx, actor, examID)
	if err != nil {
		return dto.ExamQuestionResponse{}, err
	}

	question, err := s.exams.GetQuestion(ctx, exam.ID, questionID)
	if err != nil {
		if repository.IsNotFound(err) {
			return dto.ExamQuestionResponse{}, ErrQuestionNotFound
		}
		return dto.ExamQuestionResponse{}, err
	}
	if payload.Question != nil {
		text, err := requireText("question", *payload.Question)
		if err != nil {
			return dto.ExamQuestionResponse{}, err
		}
		question.Question = text
	}
	if payload.CorrectAnswer != nil {
		question.CorrectAnswer = plainText(*payload.CorrectAnswer)
	}

	if err := s.exams.UpdateQuestion(ctx, &question); err != nil {
		return dto.ExamQuestionResponse{}, err
	}
	return dto.NewExamQuestionResponse(question, true), nil
}

func (s *examService) DeleteQuestion(ctx context.Context, actor Actor, examID, questionID uint) error {
	exam, err := s.mutableExam(ctx, actor, examID)
	if err != nil {
		return err
	}
	if err := s.exams.DeleteQuestion(ctx, exam.ID, questionID); err != nil {
		if repository.IsNotFound(err) {
			return ErrQuestionNotFound
		}
		return err
	}
	return nil
}

func (s *examService) ListForCourse(ctx context.Context, actor Actor, courseID uint) ([]dto.ExamResponse, error) {
	course, err := s.access.course(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if err := s.access.requireCourseAccess(ctx, actor, course); err != nil {
		return nil, err
	}
	exams, err := s.exams.ListByCourse(ctx, course.ID)
	if err != nil {
		return nil, err
	}
	return dto.NewExamResponseSlice(exams), nil
}

func (s *examService) Show(ctx context.Context, actor Actor, examID uint) (dto.ExamResponse, error) {
	exam, err := s.accessibleExam(ctx, actor, examID)
	if err != nil {
		return dto.ExamResponse{}, err
	}
	return dto.NewExamResponse(exam), nil
}

func (s *examService) StudentQuestions(ctx context.Context, actor Actor, examID uint) ([]dto.ExamQuestionResponse, error) {
	exam, err := s.accessibleExam(ctx, actor, examID)
	if err != nil {
		return nil, err
	}
	questions, err := s.exams.ListQuestions(ctx, exam.ID)
	if err != nil {
		return nil, err
	}
	return dto.NewExamQuestionResponseSlice(questions, false), nil
}

func (s *examService) Taken(ctx context.Context, actor Actor, examID uint) (dto.TakenResponse, error) {
	exam, err := s.accessibleExam(ctx, actor, examID)
	if err != nil {
		return dto.TakenResponse{}, err
	}
	taken, err := s.exams.HasResult(ctx, exam.ID, actor.ID)
	if err != nil {
		return dto.TakenResponse{}, err
	}
	return dto.TakenResponse{Taken: taken}, nil
}

// Submit records an ungraded attempt and then stores each answer on its own.
// An answer that cannot be stored is logged and skipped; the attempt stands.
func (s *examService) Submit(ctx context.Context, actor Actor, examID uint, payload dto.ExamSubmitRequest) (dto.ExamSubmitResponse, error) {
	ctx, span := s.tracer.Start(ctx, "exam.submit")
	defer span.End()
	span.SetAttributes(
		attribute.Int("exam.id", int(examID)),
		attribute.Int("exam.student_id", int(actor.ID)),
		attribute.Int("exam.answers", len(payload.Answers)),
	)

	if err := validateStruct(s.validator, payload); err != nil {
		span.SetStatus(codes.Error, "validation failed")
		return dto.ExamSubmitResponse{}, err
	}

	exam, err := s.accessibleExam(ctx, actor, examID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "access denied")
		return dto.ExamSubmitResponse{}, err
	}

	questions, err := s.exams.ListQuestions(ctx, exam.ID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load questions failed")
		return dto.ExamSubmitResponse{}, err
	}
	if len(questions) == 0 {
		span.SetStatus(codes.Error, "no questions")
		return dto.ExamSubmitResponse{}, ErrNoQuestions
	}
	known := make(map[uint]struct{}, len(questions))
	for _, question := range questions {
		known[question.ID] = struct{}{}
	}

	result := models.ExamResult{ExamID: exam.ID, StudentID: actor.ID}
	if err := s.exams.CreateResult(ctx, &result); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			observability.Submissions().WithLabelValues("exam", "duplicate").Inc()
			span.SetStatus(codes.Error, "already taken")
			return dto.ExamSubmitResponse{}, ErrExamAlreadyTaken
		}
		observability.Submissions().WithLabelValues("exam", "failed").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "persistence failed")
		return dto.ExamSubmitResponse{}, err
	}

	saved, skipped := 0, 0
	answered := make(map[uint]struct{}, len(payload.Answers))
	for _, key := range slices.Sorted(maps.Keys(payload.Answers)) {
		questionID, ok := parseQuestionID(key)
		if !ok {
			skipped++
			s.logger.Warn().Uint("exam_result_id", result.ID).Str("question_id", key).Msg("skipping answer with malformed question id")
			continue
		}
		if _, ok := known[questionID]; !ok {
			skipped++
			s.logger.Warn().Uint("exam_result_id", result.ID).Uint("question_id", questionID).Msg("skipping answer to a question outside this exam")
			continue
		}
		if _, ok := answered[questionID]; ok {
			skipped++
			s.logger.Warn().Uint("exam_result_id", result.ID).Str("question_id", key).Msg("skipping repeated answer to the same question")
			continue
		}
		answered[questionID] = struct{}{}

		answer := models.ExamAnswer{
			ExamResultID:   result.ID,
			ExamQuestionID: questionID,
			Answer:         plainText(payload.Answers[key]),
		}
		if err := s.exams.CreateAnswer(ctx, &answer); err != nil {
			skipped++
			s.logger.Warn().Err(err).Uint("exam_result_id", result.ID).Uint("question_id", questionID).Msg("failed to store exam answer")
			continue
		}
		saved++
	}
	if skipped > 0 {
		observability.ExamAnswersDropped().Add(float64(skipped))
	}

	observability.Submissions().WithLabelValues("exam", "accepted").Inc()
	span.SetAttributes(attribute.Int("exam.saved", saved), attribute.Int("exam.skipped", skipped))
	span.SetStatus(codes.Ok, "stored")
	s.logger.Info().
		Uint("exam_id", exam.ID).
		Uint("student_id", actor.ID).
		Int("saved", saved).
		Int("skipped", skipped).
		Msg("exam submitted")

	submittedAt := result.CreatedAt
	if submittedAt.IsZero() {
		submittedAt = s.now()
	}
	return dto.ExamSubmitResponse{
		ResultID:    result.ID,
		ExamID:      exam.ID,
		Saved:       saved,
		Skipped:     skipped,
		Score:       result.Score,
		SubmittedAt: submittedAt,
	}, nil
}

func (s *examService) Result(ctx context.Context, actor Actor, examID uint) (dto.ExamResultResponse, error) {
	exam, err := s.accessibleExam(ctx, actor, examID)
	if err != nil {
		return dto.ExamResultResponse{}, err
	}
	result, err := s.exams.GetResult(ctx, exam.ID, actor.ID)
	if err != nil {
		if repository.IsNotFound(err) {
			return dto.ExamResultResponse{}, ErrResultNotFound
		}
		return dto.ExamResultResponse{}, err
	}
	return dto.NewExamResultResponse(result), nil
}

func (s *examService) exam(ctx context.Context, examID uint) (models.Exam, error) {
	exam, err := s.exams.GetByID(ctx, examID)
	if err != nil {
		if repository.IsNotFound(err) {
			return models.Exam{}, ErrExamNotFound
		}
		return models.Exam{}, err
	}
	if exam.Course == nil {
		return models.Exam{}, ErrCourseNotFound
	}
	return exam, nil
}

func (s *examService) ownedExam(ctx context.Context, actor Actor, examID uint) (models.Exam, error) {
	exam, err := s.exam(ctx, examID)
	if err != nil {
		return models.Exam{}, err
	}
	if !actor.Owns(exam.Course.TeacherID) {
		return models.Exam{}, ErrNotCourseOwner
	}
	return exam, nil
}

// mutableExam is ownedExam plus the lock taken by the first submission.
func (s *examService) mutableExam(ctx context.Context, actor Actor, examID uint) (models.Exam, error) {
	exam, err := s.ownedExam(ctx, actor, examID)
	if err != nil {
		return models.Exam{}, err
	}
	locked, err := s.exams.HasResults(ctx, exam.ID)
	if err != nil {
		return models.Exam{}, err
	}
	if locked {
		return models.Exam{}, ErrExamLocked
	}
	return exam, nil
}

func (s *examService) accessibleExam(ctx context.Context, actor Actor, examID uint) (models.Exam, error) {
	exam, err := s.exam(ctx, examID)
	if err != nil {
		return models.Exam{}, err
	}
	if err := s.access.requireCourseAccess(ctx, actor, *exam.Course); err != nil {
		return models.Exam{}, err
	}
	return exam, nil
}
