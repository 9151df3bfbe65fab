package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/classroom-api/internal/dto"
	"github.com/noah-isme/classroom-api/internal/service"
	"github.com/noah-isme/classroom-api/internal/utils"
)

// GradingHandler exposes result views and exam scoring.
type GradingHandler struct {
	service service.GradingService
	logger  zerolog.Logger
}

// NewGradingHandler constructs the handler.
func NewGradingHandler(service service.GradingService, logger zerolog.Logger) *GradingHandler {
	return &GradingHandler{
		service: service,
		logger:  logger.With().Str("component", "grading_handler").Logger(),
	}
}

// RegisterTeacher wires the per-assessment result views and exam scoring.
func (h *GradingHandler) RegisterTeacher(router fiber.Router) {
	router.Get("/quiz/:id/results", h.quizResults)
	router.Get("/exam/:id/results", h.examResults)
	router.Put("/exam/:id/result/:resultId/score", h.setExamScore)
}

// RegisterStudent wires the grade book of the caller.
func (h *GradingHandler) RegisterStudent(router fiber.Router) {
	router.Get("/my-grades", h.myGrades)
	router.Get("/course/:courseId/results", h.courseResults)
}

func (h *GradingHandler) quizResults(c *fiber.Ctx) error {
	quizID, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid quiz id")
	}

	results, err := h.service.QuizResults(c.UserContext(), actorFromContext(c), quizID)
	if err != nil {
		return respondError(c, h.logger, err, "failed to list quiz results")
	}
	return utils.SendSuccess(c, "quiz results retrieved", results)
}

func (h *GradingHandler) examResults(c *fiber.Ctx) error {
	examID, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid exam id")
	}

	results, err := h.service.ExamResults(c.UserContext(), actorFromContext(c), examID)
	if err != nil {
		return respondError(c, h.logger, err, "failed to list exam results")
	}
	return utils.SendSuccess(c, "exam results retrieved", results)
}

func (h *GradingHandler) setExamScore(c *fiber.Ctx) error {
	examID, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid exam id")
	}
	resultID, err := parseIDParam(c, "resultId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid result id")
	}

	var payload dto.ExamScoreRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.service.SetExamScore(c.UserContext(), actorFromContext(c), examID, resultID, payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to grade exam")
	}
	return utils.SendSuccess(c, "exam graded", result)
}

func (h *GradingHandler) myGrades(c *fiber.Ctx) error {
	grades, err := h.service.MyGrades(c.UserContext(), actorFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err, "failed to load grades")
	}
	return utils.SendSuccess(c, "grades retrieved", grades)
}

func (h *GradingHandler) courseResults(c *fiber.Ctx) error {
	courseID, err := parseIDParam(c, "courseId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid course id")
	}

	grades, err := h.service.CourseResults(c.UserContext(), actorFromContext(c), courseID)
	if err != nil {
		return respondError(c, h.logger, err, "failed to load course results")
	}
	return utils.SendSuccess(c, "course results retrieved", grades)
}
