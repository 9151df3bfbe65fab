package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/classroom-api/internal/dto"
	"github.com/noah-isme/classroom-api/internal/service"
	"github.com/noah-isme/classroom-api/internal/utils"
)

// QuizHandler exposes quiz authoring and quiz taking.
type QuizHandler struct {
	service service.QuizService
	logger  zerolog.Logger
}

// NewQuizHandler constructs the handler.
func NewQuizHandler(service service.QuizService, logger zerolog.Logger) *QuizHandler {
	return &QuizHandler{
		service: service,
		logger:  logger.With().Str("component", "quiz_handler").Logger(),
	}
}

// RegisterTeacher wires quiz and question management.
func (h *QuizHandler) RegisterTeacher(router fiber.Router) {
	router.Get("/quiz", h.list)
	router.Post("/quiz", h.create)
	router.Get("/quiz/:id", h.get)
	router.Put("/quiz/:id", h.update)
	router.Delete("/quiz/:id", h.delete)

	router.Get("/question/quiz/:quizId", h.questions)
	router.Post("/question/quiz/:quizId", h.createQuestion)
	router.Put("/question/quiz/:quizId/:questionId", h.updateQuestion)
	router.Delete("/question/quiz/:quizId/:questionId", h.deleteQuestion)
}

// RegisterStudent wires quiz taking.
func (h *QuizHandler) RegisterStudent(router fiber.Router) {
	router.Get("/course/:courseId/quizzes", h.listForCourse)
	router.Get("/quiz/:id", h.show)
	router.Get("/quiz/:id/questions", h.studentQuestions)
	router.Get("/quiz/:id/taken", h.taken)
	router.Post("/quiz/:id/submit", h.submit)
	router.Get("/quiz/:id/result", h.result)
}

func (h *QuizHandler) list(c *fiber.Ctx) error {
	quizzes, err := h.service.List(c.UserContext(), actorFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err, "failed to list quizzes")
	}
	return utils.SendSuccess(c, "quizzes retrieved", quizzes)
}

func (h *QuizHandler) create(c *fiber.Ctx) error {
	var payload dto.QuizCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	quiz, err := h.service.Create(c.UserContext(), actorFromContext(c), payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to create quiz")
	}
	return utils.SendCreated(c, "quiz created", quiz)
}

func (h *QuizHandler) get(c *fiber.Ctx) error {
	quizID, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid quiz id")
	}

	quiz, err := h.service.Get(c.UserContext(), actorFromContext(c), quizID)
	if err != nil {
		return respondError(c, h.logger, err, "failed to load quiz")
	}
	return utils.SendSuccess(c, "quiz retrieved", quiz)
}

func (h *QuizHandler) update(c *fiber.Ctx) error {
	quizID, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid quiz id")
	}

	var payload dto.QuizUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	quiz, err := h.service.Update(c.UserContext(), actorFromContext(c), quizID, payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to update quiz")
	}
	return utils.SendSuccess(c, "quiz updated", quiz)
}

func (h *QuizHandler) delete(c *fiber.Ctx) error {
	quizID, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid quiz id")
	}

	if err := h.service.Delete(c.UserContext(), actorFromContext(c), quizID); err != nil {
		return respondError(c, h.logger, err, "failed to delete quiz")
	}
	return utils.SendSuccess(c, "quiz deleted", nil)
}

func (h *QuizHandler) questions(c *fiber.Ctx) error {
	quizID, err := parseIDParam(c, "quizId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid quiz id")
	}

	questions, err := h.service.Questions(c.UserContext(), actorFromContext(c), quizID)
	if err != nil {
		return respondError(c, h.logger, err, "failed to list questions")
	}
	return utils.SendSuccess(c, "questions retrieved", questions)
}

func (h *QuizHandler) createQuestion(c *fiber.Ctx) error {
	quizID, err := parseIDParam(c, "quizId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid quiz id")
	}

	var payload dto.QuizQuestionRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	question, err := h.service.CreateQuestion(c.UserContext(), actorFromContext(c), quizID, payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to create question")
	}
	return utils.SendCreated(c, "question created", question)
}

func (h *QuizHandler) updateQuestion(c *fiber.Ctx) error {
	quizID, err := parseIDParam(c, "quizId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid quiz id")
	}
	questionID, err := parseIDParam(c, "questionId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid question id")
	}

	var payload dto.QuizQuestionUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	question, err := h.service.UpdateQuestion(c.UserContext(), actorFromContext(c), quizID, questionID, payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to update question")
	}
	return utils.SendSuccess(c, "question updated", question)
}

func (h *QuizHandler) deleteQuestion(c *fiber.Ctx) error {
	quizID, err := parseIDParam(c, "quizId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid quiz id")
	}
	questionID, err := parseIDParam(c, "questionId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid question id")
	}

	if err := h.service.DeleteQuestion(c.UserContext(), actorFromContext(c), quizID, questionID); err != nil {
		return respondError(c, h.logger, err, "failed to delete question")
	}
	return utils.SendSuccess(c, "question deleted", nil)
}

func (h *QuizHandler) listForCourse(c *fiber.Ctx) error {
	courseID, err := parseIDParam(c, "courseId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid course id")
	}

	quizzes, err := h.service.ListForCourse(c.UserContext(), actorFromContext(c), courseID)
	if err != nil {
		return respondError(c, h.logger, err, "failed to list quizzes")
	}
	return utils.SendSuccess(c, "quizzes retrieved", quizzes)
}

func (h *QuizHandler) show(c *fiber.Ctx) error {
	quizID, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid quiz id")
	}

	quiz, err := h.service.Show(c.UserContext(), actorFromContext(c), quizID)
	if err != nil {
		return respondError(c, h.logger, err, "failed to load quiz")
	}
	return utils.SendSuccess(c, "quiz retrieved", quiz)
}

func (h *QuizHandler) studentQuestions(c *fiber.Ctx) error {
	quizID, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid quiz id")
	}

	questions, err := h.service.StudentQuestions(c.UserContext(), actorFromContext(c), quizID)
	if err != nil {
		return respondError(c, h.logger, err, "failed to list questions")
	}
	return utils.SendSuccess(c, "questions retrieved", questions)
}

func (h *QuizHandler) taken(c *fiber.Ctx) error {
	quizID, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid quiz id")
	}

	taken, err := h.service.Taken(c.UserContext(), actorFromContext(c), quizID)
	if err != nil {
		return respondError(c, h.logger, err, "failed to check quiz attempt")
	}
	return utils.SendSuccess(c, "quiz attempt status", taken)
}

func (h *QuizHandler) submit(c *fiber.Ctx) error {
	quizID, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid quiz id")
	}

	var payload dto.QuizSubmitRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.service.Submit(c.UserContext(), actorFromContext(c), quizID, payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to submit quiz")
	}
	return utils.SendCreated(c, "quiz submitted", result)
}

func (h *QuizHandler) result(c *fiber.Ctx) error {
	quizID, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid quiz id")
	}

	result, err := h.service.Result(c.UserContext(), actorFromContext(c), quizID)
	if err != nil {
		return respondError(c, h.logger, err, "failed to load quiz result")
	}
	return utils.SendSuccess(c, "quiz result retrieved", result)
}
