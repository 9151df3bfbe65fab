package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/classroom-api/internal/dto"
	"github.com/noah-isme/classroom-api/internal/service"
	"github.com/noah-isme/classroom-api/internal/utils"
)

// ExamHandler exposes exam authoring and exam taking.
type ExamHandler struct {
	service service.ExamService
	logger  zerolog.Logger
}

// NewExamHandler constructs the handler.
func NewExamHandler(service service.ExamService, logger zerolog.Logger) *ExamHandler {
	return &ExamHandler{
		service: service,
		logger:  logger.With().Str("component", "exam_handler").Logger(),
	}
}

// RegisterTeacher wires exam and question management.
func (h *ExamHandler) RegisterTeacher(router fiber.Router) {
	router.Get("/exam", h.list)
	router.Post("/exam", h.create)
	router.Get("/exam/:id", h.get)
	router.Put("/exam/:id", h.update)
	router.Delete("/exam/:id", h.delete)

	router.Get("/question/exam/:examId", h.questions)
	router.Post("/question/exam/:examId", h.createQuestion)
	router.Put("/question/exam/:examId/:questionId", h.updateQuestion)
	router.Delete("/question/exam/:examId/:questionId", h.deleteQuestion)
}

// RegisterStudent wires exam taking.
func (h *ExamHandler) RegisterStudent(router fiber.Router) {
	router.Get("/course/:courseId/exams", h.listForCourse)
	router.Get("/exam/:id", h.show)
	router.Get("/exam/:id/questions", h.studentQuestions)
	router.Get("/exam/:id/taken", h.taken)
	router.Post("/exam/:id/submit", h.submit)
	router.Get("/exam/:id/result", h.result)
}

func (h *ExamHandler) list(c *fiber.Ctx) error {
	exams, err := h.service.List(c.UserContext(), actorFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err, "failed to list exams")
	}
	return utils.SendSuccess(c, "exams retrieved", exams)
}

func (h *ExamHandler) create(c *fiber.Ctx) error {
	var payload dto.ExamCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	exam, err := h.service.Create(c.UserContext(), actorFromContext(c), payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to create exam")
	}
	return utils.SendCreated(c, "exam created", exam)
}

func (h *ExamHandler) get(c *fiber.Ctx) error {
	examID, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid exam id")
	}

	exam, err := h.service.Get(c.UserContext(), actorFromContext(c), examID)
	if err != nil {
		return respondError(c, h.logger, err, "failed to load exam")
	}
	return utils.SendSuccess(c, "exam retrieved", exam)
}

func (h *ExamHandler) update(c *fiber.Ctx) error {
	examID, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid exam id")
	}

	var payload dto.ExamUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	exam, err := h.service.Update(c.UserContext(), actorFromContext(c), examID, payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to update exam")
	}
	return utils.SendSuccess(c, "exam updated", exam)
}

func (h *ExamHandler) delete(c *fiber.Ctx) error {
	examID, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid exam id")
	}

	if err := h.service.Delete(c.UserContext(), actorFromContext(c), examID); err != nil {
		return respondError(c, h.logger, err, "failed to delete exam")
	}
	return utils.SendSuccess(c, "exam deleted", nil)
}

func (h *ExamHandler) questions(c *fiber.Ctx) error {
	examID, err := parseIDParam(c, "examId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid exam id")
	}

	questions, err := h.service.Questions(c.UserContext(), actorFromContext(c), examID)
	if err != nil {
		return respondError(c, h.logger, err, "failed to list questions")
	}
	return utils.SendSuccess(c, "questions retrieved", questions)
}

func (h *ExamHandler) createQuestion(c *fiber.Ctx) error {
	examID, err := parseIDParam(c, "examId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid exam id")
	}

	var payload dto.ExamQuestionRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	question, err := h.service.CreateQuestion(c.UserContext(), actorFromContext(c), examID, payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to create question")
	}
	return utils.SendCreated(c, "question created", question)
}

func (h *ExamHandler) updateQuestion(c *fiber.Ctx) error {
	examID, err := parseIDParam(c, "examId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid exam id")
	}
	questionID, err := parseIDParam(c, "questionId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid question id")
	}

	var payload dto.ExamQuestionUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	question, err := h.service.UpdateQuestion(c.UserContext(), actorFromContext(c), examID, questionID, payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to update question")
	}
	return utils.SendSuccess(c, "question updated", question)
}

func (h *ExamHandler) deleteQuestion(c *fiber.Ctx) error {
	examID, err := parseIDParam(c, "examId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid exam id")
	}
	questionID, err := parseIDParam(c, "questionId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid question id")
	}

	if err := h.service.DeleteQuestion(c.UserContext(), actorFromContext(c), examID, questionID); err != nil {
		return respondError(c, h.logger, err, "failed to delete question")
	}
	return utils.SendSuccess(c, "question deleted", nil)
}

func (h *ExamHandler) listForCourse(c *fiber.Ctx) error {
	courseID, err := parseIDParam(c, "courseId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid course id")
	}

	exams, err := h.service.ListForCourse(c.UserContext(), actorFromContext(c), courseID)
	if err != nil {
		return respondError(c, h.logger, err, "failed to list exams")
	}
	return utils.SendSuccess(c, "exams retrieved", exams)
}

func (h *ExamHandler) show(c *fiber.Ctx) error {
	examID, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid exam id")
	}

	exam, err := h.service.Show(c.UserContext(), actorFromContext(c), examID)
	if err != nil {
		return respondError(c, h.logger, err, "failed to load exam")
	}
	return utils.SendSuccess(c, "exam retrieved", exam)
}

func (h *ExamHandler) studentQuestions(c *fiber.Ctx) error {
	examID, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid exam id")
	}

	questions, err := h.service.StudentQuestions(c.UserContext(), actorFromContext(c), examID)
	if err != nil {
		return respondError(c, h.logger, err, "failed to list questions")
	}
	return utils.SendSuccess(c, "questions retrieved", questions)
}

func (h *ExamHandler) taken(c *fiber.Ctx) error {
	examID, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid exam id")
	}

	taken, err := h.service.Taken(c.UserContext(), actorFromContext(c), examID)
	if err != nil {
		return respondError(c, h.logger, err, "failed to check exam attempt")
	}
	return utils.SendSuccess(c, "exam attempt status", taken)
}

func (h *ExamHandler) submit(c *fiber.Ctx) error {
	examID, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid exam id")
	}

	var payload dto.ExamSubmitRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.service.Submit(c.UserContext(), actorFromContext(c), examID, payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to submit exam")
	}
	return utils.SendCreated(c, "exam submitted, awaiting grading", result)
}

func (h *ExamHandler) result(c *fiber.Ctx) error {
	examID, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid exam id")
	}

	result, err := h.service.Result(c.UserContext(), actorFromContext(c), examID)
	if err != nil {
		return respondError(c, h.logger, err, "failed to load exam result")
	}
	return utils.SendSuccess(c, "exam result retrieved", result)
}
