package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/classroom-api/internal/dto"
	"github.com/noah-isme/classroom-api/internal/service"
	"github.com/noah-isme/classroom-api/internal/utils"
)

// ClassHandler exposes class management and the enrollment workflow.
type ClassHandler struct {
	service service.ClassService
	logger  zerolog.Logger
}

// NewClassHandler constructs the handler.
func NewClassHandler(service service.ClassService, logger zerolog.Logger) *ClassHandler {
	return &ClassHandler{
		service: service,
		logger:  logger.With().Str("component", "class_handler").Logger(),
	}
}

// RegisterTeacher wires the class owner routes.
func (h *ClassHandler) RegisterTeacher(router fiber.Router) {
	router.Post("/class", h.create)
	router.Get("/my-classes", h.list)
	router.Put("/class/:id", h.update)
	router.Delete("/class/:id", h.delete)
	router.Get("/class/:id/students", h.roster)
	router.Post("/class/:id/student", h.addStudent)
	router.Delete("/class/:id/student/:studentId", h.removeStudent)
	router.Get("/search-student", h.searchStudents)

	router.Get("/join-requests", h.pendingRequests)
	router.Post("/join-requests/:id/accept", h.accept)
	router.Post("/join-requests/:id/reject", h.reject)
}

// RegisterStudent wires the student side of the enrollment workflow.
func (h *ClassHandler) RegisterStudent(router fiber.Router) {
	router.Post("/join-request/:classId", h.requestJoin)
	router.Get("/my-requests", h.myRequests)
	router.Get("/my-classes", h.myClasses)
}

func (h *ClassHandler) create(c *fiber.Ctx) error {
	var payload dto.ClassCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	class, err := h.service.Create(c.UserContext(), actorFromContext(c), payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to create class")
	}
	return utils.SendCreated(c, "class created", class)
}

func (h *ClassHandler) list(c *fiber.Ctx) error {
	classes, err := h.service.List(c.UserContext(), actorFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err, "failed to list classes")
	}
	return utils.SendSuccess(c, "classes retrieved", classes)
}

func (h *ClassHandler) update(c *fiber.Ctx) error {
	classID, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid class id")
	}

	var payload dto.ClassUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	class, err := h.service.Update(c.UserContext(), actorFromContext(c), classID, payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to update class")
	}
	return utils.SendSuccess(c, "class updated", class)
}

func (h *ClassHandler) delete(c *fiber.Ctx) error {
	classID, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid class id")
	}

	if err := h.service.Delete(c.UserContext(), actorFromContext(c), classID); err != nil {
		return respondError(c, h.logger, err, "failed to delete class")
	}
	return utils.SendSuccess(c, "class deleted", nil)
}

func (h *ClassHandler) roster(c *fiber.Ctx) error {
	classID, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid class id")
	}

	students, err := h.service.Roster(c.UserContext(), actorFromContext(c), classID)
	if err != nil {
		return respondError(c, h.logger, err, "failed to list students")
	}
	return utils.SendSuccess(c, "students retrieved", students)
}

func (h *ClassHandler) addStudent(c *fiber.Ctx) error {
	classID, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid class id")
	}

	var payload dto.AddStudentRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if payload.StudentID == 0 {
		return utils.Fail(c, fiber.StatusUnprocessableEntity, "validation failed", map[string]string{"student_id": "is required"})
	}

	if err := h.service.AddStudent(c.UserContext(), actorFromContext(c), classID, payload.StudentID); err != nil {
		return respondError(c, h.logger, err, "failed to add student")
	}
	return utils.SendCreated(c, "student added to class", nil)
}

func (h *ClassHandler) removeStudent(c *fiber.Ctx) error {
	classID, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid class id")
	}
	studentID, err := parseIDParam(c, "studentId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid student id")
	}

	if err := h.service.RemoveStudent(c.UserContext(), actorFromContext(c), classID, studentID); err != nil {
		return respondError(c, h.logger, err, "failed to remove student")
	}
	return utils.SendSuccess(c, "student removed from class", nil)
}

func (h *ClassHandler) searchStudents(c *fiber.Ctx) error {
	students, err := h.service.SearchStudents(c.UserContext(), c.Query("q"))
	if err != nil {
		return respondError(c, h.logger, err, "failed to search students")
	}
	return utils.SendSuccess(c, "students retrieved", students)
}

func (h *ClassHandler) pendingRequests(c *fiber.Ctx) error {
	requests, err := h.service.PendingRequests(c.UserContext(), actorFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err, "failed to list join requests")
	}
	return utils.SendSuccess(c, "join requests retrieved", requests)
}

func (h *ClassHandler) accept(c *fiber.Ctx) error {
	requestID, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid join request id")
	}

	if err := h.service.Accept(c.UserContext(), actorFromContext(c), requestID); err != nil {
		return respondError(c, h.logger, err, "failed to accept join request")
	}
	return utils.SendSuccess(c, "join request accepted", nil)
}

func (h *ClassHandler) reject(c *fiber.Ctx) error {
	requestID, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid join request id")
	}

	if err := h.service.Reject(c.UserContext(), actorFromContext(c), requestID); err != nil {
		return respondError(c, h.logger, err, "failed to reject join request")
	}
	return utils.SendSuccess(c, "join request rejected", nil)
}

func (h *ClassHandler) requestJoin(c *fiber.Ctx) error {
	classID, err := parseIDParam(c, "classId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid class id")
	}

	request, err := h.service.RequestJoin(c.UserContext(), actorFromContext(c), classID)
	if err != nil {
		return respondError(c, h.logger, err, "failed to request to join class")
	}
	return utils.SendCreated(c, "join request sent", request)
}

func (h *ClassHandler) myRequests(c *fiber.Ctx) error {
	requests, err := h.service.MyRequests(c.UserContext(), actorFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err, "failed to list join requests")
	}
	return utils.SendSuccess(c, "join requests retrieved", requests)
}

func (h *ClassHandler) myClasses(c *fiber.Ctx) error {
	classes, err := h.service.MyClasses(c.UserContext(), actorFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err, "failed to list classes")
	}
	return utils.SendSuccess(c, "classes retrieved", classes)
}
