package handler

import (
	"mime/multipart"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/classroom-api/internal/dto"
	"github.com/noah-isme/classroom-api/internal/service"
	"github.com/noah-isme/classroom-api/internal/utils"
)

// CourseHandler exposes the course catalog.
type CourseHandler struct {
	service service.CourseService
	logger  zerolog.Logger
}

// NewCourseHandler constructs the handler.
func NewCourseHandler(service service.CourseService, logger zerolog.Logger) *CourseHandler {
	return &CourseHandler{
		service: service,
		logger:  logger.With().Str("component", "course_handler").Logger(),
	}
}

// RegisterPublic wires the anonymous catalog routes.
func (h *CourseHandler) RegisterPublic(router fiber.Router) {
	router.Get("", h.listPublic)
	router.Get("/:id", h.getPublic)
}

// RegisterTeacher wires course authoring routes.
func (h *CourseHandler) RegisterTeacher(router fiber.Router) {
	router.Get("/class/:id/courses", h.listForClass)

	courses := router.Group("/courses")
	courses.Post("", h.create)
	courses.Get("", h.list)
	courses.Get("/search", h.list)
	courses.Get("/:id", h.get)
	courses.Put("/:id", h.update)
	courses.Post("/:id/supports", h.addSupports)
	courses.Put("/:id/supports", h.replaceSupports)
	courses.Delete("/:id", h.delete)
}

// RegisterStudent wires the enrolled student routes.
func (h *CourseHandler) RegisterStudent(router fiber.Router) {
	router.Get("/class/:id/courses", h.listForClass)
}

func (h *CourseHandler) listPublic(c *fiber.Ctx) error {
	courses, err := h.service.ListPublic(c.UserContext())
	if err != nil {
		return respondError(c, h.logger, err, "failed to list courses")
	}
	return utils.SendSuccess(c, "courses retrieved", courses)
}

func (h *CourseHandler) getPublic(c *fiber.Ctx) error {
	courseID, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid course id")
	}

	course, err := h.service.GetPublic(c.UserContext(), courseID)
	if err != nil {
		return respondError(c, h.logger, err, "failed to load course")
	}
	return utils.SendSuccess(c, "course retrieved", course)
}

func (h *CourseHandler) listForClass(c *fiber.Ctx) error {
	classID, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid class id")
	}

	courses, err := h.service.ListForClass(c.UserContext(), actorFromContext(c), classID)
	if err != nil {
		return respondError(c, h.logger, err, "failed to list class courses")
	}
	return utils.SendSuccess(c, "courses retrieved", courses)
}

func (h *CourseHandler) create(c *fiber.Ctx) error {
	var payload dto.CourseCreateRequest
	var files []*multipart.FileHeader

	if isMultipart(c) {
		form, err := c.MultipartForm()
		if err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid multipart form")
		}
		payload.Title = formValue(form, "title")
		payload.Description = formValue(form, "description")
		if raw := formValue(form, "class_id"); raw != "" {
			classID, err := strconv.ParseUint(raw, 10, 64)
			if err != nil || classID == 0 {
				return utils.Fail(c, fiber.StatusUnprocessableEntity, "validation failed", map[string]string{"class_id": "must be a valid class id"})
			}
			id := uint(classID)
			payload.ClassID = &id
		}
		files = uploadedFiles(form)
	} else if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	course, err := h.service.Create(c.UserContext(), actorFromContext(c), payload, files, c.BaseURL())
	if err != nil {
		return respondError(c, h.logger, err, "failed to create course")
	}
	return utils.SendCreated(c, "course created", course)
}

func (h *CourseHandler) list(c *fiber.Ctx) error {
	courses, err := h.service.List(c.UserContext(), actorFromContext(c), c.Query("q"))
	if err != nil {
		return respondError(c, h.logger, err, "failed to list courses")
	}
	return utils.SendSuccess(c, "courses retrieved", courses)
}

func (h *CourseHandler) get(c *fiber.Ctx) error {
	courseID, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid course id")
	}

	course, err := h.service.Get(c.UserContext(), actorFromContext(c), courseID)
	if err != nil {
		return respondError(c, h.logger, err, "failed to load course")
	}
	return utils.SendSuccess(c, "course retrieved", course)
}

func (h *CourseHandler) update(c *fiber.Ctx) error {
	courseID, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid course id")
	}

	var payload dto.CourseUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	course, err := h.service.Update(c.UserContext(), actorFromContext(c), courseID, payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to update course")
	}
	return utils.SendSuccess(c, "course updated", course)
}

func (h *CourseHandler) addSupports(c *fiber.Ctx) error {
	courseID, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid course id")
	}

	form, err := c.MultipartForm()
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid multipart form")
	}

	course, err := h.service.AddSupports(c.UserContext(), actorFromContext(c), courseID, uploadedFiles(form), c.BaseURL())
	if err != nil {
		return respondError(c, h.logger, err, "failed to upload course files")
	}
	return utils.SendSuccess(c, "course files uploaded", course)
}

func (h *CourseHandler) replaceSupports(c *fiber.Ctx) error {
	courseID, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid course id")
	}

	var payload dto.SupportsReplaceRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	course, err := h.service.ReplaceSupports(c.UserContext(), actorFromContext(c), courseID, payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to replace course supports")
	}
	return utils.SendSuccess(c, "course supports replaced", course)
}

func (h *CourseHandler) delete(c *fiber.Ctx) error {
	courseID, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid course id")
	}

	if err := h.service.Delete(c.UserContext(), actorFromContext(c), courseID); err != nil {
		return respondError(c, h.logger, err, "failed to delete course")
	}
	return utils.SendSuccess(c, "course deleted", nil)
}

func isMultipart(c *fiber.Ctx) bool {
	return strings.HasPrefix(strings.ToLower(c.Get(fiber.HeaderContentType)), fiber.MIMEMultipartForm)
}

func formValue(form *multipart.Form, key string) string {
	if values := form.Value[key]; len(values) > 0 {
		return strings.TrimSpace(values[0])
	}
	return ""
}

// uploadedFiles accepts both "files" and "files[]" field names.
func uploadedFiles(form *multipart.Form) []*multipart.FileHeader {
	files := make([]*multipart.FileHeader, 0, len(form.File["files"])+len(form.File["files[]"]))
	files = append(files, form.File["files"]...)
	files = append(files, form.File["files[]"]...)
	return files
}
