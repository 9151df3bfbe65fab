package dto

import (
	"time"

	"github.com/noah-isme/classroom-api/internal/models"
)

// CourseCreateRequest creates a course. Leaving ClassID empty makes the course public.
type CourseCreateRequest struct {
	Title       string `json:"title" form:"title" validate:"required,min=1,max=255"`
	Description string `json:"description" form:"description" validate:"omitempty,max=10000"`
	ClassID     *uint  `json:"class_id" form:"class_id" validate:"omitempty,gt=0"`
}

// CourseUpdateRequest patches the textual fields of a course.
type CourseUpdateRequest struct {
	Title       *string `json:"title" validate:"omitempty,min=1,max=255"`
	Description *string `json:"description" validate:"omitempty,max=10000"`
}

// SupportsReplaceRequest replaces every resource of a course with the given links.
type SupportsReplaceRequest struct {
	Supports []string `json:"supports" validate:"max=50,dive,required,url,max=1024"`
}

// ResourceResponse serializes a course resource.
type ResourceResponse struct {
	ID   uint   `json:"id"`
	Type string `json:"type"`
	URL  string `json:"url"`
}

// CourseResponse serializes a course with its resources.
type CourseResponse struct {
	ID          uint               `json:"id"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
	TeacherID   uint               `json:"teacher_id"`
	Teacher     *UserSummary       `json:"teacher,omitempty"`
	ClassID     *uint              `json:"class_id"`
	ClassName   string             `json:"class_name,omitempty"`
	IsPublic    bool               `json:"is_public"`
	Resources   []ResourceResponse `json:"resources"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

// NewCourseResponse converts a course model.
func NewCourseResponse(course models.Course) CourseResponse {
	resources := make([]ResourceResponse, 0, len(course.Resources))
	for _, resource := range course.Resources {
		resources = append(resources, ResourceResponse{ID: resource.ID, Type: resource.Type, URL: resource.Path})
	}

	response := CourseResponse{
		ID:          course.ID,
		Title:       course.Title,
		Description: course.Description,
		TeacherID:   course.TeacherID,
		Teacher:     NewUserSummary(course.Teacher),
		ClassID:     course.ClassID,
		IsPublic:    course.IsPublic,
		Resources:   resources,
		CreatedAt:   course.CreatedAt,
		UpdatedAt:   course.UpdatedAt,
	}
	if course.Class != nil {
		response.ClassName = course.Class.Name
	}
	return response
}

// NewCourseResponseSlice converts a list of courses.
func NewCourseResponseSlice(courses []models.Course) []CourseResponse {
	responses := make([]CourseResponse, 0, len(courses))
	for _, course := range courses {
		responses = append(responses, NewCourseResponse(course))
	}
	return responses
}
