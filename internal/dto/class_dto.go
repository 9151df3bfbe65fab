package dto

import (
	"time"

	"github.com/noah-isme/classroom-api/internal/models"
)

// ClassCreateRequest creates a class owned by the caller.
type ClassCreateRequest struct {
	Name        string `json:"name" validate:"required,min=1,max=255"`
	Description string `json:"description" validate:"omitempty,max=2000"`
}

// ClassUpdateRequest patches a class.
type ClassUpdateRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=255"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
}

// AddStudentRequest enrolls a student without a join request.
type AddStudentRequest struct {
	StudentID uint `json:"student_id" validate:"required,gt=0"`
}

// ClassResponse serializes a class.
type ClassResponse struct {
	ID           uint         `json:"id"`
	Name         string       `json:"name"`
	Description  string       `json:"description"`
	TeacherID    uint         `json:"teacher_id"`
	Teacher      *UserSummary `json:"teacher,omitempty"`
	StudentCount *int64       `json:"student_count,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// NewClassResponse converts a class model.
func NewClassResponse(class models.Class) ClassResponse {
	return ClassResponse{
		ID:          class.ID,
		Name:        class.Name,
		Description: class.Description,
		TeacherID:   class.TeacherID,
		Teacher:     NewUserSummary(class.Teacher),
		CreatedAt:   class.CreatedAt,
		UpdatedAt:   class.UpdatedAt,
	}
}

// NewClassResponseWithCount attaches the roster size.
func NewClassResponseWithCount(class models.Class, students int64) ClassResponse {
	response := NewClassResponse(class)
	response.StudentCount = &students
	return response
}

// JoinRequestResponse serializes a join request.
type JoinRequestResponse struct {
	ID        uint         `json:"id"`
	ClassID   uint         `json:"class_id"`
	ClassName string       `json:"class_name,omitempty"`
	StudentID uint         `json:"student_id"`
	Student   *UserSummary `json:"student,omitempty"`
	Status    string       `json:"status"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// NewJoinRequestResponse converts a join request.
func NewJoinRequestResponse(request models.JoinRequest) JoinRequestResponse {
	response := JoinRequestResponse{
		ID:        request.ID,
		ClassID:   request.ClassID,
		StudentID: request.StudentID,
		Student:   NewUserSummary(request.Student),
		Status:    request.Status,
		CreatedAt: request.CreatedAt,
		UpdatedAt: request.UpdatedAt,
	}
	if request.Class != nil {
		response.ClassName = request.Class.Name
	}
	return response
}

// NewJoinRequestResponseSlice converts join requests.
func NewJoinRequestResponseSlice(requests []models.JoinRequest) []JoinRequestResponse {
	responses := make([]JoinRequestResponse, 0, len(requests))
	for _, request := range requests {
		responses = append(responses, NewJoinRequestResponse(request))
	}
	return responses
}
