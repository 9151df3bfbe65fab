package dto

import (
	"time"

	"github.com/noah-isme/classroom-api/internal/models"
)

// AdminUserListRequest defines filters for listing users.
type AdminUserListRequest struct {
	Page     int
	PageSize int
	Role     string
	Status   string
	Search   string
}

// AdminUserListResponse wraps a paginated user list.
type AdminUserListResponse struct {
	Items      []UserResponse `json:"items"`
	Pagination PaginationMeta `json:"pagination"`
}

// AdminUserCreateRequest creates an account of any role.
type AdminUserCreateRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=255"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Role     string `json:"role" validate:"required,oneof=admin teacher student"`
	Status   string `json:"status" validate:"omitempty,oneof=active pending"`
}

// AdminUserUpdateRequest patches an account. Setting status to active approves a pending teacher.
type AdminUserUpdateRequest struct {
	Name     *string `json:"name" validate:"omitempty,min=2,max=255"`
	Email    *string `json:"email" validate:"omitempty,email,max=255"`
	Password *string `json:"password" validate:"omitempty,min=8,max=72"`
	Role     *string `json:"role" validate:"omitempty,oneof=admin teacher student"`
	Status   *string `json:"status" validate:"omitempty,oneof=active pending"`
}

// AdminStatsResponse summarises platform usage.
type AdminStatsResponse struct {
	Users           int64 `json:"users"`
	Admins          int64 `json:"admins"`
	Teachers        int64 `json:"teachers"`
	Students        int64 `json:"students"`
	PendingTeachers int64 `json:"pending_teachers"`
	Classes         int64 `json:"classes"`
	Courses         int64 `json:"courses"`
	PublicCourses   int64 `json:"public_courses"`
	Quizzes         int64 `json:"quizzes"`
	Exams           int64 `json:"exams"`
	PendingRequests int64 `json:"pending_requests"`
}

// ActivityListRequest filters the audit log.
type ActivityListRequest struct {
	Page       int
	PageSize   int
	ActorID    uint
	Action     string
	EntityType string
	Since      *time.Time
}

// ActivityResponse serializes an audit entry.
type ActivityResponse struct {
	ID         uint                   `json:"id"`
	ActorID    uint                   `json:"actor_id"`
	ActorRole  string                 `json:"actor_role"`
	Action     string                 `json:"action"`
	EntityType string                 `json:"entity_type"`
	EntityID   *uint                  `json:"entity_id,omitempty"`
	Metadata   map[string]interface{} `json:"metadata"`
	CreatedAt  time.Time              `json:"created_at"`
}

// ActivityListResponse wraps a paginated audit log.
type ActivityListResponse struct {
	Items      []ActivityResponse `json:"items"`
	Pagination PaginationMeta     `json:"pagination"`
}

// NewActivityResponse converts an audit entry.
func NewActivityResponse(entry models.ActivityLog) ActivityResponse {
	metadata := map[string]interface{}{}
	for key, value := range entry.Metadata {
		metadata[key] = value
	}
	return ActivityResponse{
		ID:         entry.ID,
		ActorID:    entry.ActorID,
		ActorRole:  entry.ActorRole,
		Action:     entry.Action,
		EntityType: entry.EntityType,
		EntityID:   entry.EntityID,
		Metadata:   metadata,
		CreatedAt:  entry.CreatedAt,
	}
}
