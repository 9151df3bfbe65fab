package models

import (
	"time"

	"gorm.io/datatypes"
)

// Audited actions.
const (
	ActionClassDeleted   = "class.deleted"
	ActionJoinAccepted   = "join_request.accepted"
	ActionJoinRejected   = "join_request.rejected"
	ActionStudentAdded   = "class.student_added"
	ActionStudentRemoved = "class.student_removed"
	ActionCourseDeleted  = "course.deleted"
	ActionExamGraded     = "exam.graded"
	ActionUserCreated    = "user.created"
	ActionUserUpdated    = "user.updated"
	ActionUserDeleted    = "user.deleted"
)

// ActivityLog records a decision taken by a teacher or an administrator.
type ActivityLog struct {
	ID         uint              `gorm:"primaryKey" json:"id"`
	ActorID    uint              `gorm:"index;not null" json:"actor_id"`
	ActorRole  string            `gorm:"size:16;not null" json:"actor_role"`
	Action     string            `gorm:"size:64;index;not null" json:"action"`
	EntityType string            `gorm:"size:32;not null" json:"entity_type"`
	EntityID   *uint             `json:"entity_id"`
	Metadata   datatypes.JSONMap `gorm:"type:json" json:"metadata"`
	CreatedAt  time.Time         `gorm:"index" json:"created_at"`
}
