package models

import "time"

// Notification kinds.
const (
	NotificationJoinAccepted = "join_request.accepted"
	NotificationJoinRejected = "join_request.rejected"
	NotificationAddedToClass = "class.added"
	NotificationExamGraded   = "exam.graded"
)

// Notification is a message addressed to one user.
type Notification struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uint       `gorm:"index;not null" json:"user_id"`
	Type      string     `gorm:"size:64;not null" json:"type"`
	Message   string     `gorm:"type:text;not null" json:"message"`
	Read      bool       `gorm:"not null;default:false" json:"read"`
	ReadAt    *time.Time `json:"read_at"`
	CreatedAt time.Time  `gorm:"index" json:"created_at"`
}
