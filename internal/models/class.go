package models

import "time"

// Join request states.
const (
	JoinRequestPending  = "pending"
	JoinRequestAccepted = "accepted"
	JoinRequestRejected = "rejected"
)

// Class is a teacher-owned cohort of students.
type Class struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:255;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	TeacherID   uint      `gorm:"index;not null" json:"teacher_id"`
	Teacher     *User     `gorm:"foreignKey:TeacherID" json:"teacher,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// JoinRequest is a student's application to a class. The (class, student) pair is unique.
type JoinRequest struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ClassID   uint      `gorm:"not null;uniqueIndex:idx_join_requests_class_student" json:"class_id"`
	StudentID uint      `gorm:"not null;uniqueIndex:idx_join_requests_class_student;index" json:"student_id"`
	Status    string    `gorm:"size:16;not null;index" json:"status"`
	Class     *Class    `gorm:"foreignKey:ClassID" json:"class,omitempty"`
	Student   *User     `gorm:"foreignKey:StudentID" json:"student,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsPending reports whether the request still awaits a decision.
func (r JoinRequest) IsPending() bool {
	return r.Status == JoinRequestPending
}

// Enrollment links a student to a class. The (class, student) pair is unique.
type Enrollment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ClassID   uint      `gorm:"not null;uniqueIndex:idx_class_students_pair" json:"class_id"`
	StudentID uint      `gorm:"not null;uniqueIndex:idx_class_students_pair;index" json:"student_id"`
	Class     *Class    `gorm:"foreignKey:ClassID" json:"class,omitempty"`
	Student   *User     `gorm:"foreignKey:StudentID" json:"student,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName keeps the pivot table name used by the rest of the schema.
func (Enrollment) TableName() string {
	return "class_students"
}
