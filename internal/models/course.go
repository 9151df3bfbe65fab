package models

import "time"

// Resource types attached to courses.
const (
	ResourceTypePDF      = "pdf"
	ResourceTypeImage    = "image"
	ResourceTypeVideo    = "video"
	ResourceTypeAudio    = "audio"
	ResourceTypeDocument = "document"
	ResourceTypeFile     = "file"
	ResourceTypeURL      = "url"
)

// Course is teaching material owned by a teacher. A class-scoped course is never public.
type Course struct {
	ID          uint             `gorm:"primaryKey" json:"id"`
	Title       string           `gorm:"size:255;not null" json:"title"`
	Description string           `gorm:"type:text" json:"description"`
	TeacherID   uint             `gorm:"index;not null" json:"teacher_id"`
	ClassID     *uint            `gorm:"index" json:"class_id"`
	IsPublic    bool             `gorm:"not null;index" json:"is_public"`
	Teacher     *User            `gorm:"foreignKey:TeacherID" json:"teacher,omitempty"`
	Class       *Class           `gorm:"foreignKey:ClassID" json:"class,omitempty"`
	Resources   []CourseResource `gorm:"foreignKey:CourseID" json:"resources"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// ScopeToClass sets the class and derives visibility from it.
func (c *Course) ScopeToClass(classID *uint) {
	c.ClassID = classID
	c.IsPublic = classID == nil
}

// CourseResource is a file or link attached to a course.
type CourseResource struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CourseID  uint      `gorm:"index;not null" json:"course_id"`
	Type      string    `gorm:"size:32;not null" json:"type"`
	Path      string    `gorm:"size:1024;not null" json:"path"`
	CreatedAt time.Time `json:"created_at"`
}
