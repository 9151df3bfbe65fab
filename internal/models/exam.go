package models

import "time"

// Exam score bounds.
const (
	ExamScoreMin = 0
	ExamScoreMax = 20
)

// Exam is a free-text assessment graded by the course teacher.
type Exam struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Title     string         `gorm:"size:255;not null" json:"title"`
	CourseID  uint           `gorm:"index;not null" json:"course_id"`
	Course    *Course        `gorm:"foreignKey:CourseID" json:"course,omitempty"`
	Questions []ExamQuestion `gorm:"foreignKey:ExamID" json:"questions,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// ExamQuestion carries an optional reference answer for the teacher only.
type ExamQuestion struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	ExamID        uint      `gorm:"index;not null" json:"exam_id"`
	Question      string    `gorm:"type:text;not null" json:"question"`
	CorrectAnswer string    `gorm:"type:text" json:"correct_answer,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ExamResult is the single attempt of a student at an exam. Score stays nil until graded.
type ExamResult struct {
	ID        uint         `gorm:"primaryKey" json:"id"`
	ExamID    uint         `gorm:"not null;uniqueIndex:idx_exam_results_exam_student" json:"exam_id"`
	StudentID uint         `gorm:"not null;uniqueIndex:idx_exam_results_exam_student;index" json:"student_id"`
	Score     *float64     `json:"score"`
	GradedAt  *time.Time   `json:"graded_at"`
	Exam      *Exam        `gorm:"foreignKey:ExamID" json:"exam,omitempty"`
	Student   *User        `gorm:"foreignKey:StudentID" json:"student,omitempty"`
	Answers   []ExamAnswer `gorm:"foreignKey:ExamResultID" json:"answers,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// IsGraded reports whether the teacher has scored the result.
func (r ExamResult) IsGraded() bool {
	return r.Score != nil
}

// ExamAnswer is one free-text answer of an exam result.
type ExamAnswer struct {
	ID             uint          `gorm:"primaryKey" json:"id"`
	ExamResultID   uint          `gorm:"not null;uniqueIndex:idx_exam_answers_result_question" json:"exam_result_id"`
	ExamQuestionID uint          `gorm:"not null;uniqueIndex:idx_exam_answers_result_question;index" json:"question_id"`
	Answer         string        `gorm:"type:text" json:"answer"`
	Question       *ExamQuestion `gorm:"foreignKey:ExamQuestionID" json:"question,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
}
