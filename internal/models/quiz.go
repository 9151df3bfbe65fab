package models

import "time"

// Quiz is a multiple-choice assessment graded automatically on submission.
type Quiz struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Title     string         `gorm:"size:255;not null" json:"title"`
	CourseID  uint           `gorm:"index;not null" json:"course_id"`
	Course    *Course        `gorm:"foreignKey:CourseID" json:"course,omitempty"`
	Questions []QuizQuestion `gorm:"foreignKey:QuizID" json:"questions,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// QuizQuestion holds four options and the letter of the correct one.
type QuizQuestion struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	QuizID        uint      `gorm:"index;not null" json:"quiz_id"`
	Question      string    `gorm:"type:text;not null" json:"question"`
	OptionA       string    `gorm:"size:512;not null" json:"option_a"`
	OptionB       string    `gorm:"size:512;not null" json:"option_b"`
	OptionC       string    `gorm:"size:512;not null" json:"option_c"`
	OptionD       string    `gorm:"size:512;not null" json:"option_d"`
	CorrectOption string    `gorm:"size:1;not null" json:"correct_option"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// QuizResult is the single scored attempt of a student at a quiz.
type QuizResult struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	QuizID    uint      `gorm:"not null;uniqueIndex:idx_quiz_results_quiz_student" json:"quiz_id"`
	StudentID uint      `gorm:"not null;uniqueIndex:idx_quiz_results_quiz_student;index" json:"student_id"`
	Score     int       `gorm:"not null" json:"score"`
	Total     int       `gorm:"not null" json:"total"`
	Quiz      *Quiz     `gorm:"foreignKey:QuizID" json:"quiz,omitempty"`
	Student   *User     `gorm:"foreignKey:StudentID" json:"student,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
