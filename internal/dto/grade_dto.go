package dto

import (
	"time"

	"github.com/noah-isme/classroom-api/internal/models"
)

// QuizGrade is a quiz result joined with its quiz and course.
type QuizGrade struct {
	ResultID    uint      `json:"result_id"`
	QuizID      uint      `json:"quiz_id"`
	QuizTitle   string    `json:"quiz_title"`
	CourseID    uint      `json:"course_id"`
	CourseTitle string    `json:"course_title"`
	Score       int       `json:"score"`
	Total       int       `json:"total"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// ExamGrade is an exam result joined with its exam and course.
type ExamGrade struct {
	ResultID    uint       `json:"result_id"`
	ExamID      uint       `json:"exam_id"`
	ExamTitle   string     `json:"exam_title"`
	CourseID    uint       `json:"course_id"`
	CourseTitle string     `json:"course_title"`
	Score       *float64   `json:"score"`
	MaxScore    int        `json:"max_score"`
	Graded      bool       `json:"graded"`
	GradedAt    *time.Time `json:"graded_at,omitempty"`
	SubmittedAt time.Time  `json:"submitted_at"`
}

// GradesResponse groups the results of one student, newest first.
type GradesResponse struct {
	QuizResults []QuizGrade `json:"quiz_results"`
	ExamResults []ExamGrade `json:"exam_results"`
}

// NewQuizGrade converts a quiz result with Quiz.Course preloaded.
func NewQuizGrade(result models.QuizResult) QuizGrade {
	grade := QuizGrade{
		ResultID:    result.ID,
		QuizID:      result.QuizID,
		Score:       result.Score,
		Total:       result.Total,
		SubmittedAt: result.CreatedAt,
	}
	if result.Quiz != nil {
		grade.QuizTitle = result.Quiz.Title
		grade.CourseID = result.Quiz.CourseID
		if result.Quiz.Course != nil {
			grade.CourseTitle = result.Quiz.Course.Title
		}
	}
	return grade
}

// NewExamGrade converts an exam result with Exam.Course preloaded.
func NewExamGrade(result models.ExamResult) ExamGrade {
	grade := ExamGrade{
		ResultID:    result.ID,
		ExamID:      result.ExamID,
		Score:       result.Score,
		MaxScore:    models.ExamScoreMax,
		Graded:      result.IsGraded(),
		GradedAt:    result.GradedAt,
		SubmittedAt: result.CreatedAt,
	}
	if result.Exam != nil {
		grade.ExamTitle = result.Exam.Title
		grade.CourseID = result.Exam.CourseID
		if result.Exam.Course != nil {
			grade.CourseTitle = result.Exam.Course.Title
		}
	}
	return grade
}
