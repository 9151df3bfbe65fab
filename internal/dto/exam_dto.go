package dto

import (
	"time"

	"github.com/noah-isme/classroom-api/internal/models"
)

// ExamCreateRequest creates an exam in a course owned by the caller.
type ExamCreateRequest struct {
	Title    string `json:"title" validate:"required,min=1,max=255"`
	CourseID uint   `json:"course_id" validate:"required,gt=0"`
}

// ExamUpdateRequest renames an exam.
type ExamUpdateRequest struct {
	Title *string `json:"title" validate:"omitempty,min=1,max=255"`
}

// ExamResponse serializes an exam.
type ExamResponse struct {
	ID          uint      `json:"id"`
	Title       string    `json:"title"`
	CourseID    uint      `json:"course_id"`
	CourseTitle string    `json:"course_title,omitempty"`
	HasResults  *bool     `json:"has_results,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewExamResponse converts an exam model.
func NewExamResponse(exam models.Exam) ExamResponse {
	response := ExamResponse{
		ID:        exam.ID,
		Title:     exam.Title,
		CourseID:  exam.CourseID,
		CreatedAt: exam.CreatedAt,
		UpdatedAt: exam.UpdatedAt,
	}
	if exam.Course != nil {
		response.CourseTitle = exam.Course.Title
	}
	return response
}

// NewExamResponseSlice converts a list of exams.
func NewExamResponseSlice(exams []models.Exam) []ExamResponse {
	responses := make([]ExamResponse, 0, len(exams))
	for _, exam := range exams {
		responses = append(responses, NewExamResponse(exam))
	}
	return responses
}

// ExamQuestionRequest creates a free-text question.
type ExamQuestionRequest struct {
	Question      string `json:"question" validate:"required,min=1,max=5000"`
	CorrectAnswer string `json:"correct_answer" validate:"omitempty,max=5000"`
}

// ExamQuestionUpdateRequest patches a free-text question.
type ExamQuestionUpdateRequest struct {
	Question      *string `json:"question" validate:"omitempty,min=1,max=5000"`
	CorrectAnswer *string `json:"correct_answer" validate:"omitempty,max=5000"`
}

// ExamQuestionResponse serializes a question. CorrectAnswer is empty in student views.
type ExamQuestionResponse struct {
	ID            uint   `json:"id"`
	ExamID        uint   `json:"exam_id"`
	Question      string `json:"question"`
	CorrectAnswer string `json:"correct_answer,omitempty"`
}

// NewExamQuestionResponse converts a question, hiding the reference answer unless withAnswer is set.
func NewExamQuestionResponse(question models.ExamQuestion, withAnswer bool) ExamQuestionResponse {
	response := ExamQuestionResponse{
		ID:       question.ID,
		ExamID:   question.ExamID,
		Question: question.Question,
	}
	if withAnswer {
		response.CorrectAnswer = question.CorrectAnswer
	}
	return response
}

// NewExamQuestionResponseSlice converts a list of questions.
func NewExamQuestionResponseSlice(questions []models.ExamQuestion, withAnswer bool) []ExamQuestionResponse {
	responses := make([]ExamQuestionResponse, 0, len(questions))
	for _, question := range questions {
		responses = append(responses, NewExamQuestionResponse(question, withAnswer))
	}
	return responses
}

// ExamSubmitRequest maps question ids to free-text answers.
type ExamSubmitRequest struct {
	Answers map[string]string `json:"answers" validate:"required,min=1"`
}

// ExamSubmitResponse summarises a stored exam attempt.
type ExamSubmitResponse struct {
	ResultID    uint      `json:"result_id"`
	ExamID      uint      `json:"exam_id"`
	Saved       int       `json:"saved_answers"`
	Skipped     int       `json:"skipped_answers"`
	Score       *float64  `json:"score"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// ExamScoreRequest sets the score of an exam result.
type ExamScoreRequest struct {
	Score *float64 `json:"score" validate:"required,gte=0,lte=20"`
}

// ExamAnswerResponse serializes one answer with its question.
type ExamAnswerResponse struct {
	QuestionID uint   `json:"question_id"`
	Question   string `json:"question,omitempty"`
	Answer     string `json:"answer"`
}

// ExamResultResponse is the outcome of an exam attempt.
type ExamResultResponse struct {
	ID          uint                 `json:"id"`
	ExamID      uint                 `json:"exam_id"`
	ExamTitle   string               `json:"exam_title,omitempty"`
	Student     *UserSummary         `json:"student,omitempty"`
	Score       *float64             `json:"score"`
	MaxScore    int                  `json:"max_score"`
	Graded      bool                 `json:"graded"`
	GradedAt    *time.Time           `json:"graded_at,omitempty"`
	SubmittedAt time.Time            `json:"submitted_at"`
	Answers     []ExamAnswerResponse `json:"answers"`
}

// NewExamResultResponse converts an exam result with its loaded answers.
func NewExamResultResponse(result models.ExamResult) ExamResultResponse {
	answers := make([]ExamAnswerResponse, 0, len(result.Answers))
	for _, answer := range result.Answers {
		item := ExamAnswerResponse{QuestionID: answer.ExamQuestionID, Answer: answer.Answer}
		if answer.Question != nil {
			item.Question = answer.Question.Question
		}
		answers = append(answers, item)
	}

	response := ExamResultResponse{
		ID:          result.ID,
		ExamID:      result.ExamID,
		Student:     NewUserSummary(result.Student),
		Score:       result.Score,
		MaxScore:    models.ExamScoreMax,
		Graded:      result.IsGraded(),
		GradedAt:    result.GradedAt,
		SubmittedAt: result.CreatedAt,
		Answers:     answers,
	}
	if result.Exam != nil {
		response.ExamTitle = result.Exam.Title
	}
	return response
}
