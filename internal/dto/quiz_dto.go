package dto

import (
	"time"

	"github.com/noah-isme/classroom-api/internal/models"
)

// QuizCreateRequest creates a quiz in a course owned by the caller.
type QuizCreateRequest struct {
	Title    string `json:"title" validate:"required,min=1,max=255"`
	CourseID uint   `json:"course_id" validate:"required,gt=0"`
}

// QuizUpdateRequest renames a quiz.
type QuizUpdateRequest struct {
	Title *string `json:"title" validate:"omitempty,min=1,max=255"`
}

// QuizResponse serializes a quiz.
type QuizResponse struct {
	ID          uint      `json:"id"`
	Title       string    `json:"title"`
	CourseID    uint      `json:"course_id"`
	CourseTitle string    `json:"course_title,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewQuizResponse converts a quiz model.
func NewQuizResponse(quiz models.Quiz) QuizResponse {
	response := QuizResponse{
		ID:        quiz.ID,
		Title:     quiz.Title,
		CourseID:  quiz.CourseID,
		CreatedAt: quiz.CreatedAt,
		UpdatedAt: quiz.UpdatedAt,
	}
	if quiz.Course != nil {
		response.CourseTitle = quiz.Course.Title
	}
	return response
}

// NewQuizResponseSlice converts a list of quizzes.
func NewQuizResponseSlice(quizzes []models.Quiz) []QuizResponse {
	responses := make([]QuizResponse, 0, len(quizzes))
	for _, quiz := range quizzes {
		responses = append(responses, NewQuizResponse(quiz))
	}
	return responses
}

// QuizQuestionRequest creates a multiple-choice question.
type QuizQuestionRequest struct {
	Question      string `json:"question" validate:"required,min=1,max=5000"`
	OptionA       string `json:"option_a" validate:"required,max=512"`
	OptionB       string `json:"option_b" validate:"required,max=512"`
	OptionC       string `json:"option_c" validate:"required,max=512"`
	OptionD       string `json:"option_d" validate:"required,max=512"`
	CorrectOption string `json:"correct_option" validate:"required,oneof=a b c d"`
}

// QuizQuestionUpdateRequest patches a multiple-choice question.
type QuizQuestionUpdateRequest struct {
	Question      *string `json:"question" validate:"omitempty,min=1,max=5000"`
	OptionA       *string `json:"option_a" validate:"omitempty,min=1,max=512"`
	OptionB       *string `json:"option_b" validate:"omitempty,min=1,max=512"`
	OptionC       *string `json:"option_c" validate:"omitempty,min=1,max=512"`
	OptionD       *string `json:"option_d" validate:"omitempty,min=1,max=512"`
	CorrectOption *string `json:"correct_option" validate:"omitempty,oneof=a b c d"`
}

// QuizQuestionResponse serializes a question. CorrectOption is empty in student views.
type QuizQuestionResponse struct {
	ID            uint   `json:"id"`
	QuizID        uint   `json:"quiz_id"`
	Question      string `json:"question"`
	OptionA       string `json:"option_a"`
	OptionB       string `json:"option_b"`
	OptionC       string `json:"option_c"`
	OptionD       string `json:"option_d"`
	CorrectOption string `json:"correct_option,omitempty"`
}

// NewQuizQuestionResponse converts a question, hiding the answer unless withAnswer is set.
func NewQuizQuestionResponse(question models.QuizQuestion, withAnswer bool) QuizQuestionResponse {
	response := QuizQuestionResponse{
		ID:       question.ID,
		QuizID:   question.QuizID,
		Question: question.Question,
		OptionA:  question.OptionA,
		OptionB:  question.OptionB,
		OptionC:  question.OptionC,
		OptionD:  question.OptionD,
	}
	if withAnswer {
		response.CorrectOption = question.CorrectOption
	}
	return response
}

// NewQuizQuestionResponseSlice converts a list of questions.
func NewQuizQuestionResponseSlice(questions []models.QuizQuestion, withAnswer bool) []QuizQuestionResponse {
	responses := make([]QuizQuestionResponse, 0, len(questions))
	for _, question := range questions {
		responses = append(responses, NewQuizQuestionResponse(question, withAnswer))
	}
	return responses
}

// QuizSubmitRequest maps question ids to the chosen option letter.
type QuizSubmitRequest struct {
	Answers map[string]string `json:"answers" validate:"required,min=1"`
}

// QuizResultResponse is the outcome of a quiz attempt.
type QuizResultResponse struct {
	ID          uint         `json:"id"`
	QuizID      uint         `json:"quiz_id"`
	QuizTitle   string       `json:"quiz_title,omitempty"`
	Student     *UserSummary `json:"student,omitempty"`
	Score       int          `json:"score"`
	Total       int          `json:"total"`
	SubmittedAt time.Time    `json:"submitted_at"`
}

// NewQuizResultResponse converts a quiz result.
func NewQuizResultResponse(result models.QuizResult) QuizResultResponse {
	response := QuizResultResponse{
		ID:          result.ID,
		QuizID:      result.QuizID,
		Student:     NewUserSummary(result.Student),
		Score:       result.Score,
		Total:       result.Total,
		SubmittedAt: result.CreatedAt,
	}
	if result.Quiz != nil {
		response.QuizTitle = result.Quiz.Title
	}
	return response
}

// TakenResponse reports whether the caller already attempted an assessment.
type TakenResponse struct {
	Taken bool `json:"taken"`
}
