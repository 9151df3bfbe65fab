package service

import (
	"context"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/classroom-api/internal/dto"
	"github.com/noah-isme/classroom-api/internal/models"
)

func seedQuiz(t *testing.T, svc QuizService, teacher Actor, courseID uint, correct ...string) (dto.QuizResponse, []dto.QuizQuestionResponse) {
	t.Helper()
	ctx := context.Background()
	quiz, err := svc.Create(ctx, teacher, dto.QuizCreateRequest{Title: "Quiz", CourseID: courseID})
	require.NoError(t, err)

	questions := make([]dto.QuizQuestionResponse, 0, len(correct))
	for i, option := range correct {
		question, err := svc.CreateQuestion(ctx, teacher, quiz.ID, dto.QuizQuestionRequest{
			Question:      "Question " + strconv.Itoa(i+1),
			OptionA:       "A",
			OptionB:       "B",
			OptionC:       "C",
			OptionD:       "D",
			CorrectOption: option,
		})
		require.NoError(t, err)
		questions = append(questions, question)
	}
	return quiz, questions
}

func answerKey(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

func TestQuizServiceSubmitScoresExactMatches(t *testing.T) {
	f := newFixture(t)
	svc := f.quizService()
	ctx := context.Background()

	teacher := f.user(t, "Teacher", models.RoleTeacher)
	student := f.user(t, "Student", models.RoleStudent)
	course := f.course(t, teacher, "Open course", nil)
	quiz, questions := seedQuiz(t, svc, teacher, course.ID, "a", "b", "c", "d")

	result, err := svc.Submit(ctx, student, quiz.ID, dto.QuizSubmitRequest{Answers: map[string]string{
		answerKey(questions[0].ID): "a",
		answerKey(questions[1].ID): "b",
		answerKey(questions[2].ID): "c",
		answerKey(questions[3].ID): "a",
	}})
	require.NoError(t, err)
	require.Equal(t, 3, result.Score)
	require.Equal(t, 4, result.Total)

	_, err = svc.Submit(ctx, student, quiz.ID, dto.QuizSubmitRequest{Answers: map[string]string{
		answerKey(questions[0].ID): "a",
	}})
	require.ErrorIs(t, err, ErrQuizAlreadyTaken)
	require.ErrorIs(t, err, ErrForbidden)

	stored, err := svc.Result(ctx, student, quiz.ID)
	require.NoError(t, err)
	require.Equal(t, 3, stored.Score)

	taken, err := svc.Taken(ctx, student, quiz.ID)
	require.NoError(t, err)
	require.True(t, taken.Taken)
}

func TestQuizServiceComparisonIsCaseSensitive(t *testing.T) {
	f := newFixture(t)
	svc := f.quizService()
	ctx := context.Background()

	teacher := f.user(t, "Teacher", models.RoleTeacher)
	student := f.user(t, "Student", models.RoleStudent)
	course := f.course(t, teacher, "Open course", nil)
	quiz, questions := seedQuiz(t, svc, teacher, course.ID, "a", "b")

	result, err := svc.Submit(ctx, student, quiz.ID, dto.QuizSubmitRequest{Answers: map[string]string{
		answerKey(questions[0].ID): "A",
		answerKey(questions[1].ID): "b",
		"not-a-question":           "a",
	}})
	require.NoError(t, err)
	require.Equal(t, 1, result.Score)
	require.Equal(t, 2, result.Total)
}

func TestQuizServiceEnrollmentGate(t *testing.T) {
	f := newFixture(t)
	svc := f.quizService()
	ctx := context.Background()

	teacher := f.user(t, "Teacher", models.RoleTeacher)
	member := f.user(t, "Member", models.RoleStudent)
	outsider := f.user(t, "Outsider", models.RoleStudent)
	class := f.class(t, teacher, "12C")
	f.enroll(t, class.ID, member)
	course := f.course(t, teacher, "Private course", &class.ID)
	quiz, questions := seedQuiz(t, svc, teacher, course.ID, "a")
	answers := dto.QuizSubmitRequest{Answers: map[string]string{answerKey(questions[0].ID): "a"}}

	_, err := svc.Submit(ctx, outsider, quiz.ID, answers)
	require.ErrorIs(t, err, ErrNotEnrolled)
	_, err = svc.ListForCourse(ctx, outsider, course.ID)
	require.ErrorIs(t, err, ErrForbidden)

	listed, err := svc.ListForCourse(ctx, member, course.ID)
	require.NoError(t, err)
	require.Len(t, listed, 1)

	visible, err := svc.StudentQuestions(ctx, member, quiz.ID)
	require.NoError(t, err)
	require.Len(t, visible, 1)
	require.Empty(t, visible[0].CorrectOption)

	result, err := svc.Submit(ctx, member, quiz.ID, answers)
	require.NoError(t, err)
	require.Equal(t, 1, result.Score)
}

func TestQuizServiceRejectsEmptyQuizAndEmptyAnswers(t *testing.T) {
	f := newFixture(t)
	svc := f.quizService()
	ctx := context.Background()

	teacher := f.user(t, "Teacher", models.RoleTeacher)
	student := f.user(t, "Student", models.RoleStudent)
	course := f.course(t, teacher, "Open course", nil)
	quiz, _ := seedQuiz(t, svc, teacher, course.ID)

	_, err := svc.Submit(ctx, student, quiz.ID, dto.QuizSubmitRequest{})
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.Submit(ctx, student, quiz.ID, dto.QuizSubmitRequest{Answers: map[string]string{"1": "a"}})
	require.ErrorIs(t, err, ErrNoQuestions)

	_, err = svc.Submit(ctx, student, 4242, dto.QuizSubmitRequest{Answers: map[string]string{"1": "a"}})
	require.ErrorIs(t, err, ErrQuizNotFound)
}

func TestQuizServiceTeacherManagement(t *testing.T) {
	f := newFixture(t)
	svc := f.quizService()
	ctx := context.Background()

	teacher := f.user(t, "Teacher", models.RoleTeacher)
	other := f.user(t, "Other", models.RoleTeacher)
	course := f.course(t, teacher, "Course", nil)

	_, err := svc.Create(ctx, other, dto.QuizCreateRequest{Title: "Hijack", CourseID: course.ID})
	require.ErrorIs(t, err, ErrNotCourseOwner)

	quiz, questions := seedQuiz(t, svc, teacher, course.ID, "a")

	correct := "d"
	updated, err := svc.UpdateQuestion(ctx, teacher, quiz.ID, questions[0].ID, dto.QuizQuestionUpdateRequest{CorrectOption: &correct})
	require.NoError(t, err)
	require.Equal(t, "d", updated.CorrectOption)

	invalid := "e"
	_, err = svc.UpdateQuestion(ctx, teacher, quiz.ID, questions[0].ID, dto.QuizQuestionUpdateRequest{CorrectOption: &invalid})
	require.ErrorIs(t, err, ErrValidation)

	full, err := svc.Questions(ctx, teacher, quiz.ID)
	require.NoError(t, err)
	require.Equal(t, "d", full[0].CorrectOption)

	_, err = svc.Questions(ctx, other, quiz.ID)
	require.ErrorIs(t, err, ErrForbidden)

	listed, err := svc.List(ctx, teacher)
	require.NoError(t, err)
	require.Len(t, listed, 1)

	require.NoError(t, svc.DeleteQuestion(ctx, teacher, quiz.ID, questions[0].ID))
	require.ErrorIs(t, svc.DeleteQuestion(ctx, teacher, quiz.ID, questions[0].ID), ErrQuestionNotFound)
	require.NoError(t, svc.Delete(ctx, teacher, quiz.ID))
	_, err = svc.Get(ctx, teacher, quiz.ID)
	require.ErrorIs(t, err, ErrQuizNotFound)
}
