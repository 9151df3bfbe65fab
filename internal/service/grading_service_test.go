package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/classroom-api/internal/dto"
	"github.com/noah-isme/classroom-api/internal/models"
)

func scorePtr(v float64) *float64 { return &v }

func TestGradingServiceRescoreKeepsLatestValue(t *testing.T) {
	f := newFixture(t)
	exams := f.examService()
	grading := f.gradingService()
	ctx := context.Background()

	teacher := f.user(t, "Teacher", models.RoleTeacher)
	other := f.user(t, "Other", models.RoleTeacher)
	student := f.user(t, "Student", models.RoleStudent)
	course := f.course(t, teacher, "Open course", nil)
	exam, questions := seedExam(t, exams, teacher, course.ID, 1)

	submitted, err := exams.Submit(ctx, student, exam.ID, dto.ExamSubmitRequest{Answers: map[string]string{
		answerKey(questions[0].ID): "my answer",
	}})
	require.NoError(t, err)

	graded, err := grading.SetExamScore(ctx, teacher, exam.ID, submitted.ResultID, dto.ExamScoreRequest{Score: scorePtr(15)})
	require.NoError(t, err)
	require.True(t, graded.Graded)
	require.Equal(t, 15.0, *graded.Score)

	_, err = grading.SetExamScore(ctx, teacher, exam.ID, submitted.ResultID, dto.ExamScoreRequest{Score: scorePtr(18)})
	require.NoError(t, err)

	result, err := exams.Result(ctx, student, exam.ID)
	require.NoError(t, err)
	require.NotNil(t, result.Score)
	require.Equal(t, 18.0, *result.Score)

	_, err = grading.SetExamScore(ctx, teacher, exam.ID, submitted.ResultID, dto.ExamScoreRequest{Score: scorePtr(21)})
	require.ErrorIs(t, err, ErrValidation)
	_, err = grading.SetExamScore(ctx, teacher, exam.ID, submitted.ResultID, dto.ExamScoreRequest{Score: scorePtr(-1)})
	require.ErrorIs(t, err, ErrValidation)
	_, err = grading.SetExamScore(ctx, teacher, exam.ID, submitted.ResultID, dto.ExamScoreRequest{})
	require.ErrorIs(t, err, ErrValidation)

	_, err = grading.SetExamScore(ctx, other, exam.ID, submitted.ResultID, dto.ExamScoreRequest{Score: scorePtr(20)})
	require.ErrorIs(t, err, ErrForbidden)

	_, err = grading.SetExamScore(ctx, teacher, exam.ID, submitted.ResultID+100, dto.ExamScoreRequest{Score: scorePtr(10)})
	require.ErrorIs(t, err, ErrResultNotFound)

	require.Equal(t, []string{models.NotificationExamGraded, models.NotificationExamGraded}, f.notifier.kinds(student.ID))
	entries := f.activities(t, models.ActionExamGraded)
	require.Len(t, entries, 2)
}

func TestGradingServiceResultsForAssessment(t *testing.T) {
	f := newFixture(t)
	quizzes := f.quizService()
	exams := f.examService()
	grading := f.gradingService()
	ctx := context.Background()

	teacher := f.user(t, "Teacher", models.RoleTeacher)
	other := f.user(t, "Other", models.RoleTeacher)
	first := f.user(t, "First", models.RoleStudent)
	second := f.user(t, "Second", models.RoleStudent)
	course := f.course(t, teacher, "Open course", nil)
	quiz, quizQuestions := seedQuiz(t, quizzes, teacher, course.ID, "a")
	exam, examQuestions := seedExam(t, exams, teacher, course.ID, 1)

	for _, student := range []Actor{first, second} {
		_, err := quizzes.Submit(ctx, student, quiz.ID, dto.QuizSubmitRequest{Answers: map[string]string{answerKey(quizQuestions[0].ID): "a"}})
		require.NoError(t, err)
		_, err = exams.Submit(ctx, student, exam.ID, dto.ExamSubmitRequest{Answers: map[string]string{answerKey(examQuestions[0].ID): "text"}})
		require.NoError(t, err)
	}

	quizResults, err := grading.QuizResults(ctx, teacher, quiz.ID)
	require.NoError(t, err)
	require.Len(t, quizResults, 2)
	require.Equal(t, second.ID, quizResults[0].Student.ID)

	examResults, err := grading.ExamResults(ctx, teacher, exam.ID)
	require.NoError(t, err)
	require.Len(t, examResults, 2)
	require.Len(t, examResults[0].Answers, 1)
	require.Equal(t, "Explain topic 1", examResults[0].Answers[0].Question)

	_, err = grading.QuizResults(ctx, other, quiz.ID)
	require.ErrorIs(t, err, ErrForbidden)
	_, err = grading.ExamResults(ctx, other, exam.ID)
	require.ErrorIs(t, err, ErrForbidden)
}

func TestGradingServiceMyGradesAndCourseResults(t *testing.T) {
	f := newFixture(t)
	quizzes := f.quizService()
	exams := f.examService()
	grading := f.gradingService()
	ctx := context.Background()

	teacher := f.user(t, "Teacher", models.RoleTeacher)
	student := f.user(t, "Student", models.RoleStudent)
	physics := f.course(t, teacher, "Physics", nil)
	chemistry := f.course(t, teacher, "Chemistry", nil)
	quiz, quizQuestions := seedQuiz(t, quizzes, teacher, physics.ID, "a", "b")
	exam, examQuestions := seedExam(t, exams, teacher, chemistry.ID, 1)

	_, err := quizzes.Submit(ctx, student, quiz.ID, dto.QuizSubmitRequest{Answers: map[string]string{
		answerKey(quizQuestions[0].ID): "a",
		answerKey(quizQuestions[1].ID): "a",
	}})
	require.NoError(t, err)
	_, err = exams.Submit(ctx, student, exam.ID, dto.ExamSubmitRequest{Answers: map[string]string{answerKey(examQuestions[0].ID): "text"}})
	require.NoError(t, err)

	grades, err := grading.MyGrades(ctx, student)
	require.NoError(t, err)
	require.Len(t, grades.QuizResults, 1)
	require.Len(t, grades.ExamResults, 1)
	require.Equal(t, "Physics", grades.QuizResults[0].CourseTitle)
	require.Equal(t, 1, grades.QuizResults[0].Score)
	require.Equal(t, 2, grades.QuizResults[0].Total)
	require.Equal(t, "Chemistry", grades.ExamResults[0].CourseTitle)
	require.False(t, grades.ExamResults[0].Graded)

	physicsOnly, err := grading.CourseResults(ctx, student, physics.ID)
	require.NoError(t, err)
	require.Len(t, physicsOnly.QuizResults, 1)
	require.Empty(t, physicsOnly.ExamResults)

	_, err = grading.CourseResults(ctx, student, 777)
	require.ErrorIs(t, err, ErrCourseNotFound)
}
