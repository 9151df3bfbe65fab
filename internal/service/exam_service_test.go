package service

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/classroom-api/internal/dto"
	"github.com/noah-isme/classroom-api/internal/models"
	"github.com/noah-isme/classroom-api/internal/repository"
)

type failingAnswerRepository struct {
	repository.ExamRepository
	failFor uint
}

func (r *failingAnswerRepository) CreateAnswer(ctx context.Context, answer *models.ExamAnswer) error {
	if answer.ExamQuestionID == r.failFor {
		return errors.New("disk I/O error")
	}
	return r.ExamRepository.CreateAnswer(ctx, answer)
}

func seedExam(t *testing.T, svc ExamService, teacher Actor, courseID uint, questionCount int) (dto.ExamResponse, []dto.ExamQuestionResponse) {
	t.Helper()
	ctx := context.Background()
	exam, err := svc.Create(ctx, teacher, dto.ExamCreateRequest{Title: "Exam", CourseID: courseID})
	require.NoError(t, err)

	questions := make([]dto.ExamQuestionResponse, 0, questionCount)
	for i := 0; i < questionCount; i++ {
		question, err := svc.CreateQuestion(ctx, teacher, exam.ID, dto.ExamQuestionRequest{
			Question:      "Explain topic " + strconv.Itoa(i+1),
			CorrectAnswer: "reference",
		})
		require.NoError(t, err)
		questions = append(questions, question)
	}
	return exam, questions
}

func TestExamServiceSubmitSkipsUnknownAnswers(t *testing.T) {
	f := newFixture(t)
	svc := f.examService()
	ctx := context.Background()

	teacher := f.user(t, "Teacher", models.RoleTeacher)
	student := f.user(t, "Student", models.RoleStudent)
	course := f.course(t, teacher, "Open course", nil)
	exam, questions := seedExam(t, svc, teacher, course.ID, 2)

	submitted, err := svc.Submit(ctx, student, exam.ID, dto.ExamSubmitRequest{Answers: map[string]string{
		answerKey(questions[0].ID): "Newton's <b>first</b> law",
		answerKey(questions[1].ID): "Energy is conserved",
		"99999":                    "orphan",
		"abc":                      "garbage",
	}})
	require.NoError(t, err)
	require.Equal(t, 2, submitted.Saved)
	require.Equal(t, 2, submitted.Skipped)
	require.Nil(t, submitted.Score)

	result, err := svc.Result(ctx, student, exam.ID)
	require.NoError(t, err)
	require.False(t, result.Graded)
	require.Nil(t, result.Score)
	require.Len(t, result.Answers, 2)
	require.Equal(t, "Newton's first law", result.Answers[0].Answer)

	_, err = svc.Submit(ctx, student, exam.ID, dto.ExamSubmitRequest{Answers: map[string]string{
		answerKey(questions[0].ID): "again",
	}})
	require.ErrorIs(t, err, ErrExamAlreadyTaken)
}

func TestExamServiceSubmitSurvivesFailedAnswerWrite(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	teacher := f.user(t, "Teacher", models.RoleTeacher)
	student := f.user(t, "Student", models.RoleStudent)
	course := f.course(t, teacher, "Open course", nil)
	exam, questions := seedExam(t, f.examService(), teacher, course.ID, 3)

	repo := &failingAnswerRepository{ExamRepository: f.exams, failFor: questions[1].ID}
	svc := NewExamService(repo, f.courses, f.classes, NewValidator(), testLogger())

	submitted, err := svc.Submit(ctx, student, exam.ID, dto.ExamSubmitRequest{Answers: map[string]string{
		answerKey(questions[0].ID): "first",
		answerKey(questions[1].ID): "second",
		answerKey(questions[2].ID): "third",
	}})
	require.NoError(t, err)
	require.NotZero(t, submitted.ResultID)
	require.Equal(t, 2, submitted.Saved)
	require.Equal(t, 1, submitted.Skipped)

	result, err := svc.Result(ctx, student, exam.ID)
	require.NoError(t, err)
	require.Equal(t, submitted.ResultID, result.ID)
	require.Len(t, result.Answers, 2)

	var stored int64
	require.NoError(t, f.db.Model(&models.ExamAnswer{}).Where("exam_result_id = ?", submitted.ResultID).Count(&stored).Error)
	require.EqualValues(t, 2, stored)
}

func TestExamServiceSubmitStoresOneAnswerPerQuestion(t *testing.T) {
	f := newFixture(t)
	svc := f.examService()
	ctx := context.Background()

	teacher := f.user(t, "Teacher", models.RoleTeacher)
	student := f.user(t, "Student", models.RoleStudent)
	course := f.course(t, teacher, "Open course", nil)
	exam, questions := seedExam(t, svc, teacher, course.ID, 1)

	key := answerKey(questions[0].ID)
	submitted, err := svc.Submit(ctx, student, exam.ID, dto.ExamSubmitRequest{Answers: map[string]string{
		key:       "plain key",
		"0" + key: "padded key",
	}})
	require.NoError(t, err)
	require.Equal(t, 1, submitted.Saved)
	require.Equal(t, 1, submitted.Skipped)

	var stored []models.ExamAnswer
	require.NoError(t, f.db.Where("exam_result_id = ?", submitted.ResultID).Find(&stored).Error)
	require.Len(t, stored, 1)
	require.Equal(t, "padded key", stored[0].Answer)
}

func TestExamServiceLocksOnceResultsExist(t *testing.T) {
	f := newFixture(t)
	svc := f.examService()
	ctx := context.Background()

	teacher := f.user(t, "Teacher", models.RoleTeacher)
	student := f.user(t, "Student", models.RoleStudent)
	course := f.course(t, teacher, "Open course", nil)
	exam, questions := seedExam(t, svc, teacher, course.ID, 1)

	shown, err := svc.Get(ctx, teacher, exam.ID)
	require.NoError(t, err)
	require.NotNil(t, shown.HasResults)
	require.False(t, *shown.HasResults)

	title := "Renamed before anyone sat it"
	_, err = svc.Update(ctx, teacher, exam.ID, dto.ExamUpdateRequest{Title: &title})
	require.NoError(t, err)

	_, err = svc.Submit(ctx, student, exam.ID, dto.ExamSubmitRequest{Answers: map[string]string{
		answerKey(questions[0].ID): "answer",
	}})
	require.NoError(t, err)

	shown, err = svc.Get(ctx, teacher, exam.ID)
	require.NoError(t, err)
	require.True(t, *shown.HasResults)

	_, err = svc.Update(ctx, teacher, exam.ID, dto.ExamUpdateRequest{Title: &title})
	require.ErrorIs(t, err, ErrExamLocked)
	require.ErrorIs(t, err, ErrImmutable)

	require.ErrorIs(t, svc.Delete(ctx, teacher, exam.ID), ErrExamLocked)
	_, err = svc.CreateQuestion(ctx, teacher, exam.ID, dto.ExamQuestionRequest{Question: "late"})
	require.ErrorIs(t, err, ErrExamLocked)
	text := "changed"
	_, err = svc.UpdateQuestion(ctx, teacher, exam.ID, questions[0].ID, dto.ExamQuestionUpdateRequest{Question: &text})
	require.ErrorIs(t, err, ErrExamLocked)
	require.ErrorIs(t, svc.DeleteQuestion(ctx, teacher, exam.ID, questions[0].ID), ErrExamLocked)
}

func TestExamServiceStudentViewsHideReferenceAnswers(t *testing.T) {
	f := newFixture(t)
	svc := f.examService()
	ctx := context.Background()

	teacher := f.user(t, "Teacher", models.RoleTeacher)
	member := f.user(t, "Member", models.RoleStudent)
	outsider := f.user(t, "Outsider", models.RoleStudent)
	class := f.class(t, teacher, "Private")
	f.enroll(t, class.ID, member)
	course := f.course(t, teacher, "Private course", &class.ID)
	exam, _ := seedExam(t, svc, teacher, course.ID, 1)

	questions, err := svc.StudentQuestions(ctx, member, exam.ID)
	require.NoError(t, err)
	require.Len(t, questions, 1)
	require.Empty(t, questions[0].CorrectAnswer)

	_, err = svc.Show(ctx, outsider, exam.ID)
	require.ErrorIs(t, err, ErrNotEnrolled)

	listed, err := svc.ListForCourse(ctx, member, course.ID)
	require.NoError(t, err)
	require.Len(t, listed, 1)

	taken, err := svc.Taken(ctx, member, exam.ID)
	require.NoError(t, err)
	require.False(t, taken.Taken)
}
