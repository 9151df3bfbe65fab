package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/classroom-api/internal/models"
)

func seedCourse(t *testing.T, repo CourseRepository, teacherID uint, classID *uint) models.Course {
	t.Helper()
	course := models.Course{Title: "Physics", Description: "Mechanics", TeacherID: teacherID}
	course.ScopeToClass(classID)
	require.NoError(t, repo.Create(context.Background(), &course))
	return course
}

func TestQuizRepositoryResultIsUniquePerStudent(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	quizzes := NewQuizRepository(db)

	teacher := createUser(t, db, "Tina Teacher", models.RoleTeacher)
	student := createUser(t, db, "Sam Student", models.RoleStudent)
	course := seedCourse(t, NewCourseRepository(db), teacher.ID, nil)

	quiz := models.Quiz{Title: "Kinematics", CourseID: course.ID}
	require.NoError(t, quizzes.Create(ctx, &quiz))

	require.NoError(t, quizzes.CreateResult(ctx, &models.QuizResult{QuizID: quiz.ID, StudentID: student.ID, Score: 3, Total: 4}))
	err := quizzes.CreateResult(ctx, &models.QuizResult{QuizID: quiz.ID, StudentID: student.ID, Score: 4, Total: 4})
	require.ErrorIs(t, err, ErrDuplicate)

	result, err := quizzes.GetResult(ctx, quiz.ID, student.ID)
	require.NoError(t, err)
	require.Equal(t, 3, result.Score)

	listed, err := quizzes.ListByTeacher(ctx, &teacher.ID)
	require.NoError(t, err)
	require.Len(t, listed, 1)

	other := createUser(t, db, "Other Teacher", models.RoleTeacher)
	listed, err = quizzes.ListByTeacher(ctx, &other.ID)
	require.NoError(t, err)
	require.Empty(t, listed)
}

func TestExamRepositoryScoreCanBeOverwritten(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	exams := NewExamRepository(db)

	teacher := createUser(t, db, "Tina Teacher", models.RoleTeacher)
	student := createUser(t, db, "Sam Student", models.RoleStudent)
	course := seedCourse(t, NewCourseRepository(db), teacher.ID, nil)

	exam := models.Exam{Title: "Final", CourseID: course.ID}
	require.NoError(t, exams.Create(ctx, &exam))
	question := models.ExamQuestion{ExamID: exam.ID, Question: "Explain inertia"}
	require.NoError(t, exams.CreateQuestion(ctx, &question))

	hasResults, err := exams.HasResults(ctx, exam.ID)
	require.NoError(t, err)
	require.False(t, hasResults)

	result := models.ExamResult{ExamID: exam.ID, StudentID: student.ID}
	require.NoError(t, exams.CreateResult(ctx, &result))
	require.ErrorIs(t, exams.CreateResult(ctx, &models.ExamResult{ExamID: exam.ID, StudentID: student.ID}), ErrDuplicate)
	require.NoError(t, exams.CreateAnswer(ctx, &models.ExamAnswer{ExamResultID: result.ID, ExamQuestionID: question.ID, Answer: "Resistance to change"}))

	hasResults, err = exams.HasResults(ctx, exam.ID)
	require.NoError(t, err)
	require.True(t, hasResults)

	require.NoError(t, exams.UpdateScore(ctx, result.ID, 15, time.Now()))
	require.NoError(t, exams.UpdateScore(ctx, result.ID, 18, time.Now()))

	stored, err := exams.GetResult(ctx, exam.ID, student.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.Score)
	require.Equal(t, 18.0, *stored.Score)
	require.Len(t, stored.Answers, 1)
	require.Equal(t, "Explain inertia", stored.Answers[0].Question.Question)
}

func TestCourseRepositoryPublicVisibilityAndReplace(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	courses := NewCourseRepository(db)
	classes := NewClassRepository(db)

	teacher := createUser(t, db, "Tina Teacher", models.RoleTeacher)
	class := models.Class{Name: "10B", TeacherID: teacher.ID}
	require.NoError(t, classes.Create(ctx, &class))

	public := seedCourse(t, courses, teacher.ID, nil)
	private := seedCourse(t, courses, teacher.ID, &class.ID)
	require.True(t, public.IsPublic)
	require.False(t, private.IsPublic)

	var stored []bool
	require.NoError(t, db.Model(&models.Course{}).Where("id = ?", private.ID).Pluck("is_public", &stored).Error)
	require.Equal(t, []bool{false}, stored)

	listed, err := courses.ListPublic(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	require.Equal(t, public.ID, listed[0].ID)

	_, err = courses.GetPublic(ctx, private.ID)
	require.True(t, IsNotFound(err))

	require.NoError(t, courses.AddResources(ctx, []models.CourseResource{
		{CourseID: public.ID, Type: models.ResourceTypeURL, Path: "https://example.com/old-1"},
		{CourseID: public.ID, Type: models.ResourceTypeURL, Path: "https://example.com/old-2"},
	}))
	require.NoError(t, courses.ReplaceResources(ctx, public.ID, []models.CourseResource{
		{Type: models.ResourceTypeURL, Path: "https://example.com/new"},
	}))

	stored, err := courses.GetByID(ctx, public.ID)
	require.NoError(t, err)
	require.Len(t, stored.Resources, 1)
	require.Equal(t, "https://example.com/new", stored.Resources[0].Path)
}

func TestGradeRepositoryFiltersByCourse(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	courses := NewCourseRepository(db)
	quizzes := NewQuizRepository(db)
	grades := NewGradeRepository(db)

	teacher := createUser(t, db, "Tina Teacher", models.RoleTeacher)
	student := createUser(t, db, "Sam Student", models.RoleStudent)
	physics := seedCourse(t, courses, teacher.ID, nil)
	chemistry := seedCourse(t, courses, teacher.ID, nil)

	first := models.Quiz{Title: "Forces", CourseID: physics.ID}
	second := models.Quiz{Title: "Atoms", CourseID: chemistry.ID}
	require.NoError(t, quizzes.Create(ctx, &first))
	require.NoError(t, quizzes.Create(ctx, &second))
	require.NoError(t, quizzes.CreateResult(ctx, &models.QuizResult{QuizID: first.ID, StudentID: student.ID, Score: 2, Total: 2}))
	require.NoError(t, quizzes.CreateResult(ctx, &models.QuizResult{QuizID: second.ID, StudentID: student.ID, Score: 1, Total: 2}))

	all, err := grades.QuizResultsForStudent(ctx, student.ID, nil)
	require.NoError(t, err)
	require.Len(t, all, 2)

	filtered, err := grades.QuizResultsForStudent(ctx, student.ID, &chemistry.ID)
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	require.Equal(t, "Atoms", filtered[0].Quiz.Title)
	require.Equal(t, chemistry.ID, filtered[0].Quiz.Course.ID)
}
