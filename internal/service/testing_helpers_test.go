package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/noah-isme/classroom-api/internal/database"
	"github.com/noah-isme/classroom-api/internal/models"
	"github.com/noah-isme/classroom-api/internal/repository"
)

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

type sentNotification struct {
	UserID  uint
	Kind    string
	Message string
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
}

func (n *recordingNotifier) Notify(_ context.Context, userID uint, kind, message string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentNotification{UserID: userID, Kind: kind, Message: message})
	return nil
}

func (n *recordingNotifier) kinds(userID uint) []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	var kinds []string
	for _, item := range n.sent {
		if item.UserID == userID {
			kinds = append(kinds, item.Kind)
		}
	}
	return kinds
}

type fixture struct {
	db       *gorm.DB
	users    repository.UserRepository
	classes  repository.ClassRepository
	courses  repository.CourseRepository
	quizzes  repository.QuizRepository
	exams    repository.ExamRepository
	grades   repository.GradeRepository
	activity ActivityService
	notifier *recordingNotifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", name)), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	return &fixture{
		db:       db,
		users:    repository.NewUserRepository(db),
		classes:  repository.NewClassRepository(db),
		courses:  repository.NewCourseRepository(db),
		quizzes:  repository.NewQuizRepository(db),
		exams:    repository.NewExamRepository(db),
		grades:   repository.NewGradeRepository(db),
		activity: NewActivityService(repository.NewActivityLogRepository(db), testLogger()),
		notifier: &recordingNotifier{},
	}
}

func (f *fixture) user(t *testing.T, name, role string) Actor {
	t.Helper()
	user := models.User{
		Name:         name,
		Email:        strings.ToLower(strings.ReplaceAll(name, " ", ".")) + "@example.com",
		PasswordHash: "hash",
		Role:         role,
		Status:       models.StatusActive,
	}
	require.NoError(t, f.db.Create(&user).Error)
	return Actor{ID: user.ID, Role: user.Role}
}

func (f *fixture) classService() ClassService {
	return NewClassService(f.classes, f.courses, f.users, NewValidator(), f.activity, f.notifier, testLogger())
}

func (f *fixture) courseService(storage FileStorage) CourseService {
	return NewCourseService(f.courses, f.classes, CourseServiceConfig{
		Storage:        storage,
		MaxUploadBytes: 1024 * 1024,
	}, NewValidator(), f.activity, testLogger())
}

func (f *fixture) quizService() QuizService {
	return NewQuizService(f.quizzes, f.courses, f.classes, NewValidator(), testLogger())
}

func (f *fixture) examService() ExamService {
	return NewExamService(f.exams, f.courses, f.classes, NewValidator(), testLogger())
}

func (f *fixture) gradingService() GradingService {
	return NewGradingService(GradingRepositories{
		Quizzes: f.quizzes,
		Exams:   f.exams,
		Grades:  f.grades,
		Courses: f.courses,
		Classes: f.classes,
	}, NewValidator(), f.activity, f.notifier, testLogger())
}

func (f *fixture) class(t *testing.T, owner Actor, name string) models.Class {
	t.Helper()
	class := models.Class{Name: name, TeacherID: owner.ID}
	require.NoError(t, f.db.Create(&class).Error)
	return class
}

func (f *fixture) enroll(t *testing.T, classID uint, student Actor) {
	t.Helper()
	require.NoError(t, f.classes.AddStudent(context.Background(), classID, student.ID))
}

func (f *fixture) course(t *testing.T, owner Actor, title string, classID *uint) models.Course {
	t.Helper()
	course := models.Course{Title: title, TeacherID: owner.ID}
	course.ScopeToClass(classID)
	require.NoError(t, f.courses.Create(context.Background(), &course))
	return course
}

func (f *fixture) activities(t *testing.T, action string) []models.ActivityLog {
	t.Helper()
	var entries []models.ActivityLog
	require.NoError(t, f.db.Where("action = ?", action).Find(&entries).Error)
	return entries
}

func fileHeader(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreatePart(textproto.MIMEHeader{
		"Content-Disposition": {`form-data; name="files"; filename="` + filename + `"`},
		"Content-Type":        {"application/octet-stream"},
	})
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	form, err := multipart.NewReader(body, writer.Boundary()).ReadForm(int64(len(content) + 1024))
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })
	require.Len(t, form.File["files"], 1)
	return form.File["files"][0]
}
