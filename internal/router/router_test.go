package router_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/classroom-api/internal/auth"
	"github.com/noah-isme/classroom-api/internal/config"
	"github.com/noah-isme/classroom-api/internal/database"
	"github.com/noah-isme/classroom-api/internal/handler"
	"github.com/noah-isme/classroom-api/internal/middleware"
	"github.com/noah-isme/classroom-api/internal/models"
	"github.com/noah-isme/classroom-api/internal/repository"
	"github.com/noah-isme/classroom-api/internal/router"
	"github.com/noah-isme/classroom-api/internal/service"
	"github.com/noah-isme/classroom-api/pkg/storage"
)

type envelope struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Data    json.RawMessage   `json:"data"`
	Details map[string]string `json:"details"`
}

type testServer struct {
	app *fiber.App
	t   *testing.T
}

func setupApp(t *testing.T) *testServer {
	t.Helper()

	db, err := database.ConnectSQLite(fmt.Sprintf("file:router_%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_")))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	hash, err := auth.HashPassword("admin-password")
	require.NoError(t, err)
	require.NoError(t, db.Create(&models.User{
		Name: "Root", Email: "admin@example.com", PasswordHash: hash,
		Role: models.RoleAdmin, Status: models.StatusActive,
	}).Error)

	logger := zerolog.New(io.Discard)
	local, err := storage.NewLocal(t.TempDir(), "course-resources", logger)
	require.NoError(t, err)

	cfg := config.Config{AppName: "Classroom API", AppEnv: "test", StorageDriver: "local", AuthRateLimit: 100}
	validate := service.NewValidator()

	userRepo := repository.NewUserRepository(db)
	classRepo := repository.NewClassRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	quizRepo := repository.NewQuizRepository(db)
	examRepo := repository.NewExamRepository(db)

	activityService := service.NewActivityService(repository.NewActivityLogRepository(db), logger)
	notificationService := service.NewNotificationService(repository.NewNotificationRepository(db), nil, nil, "", logger)
	authService := service.NewAuthService(userRepo, auth.NewTokenManager("secret", "test", time.Hour), validate, logger)

	app := fiber.New(fiber.Config{ErrorHandler: handler.ErrorHandler(logger)})
	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		AuthHandler:  handler.NewAuthHandler(authService, logger),
		ClassHandler: handler.NewClassHandler(service.NewClassService(classRepo, courseRepo, userRepo, validate, activityService, notificationService, logger), logger),
		CourseHandler: handler.NewCourseHandler(service.NewCourseService(courseRepo, classRepo, service.CourseServiceConfig{
			Storage: local, MaxUploadBytes: 1024 * 1024,
		}, validate, activityService, logger), logger),
		QuizHandler: handler.NewQuizHandler(service.NewQuizService(quizRepo, courseRepo, classRepo, validate, logger), logger),
		ExamHandler: handler.NewExamHandler(service.NewExamService(examRepo, courseRepo, classRepo, validate, logger), logger),
		GradingHandler: handler.NewGradingHandler(service.NewGradingService(service.GradingRepositories{
			Quizzes: quizRepo, Exams: examRepo, Grades: repository.NewGradeRepository(db), Courses: courseRepo, Classes: classRepo,
		}, validate, activityService, notificationService, logger), logger),
		AdminHandler:        handler.NewAdminHandler(service.NewAdminService(userRepo, repository.NewAdminStatsRepository(db), validate, activityService, logger), activityService, logger),
		NotificationHandler: handler.NewNotificationHandler(notificationService, logger),
		Authenticate:        middleware.Authenticate(authService),
		StorageDir:          local.Root(),
	})

	return &testServer{app: app, t: t}
}

func (s *testServer) do(req *http.Request, token string) (int, envelope) {
	s.t.Helper()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(s.t, err)
	defer resp.Body.Close()

	var body envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(s.t, err)
	if len(raw) > 0 && strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(s.t, json.Unmarshal(raw, &body))
	}
	return resp.StatusCode, body
}

func (s *testServer) json(method, path, token string, payload interface{}) (int, envelope) {
	s.t.Helper()
	var reader io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(s.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	return s.do(req, token)
}

func (s *testServer) login(email, password string) string {
	s.t.Helper()
	status, body := s.json(http.MethodPost, "/api/login", "", map[string]string{"email": email, "password": password})
	require.Equal(s.t, http.StatusOK, status, body.Message)
	var payload struct {
		Token string `json:"token"`
	}
	require.NoError(s.t, json.Unmarshal(body.Data, &payload))
	require.NotEmpty(s.t, payload.Token)
	return payload.Token
}

func decode[T any](t *testing.T, body envelope) T {
	t.Helper()
	var value T
	require.NoError(t, json.Unmarshal(body.Data, &value))
	return value
}

type idOnly struct {
	ID uint `json:"id"`
}

func register(s *testServer, name, email, role string) (int, envelope) {
	return s.json(http.MethodPost, "/api/register", "", map[string]string{
		"name": name, "email": email, "password": "password123", "password_confirmation": "password123", "role": role,
	})
}

func TestClassroomWorkflow(t *testing.T) {
	s := setupApp(t)

	status, _ := register(s, "Sam Student", "sam@example.com", "student")
	require.Equal(t, http.StatusCreated, status)
	studentToken := s.login("sam@example.com", "password123")

	status, body := register(s, "Tia Teacher", "tia@example.com", "teacher")
	require.Equal(t, http.StatusCreated, status)
	teacher := decode[struct {
		User  idOnly `json:"user"`
		Token string `json:"token"`
	}](t, body)
	require.Empty(t, teacher.Token)

	status, _ = s.json(http.MethodPost, "/api/login", "", map[string]string{"email": "tia@example.com", "password": "password123"})
	require.Equal(t, http.StatusForbidden, status)

	adminToken := s.login("admin@example.com", "admin-password")
	status, _ = s.json(http.MethodPut, fmt.Sprintf("/api/admin/users/%d", teacher.User.ID), adminToken, map[string]string{"status": "active"})
	require.Equal(t, http.StatusOK, status)
	teacherToken := s.login("tia@example.com", "password123")

	// Role separation.
	status, _ = s.json(http.MethodGet, "/api/teacher/my-classes", studentToken, nil)
	require.Equal(t, http.StatusForbidden, status)
	status, _ = s.json(http.MethodGet, "/api/student/my-classes", "", nil)
	require.Equal(t, http.StatusUnauthorized, status)

	// Enrollment.
	status, body = s.json(http.MethodPost, "/api/teacher/class", teacherToken, map[string]string{"name": "Maths 101"})
	require.Equal(t, http.StatusCreated, status)
	class := decode[idOnly](t, body)

	status, body = s.json(http.MethodPost, fmt.Sprintf("/api/student/join-request/%d", class.ID), studentToken, nil)
	require.Equal(t, http.StatusCreated, status)
	request := decode[idOnly](t, body)

	status, body = s.json(http.MethodPost, fmt.Sprintf("/api/student/join-request/%d", class.ID), studentToken, nil)
	require.Equal(t, http.StatusUnprocessableEntity, status)
	require.Equal(t, service.ErrJoinRequestExists.Error(), body.Message)

	status, body = s.json(http.MethodGet, "/api/teacher/join-requests", teacherToken, nil)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, decode[[]idOnly](t, body), 1)

	status, _ = s.json(http.MethodPost, fmt.Sprintf("/api/teacher/join-requests/%d/accept", request.ID), teacherToken, nil)
	require.Equal(t, http.StatusOK, status)

	status, body = s.json(http.MethodGet, "/api/student/my-classes", studentToken, nil)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, []idOnly{{ID: class.ID}}, decode[[]idOnly](t, body))

	// Course with an uploaded file, visible to the class only.
	form := &bytes.Buffer{}
	writer := multipart.NewWriter(form)
	require.NoError(t, writer.WriteField("title", "Fractions"))
	require.NoError(t, writer.WriteField("class_id", fmt.Sprint(class.ID)))
	part, err := writer.CreateFormFile("files", "notes.pdf")
	require.NoError(t, err)
	_, err = part.Write([]byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\n"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/teacher/courses", form)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	status, body = s.do(req, teacherToken)
	require.Equal(t, http.StatusCreated, status, body.Message)
	course := decode[struct {
		ID        uint `json:"id"`
		IsPublic  bool `json:"is_public"`
		Resources []struct {
			Type string `json:"type"`
			URL  string `json:"url"`
		} `json:"resources"`
	}](t, body)
	require.False(t, course.IsPublic)
	require.Len(t, course.Resources, 1)
	require.Equal(t, models.ResourceTypePDF, course.Resources[0].Type)
	require.True(t, strings.HasPrefix(course.Resources[0].URL, "http://example.com/storage/course-resources/"))

	status, _ = s.do(httptest.NewRequest(http.MethodGet, strings.TrimPrefix(course.Resources[0].URL, "http://example.com"), nil), "")
	require.Equal(t, http.StatusOK, status)

	status, body = s.json(http.MethodGet, "/api/public-courses", "", nil)
	require.Equal(t, http.StatusOK, status)
	require.Empty(t, decode[[]idOnly](t, body))

	status, body = s.json(http.MethodGet, fmt.Sprintf("/api/student/class/%d/courses", class.ID), studentToken, nil)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, decode[[]idOnly](t, body), 1)

	// Quiz: auto graded, one attempt.
	status, body = s.json(http.MethodPost, "/api/teacher/quiz", teacherToken, map[string]interface{}{"title": "Quick check", "course_id": course.ID})
	require.Equal(t, http.StatusCreated, status)
	quiz := decode[idOnly](t, body)

	questionIDs := make([]uint, 0, 2)
	for _, correct := range []string{"a", "c"} {
		status, body = s.json(http.MethodPost, fmt.Sprintf("/api/teacher/question/quiz/%d", quiz.ID), teacherToken, map[string]string{
			"question": "Pick " + correct, "option_a": "A", "option_b": "B", "option_c": "C", "option_d": "D", "correct_option": correct,
		})
		require.Equal(t, http.StatusCreated, status, body.Message)
		questionIDs = append(questionIDs, decode[idOnly](t, body).ID)
	}

	answers := map[string]map[string]string{"answers": {
		fmt.Sprint(questionIDs[0]): "a",
		fmt.Sprint(questionIDs[1]): "b",
	}}
	status, body = s.json(http.MethodPost, fmt.Sprintf("/api/student/quiz/%d/submit", quiz.ID), studentToken, answers)
	require.Equal(t, http.StatusCreated, status, body.Message)
	quizResult := decode[struct {
		Score int `json:"score"`
		Total int `json:"total"`
	}](t, body)
	require.Equal(t, 1, quizResult.Score)
	require.Equal(t, 2, quizResult.Total)

	status, _ = s.json(http.MethodPost, fmt.Sprintf("/api/student/quiz/%d/submit", quiz.ID), studentToken, answers)
	require.Equal(t, http.StatusForbidden, status)

	// Exam: stored unscored, locked once taken, graded by the owner.
	status, body = s.json(http.MethodPost, "/api/teacher/exam", teacherToken, map[string]interface{}{"title": "Midterm", "course_id": course.ID})
	require.Equal(t, http.StatusCreated, status)
	exam := decode[idOnly](t, body)

	status, body = s.json(http.MethodPost, fmt.Sprintf("/api/teacher/question/exam/%d", exam.ID), teacherToken, map[string]string{"question": "Explain halves"})
	require.Equal(t, http.StatusCreated, status)
	examQuestion := decode[idOnly](t, body)

	status, body = s.json(http.MethodPost, fmt.Sprintf("/api/student/exam/%d/submit", exam.ID), studentToken, map[string]map[string]string{"answers": {
		fmt.Sprint(examQuestion.ID): "Two equal parts",
		"999999":                    "ghost",
	}})
	require.Equal(t, http.StatusCreated, status, body.Message)
	submission := decode[struct {
		ResultID uint     `json:"result_id"`
		Saved    int      `json:"saved_answers"`
		Skipped  int      `json:"skipped_answers"`
		Score    *float64 `json:"score"`
	}](t, body)
	require.Equal(t, 1, submission.Saved)
	require.Equal(t, 1, submission.Skipped)
	require.Nil(t, submission.Score)

	status, _ = s.json(http.MethodPut, fmt.Sprintf("/api/teacher/exam/%d", exam.ID), teacherToken, map[string]string{"title": "Renamed"})
	require.Equal(t, http.StatusForbidden, status)

	scorePath := fmt.Sprintf("/api/teacher/exam/%d/result/%d/score", exam.ID, submission.ResultID)
	status, body = s.json(http.MethodPut, scorePath, teacherToken, map[string]float64{"score": 25})
	require.Equal(t, http.StatusUnprocessableEntity, status)
	require.Contains(t, body.Details, "score")

	status, _ = s.json(http.MethodPut, scorePath, teacherToken, map[string]float64{"score": 15})
	require.Equal(t, http.StatusOK, status)
	status, _ = s.json(http.MethodPut, scorePath, teacherToken, map[string]float64{"score": 18})
	require.Equal(t, http.StatusOK, status)

	status, body = s.json(http.MethodGet, "/api/student/my-grades", studentToken, nil)
	require.Equal(t, http.StatusOK, status)
	grades := decode[struct {
		QuizResults []struct {
			Score int `json:"score"`
		} `json:"quiz_results"`
		ExamResults []struct {
			Score  *float64 `json:"score"`
			Graded bool     `json:"graded"`
		} `json:"exam_results"`
	}](t, body)
	require.Len(t, grades.QuizResults, 1)
	require.Len(t, grades.ExamResults, 1)
	require.True(t, grades.ExamResults[0].Graded)
	require.Equal(t, 18.0, *grades.ExamResults[0].Score)

	status, body = s.json(http.MethodGet, "/api/notifications", studentToken, nil)
	require.Equal(t, http.StatusOK, status)
	notifications := decode[[]struct {
		Type string `json:"type"`
	}](t, body)
	require.NotEmpty(t, notifications)

	status, body = s.json(http.MethodGet, "/api/admin/activities?action="+models.ActionExamGraded, adminToken, nil)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, decode[[]idOnly](t, body), 2)
}

func TestOperationalEndpoints(t *testing.T) {
	s := setupApp(t)

	status, body := s.json(http.MethodGet, "/api/health", "", nil)
	require.Equal(t, http.StatusOK, status)
	require.True(t, body.Success)

	resp, err := s.app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	status, body = s.json(http.MethodGet, "/api/does-not-exist", "", nil)
	require.Equal(t, http.StatusNotFound, status)
	require.False(t, body.Success)
}
