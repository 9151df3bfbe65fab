package router

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/classroom-api/internal/config"
	"github.com/noah-isme/classroom-api/internal/handler"
	"github.com/noah-isme/classroom-api/internal/middleware"
	"github.com/noah-isme/classroom-api/internal/models"
	"github.com/noah-isme/classroom-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AuthHandler         *handler.AuthHandler
	ClassHandler        *handler.ClassHandler
	CourseHandler       *handler.CourseHandler
	QuizHandler         *handler.QuizHandler
	ExamHandler         *handler.ExamHandler
	GradingHandler      *handler.GradingHandler
	AdminHandler        *handler.AdminHandler
	NotificationHandler *handler.NotificationHandler
	Authenticate        fiber.Handler
	HealthProbe         func(ctx context.Context) error
	// StorageDir is served under /storage when course files live on local disk.
	StorageDir string
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	if deps.StorageDir != "" {
		app.Static("/storage", deps.StorageDir, fiber.Static{
			ByteRange: true,
			MaxAge:    3600,
		})
	}

	api := app.Group("/api", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg, deps.HealthProbe))

	if deps.AuthHandler != nil {
		deps.AuthHandler.Register(api, middleware.RateLimit("auth", cfg.AuthRateLimit, time.Minute))
	}

	if deps.CourseHandler != nil {
		deps.CourseHandler.RegisterPublic(api.Group("/public-courses"))
	}

	authenticate := deps.Authenticate
	if authenticate == nil {
		authenticate = func(c *fiber.Ctx) error {
			return fiber.NewError(fiber.StatusUnauthorized, "authentication is not configured")
		}
	}

	if deps.NotificationHandler != nil {
		deps.NotificationHandler.Register(api.Group("/notifications", authenticate))
	}

	student := api.Group("/student", authenticate, middleware.RequireRole(models.RoleStudent))
	teacher := api.Group("/teacher", authenticate, middleware.RequireRole(models.RoleTeacher, models.RoleAdmin))
	admin := api.Group("/admin", authenticate, middleware.RequireRole(models.RoleAdmin))

	if deps.AuthHandler != nil {
		deps.AuthHandler.RegisterProfile(student)
	}
	if deps.ClassHandler != nil {
		deps.ClassHandler.RegisterStudent(student)
		deps.ClassHandler.RegisterTeacher(teacher)
	}
	if deps.CourseHandler != nil {
		deps.CourseHandler.RegisterStudent(student)
		deps.CourseHandler.RegisterTeacher(teacher)
	}
	if deps.GradingHandler != nil {
		deps.GradingHandler.RegisterStudent(student)
		deps.GradingHandler.RegisterTeacher(teacher)
	}
	if deps.QuizHandler != nil {
		deps.QuizHandler.RegisterStudent(student)
		deps.QuizHandler.RegisterTeacher(teacher)
	}
	if deps.ExamHandler != nil {
		deps.ExamHandler.RegisterStudent(student)
		deps.ExamHandler.RegisterTeacher(teacher)
	}
	if deps.AdminHandler != nil {
		deps.AdminHandler.Register(admin)
	}
}
