package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/classroom-api/internal/auth"
	"github.com/noah-isme/classroom-api/internal/config"
	"github.com/noah-isme/classroom-api/internal/database"
	"github.com/noah-isme/classroom-api/internal/handler"
	"github.com/noah-isme/classroom-api/internal/middleware"
	"github.com/noah-isme/classroom-api/internal/repository"
	"github.com/noah-isme/classroom-api/internal/router"
	"github.com/noah-isme/classroom-api/internal/service"
	cloud "github.com/noah-isme/classroom-api/pkg/cloudinary"
	"github.com/noah-isme/classroom-api/pkg/storage"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}
	logger = logger.With().Str("service", cfg.AppName).Str("env", cfg.AppEnv).Logger()

	db, err := database.Open(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := database.Migrate(db); err != nil {
		logger.Fatal().Err(err).Msg("failed to migrate database")
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(cfg.RedisURL)
		if err != nil {
			logger.Warn().Err(err).Msg("redis unavailable, notifications will not be published")
		} else {
			defer redisClient.Close()
		}
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL, cfg.AppName)
		if err != nil {
			logger.Warn().Err(err).Msg("nats unavailable, notifications will not be published")
		} else {
			defer natsConn.Drain()
		}
	}

	fileStorage, storageDir, err := buildStorage(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure file storage")
	}

	validate := service.NewValidator()
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.AppName, cfg.JWTTTL)

	userRepo := repository.NewUserRepository(db)
	classRepo := repository.NewClassRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	quizRepo := repository.NewQuizRepository(db)
	examRepo := repository.NewExamRepository(db)
	gradeRepo := repository.NewGradeRepository(db)
	statsRepo := repository.NewAdminStatsRepository(db)
	activityRepo := repository.NewActivityLogRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	activityService := service.NewActivityService(activityRepo, logger)
	notificationService := service.NewNotificationService(notificationRepo, redisClient, natsConn, cfg.EventsChannel, logger)
	authService := service.NewAuthService(userRepo, tokens, validate, logger)
	classService := service.NewClassService(classRepo, courseRepo, userRepo, validate, activityService, notificationService, logger)
	courseService := service.NewCourseService(courseRepo, classRepo, service.CourseServiceConfig{
		Storage:        fileStorage,
		MaxUploadBytes: cfg.UploadMaxBytes(),
		PublicBaseURL:  cfg.PublicBaseURL,
	}, validate, activityService, logger)
	quizService := service.NewQuizService(quizRepo, courseRepo, classRepo, validate, logger)
	examService := service.NewExamService(examRepo, courseRepo, classRepo, validate, logger)
	gradingService := service.NewGradingService(service.GradingRepositories{
		Quizzes: quizRepo,
		Exams:   examRepo,
		Grades:  gradeRepo,
		Courses: courseRepo,
		Classes: classRepo,
	}, validate, activityService, notificationService, logger)
	adminService := service.NewAdminService(userRepo, statsRepo, validate, activityService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		BodyLimit:    int(cfg.UploadMaxBytes())*5 + 1024*1024,
		ErrorHandler: handler.ErrorHandler(logger),
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		AuthHandler:         handler.NewAuthHandler(authService, logger),
		ClassHandler:        handler.NewClassHandler(classService, logger),
		CourseHandler:       handler.NewCourseHandler(courseService, logger),
		QuizHandler:         handler.NewQuizHandler(quizService, logger),
		ExamHandler:         handler.NewExamHandler(examService, logger),
		GradingHandler:      handler.NewGradingHandler(gradingService, logger),
		AdminHandler:        handler.NewAdminHandler(adminService, activityService, logger),
		NotificationHandler: handler.NewNotificationHandler(notificationService, logger),
		Authenticate:        middleware.Authenticate(authService),
		HealthProbe:         pingDatabase(db),
		StorageDir:          storageDir,
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	waitForShutdown(app, logger)
}

// buildStorage returns the configured file storage and, for the local driver,
// the directory to serve statically.
func buildStorage(cfg config.Config, logger zerolog.Logger) (service.FileStorage, string, error) {
	if cfg.StorageDriver == "cloudinary" {
		uploader, err := cloud.New(cloud.Config{
			CloudName: cfg.CloudinaryCloudName,
			APIKey:    cfg.CloudinaryAPIKey,
			APISecret: cfg.CloudinaryAPISecret,
			Folder:    cfg.CloudinaryUploadFolder,
		}, logger)
		if err != nil {
			return nil, "", err
		}
		return uploader, "", nil
	}

	local, err := storage.NewLocal(cfg.StorageDir, "course-resources", logger)
	if err != nil {
		return nil, "", err
	}
	return local, local.Root(), nil
}

func pingDatabase(db *gorm.DB) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}
}

func waitForShutdown(app *fiber.App, logger zerolog.Logger) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	logger.Info().Msg("server stopped")
}
