package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/classroom-api/internal/dto"
	"github.com/noah-isme/classroom-api/internal/models"
	"github.com/noah-isme/classroom-api/internal/observability"
	"github.com/noah-isme/classroom-api/internal/repository"
)

// Notifier delivers a message to one user.
type Notifier interface {
	Notify(ctx context.Context, userID uint, kind, message string) error
}

// NotificationService stores notifications and fans them out to the configured brokers.
type NotificationService interface {
	Notifier
	List(ctx context.Context, actor Actor, unreadOnly bool, limit, offset int) ([]dto.NotificationResponse, error)
	MarkRead(ctx context.Context, actor Actor, id uint) (dto.NotificationResponse, error)
}

type notificationService struct {
	repo         repository.NotificationRepository
	redis        *redis.Client
	redisChannel string
	nats         *nats.Conn
	natsSubject  string
	logger       zerolog.Logger
	tracer       trace.Tracer
	now          func() time.Time
}

type notificationEvent struct {
	Notification dto.NotificationResponse `json:"notification"`
	SentAt       time.Time                `json:"sent_at"`
}

// NewNotificationService constructs a notification service. Either broker may be nil.
func NewNotificationService(repo repository.NotificationRepository, redisClient *redis.Client, natsConn *nats.Conn, channelBase string, logger zerolog.Logger) NotificationService {
	channel := ""
	subject := ""
	if channelBase != "" {
		channel = channelBase + ":notifications"
		subject = strings.ReplaceAll(channelBase, ":", ".") + ".notifications"
	}

	return &notificationService{
		repo:         repo,
		redis:        redisClient,
		redisChannel: channel,
		nats:         natsConn,
		natsSubject:  subject,
		logger:       logger.With().Str("component", "notification_service").Logger(),
		tracer:       otel.Tracer("github.com/noah-isme/classroom-api/internal/service/notification"),
		now:          time.Now,
	}
}

func (s *notificationService) Notify(ctx context.Context, userID uint, kind, message string) error {
	cleanMessage := plainText(message)
	if userID == 0 || cleanMessage == "" {
		return errors.New("notification requires a user and a message")
	}

	ctx, span := s.tracer.Start(ctx, "notifications.publish", trace.WithAttributes(
		attribute.Int64("notification.user_id", int64(userID)),
		attribute.String("notification.type", kind),
	))
	defer span.End()

	model := models.Notification{
		UserID:  userID,
		Type:    kind,
		Message: cleanMessage,
	}
	if err := s.repo.Create(ctx, &model); err != nil {
		span.RecordError(err)
		return err
	}

	observability.NotificationsPublishedTotal().WithLabelValues(kind).Inc()

	if err := s.publish(ctx, dto.NewNotificationResponse(model)); err != nil {
		s.logger.Warn().Err(err).Uint("user_id", userID).Msg("failed to publish notification to broker")
	}
	return nil
}

func (s *notificationService) List(ctx context.Context, actor Actor, unreadOnly bool, limit, offset int) ([]dto.NotificationResponse, error) {
	notifications, err := s.repo.ListByUser(ctx, actor.ID, unreadOnly, limit, offset)
	if err != nil {
		return nil, err
	}
	return dto.NewNotificationResponseSlice(notifications), nil
}

func (s *notificationService) MarkRead(ctx context.Context, actor Actor, id uint) (dto.NotificationResponse, error) {
	ctx, span := s.tracer.Start(ctx, "notifications.mark_read", trace.WithAttributes(
		attribute.Int64("notification.user_id", int64(actor.ID)),
	))
	defer span.End()

	notification, err := s.repo.MarkRead(ctx, id, actor.ID, s.now())
	if err != nil {
		if repository.IsNotFound(err) {
			return dto.NotificationResponse{}, ErrNotificationNotFound
		}
		span.RecordError(err)
		return dto.NotificationResponse{}, err
	}

	return dto.NewNotificationResponse(notification), nil
}

func (s *notificationService) publish(ctx context.Context, notification dto.NotificationResponse) error {
	if (s.redis == nil || s.redisChannel == "") && (s.nats == nil || s.natsSubject == "") {
		return nil
	}

	payload, err := json.Marshal(notificationEvent{Notification: notification, SentAt: s.now().UTC()})
	if err != nil {
		return err
	}

	var errs []error
	if s.redis != nil && s.redisChannel != "" {
		if err := s.redis.Publish(ctx, s.redisChannel, payload).Err(); err != nil {
			errs = append(errs, err)
		}
	}
	if s.nats != nil && s.natsSubject != "" {
		if err := s.nats.Publish(s.natsSubject, payload); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// notify delivers a notification; failures are logged and never surface to the caller.
func notify(ctx context.Context, notifier Notifier, logger zerolog.Logger, userID uint, kind, message string) {
	if notifier == nil {
		return
	}
	if err := notifier.Notify(ctx, userID, kind, message); err != nil {
		logger.Warn().Err(err).Uint("user_id", userID).Str("type", kind).Msg("notification not delivered")
	}
}
