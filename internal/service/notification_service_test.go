package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/classroom-api/internal/models"
	"github.com/noah-isme/classroom-api/internal/repository"
)

func TestNotificationServicePersistsAndPublishes(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	sub := client.Subscribe(ctx, "classroom:notifications")
	t.Cleanup(func() { _ = sub.Close() })
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	svc := NewNotificationService(repository.NewNotificationRepository(f.db), client, nil, "classroom", testLogger())
	student := f.user(t, "Student", models.RoleStudent)

	require.NoError(t, svc.Notify(ctx, student.ID, models.NotificationExamGraded, "Your exam <i>Final</i> has been graded"))

	msg, err := sub.ReceiveMessage(ctx)
	require.NoError(t, err)

	var event notificationEvent
	require.NoError(t, json.Unmarshal([]byte(msg.Payload), &event))
	require.Equal(t, student.ID, event.Notification.UserID)
	require.Equal(t, "Your exam Final has been graded", event.Notification.Message)

	listed, err := svc.List(ctx, student, true, 10, 0)
	require.NoError(t, err)
	require.Len(t, listed, 1)

	read, err := svc.MarkRead(ctx, student, listed[0].ID)
	require.NoError(t, err)
	require.True(t, read.Read)

	unread, err := svc.List(ctx, student, true, 10, 0)
	require.NoError(t, err)
	require.Empty(t, unread)
}

func TestNotificationServiceScopesToOwner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := NewNotificationService(repository.NewNotificationRepository(f.db), nil, nil, "", testLogger())

	owner := f.user(t, "Owner", models.RoleStudent)
	stranger := f.user(t, "Stranger", models.RoleStudent)
	require.NoError(t, svc.Notify(ctx, owner.ID, models.NotificationAddedToClass, "Added"))

	listed, err := svc.List(ctx, owner, false, 10, 0)
	require.NoError(t, err)
	require.Len(t, listed, 1)

	_, err = svc.MarkRead(ctx, stranger, listed[0].ID)
	require.ErrorIs(t, err, ErrNotificationNotFound)

	require.Error(t, svc.Notify(ctx, owner.ID, models.NotificationAddedToClass, "  "))
}
