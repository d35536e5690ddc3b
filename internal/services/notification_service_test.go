package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/fathima-sithara/social-app/internal/apperr"
	"github.com/fathima-sithara/social-app/internal/models"
)

func TestNotifySkipsSelf(t *testing.T) {
	repo := newFakeNotificationRepo()
	emitter := newFakeEmitter()
	svc := NewNotificationService(repo, emitter, nil, testLogger())
	id := primitive.NewObjectID()

	err := svc.Notify(context.Background(), &models.Notification{
		SenderID: id, UserID: id, Type: models.NotificationLike,
	})
	require.NoError(t, err)
	require.Empty(t, emitter.userEvents())
	count, _ := repo.Count(context.Background())
	require.Zero(t, count)
}

func TestNotifyPersistsBeforePush(t *testing.T) {
	repo := newFakeNotificationRepo()
	receiver := primitive.NewObjectID()
	emitter := newFakeEmitter(receiver.Hex())
	svc := NewNotificationService(repo, emitter, nil, testLogger())

	n := &models.Notification{
		SenderID: primitive.NewObjectID(),
		UserID:   receiver,
		Type:     models.NotificationFollow,
		Message:  "someone started following you",
	}
	require.NoError(t, svc.Notify(context.Background(), n))

	// receiver was online so the row is flagged delivered
	require.True(t, n.Delivered)
	list, err := repo.ListForUser(context.Background(), receiver, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.True(t, list[0].Delivered)

	events := emitter.userEvents()
	require.Len(t, events, 1)
	require.Equal(t, EventNotificationNew, events[0].event)
	require.Equal(t, receiver.Hex(), events[0].target)
}

func TestNotifyOfflineReceiverKeepsDurableRow(t *testing.T) {
	repo := newFakeNotificationRepo()
	emitter := newFakeEmitter() // nobody online
	svc := NewNotificationService(repo, emitter, nil, testLogger())
	receiver := primitive.NewObjectID()

	n := &models.Notification{
		SenderID: primitive.NewObjectID(),
		UserID:   receiver,
		Type:     models.NotificationMessage,
	}
	require.NoError(t, svc.Notify(context.Background(), n))
	require.False(t, n.Delivered)

	list, err := repo.ListForUser(context.Background(), receiver, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.False(t, list[0].Delivered)
}

func TestMarkReadScopedToOwner(t *testing.T) {
	repo := newFakeNotificationRepo()
	svc := NewNotificationService(repo, newFakeEmitter(), nil, testLogger())
	ctx := context.Background()
	owner := primitive.NewObjectID()
	other := primitive.NewObjectID()

	n := &models.Notification{SenderID: primitive.NewObjectID(), UserID: owner, Type: models.NotificationLike}
	require.NoError(t, repo.Create(ctx, n))

	// somebody else cannot read your notification away
	err := svc.MarkRead(ctx, n.ID, other)
	require.ErrorIs(t, err, apperr.ErrNotFound)

	require.NoError(t, svc.MarkRead(ctx, n.ID, owner))
	list, _ := repo.ListForUser(ctx, owner, 10)
	require.True(t, list[0].Read)
}

func TestMarkAllRead(t *testing.T) {
	repo := newFakeNotificationRepo()
	svc := NewNotificationService(repo, newFakeEmitter(), nil, testLogger())
	ctx := context.Background()
	owner := primitive.NewObjectID()

	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Create(ctx, &models.Notification{
			SenderID: primitive.NewObjectID(), UserID: owner, Type: models.NotificationLike,
		}))
	}
	require.NoError(t, svc.MarkAllRead(ctx, owner))
	list, _ := repo.ListForUser(ctx, owner, 10)
	for _, n := range list {
		require.True(t, n.Read)
	}
}
