package services

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/fathima-sithara/social-app/internal/apperr"
	"github.com/fathima-sithara/social-app/internal/events"
	"github.com/fathima-sithara/social-app/internal/metrics"
	"github.com/fathima-sithara/social-app/internal/models"
	"github.com/fathima-sithara/social-app/internal/repository"
)

type NotificationService struct {
	repo     repository.NotificationRepository
	emitter  Emitter
	producer *events.Producer
	log      *zap.SugaredLogger
}

func NewNotificationService(repo repository.NotificationRepository, emitter Emitter, producer *events.Producer, log *zap.SugaredLogger) *NotificationService {
	return &NotificationService{repo: repo, emitter: emitter, producer: producer, log: log}
}

// Notify persists the durable record, then attempts a live push. A user is
// never notified of their own action. The push result only updates the
// delivered flag; a receiver who was offline discovers the row on the next
// list fetch.
func (s *NotificationService) Notify(ctx context.Context, n *models.Notification) error {
	if n.SenderID == n.UserID {
		return nil
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return err
	}

	if s.emitter.EmitToUser(n.UserID.Hex(), EventNotificationNew, n) {
		n.Delivered = true
		metrics.NotificationsPushed.Inc()
		if err := s.repo.SetDelivered(ctx, n.ID); err != nil {
			s.log.Warnw("mark notification delivered", "id", n.ID.Hex(), "err", err)
		}
	}

	s.producer.Publish(ctx, events.EventNotificationCreated, n.UserID.Hex(), n)
	return nil
}

func (s *NotificationService) List(ctx context.Context, userID primitive.ObjectID) ([]*models.Notification, error) {
	return s.repo.ListForUser(ctx, userID, 100)
}

func (s *NotificationService) MarkRead(ctx context.Context, id, userID primitive.ObjectID) error {
	err := s.repo.MarkRead(ctx, id, userID)
	if err == mongo.ErrNoDocuments {
		return fmt.Errorf("notification %s: %w", id.Hex(), apperr.ErrNotFound)
	}
	return err
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID primitive.ObjectID) error {
	return s.repo.MarkAllRead(ctx, userID)
}
