package services

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/fathima-sithara/social-app/internal/apperr"
	"github.com/fathima-sithara/social-app/internal/models"
	"github.com/fathima-sithara/social-app/internal/repository"
)

type UserService struct {
	users    repository.UserRepository
	notifier *NotificationService
	log      *zap.SugaredLogger
}

func NewUserService(users repository.UserRepository, notifier *NotificationService, log *zap.SugaredLogger) *UserService {
	return &UserService{users: users, notifier: notifier, log: log}
}

func (s *UserService) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("user %s: %w", id.Hex(), apperr.ErrNotFound)
	}
	return user, nil
}

func (s *UserService) Search(ctx context.Context, query string) ([]*models.User, error) {
	if query == "" {
		return nil, fmt.Errorf("search query required: %w", apperr.ErrValidation)
	}
	return s.users.Search(ctx, query, 20)
}

// UpdateProfile edits the caller's own profile. An empty field leaves the
// current value alone.
func (s *UserService) UpdateProfile(ctx context.Context, userID primitive.ObjectID, username, bio, avatarURL string) (*models.User, error) {
	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if username != "" && username != user.Username {
		existing, err := s.users.FindByUsername(ctx, username)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return nil, fmt.Errorf("username already taken: %w", apperr.ErrConflict)
		}
		user.Username = username
	}
	if bio != "" {
		user.Bio = bio
	}
	if avatarURL != "" {
		user.AvatarURL = avatarURL
	}
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Follow writes the symmetric edge and notifies the target. Following
// someone twice is a no-op; following yourself or across a block is refused.
func (s *UserService) Follow(ctx context.Context, followerID, targetID primitive.ObjectID) error {
	if followerID == targetID {
		return fmt.Errorf("cannot follow yourself: %w", apperr.ErrValidation)
	}
	follower, err := s.GetByID(ctx, followerID)
	if err != nil {
		return err
	}
	target, err := s.GetByID(ctx, targetID)
	if err != nil {
		return err
	}
	if follower.HasBlocked(targetID) || target.HasBlocked(followerID) {
		return fmt.Errorf("cannot follow this user: %w", apperr.ErrForbidden)
	}
	if follower.IsFollowing(targetID) {
		return nil
	}
	if err := s.users.AddFollowEdge(ctx, followerID, targetID); err != nil {
		return err
	}

	n := &models.Notification{
		SenderID: followerID,
		UserID:   targetID,
		Type:     models.NotificationFollow,
		Message:  fmt.Sprintf("%s started following you", follower.Username),
		EntityID: followerID,
	}
	if err := s.notifier.Notify(ctx, n); err != nil {
		// the follow edge stands; the durable notification is lost
		s.log.Warnw("follow notification failed", "follower", followerID.Hex(), "target", targetID.Hex(), "err", err)
	}
	return nil
}

func (s *UserService) Unfollow(ctx context.Context, followerID, targetID primitive.ObjectID) error {
	if followerID == targetID {
		return fmt.Errorf("cannot unfollow yourself: %w", apperr.ErrValidation)
	}
	if _, err := s.GetByID(ctx, targetID); err != nil {
		return err
	}
	return s.users.RemoveFollowEdge(ctx, followerID, targetID)
}

// Block records the one-sided edge and tears down any follow relationship in
// both directions. Unblock does not restore them.
func (s *UserService) Block(ctx context.Context, blockerID, targetID primitive.ObjectID) error {
	if blockerID == targetID {
		return fmt.Errorf("cannot block yourself: %w", apperr.ErrValidation)
	}
	if _, err := s.GetByID(ctx, targetID); err != nil {
		return err
	}
	if err := s.users.AddBlock(ctx, blockerID, targetID); err != nil {
		return err
	}
	if err := s.users.RemoveFollowEdge(ctx, blockerID, targetID); err != nil {
		return err
	}
	return s.users.RemoveFollowEdge(ctx, targetID, blockerID)
}

func (s *UserService) Unblock(ctx context.Context, blockerID, targetID primitive.ObjectID) error {
	if blockerID == targetID {
		return fmt.Errorf("cannot unblock yourself: %w", apperr.ErrValidation)
	}
	return s.users.RemoveBlock(ctx, blockerID, targetID)
}
