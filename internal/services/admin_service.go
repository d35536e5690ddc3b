package services

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/fathima-sithara/social-app/internal/apperr"
	"github.com/fathima-sithara/social-app/internal/models"
	"github.com/fathima-sithara/social-app/internal/repository"
)

// Stats is the admin dashboard summary.
type Stats struct {
	Users         int64 `json:"users"`
	ActiveUsers   int64 `json:"active_users"`
	Posts         int64 `json:"posts"`
	Messages      int64 `json:"messages"`
	Notifications int64 `json:"notifications"`
}

type AdminService struct {
	users  repository.UserRepository
	posts  repository.PostRepository
	msgs   repository.MessageRepository
	notifs repository.NotificationRepository
}

func NewAdminService(
	users repository.UserRepository,
	posts repository.PostRepository,
	msgs repository.MessageRepository,
	notifs repository.NotificationRepository,
) *AdminService {
	return &AdminService{users: users, posts: posts, msgs: msgs, notifs: notifs}
}

func (s *AdminService) ListUsers(ctx context.Context, page, pageSize int64) ([]*models.User, error) {
	return s.users.List(ctx, page, pageSize)
}

func (s *AdminService) SetRole(ctx context.Context, id primitive.ObjectID, role string) error {
	if role != models.RoleUser && role != models.RoleAdmin {
		return fmt.Errorf("unknown role %q: %w", role, apperr.ErrValidation)
	}
	if err := s.ensureUser(ctx, id); err != nil {
		return err
	}
	return s.users.SetRole(ctx, id, role)
}

// SetActive soft-disables or re-enables an account. Accounts are never
// hard-deleted.
func (s *AdminService) SetActive(ctx context.Context, id primitive.ObjectID, active bool) error {
	if err := s.ensureUser(ctx, id); err != nil {
		return err
	}
	return s.users.SetActive(ctx, id, active)
}

func (s *AdminService) DeletePost(ctx context.Context, id primitive.ObjectID) error {
	post, err := s.posts.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if post == nil {
		return fmt.Errorf("post %s: %w", id.Hex(), apperr.ErrNotFound)
	}
	return s.posts.SoftDelete(ctx, id)
}

func (s *AdminService) Stats(ctx context.Context) (*Stats, error) {
	users, err := s.users.Count(ctx)
	if err != nil {
		return nil, err
	}
	active, err := s.users.CountActive(ctx)
	if err != nil {
		return nil, err
	}
	posts, err := s.posts.Count(ctx)
	if err != nil {
		return nil, err
	}
	msgs, err := s.msgs.Count(ctx)
	if err != nil {
		return nil, err
	}
	notifs, err := s.notifs.Count(ctx)
	if err != nil {
		return nil, err
	}
	return &Stats{
		Users:         users,
		ActiveUsers:   active,
		Posts:         posts,
		Messages:      msgs,
		Notifications: notifs,
	}, nil
}

func (s *AdminService) ensureUser(ctx context.Context, id primitive.ObjectID) error {
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if u == nil {
		return fmt.Errorf("user %s: %w", id.Hex(), apperr.ErrNotFound)
	}
	return nil
}
