package services

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/fathima-sithara/social-app/internal/apperr"
	"github.com/fathima-sithara/social-app/internal/models"
	"github.com/fathima-sithara/social-app/internal/repository"
)

// PostView is a post with the author's profile inlined.
type PostView struct {
	models.Post
	Author models.UserSummary `json:"author"`
}

type PostService struct {
	posts    repository.PostRepository
	users    repository.UserRepository
	notifier *NotificationService
	log      *zap.SugaredLogger
}

func NewPostService(posts repository.PostRepository, users repository.UserRepository, notifier *NotificationService, log *zap.SugaredLogger) *PostService {
	return &PostService{posts: posts, users: users, notifier: notifier, log: log}
}

func (s *PostService) Create(ctx context.Context, authorID primitive.ObjectID, text string, mediaURLs []string) (*models.Post, error) {
	if text == "" && len(mediaURLs) == 0 {
		return nil, fmt.Errorf("a post needs text or media: %w", apperr.ErrValidation)
	}
	post := &models.Post{
		AuthorID:  authorID,
		Text:      text,
		MediaURLs: mediaURLs,
	}
	if err := s.posts.Create(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *PostService) Get(ctx context.Context, id primitive.ObjectID) (*PostView, error) {
	post, err := s.findPost(ctx, id)
	if err != nil {
		return nil, err
	}
	author, err := s.users.FindByID(ctx, post.AuthorID)
	if err != nil {
		return nil, err
	}
	view := &PostView{Post: *post}
	if author != nil {
		view.Author = author.Summary()
	}
	return view, nil
}

// Feed returns the newest posts from the caller and the accounts they
// follow.
func (s *PostService) Feed(ctx context.Context, userID primitive.ObjectID, page, pageSize int64) ([]*PostView, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("user %s: %w", userID.Hex(), apperr.ErrNotFound)
	}
	authors := append([]primitive.ObjectID{userID}, user.Followed...)
	posts, err := s.posts.Feed(ctx, authors, page, pageSize)
	if err != nil {
		return nil, err
	}
	return s.withAuthors(ctx, posts)
}

func (s *PostService) ListByAuthor(ctx context.Context, authorID primitive.ObjectID, page, pageSize int64) ([]*PostView, error) {
	posts, err := s.posts.ListByAuthor(ctx, authorID, page, pageSize)
	if err != nil {
		return nil, err
	}
	return s.withAuthors(ctx, posts)
}

// Update edits content; only the author or an admin may do it.
func (s *PostService) Update(ctx context.Context, callerID primitive.ObjectID, callerRole string, postID primitive.ObjectID, text string, mediaURLs []string) (*models.Post, error) {
	post, err := s.findPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post.AuthorID != callerID && callerRole != models.RoleAdmin {
		return nil, fmt.Errorf("not the author: %w", apperr.ErrForbidden)
	}
	if text == "" && len(mediaURLs) == 0 {
		return nil, fmt.Errorf("a post needs text or media: %w", apperr.ErrValidation)
	}
	if err := s.posts.Update(ctx, postID, text, mediaURLs); err != nil {
		return nil, err
	}
	post.Text = text
	post.MediaURLs = mediaURLs
	return post, nil
}

func (s *PostService) Delete(ctx context.Context, callerID primitive.ObjectID, callerRole string, postID primitive.ObjectID) error {
	post, err := s.findPost(ctx, postID)
	if err != nil {
		return err
	}
	if post.AuthorID != callerID && callerRole != models.RoleAdmin {
		return fmt.Errorf("not the author: %w", apperr.ErrForbidden)
	}
	return s.posts.SoftDelete(ctx, postID)
}

// ToggleLike flips the caller's like. Liking someone else's post notifies
// the author; unliking notifies nobody.
func (s *PostService) ToggleLike(ctx context.Context, userID, postID primitive.ObjectID) (bool, error) {
	post, err := s.findPost(ctx, postID)
	if err != nil {
		return false, err
	}
	liked, err := s.posts.ToggleLike(ctx, postID, userID)
	if err != nil {
		return false, err
	}
	if liked && post.AuthorID != userID {
		liker, err := s.users.FindByID(ctx, userID)
		if err == nil && liker != nil {
			n := &models.Notification{
				SenderID: userID,
				UserID:   post.AuthorID,
				Type:     models.NotificationLike,
				Message:  fmt.Sprintf("%s liked your post", liker.Username),
				EntityID: postID,
			}
			if err := s.notifier.Notify(ctx, n); err != nil {
				s.log.Warnw("like notification failed", "post", postID.Hex(), "err", err)
			}
		}
	}
	return liked, nil
}

func (s *PostService) AddComment(ctx context.Context, userID, postID primitive.ObjectID, text string) (*models.Comment, error) {
	if text == "" {
		return nil, fmt.Errorf("comment text required: %w", apperr.ErrValidation)
	}
	post, err := s.findPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	commenter, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if commenter == nil {
		return nil, fmt.Errorf("user %s: %w", userID.Hex(), apperr.ErrNotFound)
	}

	comment := models.Comment{
		ID:        primitive.NewObjectID(),
		UserID:    userID,
		Text:      text,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.posts.AddComment(ctx, postID, comment); err != nil {
		return nil, err
	}

	if post.AuthorID != userID {
		n := &models.Notification{
			SenderID: userID,
			UserID:   post.AuthorID,
			Type:     models.NotificationComment,
			Message:  fmt.Sprintf("%s commented on your post", commenter.Username),
			EntityID: postID,
		}
		if err := s.notifier.Notify(ctx, n); err != nil {
			s.log.Warnw("comment notification failed", "post", postID.Hex(), "err", err)
		}
	}
	return &comment, nil
}

// DeleteComment allows the comment author, the post author or an admin.
func (s *PostService) DeleteComment(ctx context.Context, callerID primitive.ObjectID, callerRole string, postID, commentID primitive.ObjectID) error {
	post, err := s.findPost(ctx, postID)
	if err != nil {
		return err
	}
	var comment *models.Comment
	for i := range post.Comments {
		if post.Comments[i].ID == commentID {
			comment = &post.Comments[i]
			break
		}
	}
	if comment == nil {
		return fmt.Errorf("comment %s: %w", commentID.Hex(), apperr.ErrNotFound)
	}
	if comment.UserID != callerID && post.AuthorID != callerID && callerRole != models.RoleAdmin {
		return fmt.Errorf("not allowed to delete this comment: %w", apperr.ErrForbidden)
	}
	return s.posts.RemoveComment(ctx, postID, commentID)
}

func (s *PostService) withAuthors(ctx context.Context, posts []*models.Post) ([]*PostView, error) {
	idSet := map[primitive.ObjectID]bool{}
	for _, p := range posts {
		idSet[p.AuthorID] = true
	}
	ids := make([]primitive.ObjectID, 0, len(idSet))
	for id := range idSet {
		ids = append(ids, id)
	}
	authors, err := s.users.FindManyByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[primitive.ObjectID]models.UserSummary, len(authors))
	for _, u := range authors {
		byID[u.ID] = u.Summary()
	}
	out := make([]*PostView, len(posts))
	for i, p := range posts {
		out[i] = &PostView{Post: *p, Author: byID[p.AuthorID]}
	}
	return out, nil
}

func (s *PostService) findPost(ctx context.Context, id primitive.ObjectID) (*models.Post, error) {
	post, err := s.posts.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, fmt.Errorf("post %s: %w", id.Hex(), apperr.ErrNotFound)
	}
	return post, nil
}
