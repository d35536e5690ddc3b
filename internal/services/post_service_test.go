package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fathima-sithara/social-app/internal/apperr"
	"github.com/fathima-sithara/social-app/internal/models"
)

type postFixture struct {
	svc    *PostService
	users  *fakeUserRepo
	posts  *fakePostRepo
	notifs *fakeNotificationRepo
}

func newPostFixture() *postFixture {
	users := newFakeUserRepo()
	posts := newFakePostRepo()
	notifs := newFakeNotificationRepo()
	notifier := NewNotificationService(notifs, newFakeEmitter(), nil, testLogger())
	svc := NewPostService(posts, users, notifier, testLogger())
	return &postFixture{svc: svc, users: users, posts: posts, notifs: notifs}
}

func TestCreatePostNeedsContent(t *testing.T) {
	f := newPostFixture()
	ctx := context.Background()
	a := seedUser(f.users, "amal")

	_, err := f.svc.Create(ctx, a.ID, "", nil)
	require.ErrorIs(t, err, apperr.ErrValidation)

	post, err := f.svc.Create(ctx, a.ID, "first post", nil)
	require.NoError(t, err)
	require.False(t, post.ID.IsZero())
}

func TestToggleLikeFlipsAndNotifiesOnce(t *testing.T) {
	f := newPostFixture()
	ctx := context.Background()
	author := seedUser(f.users, "amal")
	liker := seedUser(f.users, "nila")
	post, err := f.svc.Create(ctx, author.ID, "hello", nil)
	require.NoError(t, err)

	liked, err := f.svc.ToggleLike(ctx, liker.ID, post.ID)
	require.NoError(t, err)
	require.True(t, liked)

	stored, _ := f.posts.FindByID(ctx, post.ID)
	require.True(t, stored.LikedBy(liker.ID))

	list, _ := f.notifs.ListForUser(ctx, author.ID, 10)
	require.Len(t, list, 1)
	require.Equal(t, models.NotificationLike, list[0].Type)

	// unliking clears the set and stays quiet
	liked, err = f.svc.ToggleLike(ctx, liker.ID, post.ID)
	require.NoError(t, err)
	require.False(t, liked)
	stored, _ = f.posts.FindByID(ctx, post.ID)
	require.False(t, stored.LikedBy(liker.ID))
	list, _ = f.notifs.ListForUser(ctx, author.ID, 10)
	require.Len(t, list, 1)
}

func TestLikeOwnPostDoesNotNotify(t *testing.T) {
	f := newPostFixture()
	ctx := context.Background()
	author := seedUser(f.users, "amal")
	post, err := f.svc.Create(ctx, author.ID, "hello", nil)
	require.NoError(t, err)

	_, err = f.svc.ToggleLike(ctx, author.ID, post.ID)
	require.NoError(t, err)
	list, _ := f.notifs.ListForUser(ctx, author.ID, 10)
	require.Empty(t, list)
}

func TestAddCommentNotifiesAuthor(t *testing.T) {
	f := newPostFixture()
	ctx := context.Background()
	author := seedUser(f.users, "amal")
	commenter := seedUser(f.users, "nila")
	post, err := f.svc.Create(ctx, author.ID, "hello", nil)
	require.NoError(t, err)

	comment, err := f.svc.AddComment(ctx, commenter.ID, post.ID, "nice")
	require.NoError(t, err)
	require.False(t, comment.ID.IsZero())
	require.False(t, comment.CreatedAt.IsZero())

	list, _ := f.notifs.ListForUser(ctx, author.ID, 10)
	require.Len(t, list, 1)
	require.Equal(t, models.NotificationComment, list[0].Type)

	_, err = f.svc.AddComment(ctx, commenter.ID, post.ID, "")
	require.ErrorIs(t, err, apperr.ErrValidation)
}

func TestDeleteCommentPermissions(t *testing.T) {
	f := newPostFixture()
	ctx := context.Background()
	author := seedUser(f.users, "amal")
	commenter := seedUser(f.users, "nila")
	stranger := seedUser(f.users, "ravi")
	post, err := f.svc.Create(ctx, author.ID, "hello", nil)
	require.NoError(t, err)
	comment, err := f.svc.AddComment(ctx, commenter.ID, post.ID, "nice")
	require.NoError(t, err)

	err = f.svc.DeleteComment(ctx, stranger.ID, models.RoleUser, post.ID, comment.ID)
	require.ErrorIs(t, err, apperr.ErrForbidden)

	// the post author can remove comments on their post
	require.NoError(t, f.svc.DeleteComment(ctx, author.ID, models.RoleUser, post.ID, comment.ID))

	stored, _ := f.posts.FindByID(ctx, post.ID)
	require.Empty(t, stored.Comments)
}

func TestFeedCoversSelfAndFollowed(t *testing.T) {
	f := newPostFixture()
	ctx := context.Background()
	a := seedUser(f.users, "amal")
	b := seedUser(f.users, "nila")
	c := seedUser(f.users, "ravi")
	require.NoError(t, f.users.AddFollowEdge(ctx, a.ID, b.ID))

	_, err := f.svc.Create(ctx, a.ID, "mine", nil)
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, b.ID, "followed", nil)
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, c.ID, "stranger", nil)
	require.NoError(t, err)

	feed, err := f.svc.Feed(ctx, a.ID, 1, 20)
	require.NoError(t, err)
	require.Len(t, feed, 2)
	for _, p := range feed {
		require.NotEqual(t, "stranger", p.Text)
		require.NotEmpty(t, p.Author.Username)
	}
}

func TestUpdateAndDeletePostPermissions(t *testing.T) {
	f := newPostFixture()
	ctx := context.Background()
	author := seedUser(f.users, "amal")
	stranger := seedUser(f.users, "nila")
	post, err := f.svc.Create(ctx, author.ID, "hello", nil)
	require.NoError(t, err)

	_, err = f.svc.Update(ctx, stranger.ID, models.RoleUser, post.ID, "hacked", nil)
	require.ErrorIs(t, err, apperr.ErrForbidden)

	// admins may edit anyone's post
	updated, err := f.svc.Update(ctx, stranger.ID, models.RoleAdmin, post.ID, "moderated", nil)
	require.NoError(t, err)
	require.Equal(t, "moderated", updated.Text)

	require.ErrorIs(t, f.svc.Delete(ctx, stranger.ID, models.RoleUser, post.ID), apperr.ErrForbidden)
	require.NoError(t, f.svc.Delete(ctx, author.ID, models.RoleUser, post.ID))

	_, err = f.svc.Get(ctx, post.ID)
	require.ErrorIs(t, err, apperr.ErrNotFound)
}
