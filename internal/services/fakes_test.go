package services

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/fathima-sithara/social-app/internal/models"
)

func testLogger() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}

// ---- user repository ----

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]*models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[primitive.ObjectID]*models.User)}
}

func (r *fakeUserRepo) add(u *models.User) *models.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	cp := *u
	r.users[u.ID] = &cp
	return u
}

func (r *fakeUserRepo) Create(ctx context.Context, u *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == u.Email || existing.Username == u.Username {
			return mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000}}}
		}
	}
	u.ID = primitive.NewObjectID()
	u.CreatedAt = time.Now().UTC()
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *fakeUserRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) FindManyByIDs(ctx context.Context, ids []primitive.ObjectID) ([]*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.User
	for _, id := range ids {
		if u, ok := r.users[id]; ok {
			cp := *u
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) Search(ctx context.Context, query string, limit int64) ([]*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.User
	for _, u := range r.users {
		if strings.Contains(u.Username, query) {
			cp := *u
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) Update(ctx context.Context, u *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *fakeUserRepo) List(ctx context.Context, page, pageSize int64) ([]*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.User
	for _, u := range r.users {
		cp := *u
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.Hex() < out[j].ID.Hex() })
	return out, nil
}

func (r *fakeUserRepo) SetRole(ctx context.Context, id primitive.ObjectID, role string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		u.Role = role
	}
	return nil
}

func (r *fakeUserRepo) SetActive(ctx context.Context, id primitive.ObjectID, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		u.IsActive = active
	}
	return nil
}

func (r *fakeUserRepo) AddFollowEdge(ctx context.Context, follower, followee primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[follower]; ok {
		u.Followed = addID(u.Followed, followee)
	}
	if u, ok := r.users[followee]; ok {
		u.Followers = addID(u.Followers, follower)
	}
	return nil
}

func (r *fakeUserRepo) RemoveFollowEdge(ctx context.Context, follower, followee primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[follower]; ok {
		u.Followed = removeID(u.Followed, followee)
	}
	if u, ok := r.users[followee]; ok {
		u.Followers = removeID(u.Followers, follower)
	}
	return nil
}

func (r *fakeUserRepo) AddBlock(ctx context.Context, blocker, blocked primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[blocker]; ok {
		u.BlockedUsers = addID(u.BlockedUsers, blocked)
	}
	return nil
}

func (r *fakeUserRepo) RemoveBlock(ctx context.Context, blocker, blocked primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[blocker]; ok {
		u.BlockedUsers = removeID(u.BlockedUsers, blocked)
	}
	return nil
}

func (r *fakeUserRepo) Count(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.users)), nil
}

func (r *fakeUserRepo) CountActive(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, u := range r.users {
		if u.IsActive {
			n++
		}
	}
	return n, nil
}

func addID(ids []primitive.ObjectID, id primitive.ObjectID) []primitive.ObjectID {
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	return append(ids, id)
}

func removeID(ids []primitive.ObjectID, id primitive.ObjectID) []primitive.ObjectID {
	out := ids[:0]
	for _, existing := range ids {
		if existing != id {
			out = append(out, existing)
		}
	}
	return out
}

// ---- conversation repository ----

type fakeConversationRepo struct {
	mu    sync.Mutex
	convs map[primitive.ObjectID]*models.Conversation
}

func newFakeConversationRepo() *fakeConversationRepo {
	return &fakeConversationRepo{convs: make(map[primitive.ObjectID]*models.Conversation)}
}

func (r *fakeConversationRepo) Create(ctx context.Context, c *models.Conversation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c.ID = primitive.NewObjectID()
	c.CreatedAt = time.Now().UTC()
	c.UpdatedAt = c.CreatedAt
	cp := *c
	r.convs[c.ID] = &cp
	return nil
}

func (r *fakeConversationRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.convs[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (r *fakeConversationRepo) FindDirect(ctx context.Context, a, b primitive.ObjectID) (*models.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.convs {
		if c.IsGroup || len(c.Participants) != 2 {
			continue
		}
		if c.HasParticipant(a) && c.HasParticipant(b) {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeConversationRepo) ListForUser(ctx context.Context, userID primitive.ObjectID) ([]*models.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Conversation
	for _, c := range r.convs {
		if c.HasParticipant(userID) {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (r *fakeConversationRepo) SetLastMessage(ctx context.Context, id primitive.ObjectID, m *models.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.convs[id]; ok {
		cp := *m
		c.LastMessage = &cp
		c.UpdatedAt = time.Now().UTC()
	}
	return nil
}

// ---- message repository ----

type fakeMessageRepo struct {
	mu   sync.Mutex
	msgs []*models.Message
}

func newFakeMessageRepo() *fakeMessageRepo {
	return &fakeMessageRepo{}
}

func (r *fakeMessageRepo) Insert(ctx context.Context, m *models.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m.ID = primitive.NewObjectID()
	m.CreatedAt = time.Now().UTC()
	if len(m.ReadBy) == 0 {
		m.ReadBy = []primitive.ObjectID{m.SenderID}
	}
	cp := *m
	r.msgs = append(r.msgs, &cp)
	return nil
}

func (r *fakeMessageRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.msgs {
		if m.ID == id && !m.Deleted {
			cp := *m
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeMessageRepo) ListByConversation(ctx context.Context, convID primitive.ObjectID) ([]*models.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Message
	for _, m := range r.msgs {
		if m.ConversationID == convID && !m.Deleted {
			cp := *m
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeMessageRepo) MarkRead(ctx context.Context, convID, readerID primitive.ObjectID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var updated int64
	for _, m := range r.msgs {
		if m.ConversationID != convID || m.Deleted {
			continue
		}
		if !m.ReadByUser(readerID) {
			m.ReadBy = append(m.ReadBy, readerID)
			updated++
		}
	}
	return updated, nil
}

func (r *fakeMessageRepo) SoftDelete(ctx context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.msgs {
		if m.ID == id {
			m.Deleted = true
		}
	}
	return nil
}

func (r *fakeMessageRepo) Count(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.msgs)), nil
}

// ---- notification repository ----

type fakeNotificationRepo struct {
	mu     sync.Mutex
	notifs []*models.Notification
}

func newFakeNotificationRepo() *fakeNotificationRepo {
	return &fakeNotificationRepo{}
}

func (r *fakeNotificationRepo) Create(ctx context.Context, n *models.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	n.ID = primitive.NewObjectID()
	n.CreatedAt = time.Now().UTC()
	cp := *n
	r.notifs = append(r.notifs, &cp)
	return nil
}

func (r *fakeNotificationRepo) ListForUser(ctx context.Context, userID primitive.ObjectID, limit int64) ([]*models.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Notification
	for _, n := range r.notifs {
		if n.UserID == userID {
			cp := *n
			out = append(out, &cp)
		}
	}
	if int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeNotificationRepo) MarkRead(ctx context.Context, id, userID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range r.notifs {
		if n.ID == id && n.UserID == userID {
			n.Read = true
			return nil
		}
	}
	return mongo.ErrNoDocuments
}

func (r *fakeNotificationRepo) MarkAllRead(ctx context.Context, userID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range r.notifs {
		if n.UserID == userID {
			n.Read = true
		}
	}
	return nil
}

func (r *fakeNotificationRepo) SetDelivered(ctx context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range r.notifs {
		if n.ID == id {
			n.Delivered = true
		}
	}
	return nil
}

func (r *fakeNotificationRepo) Count(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.notifs)), nil
}

// ---- post repository ----

type fakePostRepo struct {
	mu    sync.Mutex
	posts map[primitive.ObjectID]*models.Post
}

func newFakePostRepo() *fakePostRepo {
	return &fakePostRepo{posts: make(map[primitive.ObjectID]*models.Post)}
}

func (r *fakePostRepo) Create(ctx context.Context, p *models.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p.ID = primitive.NewObjectID()
	p.CreatedAt = time.Now().UTC()
	cp := *p
	r.posts[p.ID] = &cp
	return nil
}

func (r *fakePostRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[id]
	if !ok || p.Deleted {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (r *fakePostRepo) ListByAuthor(ctx context.Context, authorID primitive.ObjectID, page, pageSize int64) ([]*models.Post, error) {
	return r.Feed(ctx, []primitive.ObjectID{authorID}, page, pageSize)
}

func (r *fakePostRepo) Feed(ctx context.Context, authorIDs []primitive.ObjectID, page, pageSize int64) ([]*models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	authors := make(map[primitive.ObjectID]bool, len(authorIDs))
	for _, id := range authorIDs {
		authors[id] = true
	}
	var out []*models.Post
	for _, p := range r.posts {
		if !p.Deleted && authors[p.AuthorID] {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *fakePostRepo) Update(ctx context.Context, id primitive.ObjectID, text string, mediaURLs []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.posts[id]; ok {
		p.Text = text
		p.MediaURLs = mediaURLs
	}
	return nil
}

func (r *fakePostRepo) SoftDelete(ctx context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.posts[id]; ok {
		p.Deleted = true
	}
	return nil
}

func (r *fakePostRepo) ToggleLike(ctx context.Context, postID, userID primitive.ObjectID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[postID]
	if !ok {
		return false, nil
	}
	for _, id := range p.Likes {
		if id == userID {
			p.Likes = removeID(p.Likes, userID)
			return false, nil
		}
	}
	p.Likes = append(p.Likes, userID)
	return true, nil
}

func (r *fakePostRepo) AddComment(ctx context.Context, postID primitive.ObjectID, c models.Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.posts[postID]; ok {
		p.Comments = append(p.Comments, c)
	}
	return nil
}

func (r *fakePostRepo) RemoveComment(ctx context.Context, postID, commentID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[postID]
	if !ok {
		return nil
	}
	out := p.Comments[:0]
	for _, c := range p.Comments {
		if c.ID != commentID {
			out = append(out, c)
		}
	}
	p.Comments = out
	return nil
}

func (r *fakePostRepo) Count(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.posts)), nil
}

// ---- code store ----

type fakeCodeStore struct {
	mu      sync.Mutex
	entries map[string]fakeEntry
	counts  map[string]int64
}

type fakeEntry struct {
	val string
	exp time.Time
}

func newFakeCodeStore() *fakeCodeStore {
	return &fakeCodeStore{entries: make(map[string]fakeEntry), counts: make(map[string]int64)}
}

func (s *fakeCodeStore) Set(ctx context.Context, key, val string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = fakeEntry{val: val, exp: time.Now().Add(ttl)}
	return nil
}

func (s *fakeCodeStore) Get(ctx context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok || time.Now().After(e.exp) {
		return "", nil
	}
	return e.val, nil
}

func (s *fakeCodeStore) Del(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

func (s *fakeCodeStore) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts[key]++
	return s.counts[key], nil
}

// ---- emitter ----

type emitted struct {
	target  string
	event   string
	payload interface{}
}

// fakeEmitter records every emit; user ids in online deliver successfully.
type fakeEmitter struct {
	mu     sync.Mutex
	online map[string]bool
	room   []emitted
	user   []emitted
}

func newFakeEmitter(onlineUsers ...string) *fakeEmitter {
	online := make(map[string]bool, len(onlineUsers))
	for _, id := range onlineUsers {
		online[id] = true
	}
	return &fakeEmitter{online: online}
}

func (e *fakeEmitter) EmitToRoom(roomID, event string, payload interface{}) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.room = append(e.room, emitted{target: roomID, event: event, payload: payload})
}

func (e *fakeEmitter) EmitToUser(userID, event string, payload interface{}) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.user = append(e.user, emitted{target: userID, event: event, payload: payload})
	return e.online[userID]
}

func (e *fakeEmitter) roomEvents() []emitted {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]emitted(nil), e.room...)
}

func (e *fakeEmitter) userEvents() []emitted {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]emitted(nil), e.user...)
}

// ---- mailer ----

type sentMail struct {
	to, subject, body string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
}

func (m *fakeMailer) SendEmail(ctx context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{to: to, subject: subject, body: body})
	return nil
}

func (m *fakeMailer) lastTo() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		return ""
	}
	return m.sent[len(m.sent)-1].to
}
