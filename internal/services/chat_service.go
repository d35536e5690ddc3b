package services

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/fathima-sithara/social-app/internal/apperr"
	"github.com/fathima-sithara/social-app/internal/events"
	"github.com/fathima-sithara/social-app/internal/metrics"
	"github.com/fathima-sithara/social-app/internal/models"
	"github.com/fathima-sithara/social-app/internal/repository"
)

// ConversationView is a conversation with participant profiles inlined for
// list rendering.
type ConversationView struct {
	models.Conversation
	ParticipantInfo []models.UserSummary `json:"participant_info"`
}

// ReadReceipt is the payload of the cosmetic messageRead room event.
type ReadReceipt struct {
	ConversationID string `json:"conversation_id"`
	ReaderID       string `json:"reader_id"`
}

type ChatService struct {
	convs    repository.ConversationRepository
	msgs     repository.MessageRepository
	users    repository.UserRepository
	emitter  Emitter
	producer *events.Producer
	log      *zap.SugaredLogger
}

func NewChatService(
	convs repository.ConversationRepository,
	msgs repository.MessageRepository,
	users repository.UserRepository,
	emitter Emitter,
	producer *events.Producer,
	log *zap.SugaredLogger,
) *ChatService {
	return &ChatService{convs: convs, msgs: msgs, users: users, emitter: emitter, producer: producer, log: log}
}

// CreateDirect returns the existing direct conversation between the pair or
// creates one. Creation is refused when either side has blocked the other.
// The existence check is find-then-create, not a storage constraint; two
// concurrent calls for a fresh pair can race.
func (s *ChatService) CreateDirect(ctx context.Context, senderID, receiverID primitive.ObjectID) (*models.Conversation, error) {
	if senderID == receiverID {
		return nil, fmt.Errorf("cannot start a conversation with yourself: %w", apperr.ErrValidation)
	}
	sender, err := s.findUser(ctx, senderID)
	if err != nil {
		return nil, err
	}
	receiver, err := s.findUser(ctx, receiverID)
	if err != nil {
		return nil, err
	}
	if sender.HasBlocked(receiverID) || receiver.HasBlocked(senderID) {
		return nil, fmt.Errorf("cannot message this user: %w", apperr.ErrForbidden)
	}

	existing, err := s.convs.FindDirect(ctx, senderID, receiverID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	conv := &models.Conversation{
		Participants: []primitive.ObjectID{senderID, receiverID},
		IsGroup:      false,
	}
	if err := s.convs.Create(ctx, conv); err != nil {
		return nil, err
	}
	return conv, nil
}

// CreateGroup creates a named conversation with the creator plus at least
// two other participants.
func (s *ChatService) CreateGroup(ctx context.Context, creatorID primitive.ObjectID, name string, participantIDs []primitive.ObjectID) (*models.Conversation, error) {
	if name == "" {
		return nil, fmt.Errorf("group name required: %w", apperr.ErrValidation)
	}
	members := map[primitive.ObjectID]bool{creatorID: true}
	for _, id := range participantIDs {
		members[id] = true
	}
	if len(members) < 3 {
		return nil, fmt.Errorf("a group needs at least three participants: %w", apperr.ErrValidation)
	}
	participants := make([]primitive.ObjectID, 0, len(members))
	for id := range members {
		participants = append(participants, id)
	}
	found, err := s.users.FindManyByIDs(ctx, participants)
	if err != nil {
		return nil, err
	}
	if len(found) != len(participants) {
		return nil, fmt.Errorf("unknown participant: %w", apperr.ErrNotFound)
	}

	conv := &models.Conversation{
		Participants: participants,
		IsGroup:      true,
		Name:         name,
	}
	if err := s.convs.Create(ctx, conv); err != nil {
		return nil, err
	}
	return conv, nil
}

// ListConversations returns the caller's conversations newest-activity first,
// suppressing direct conversations where either side has blocked the other.
func (s *ChatService) ListConversations(ctx context.Context, userID primitive.ObjectID) ([]*ConversationView, error) {
	caller, err := s.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	convs, err := s.convs.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	idSet := map[primitive.ObjectID]bool{}
	for _, c := range convs {
		for _, p := range c.Participants {
			idSet[p] = true
		}
	}
	ids := make([]primitive.ObjectID, 0, len(idSet))
	for id := range idSet {
		ids = append(ids, id)
	}
	profiles, err := s.users.FindManyByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[primitive.ObjectID]*models.User, len(profiles))
	for _, u := range profiles {
		byID[u.ID] = u
	}

	out := make([]*ConversationView, 0, len(convs))
	for _, c := range convs {
		if cp, ok := c.Counterpart(userID); ok {
			other := byID[cp]
			if caller.HasBlocked(cp) || (other != nil && other.HasBlocked(userID)) {
				continue
			}
		}
		view := &ConversationView{Conversation: *c}
		for _, p := range c.Participants {
			if u, ok := byID[p]; ok {
				view.ParticipantInfo = append(view.ParticipantInfo, u.Summary())
			}
		}
		out = append(out, view)
	}
	return out, nil
}

// SendMessage validates, persists, then fans out. The conversation pointer
// update happens after the insert; if it fails the message still stands and
// the stale pointer heals on the next send. The room event is a hint, not
// the source of truth.
func (s *ChatService) SendMessage(ctx context.Context, senderID, convID primitive.ObjectID, text string, media *models.MediaRef) (*models.MessageView, error) {
	if text == "" && media == nil {
		return nil, fmt.Errorf("a message needs text or media: %w", apperr.ErrValidation)
	}
	conv, err := s.findConversation(ctx, convID)
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(senderID) {
		return nil, fmt.Errorf("not a participant: %w", apperr.ErrForbidden)
	}
	sender, err := s.findUser(ctx, senderID)
	if err != nil {
		return nil, err
	}

	msg := &models.Message{
		ConversationID: convID,
		SenderID:       senderID,
		Text:           text,
		Media:          media,
		ReadBy:         []primitive.ObjectID{senderID},
	}
	if err := s.msgs.Insert(ctx, msg); err != nil {
		return nil, err
	}
	if err := s.convs.SetLastMessage(ctx, convID, msg); err != nil {
		s.log.Warnw("latest-message pointer update failed", "conversation", convID.Hex(), "err", err)
	}

	view := &models.MessageView{Message: *msg, Sender: sender.Summary()}
	s.emitter.EmitToRoom(convID.Hex(), EventReceiveMessage, view)
	metrics.MessagesSent.Inc()
	s.producer.Publish(ctx, events.EventMessageCreated, convID.Hex(), view)
	return view, nil
}

// ListMessages returns the conversation's messages in ascending creation
// order, the authoritative ordering.
func (s *ChatService) ListMessages(ctx context.Context, userID, convID primitive.ObjectID) ([]*models.MessageView, error) {
	conv, err := s.findConversation(ctx, convID)
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(userID) {
		return nil, fmt.Errorf("not a participant: %w", apperr.ErrForbidden)
	}

	msgs, err := s.msgs.ListByConversation(ctx, convID)
	if err != nil {
		return nil, err
	}
	senderSet := map[primitive.ObjectID]bool{}
	for _, m := range msgs {
		senderSet[m.SenderID] = true
	}
	ids := make([]primitive.ObjectID, 0, len(senderSet))
	for id := range senderSet {
		ids = append(ids, id)
	}
	profiles, err := s.users.FindManyByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[primitive.ObjectID]models.UserSummary, len(profiles))
	for _, u := range profiles {
		byID[u.ID] = u.Summary()
	}

	out := make([]*models.MessageView, len(msgs))
	for i, m := range msgs {
		out[i] = &models.MessageView{Message: *m, Sender: byID[m.SenderID]}
	}
	return out, nil
}

// MarkRead appends the caller to every unread message's read set and emits a
// cosmetic read event to the room. The read set in the store is
// authoritative; the event is only for live read-indicator updates.
func (s *ChatService) MarkRead(ctx context.Context, userID, convID primitive.ObjectID) error {
	conv, err := s.findConversation(ctx, convID)
	if err != nil {
		return err
	}
	if !conv.HasParticipant(userID) {
		return fmt.Errorf("not a participant: %w", apperr.ErrForbidden)
	}
	updated, err := s.msgs.MarkRead(ctx, convID, userID)
	if err != nil {
		return err
	}
	if updated > 0 {
		s.emitter.EmitToRoom(convID.Hex(), EventMessageRead, ReadReceipt{
			ConversationID: convID.Hex(),
			ReaderID:       userID.Hex(),
		})
	}
	return nil
}

// DeleteMessage soft-deletes; only the sender may do it.
func (s *ChatService) DeleteMessage(ctx context.Context, userID, msgID primitive.ObjectID) error {
	msg, err := s.msgs.FindByID(ctx, msgID)
	if err != nil {
		return err
	}
	if msg == nil {
		return fmt.Errorf("message %s: %w", msgID.Hex(), apperr.ErrNotFound)
	}
	if msg.SenderID != userID {
		return fmt.Errorf("only the sender can delete a message: %w", apperr.ErrForbidden)
	}
	return s.msgs.SoftDelete(ctx, msgID)
}

// IsParticipant reports whether userID belongs to the conversation; the ws
// handler uses it to gate room joins.
func (s *ChatService) IsParticipant(ctx context.Context, userID, convID primitive.ObjectID) (bool, error) {
	conv, err := s.convs.FindByID(ctx, convID)
	if err != nil {
		return false, err
	}
	return conv != nil && conv.HasParticipant(userID), nil
}

func (s *ChatService) findUser(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, fmt.Errorf("user %s: %w", id.Hex(), apperr.ErrNotFound)
	}
	return u, nil
}

func (s *ChatService) findConversation(ctx context.Context, id primitive.ObjectID) (*models.Conversation, error) {
	c, err := s.convs.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, fmt.Errorf("conversation %s: %w", id.Hex(), apperr.ErrNotFound)
	}
	return c, nil
}
