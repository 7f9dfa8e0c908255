// Package services – ChatService
//
// ChatService manages direct conversations. A chat is keyed by the sorted
// pair of its participants, so either argument order finds the same thread.
// Messages are appended in creation order and never reordered; every message
// notifies its receiver, and a shared challenge is also recorded on the
// receiver's profile.
package services

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"github.com/tbourn/go-challenge-backend/internal/domain"
	"github.com/tbourn/go-challenge-backend/internal/store"
	"github.com/tbourn/go-challenge-backend/internal/utils"
)

// SendMessageInput is the payload of SendMessage. Content may be empty for a
// challenge message.
type SendMessageInput struct {
	SenderID    string             `json:"senderId" validate:"required"`
	Content     string             `json:"content" validate:"max=4000"`
	Type        domain.MessageType `json:"type" validate:"omitempty,oneof=text challenge"`
	ChallengeID string             `json:"challengeId,omitempty" validate:"required_if=Type challenge"`
}

// ChatService is the chat facade.
type ChatService struct {
	facade
}

// NewChatService builds the facade.
func NewChatService(d Deps) *ChatService {
	return &ChatService{facade: newFacade("ChatService", d)}
}

// GetOrCreate returns the chat between a and b, creating it on first use.
func (s *ChatService) GetOrCreate(ctx context.Context, a, b string) (out domain.Chat, err error) {
	ctx, span := s.start(ctx, "GetOrCreate", attribute.String("user.a", a), attribute.String("user.b", b))
	defer func() { s.finish(span, "GetOrCreate", err) }()

	if a == b {
		return out, ErrSelfTarget
	}
	key := domain.ChatKey(a, b)
	span.SetAttributes(attribute.String("chat.id", key))

	err = s.mutate(ctx, func(tx *store.Tx) ([]domain.Event, error) {
		if c, ok := tx.Chat(key); ok {
			out = c.Clone()
			return nil, nil
		}
		if _, err := lookupUser(tx, a); err != nil {
			return nil, err
		}
		if _, err := lookupUser(tx, b); err != nil {
			return nil, err
		}
		lo, hi := a, b
		if hi < lo {
			lo, hi = hi, lo
		}
		c := tx.InsertChat(domain.Chat{
			ID:           key,
			Participants: [2]string{lo, hi},
			Messages:     []domain.Message{},
			CreatedAt:    tx.Now(),
		})
		out = c.Clone()
		return []domain.Event{{Kind: domain.EventChatCreated, ChatID: key, UserID: a, OtherUserID: b}}, nil
	})
	return out, err
}

// SendMessage appends a message from in.SenderID to chatID.
func (s *ChatService) SendMessage(ctx context.Context, chatID string, in SendMessageInput) (out domain.Message, err error) {
	ctx, span := s.start(ctx, "SendMessage",
		attribute.String("chat.id", chatID),
		attribute.String("user.id", in.SenderID),
		attribute.String("message.type", string(in.Type)),
	)
	defer func() { s.finish(span, "SendMessage", err) }()

	if in.Type == "" {
		in.Type = domain.MessageText
	}
	if err = s.check(in); err != nil {
		return out, err
	}
	content := cleanText(in.Content)
	if content == "" && in.Type == domain.MessageText {
		return out, ErrEmptyContent
	}

	err = s.mutate(ctx, func(tx *store.Tx) ([]domain.Event, error) {
		chat, ok := tx.Chat(chatID)
		if !ok {
			return nil, ErrChatNotFound
		}
		if !chat.Has(in.SenderID) {
			return nil, ErrNotParticipant
		}
		sender, err := lookupUser(tx, in.SenderID)
		if err != nil {
			return nil, err
		}
		receiver, err := lookupUser(tx, chat.Other(in.SenderID))
		if err != nil {
			return nil, err
		}

		var shared *domain.Challenge
		if in.Type == domain.MessageChallenge {
			if shared, err = lookupChallenge(tx, in.ChallengeID); err != nil {
				return nil, err
			}
			if content == "" {
				content = shared.Title
			}
		}

		m := tx.AppendMessage(chat, domain.Message{
			ID:          tx.NewID(),
			ChatID:      chat.ID,
			SenderID:    sender.ID,
			ReceiverID:  receiver.ID,
			Content:     content,
			Type:        in.Type,
			ChallengeID: in.ChallengeID,
			CreatedAt:   tx.Now(),
		})
		last := *m
		chat.LastMessage = &last
		chat.UnreadCount++
		out = *m

		events := []domain.Event{{Kind: domain.EventMessageSent, ChatID: chat.ID, UserID: receiver.ID, OtherUserID: sender.ID}}
		note := domain.Notification{
			UserID:     receiver.ID,
			Type:       domain.NotifyMessage,
			FromUserID: sender.ID,
			Content:    "New message from " + sender.Username,
			Data:       domain.NotificationData{ChatID: chat.ID},
		}
		if shared != nil {
			receiver.ReceivedChallenges.Add(shared.ID)
			events = append(events, domain.Event{Kind: domain.EventChallengeReceived, UserID: receiver.ID, OtherUserID: sender.ID, ChallengeID: shared.ID, ChatID: chat.ID})
			note.Type = domain.NotifyChallengeShared
			note.Content = sender.Username + " shared a challenge with you: " + shared.Title
			note.Data.ChallengeID = shared.ID
		}
		return append(events, notify(tx, note)), nil
	})
	if err != nil {
		return domain.Message{}, err
	}
	return out, nil
}

// MarkRead flags every message addressed to userID in chatID as read and
// resets the unread counter. It returns how many messages changed.
func (s *ChatService) MarkRead(ctx context.Context, chatID, userID string) (n int, err error) {
	ctx, span := s.start(ctx, "MarkRead", attribute.String("chat.id", chatID), attribute.String("user.id", userID))
	defer func() { s.finish(span, "MarkRead", err) }()

	err = s.mutate(ctx, func(tx *store.Tx) ([]domain.Event, error) {
		chat, ok := tx.Chat(chatID)
		if !ok {
			return nil, ErrChatNotFound
		}
		if !chat.Has(userID) {
			return nil, ErrNotParticipant
		}
		for i := range chat.Messages {
			m := &chat.Messages[i]
			if m.ReceiverID == userID && !m.IsRead {
				m.IsRead = true
				n++
			}
		}
		if chat.LastMessage != nil && chat.LastMessage.ReceiverID == userID {
			chat.LastMessage.IsRead = true
		}
		chat.UnreadCount = 0
		return []domain.Event{{Kind: domain.EventMessagesRead, ChatID: chat.ID, UserID: userID}}, nil
	})
	return n, err
}

// Messages returns one page of chatID's messages in creation order.
func (s *ChatService) Messages(ctx context.Context, chatID string, page, pageSize int) (out []domain.Message, total int, err error) {
	ctx, span := s.start(ctx, "Messages",
		attribute.String("chat.id", chatID),
		attribute.Int("page", page),
		attribute.Int("page_size", pageSize),
	)
	defer func() { s.finish(span, "Messages", err) }()

	var all []domain.Message
	err = s.read(ctx, true, func(tx *store.Tx) error {
		chat, ok := tx.Chat(chatID)
		if !ok {
			return ErrChatNotFound
		}
		all = append([]domain.Message(nil), chat.Messages...)
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	out, total = utils.Paginate(all, page, pageSize)
	return out, total, nil
}

// Message returns one message of chatID.
func (s *ChatService) Message(ctx context.Context, chatID, messageID string) (out domain.Message, err error) {
	ctx, span := s.start(ctx, "Message", attribute.String("chat.id", chatID), attribute.String("message.id", messageID))
	defer func() { s.finish(span, "Message", err) }()

	err = s.read(ctx, false, func(tx *store.Tx) error {
		if _, ok := tx.Chat(chatID); !ok {
			return ErrChatNotFound
		}
		chat, m, ok := tx.Message(messageID)
		if !ok || chat.ID != chatID {
			return ErrMessageNotFound
		}
		out = *m
		return nil
	})
	return out, err
}

// ChatsFor returns userID's chats, most recent activity first.
func (s *ChatService) ChatsFor(ctx context.Context, userID string) (out []domain.Chat, err error) {
	ctx, span := s.start(ctx, "ChatsFor", attribute.String("user.id", userID))
	defer func() { s.finish(span, "ChatsFor", err) }()

	err = s.read(ctx, true, func(tx *store.Tx) error {
		if _, err := lookupUser(tx, userID); err != nil {
			return err
		}
		out = []domain.Chat{}
		for _, c := range tx.ChatsFor(userID) {
			out = append(out, c.Clone())
		}
		return nil
	})
	return out, err
}
