package services

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"github.com/tbourn/go-challenge-backend/internal/domain"
	"github.com/tbourn/go-challenge-backend/internal/store"
)

// NotificationService reads and acknowledges notifications. Notifications are
// only ever created by the friend and chat facades.
type NotificationService struct {
	facade
}

// NewNotificationService builds the facade.
func NewNotificationService(d Deps) *NotificationService {
	return &NotificationService{facade: newFacade("NotificationService", d)}
}

// UnreadCount returns the number of unread notifications for userID.
func (s *NotificationService) UnreadCount(ctx context.Context, userID string) (n int, err error) {
	ctx, span := s.start(ctx, "UnreadCount", attribute.String("user.id", userID))
	defer func() { s.finish(span, "UnreadCount", err) }()

	err = s.read(ctx, true, func(tx *store.Tx) error {
		if _, err := lookupUser(tx, userID); err != nil {
			return err
		}
		for _, note := range tx.NotificationsFor(userID) {
			if !note.IsRead {
				n++
			}
		}
		return nil
	})
	return n, err
}

// List returns userID's notifications, newest first. unreadOnly drops the
// acknowledged ones.
func (s *NotificationService) List(ctx context.Context, userID string, unreadOnly bool) (out []domain.Notification, err error) {
	ctx, span := s.start(ctx, "List", attribute.String("user.id", userID), attribute.Bool("unread_only", unreadOnly))
	defer func() { s.finish(span, "List", err) }()

	err = s.read(ctx, true, func(tx *store.Tx) error {
		if _, err := lookupUser(tx, userID); err != nil {
			return err
		}
		out = []domain.Notification{}
		for _, note := range tx.NotificationsFor(userID) {
			if unreadOnly && note.IsRead {
				continue
			}
			out = append(out, *note)
		}
		return nil
	})
	return out, err
}

// MarkAllRead acknowledges every notification of userID and returns how many
// changed.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) (n int, err error) {
	ctx, span := s.start(ctx, "MarkAllRead", attribute.String("user.id", userID))
	defer func() { s.finish(span, "MarkAllRead", err) }()

	err = s.mutate(ctx, func(tx *store.Tx) ([]domain.Event, error) {
		if _, err := lookupUser(tx, userID); err != nil {
			return nil, err
		}
		for _, note := range tx.NotificationsFor(userID) {
			if !note.IsRead {
				note.IsRead = true
				n++
			}
		}
		if n == 0 {
			return nil, nil
		}
		return []domain.Event{{Kind: domain.EventNotificationsRead, UserID: userID}}, nil
	})
	return n, err
}
