// Package services – FriendService
//
// FriendService maintains the symmetric friendship relation and the request
// flow that establishes it. Request records are the source of truth for
// pending state; the sent/received sets on each user mirror them and are
// updated in the same store transaction.
package services

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"github.com/tbourn/go-challenge-backend/internal/domain"
	"github.com/tbourn/go-challenge-backend/internal/store"
)

// Friendship is the relation of one user to another, seen from the first.
type Friendship string

const (
	FriendshipNone     Friendship = "none"
	FriendshipFriends  Friendship = "friends"
	FriendshipPending  Friendship = "pending"
	FriendshipReceived Friendship = "received"
)

// FriendshipStatus is the answer of Status. RequestID is set for pending and
// received.
type FriendshipStatus struct {
	Status    Friendship `json:"status"`
	RequestID string     `json:"requestId,omitempty"`
}

// RequestView is a friend request with a summary of the other party.
type RequestView struct {
	domain.FriendRequest
	Sender   UserSummary `json:"sender"`
	Receiver UserSummary `json:"receiver"`
}

// PendingRequests are a user's unresolved requests by direction.
type PendingRequests struct {
	Sent     []RequestView `json:"sent"`
	Received []RequestView `json:"received"`
}

// FriendService is the friends facade.
type FriendService struct {
	facade
}

// NewFriendService builds the facade.
func NewFriendService(d Deps) *FriendService {
	return &FriendService{facade: newFacade("FriendService", d)}
}

// Status reports how a relates to b. Exactly one of the four values holds.
func (s *FriendService) Status(ctx context.Context, a, b string) (out FriendshipStatus, err error) {
	ctx, span := s.start(ctx, "Status", attribute.String("user.a", a), attribute.String("user.b", b))
	defer func() { s.finish(span, "Status", err) }()

	err = s.read(ctx, true, func(tx *store.Tx) error {
		ua, err := lookupUser(tx, a)
		if err != nil {
			return err
		}
		if _, err := lookupUser(tx, b); err != nil {
			return err
		}
		out = friendship(tx, ua, b)
		return nil
	})
	return out, err
}

func friendship(tx *store.Tx, a *domain.User, b string) FriendshipStatus {
	if a.ID == b {
		return FriendshipStatus{Status: FriendshipNone}
	}
	if a.Friends.Has(b) {
		return FriendshipStatus{Status: FriendshipFriends}
	}
	if r, ok := tx.PendingRequest(a.ID, b); ok {
		return FriendshipStatus{Status: FriendshipPending, RequestID: r.ID}
	}
	if r, ok := tx.PendingRequest(b, a.ID); ok {
		return FriendshipStatus{Status: FriendshipReceived, RequestID: r.ID}
	}
	return FriendshipStatus{Status: FriendshipNone}
}

// SendRequest invites receiverID on behalf of senderID.
func (s *FriendService) SendRequest(ctx context.Context, senderID, receiverID string) (out domain.FriendRequest, err error) {
	ctx, span := s.start(ctx, "SendRequest",
		attribute.String("sender.id", senderID),
		attribute.String("receiver.id", receiverID),
	)
	defer func() { s.finish(span, "SendRequest", err) }()

	if senderID == receiverID {
		return out, ErrSelfTarget
	}
	err = s.mutate(ctx, func(tx *store.Tx) ([]domain.Event, error) {
		sender, err := lookupUser(tx, senderID)
		if err != nil {
			return nil, err
		}
		receiver, err := lookupUser(tx, receiverID)
		if err != nil {
			return nil, err
		}
		switch friendship(tx, sender, receiverID).Status {
		case FriendshipFriends:
			return nil, ErrAlreadyFriends
		case FriendshipPending, FriendshipReceived:
			return nil, ErrRequestAlreadyExists
		}

		r := tx.InsertRequest(domain.FriendRequest{
			ID:         tx.NewID(),
			SenderID:   sender.ID,
			ReceiverID: receiver.ID,
			Status:     domain.RequestPending,
			CreatedAt:  tx.Now(),
		})
		sender.FriendRequests.Sent.Add(receiver.ID)
		receiver.FriendRequests.Received.Add(sender.ID)
		out = *r

		n := notify(tx, domain.Notification{
			UserID:     receiver.ID,
			Type:       domain.NotifyFriendRequest,
			FromUserID: sender.ID,
			Content:    sender.Username + " sent you a friend request",
			Data:       domain.NotificationData{RequestID: r.ID},
		})
		return []domain.Event{
			{Kind: domain.EventFriendRequest, UserID: receiver.ID, OtherUserID: sender.ID, RequestID: r.ID},
			n,
		}, nil
	})
	if err != nil {
		return domain.FriendRequest{}, err
	}
	return out, nil
}

// AcceptRequest accepts requestID on behalf of its receiver actingUserID.
func (s *FriendService) AcceptRequest(ctx context.Context, requestID, actingUserID string) (err error) {
	ctx, span := s.start(ctx, "AcceptRequest",
		attribute.String("request.id", requestID),
		attribute.String("user.id", actingUserID),
	)
	defer func() { s.finish(span, "AcceptRequest", err) }()
	return s.resolve(ctx, requestID, actingUserID, true)
}

// RejectRequest declines requestID on behalf of its receiver actingUserID.
func (s *FriendService) RejectRequest(ctx context.Context, requestID, actingUserID string) (err error) {
	ctx, span := s.start(ctx, "RejectRequest",
		attribute.String("request.id", requestID),
		attribute.String("user.id", actingUserID),
	)
	defer func() { s.finish(span, "RejectRequest", err) }()
	return s.resolve(ctx, requestID, actingUserID, false)
}

func (s *FriendService) resolve(ctx context.Context, requestID, actingUserID string, accept bool) error {
	return s.mutate(ctx, func(tx *store.Tx) ([]domain.Event, error) {
		r, ok := tx.Request(requestID)
		if !ok || r.ReceiverID != actingUserID {
			return nil, ErrRequestNotFound
		}
		if r.Status != domain.RequestPending {
			return nil, ErrRequestNotPending
		}
		receiver, err := lookupUser(tx, r.ReceiverID)
		if err != nil {
			return nil, err
		}
		sender, err := lookupUser(tx, r.SenderID)
		if err != nil {
			return nil, err
		}

		sender.FriendRequests.Sent.Remove(receiver.ID)
		receiver.FriendRequests.Received.Remove(sender.ID)
		if !accept {
			r.Status = domain.RequestRejected
			return []domain.Event{{Kind: domain.EventFriendRequest, UserID: sender.ID, OtherUserID: receiver.ID, RequestID: r.ID}}, nil
		}

		r.Status = domain.RequestAccepted
		sender.Friends.Add(receiver.ID)
		receiver.Friends.Add(sender.ID)
		n := notify(tx, domain.Notification{
			UserID:     sender.ID,
			Type:       domain.NotifyFriendAccepted,
			FromUserID: receiver.ID,
			Content:    receiver.Username + " accepted your friend request",
			Data:       domain.NotificationData{RequestID: r.ID},
		})
		return []domain.Event{
			{Kind: domain.EventFriendChanged, UserID: receiver.ID, OtherUserID: sender.ID, RequestID: r.ID},
			n,
		}, nil
	})
}

// RemoveFriend ends the friendship of a and b. It is idempotent and tolerates
// a user that no longer exists.
func (s *FriendService) RemoveFriend(ctx context.Context, a, b string) (err error) {
	ctx, span := s.start(ctx, "RemoveFriend", attribute.String("user.a", a), attribute.String("user.b", b))
	defer func() { s.finish(span, "RemoveFriend", err) }()

	return s.mutate(ctx, func(tx *store.Tx) ([]domain.Event, error) {
		changed := false
		if ua, ok := tx.User(a); ok {
			changed = ua.Friends.Remove(b) || changed
		}
		if ub, ok := tx.User(b); ok {
			changed = ub.Friends.Remove(a) || changed
		}
		if !changed {
			return nil, nil
		}
		return []domain.Event{{Kind: domain.EventFriendChanged, UserID: a, OtherUserID: b}}, nil
	})
}

// Friends returns the users userID is friends with.
func (s *FriendService) Friends(ctx context.Context, userID string) (out []domain.User, err error) {
	ctx, span := s.start(ctx, "Friends", attribute.String("user.id", userID))
	defer func() { s.finish(span, "Friends", err) }()

	err = s.read(ctx, true, func(tx *store.Tx) error {
		u, err := lookupUser(tx, userID)
		if err != nil {
			return err
		}
		out = make([]domain.User, 0, len(u.Friends))
		for _, id := range u.Friends {
			if f, ok := tx.User(id); ok {
				out = append(out, f.Clone())
			}
		}
		return nil
	})
	return out, err
}

// PendingRequests returns userID's unresolved requests in both directions.
func (s *FriendService) PendingRequests(ctx context.Context, userID string) (out PendingRequests, err error) {
	ctx, span := s.start(ctx, "PendingRequests", attribute.String("user.id", userID))
	defer func() { s.finish(span, "PendingRequests", err) }()

	err = s.read(ctx, true, func(tx *store.Tx) error {
		if _, err := lookupUser(tx, userID); err != nil {
			return err
		}
		out.Sent = []RequestView{}
		out.Received = []RequestView{}
		for _, r := range tx.Requests(func(r *domain.FriendRequest) bool { return r.Status == domain.RequestPending }) {
			v := RequestView{FriendRequest: *r, Sender: summary(tx, r.SenderID), Receiver: summary(tx, r.ReceiverID)}
			switch userID {
			case r.SenderID:
				out.Sent = append(out.Sent, v)
			case r.ReceiverID:
				out.Received = append(out.Received, v)
			}
		}
		return nil
	})
	return out, err
}
