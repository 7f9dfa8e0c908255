package services

import (
	"context"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tbourn/go-challenge-backend/internal/domain"
	"github.com/tbourn/go-challenge-backend/internal/store"
)

func TestFriendRequest_AcceptMakesBothFriends(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	r, err := e.friends.SendRequest(ctx, "user1", "user2")
	require.NoError(t, err)
	require.Equal(t, domain.RequestPending, r.Status)

	ab, _ := e.friends.Status(ctx, "user1", "user2")
	ba, _ := e.friends.Status(ctx, "user2", "user1")
	require.Equal(t, FriendshipStatus{Status: FriendshipPending, RequestID: r.ID}, ab)
	require.Equal(t, FriendshipStatus{Status: FriendshipReceived, RequestID: r.ID}, ba)
	require.True(t, e.user(t, "user1").FriendRequests.Sent.Has("user2"))
	require.True(t, e.user(t, "user2").FriendRequests.Received.Has("user1"))

	n, _ := e.notifications.List(ctx, "user2", false)
	require.Len(t, n, 1)
	require.Equal(t, domain.NotifyFriendRequest, n[0].Type)
	require.Equal(t, r.ID, n[0].Data.RequestID)

	require.NoError(t, e.friends.AcceptRequest(ctx, r.ID, "user2"))

	ab, _ = e.friends.Status(ctx, "user1", "user2")
	ba, _ = e.friends.Status(ctx, "user2", "user1")
	require.Equal(t, FriendshipFriends, ab.Status)
	require.Equal(t, FriendshipFriends, ba.Status)
	require.Empty(t, e.user(t, "user1").FriendRequests.Sent)
	require.Empty(t, e.user(t, "user2").FriendRequests.Received)

	n, _ = e.notifications.List(ctx, "user1", false)
	require.Len(t, n, 1)
	require.Equal(t, domain.NotifyFriendAccepted, n[0].Type)
	require.Equal(t, "user2", n[0].FromUserID)

	friends, err := e.friends.Friends(ctx, "user1")
	require.NoError(t, err)
	require.Len(t, friends, 1)
	require.Equal(t, "user2", friends[0].ID)

	require.Equal(t, []domain.EventKind{
		domain.EventFriendRequest, domain.EventNotificationCreated,
		domain.EventFriendChanged, domain.EventNotificationCreated,
	}, e.kinds())
	requireInvariants(t, e.store)
}

func TestFriendRequest_DuplicatesAreRejected(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.friends.SendRequest(ctx, "user1", "user3")
	require.NoError(t, err)

	_, err = e.friends.SendRequest(ctx, "user1", "user3")
	require.ErrorIs(t, err, ErrRequestAlreadyExists)
	require.Equal(t, domain.KindInvalidState, domain.KindOf(err))

	_, err = e.friends.SendRequest(ctx, "user3", "user1")
	require.ErrorIs(t, err, ErrRequestAlreadyExists, "a pending request in the other direction also blocks")

	p, err := e.friends.PendingRequests(ctx, "user1")
	require.NoError(t, err)
	require.Len(t, p.Sent, 1)
	require.Empty(t, p.Received)
	require.Equal(t, "TechMaster", p.Sent[0].Sender.Username)
	require.Equal(t, "FitnessPro", p.Sent[0].Receiver.Username)

	_, err = e.friends.SendRequest(ctx, "user1", "user1")
	require.ErrorIs(t, err, ErrSelfTarget)
	_, err = e.friends.SendRequest(ctx, "user1", "nobody")
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestFriendRequest_AlreadyFriends(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	r, _ := e.friends.SendRequest(ctx, "user4", "user5")
	require.NoError(t, e.friends.AcceptRequest(ctx, r.ID, "user5"))

	_, err := e.friends.SendRequest(ctx, "user5", "user4")
	require.ErrorIs(t, err, ErrAlreadyFriends)
}

func TestAcceptReject_Guards(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	r, _ := e.friends.SendRequest(ctx, "user1", "user2")

	require.ErrorIs(t, e.friends.AcceptRequest(ctx, r.ID, "user1"), ErrRequestNotFound, "sender cannot accept")
	require.ErrorIs(t, e.friends.AcceptRequest(ctx, "missing", "user2"), ErrRequestNotFound)

	require.NoError(t, e.friends.RejectRequest(ctx, r.ID, "user2"))
	st, _ := e.friends.Status(ctx, "user1", "user2")
	require.Equal(t, FriendshipNone, st.Status)
	require.Empty(t, e.user(t, "user1").Friends)

	err := e.friends.AcceptRequest(ctx, r.ID, "user2")
	require.ErrorIs(t, err, ErrRequestNotPending)
	require.Equal(t, domain.KindInvalidState, domain.KindOf(err))

	// rejection allows a fresh request
	_, err = e.friends.SendRequest(ctx, "user2", "user1")
	require.NoError(t, err)
}

func TestRemoveFriend_Idempotent(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	r, _ := e.friends.SendRequest(ctx, "user1", "user2")
	require.NoError(t, e.friends.AcceptRequest(ctx, r.ID, "user2"))
	e.reset()

	require.NoError(t, e.friends.RemoveFriend(ctx, "user2", "user1"))
	require.NoError(t, e.friends.RemoveFriend(ctx, "user2", "user1"))
	require.NoError(t, e.friends.RemoveFriend(ctx, "user2", "ghost"))
	require.Equal(t, []domain.EventKind{domain.EventFriendChanged}, e.kinds())

	st, _ := e.friends.Status(ctx, "user1", "user2")
	require.Equal(t, FriendshipNone, st.Status)
	requireInvariants(t, e.store)
}

func TestFriendship_RandomOperationsKeepInvariants(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	users := []string{"user1", "user2", "user3", "user4", "user5", store.CurrentUserID}
	rng := rand.New(rand.NewPCG(7, 11))

	for i := 0; i < 300; i++ {
		a := users[rng.IntN(len(users))]
		b := users[rng.IntN(len(users))]
		switch rng.IntN(4) {
		case 0:
			_, _ = e.friends.SendRequest(ctx, a, b)
		case 1, 2:
			if st, err := e.friends.Status(ctx, a, b); err == nil && st.Status == FriendshipReceived {
				if rng.IntN(2) == 0 {
					require.NoError(t, e.friends.AcceptRequest(ctx, st.RequestID, a))
				} else {
					require.NoError(t, e.friends.RejectRequest(ctx, st.RequestID, a))
				}
			}
		case 3:
			require.NoError(t, e.friends.RemoveFriend(ctx, a, b))
		}

		requireInvariants(t, e.store)
		// exactly one relation holds, and it mirrors from the other side
		ab, err := e.friends.Status(ctx, a, b)
		require.NoError(t, err)
		ba, err := e.friends.Status(ctx, b, a)
		require.NoError(t, err)
		mirror := map[Friendship]Friendship{
			FriendshipNone:     FriendshipNone,
			FriendshipFriends:  FriendshipFriends,
			FriendshipPending:  FriendshipReceived,
			FriendshipReceived: FriendshipPending,
		}
		if a != b {
			require.Equal(t, mirror[ab.Status], ba.Status, "%s/%s", a, b)
		}
	}
}

func TestFriendReads_UnknownUser(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	_, err := e.friends.Friends(ctx, "ghost")
	require.ErrorIs(t, err, ErrUserNotFound)
	_, err = e.friends.PendingRequests(ctx, "ghost")
	require.ErrorIs(t, err, ErrUserNotFound)
	_, err = e.friends.Status(ctx, "user1", "ghost")
	require.ErrorIs(t, err, ErrUserNotFound)
}
