package store

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tbourn/go-challenge-backend/internal/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	var mu sync.Mutex
	n := 0
	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	return New(
		WithClock(func() time.Time { return fixed }),
		WithIDGenerator(func() string {
			mu.Lock()
			defer mu.Unlock()
			n++
			return fmt.Sprintf("id-%d", n)
		}),
	)
}

func TestSeed_LoadsUsersChallengesAndComments(t *testing.T) {
	s := newTestStore(t)
	s.Seed()

	users := s.Users()
	require.Len(t, users, 6)

	c, ok := s.Challenge("1")
	require.True(t, ok)
	require.Equal(t, 500, c.Points)
	require.Equal(t, "user1", c.CreatorID)
	require.NotNil(t, c.TimeLimit)
	require.Equal(t, 720, *c.TimeLimit)

	u1, ok := s.User("user1")
	require.True(t, ok)
	require.ElementsMatch(t, []string{"1", "7"}, []string(u1.Created))
	require.Zero(t, u1.Points)

	s.View(func(tx *Tx) {
		require.Len(t, tx.Challenges(), 7)
		require.Len(t, tx.CommentsFor("1"), 2)
	})
}

func TestGetters_ReturnCopies(t *testing.T) {
	s := newTestStore(t)
	s.Seed()

	u, ok := s.User("user2")
	require.True(t, ok)
	u.Friends.Add("user3")
	u.Points = 99

	again, _ := s.User("user2")
	require.False(t, again.Friends.Has("user3"))
	require.Zero(t, again.Points)

	_, ok = s.User("ghost")
	require.False(t, ok, "missing id is a normal not-found result")
}

func TestUpdate_ErrorIsReturned(t *testing.T) {
	s := newTestStore(t)
	boom := errors.New("boom")
	err := s.Update(func(tx *Tx) error { return boom })
	require.ErrorIs(t, err, boom)
}

func TestUpdate_SerializesConcurrentWriters(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Update(func(tx *Tx) error {
		tx.InsertChallenge(domain.Challenge{ID: "c", Points: 1})
		return nil
	}))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Update(func(tx *Tx) error {
				c, _ := tx.Challenge("c")
				c.LikesCount++
				return nil
			})
		}()
	}
	wg.Wait()

	c, _ := s.Challenge("c")
	require.Equal(t, 50, c.LikesCount)
}

func TestChatMessages_IndexAndOrder(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Update(func(tx *Tx) error {
		chat := tx.InsertChat(domain.Chat{ID: domain.ChatKey("a", "b"), Participants: [2]string{"a", "b"}})
		tx.AppendMessage(chat, domain.Message{ID: "m1", ChatID: chat.ID, Content: "first"})
		tx.AppendMessage(chat, domain.Message{ID: "m2", ChatID: chat.ID, Content: "second"})
		return nil
	}))

	s.View(func(tx *Tx) {
		chat, msg, ok := tx.Message("m2")
		require.True(t, ok)
		require.Equal(t, "second", msg.Content)
		require.Equal(t, []string{"m1", "m2"}, []string{chat.Messages[0].ID, chat.Messages[1].ID})

		_, _, ok = tx.Message("nope")
		require.False(t, ok)

		require.Len(t, tx.ChatsFor("a"), 1)
		require.Empty(t, tx.ChatsFor("z"))
	})
}

func TestRequests_PendingLookup(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Update(func(tx *Tx) error {
		tx.InsertRequest(domain.FriendRequest{ID: "r1", SenderID: "a", ReceiverID: "b", Status: domain.RequestRejected})
		tx.InsertRequest(domain.FriendRequest{ID: "r2", SenderID: "a", ReceiverID: "b", Status: domain.RequestPending})
		return nil
	}))
	s.View(func(tx *Tx) {
		r, ok := tx.PendingRequest("a", "b")
		require.True(t, ok)
		require.Equal(t, "r2", r.ID)
		_, ok = tx.PendingRequest("b", "a")
		require.False(t, ok)
	})
}

func TestNotifications_NewestFirst(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Update(func(tx *Tx) error {
		tx.InsertNotification(domain.Notification{ID: "n1", UserID: "u"})
		tx.InsertNotification(domain.Notification{ID: "n2", UserID: "u"})
		tx.InsertNotification(domain.Notification{ID: "n3", UserID: "other"})
		return nil
	}))
	s.View(func(tx *Tx) {
		ns := tx.NotificationsFor("u")
		require.Len(t, ns, 2)
		require.Equal(t, "n2", ns[0].ID)
	})
}

func TestRemoveUserAndComment(t *testing.T) {
	s := newTestStore(t)
	s.Seed()
	require.NoError(t, s.Update(func(tx *Tx) error {
		require.True(t, tx.RemoveUser("user5"))
		require.False(t, tx.RemoveUser("user5"))
		require.True(t, tx.RemoveComment("1"))
		return nil
	}))
	_, ok := s.User("user5")
	require.False(t, ok)
	require.Len(t, s.Users(), 5)
	s.View(func(tx *Tx) { require.Len(t, tx.CommentsFor("1"), 1) })
}

func TestLatestCompletion(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Update(func(tx *Tx) error {
		tx.InsertCompletion(domain.Completion{ID: "c1", UserID: "u", ChallengeID: "1", Status: domain.CompletionRejected})
		tx.InsertCompletion(domain.Completion{ID: "c2", UserID: "u", ChallengeID: "1", Status: domain.CompletionPending})
		return nil
	}))
	s.View(func(tx *Tx) {
		c, ok := tx.LatestCompletion("u", "1")
		require.True(t, ok)
		require.Equal(t, "c2", c.ID)
		require.Len(t, tx.Completions(func(c *domain.Completion) bool { return c.ChallengeID == "1" }), 2)
	})
}
