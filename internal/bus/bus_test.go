package bus

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/tbourn/go-challenge-backend/internal/domain"
)

func TestPublish_SubscriptionOrder(t *testing.T) {
	b := New(zerolog.Nop())
	var got []string
	b.Subscribe(func(domain.Event) { got = append(got, "first") })
	b.Subscribe(func(domain.Event) { got = append(got, "second") })
	b.Subscribe(func(domain.Event) { got = append(got, "third") })

	b.Publish(domain.Event{Kind: domain.EventChallengeUpdated, ChallengeID: "1"})
	require.Equal(t, []string{"first", "second", "third"}, got)
}

func TestPublish_FilterByKind(t *testing.T) {
	b := New(zerolog.Nop())
	var friends, all int
	b.Subscribe(func(domain.Event) { friends++ }, domain.EventFriendChanged)
	b.Subscribe(func(domain.Event) { all++ })

	b.Publish(domain.Event{Kind: domain.EventChallengeUpdated})
	b.Publish(domain.Event{Kind: domain.EventFriendChanged, UserID: "a"})

	require.Equal(t, 1, friends)
	require.Equal(t, 2, all)
}

func TestUnsubscribe_Idempotent(t *testing.T) {
	b := New(zerolog.Nop())
	n := 0
	unsub := b.Subscribe(func(domain.Event) { n++ })
	b.Subscribe(func(domain.Event) {})
	require.Equal(t, 2, b.Len())

	unsub()
	unsub()
	require.Equal(t, 1, b.Len())

	b.Publish(domain.Event{Kind: domain.EventMessageSent})
	require.Zero(t, n)
}

func TestObserverMayReenterBus(t *testing.T) {
	b := New(zerolog.Nop())
	var seen []domain.EventKind
	b.Subscribe(func(e domain.Event) {
		seen = append(seen, e.Kind)
		if e.Kind == domain.EventFriendChanged {
			b.Publish(domain.Event{Kind: domain.EventSessionChanged})
		}
	})
	b.Publish(domain.Event{Kind: domain.EventFriendChanged})
	require.Equal(t, []domain.EventKind{domain.EventFriendChanged, domain.EventSessionChanged}, seen)
}

func TestPanickingObserverDoesNotStopDelivery(t *testing.T) {
	b := New(zerolog.Nop())
	reached := false
	b.Subscribe(func(domain.Event) { panic("boom") })
	b.Subscribe(func(domain.Event) { reached = true })

	require.NotPanics(t, func() { b.Publish(domain.Event{Kind: domain.EventCommentAdded}) })
	require.True(t, reached)
}

func TestPublish_CountsByKind(t *testing.T) {
	b := New(zerolog.Nop())
	before := testutil.ToFloat64(observed.WithLabelValues(string(domain.EventChallengeLiked)))
	b.Publish(domain.Event{Kind: domain.EventChallengeLiked})
	after := testutil.ToFloat64(observed.WithLabelValues(string(domain.EventChallengeLiked)))
	require.Equal(t, before+1, after)
}
