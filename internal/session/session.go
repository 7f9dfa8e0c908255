// Package session resolves the current user. The identity is persisted as a
// single key in a KV store; the user view is always rebuilt from the domain
// store, at startup and again after every change event, so it never goes
// stale. An identifier that no longer matches a user clears the session.
package session

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tbourn/go-challenge-backend/internal/bus"
	"github.com/tbourn/go-challenge-backend/internal/domain"
	"github.com/tbourn/go-challenge-backend/internal/store"
)

// UserKey is the KV key holding the session user id.
const UserKey = "user"

type ctxKey struct{}

// WithUser returns a context carrying a request-scoped identity that takes
// precedence over the persisted session user.
func WithUser(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, ctxKey{}, userID)
}

// UserFromContext returns the request-scoped identity, if any.
func UserFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(ctxKey{}).(string)
	return v, ok && v != ""
}

// Session tracks the current user.
type Session struct {
	kv    KV
	store *store.Store
	bus   *bus.Bus
	log   zerolog.Logger

	mu      sync.RWMutex
	current *domain.User

	unsubscribe func()
}

// New builds a Session and subscribes it to the bus. Call Resolve once at
// startup to load the persisted identity.
func New(kv KV, st *store.Store, b *bus.Bus, log zerolog.Logger) *Session {
	s := &Session{
		kv:    kv,
		store: st,
		bus:   b,
		log:   log.With().Str("component", "session").Logger(),
	}
	s.unsubscribe = b.Subscribe(func(e domain.Event) {
		if e.Kind == domain.EventSessionChanged {
			return
		}
		s.Resolve(context.Background())
	})
	return s
}

// Close detaches the session from the bus.
func (s *Session) Close() { s.unsubscribe() }

// Resolve re-reads the persisted id and rebuilds the user view. It never
// fails: storage errors are logged and leave the session logged out.
func (s *Session) Resolve(ctx context.Context) (domain.User, bool) {
	id, ok, err := s.kv.Get(ctx, UserKey)
	if err != nil {
		s.log.Warn().Err(err).Msg("session key unreadable")
		ok = false
	}
	id = strings.TrimSpace(id)

	var next *domain.User
	if ok && id != "" {
		if u, found := s.store.User(id); found {
			next = &u
		} else {
			s.log.Info().Str("user_id", id).Msg("session user vanished, clearing session")
			if err := s.kv.Delete(ctx, UserKey); err != nil {
				s.log.Warn().Err(err).Msg("clear session key")
			}
		}
	}

	s.mu.Lock()
	changed := identity(s.current) != identity(next)
	s.current = next
	s.mu.Unlock()

	if changed {
		s.bus.Publish(domain.Event{Kind: domain.EventSessionChanged, UserID: identity(next), At: s.now()})
	}
	if next == nil {
		return domain.User{}, false
	}
	return next.Clone(), true
}

// Login persists userID as the session user.
func (s *Session) Login(ctx context.Context, userID string) (domain.User, error) {
	userID = strings.TrimSpace(userID)
	if _, ok := s.store.User(userID); !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	if err := s.kv.Set(ctx, UserKey, userID); err != nil {
		return domain.User{}, err
	}
	u, _ := s.Resolve(ctx)
	return u, nil
}

// Logout clears the persisted identity.
func (s *Session) Logout(ctx context.Context) error {
	if err := s.kv.Delete(ctx, UserKey); err != nil {
		return err
	}
	s.Resolve(ctx)
	return nil
}

// Current returns a copy of the resolved session user.
func (s *Session) Current() (domain.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return domain.User{}, false
	}
	return s.current.Clone(), true
}

// UserID returns the acting user for ctx: the request-scoped identity when
// present, otherwise the persisted session user.
func (s *Session) UserID(ctx context.Context) (string, bool) {
	if id, ok := UserFromContext(ctx); ok {
		return id, true
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return "", false
	}
	return s.current.ID, true
}

func (s *Session) now() (t time.Time) {
	s.store.View(func(tx *store.Tx) { t = tx.Now() })
	return t
}

func identity(u *domain.User) string {
	if u == nil {
		return ""
	}
	return u.ID
}
