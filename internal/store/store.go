// Package store is the in-memory domain store: the single authoritative copy
// of users, challenges, completions, friend requests, chats, notifications
// and comments for the lifetime of the process.
//
// Reads go through View (or the copying getters built on it); writes go
// through Update, which holds the write lock for the whole closure so a facade
// body that touches several records is observed as one indivisible change.
// Nothing outside this package can reach the maps without a Tx.
package store

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tbourn/go-challenge-backend/internal/domain"
)

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source (tests).
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator overrides the identifier source (tests).
func WithIDGenerator(next func() string) Option {
	return func(s *Store) {
		if next != nil {
			s.newID = next
		}
	}
}

// Store holds the canonical collections. The zero value is not usable; call New.
type Store struct {
	mu sync.RWMutex

	users       map[string]*domain.User
	userOrder   []string
	challenges  map[string]*domain.Challenge
	chOrder     []string
	completions map[string]*domain.Completion
	cmplOrder   []string
	requests    map[string]*domain.FriendRequest
	reqOrder    []string
	chats       map[string]*domain.Chat
	msgIndex    map[string]string // message id -> chat id
	notes       map[string]*domain.Notification
	noteOrder   []string
	comments    map[string]*domain.Comment
	cmtOrder    []string

	now   func() time.Time
	newID func() string
}

// New returns an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		users:       make(map[string]*domain.User),
		challenges:  make(map[string]*domain.Challenge),
		completions: make(map[string]*domain.Completion),
		requests:    make(map[string]*domain.FriendRequest),
		chats:       make(map[string]*domain.Chat),
		msgIndex:    make(map[string]string),
		notes:       make(map[string]*domain.Notification),
		comments:    make(map[string]*domain.Comment),
		now:         func() time.Time { return time.Now().UTC() },
		newID:       uuid.NewString,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Update runs fn with exclusive access. Facades validate before mutating, so
// a returned error means nothing was changed.
func (s *Store) Update(fn func(tx *Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&Tx{s: s})
}

// View runs fn with shared access. fn must not mutate what it reads.
func (s *Store) View(fn func(tx *Tx)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(&Tx{s: s})
}

// User returns a copy of the user with id.
func (s *Store) User(id string) (u domain.User, ok bool) {
	s.View(func(tx *Tx) {
		var p *domain.User
		if p, ok = tx.User(id); ok {
			u = p.Clone()
		}
	})
	return u, ok
}

// Challenge returns a copy of the challenge with id.
func (s *Store) Challenge(id string) (c domain.Challenge, ok bool) {
	s.View(func(tx *Tx) {
		var p *domain.Challenge
		if p, ok = tx.Challenge(id); ok {
			c = p.Clone()
		}
	})
	return c, ok
}

// Chat returns a copy of the chat with id.
func (s *Store) Chat(id string) (c domain.Chat, ok bool) {
	s.View(func(tx *Tx) {
		var p *domain.Chat
		if p, ok = tx.Chat(id); ok {
			c = p.Clone()
		}
	})
	return c, ok
}

// Completion returns a copy of the completion with id.
func (s *Store) Completion(id string) (c domain.Completion, ok bool) {
	s.View(func(tx *Tx) {
		var p *domain.Completion
		if p, ok = tx.Completion(id); ok {
			c = p.Clone()
		}
	})
	return c, ok
}

// FriendRequest returns a copy of the request with id.
func (s *Store) FriendRequest(id string) (r domain.FriendRequest, ok bool) {
	s.View(func(tx *Tx) {
		var p *domain.FriendRequest
		if p, ok = tx.Request(id); ok {
			r = *p
		}
	})
	return r, ok
}

// Users returns copies of all users in insertion order.
func (s *Store) Users() []domain.User {
	var out []domain.User
	s.View(func(tx *Tx) {
		for _, u := range tx.Users() {
			out = append(out, u.Clone())
		}
	})
	return out
}

// Tx is the access handle passed to Update and View closures. Pointers it
// returns alias store records and must not escape the closure.
type Tx struct{ s *Store }

// Now is the store clock.
func (tx *Tx) Now() time.Time { return tx.s.now() }

// NewID returns a fresh identifier.
func (tx *Tx) NewID() string { return tx.s.newID() }

// --- users ---

func (tx *Tx) User(id string) (*domain.User, bool) {
	u, ok := tx.s.users[id]
	return u, ok
}

// PutUser inserts or replaces a user.
func (tx *Tx) PutUser(u domain.User) *domain.User {
	if _, exists := tx.s.users[u.ID]; !exists {
		tx.s.userOrder = append(tx.s.userOrder, u.ID)
	}
	p := &u
	tx.s.users[u.ID] = p
	return p
}

// RemoveUser deletes a user record. References held by other records are left
// in place; readers treat dangling ids as "not found".
func (tx *Tx) RemoveUser(id string) bool {
	if _, ok := tx.s.users[id]; !ok {
		return false
	}
	delete(tx.s.users, id)
	tx.s.userOrder = removeID(tx.s.userOrder, id)
	return true
}

func (tx *Tx) Users() []*domain.User {
	out := make([]*domain.User, 0, len(tx.s.userOrder))
	for _, id := range tx.s.userOrder {
		out = append(out, tx.s.users[id])
	}
	return out
}

// --- challenges ---

func (tx *Tx) Challenge(id string) (*domain.Challenge, bool) {
	c, ok := tx.s.challenges[id]
	return c, ok
}

func (tx *Tx) InsertChallenge(c domain.Challenge) *domain.Challenge {
	if _, exists := tx.s.challenges[c.ID]; !exists {
		tx.s.chOrder = append(tx.s.chOrder, c.ID)
	}
	p := &c
	tx.s.challenges[c.ID] = p
	return p
}

// Challenges returns every challenge in creation order.
func (tx *Tx) Challenges() []*domain.Challenge {
	out := make([]*domain.Challenge, 0, len(tx.s.chOrder))
	for _, id := range tx.s.chOrder {
		out = append(out, tx.s.challenges[id])
	}
	return out
}

// ChallengePoints adapts the challenge collection to a points lookup.
func (tx *Tx) ChallengePoints(id string) (int, bool) {
	c, ok := tx.s.challenges[id]
	if !ok {
		return 0, false
	}
	return c.Points, true
}

// --- completions ---

func (tx *Tx) Completion(id string) (*domain.Completion, bool) {
	c, ok := tx.s.completions[id]
	return c, ok
}

func (tx *Tx) InsertCompletion(c domain.Completion) *domain.Completion {
	if _, exists := tx.s.completions[c.ID]; !exists {
		tx.s.cmplOrder = append(tx.s.cmplOrder, c.ID)
	}
	p := &c
	tx.s.completions[c.ID] = p
	return p
}

// Completions returns the completions matching filter in submission order.
// A nil filter matches everything.
func (tx *Tx) Completions(filter func(*domain.Completion) bool) []*domain.Completion {
	var out []*domain.Completion
	for _, id := range tx.s.cmplOrder {
		c := tx.s.completions[id]
		if filter == nil || filter(c) {
			out = append(out, c)
		}
	}
	return out
}

// LatestCompletion returns the most recent completion of challengeID by userID.
func (tx *Tx) LatestCompletion(userID, challengeID string) (*domain.Completion, bool) {
	for i := len(tx.s.cmplOrder) - 1; i >= 0; i-- {
		c := tx.s.completions[tx.s.cmplOrder[i]]
		if c.UserID == userID && c.ChallengeID == challengeID {
			return c, true
		}
	}
	return nil, false
}

// --- friend requests ---

func (tx *Tx) Request(id string) (*domain.FriendRequest, bool) {
	r, ok := tx.s.requests[id]
	return r, ok
}

func (tx *Tx) InsertRequest(r domain.FriendRequest) *domain.FriendRequest {
	if _, exists := tx.s.requests[r.ID]; !exists {
		tx.s.reqOrder = append(tx.s.reqOrder, r.ID)
	}
	p := &r
	tx.s.requests[r.ID] = p
	return p
}

// PendingRequest finds the unresolved request from sender to receiver.
func (tx *Tx) PendingRequest(senderID, receiverID string) (*domain.FriendRequest, bool) {
	for _, id := range tx.s.reqOrder {
		r := tx.s.requests[id]
		if r.Status == domain.RequestPending && r.SenderID == senderID && r.ReceiverID == receiverID {
			return r, true
		}
	}
	return nil, false
}

// Requests returns the requests matching filter in creation order.
func (tx *Tx) Requests(filter func(*domain.FriendRequest) bool) []*domain.FriendRequest {
	var out []*domain.FriendRequest
	for _, id := range tx.s.reqOrder {
		r := tx.s.requests[id]
		if filter == nil || filter(r) {
			out = append(out, r)
		}
	}
	return out
}

// --- chats ---

func (tx *Tx) Chat(id string) (*domain.Chat, bool) {
	c, ok := tx.s.chats[id]
	return c, ok
}

func (tx *Tx) InsertChat(c domain.Chat) *domain.Chat {
	p := &c
	tx.s.chats[c.ID] = p
	for _, m := range c.Messages {
		tx.s.msgIndex[m.ID] = c.ID
	}
	return p
}

// AppendMessage adds m to the end of the chat's sequence and indexes it.
func (tx *Tx) AppendMessage(chat *domain.Chat, m domain.Message) *domain.Message {
	chat.Messages = append(chat.Messages, m)
	tx.s.msgIndex[m.ID] = chat.ID
	return &chat.Messages[len(chat.Messages)-1]
}

// Message resolves a message id to its chat and position.
func (tx *Tx) Message(id string) (*domain.Chat, *domain.Message, bool) {
	chatID, ok := tx.s.msgIndex[id]
	if !ok {
		return nil, nil, false
	}
	chat := tx.s.chats[chatID]
	for i := range chat.Messages {
		if chat.Messages[i].ID == id {
			return chat, &chat.Messages[i], true
		}
	}
	return nil, nil, false
}

// ChatsFor returns the chats userID participates in, most recent activity first.
func (tx *Tx) ChatsFor(userID string) []*domain.Chat {
	var out []*domain.Chat
	for _, c := range tx.s.chats {
		if c.Has(userID) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		ti, tj := lastActivity(out[i]), lastActivity(out[j])
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func lastActivity(c *domain.Chat) time.Time {
	if c.LastMessage != nil {
		return c.LastMessage.CreatedAt
	}
	return c.CreatedAt
}

// --- notifications ---

func (tx *Tx) InsertNotification(n domain.Notification) *domain.Notification {
	if _, exists := tx.s.notes[n.ID]; !exists {
		tx.s.noteOrder = append(tx.s.noteOrder, n.ID)
	}
	p := &n
	tx.s.notes[n.ID] = p
	return p
}

// NotificationsFor returns userID's notifications, newest first.
func (tx *Tx) NotificationsFor(userID string) []*domain.Notification {
	var out []*domain.Notification
	for i := len(tx.s.noteOrder) - 1; i >= 0; i-- {
		n := tx.s.notes[tx.s.noteOrder[i]]
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out
}

// --- comments ---

func (tx *Tx) Comment(id string) (*domain.Comment, bool) {
	c, ok := tx.s.comments[id]
	return c, ok
}

func (tx *Tx) InsertComment(c domain.Comment) *domain.Comment {
	if _, exists := tx.s.comments[c.ID]; !exists {
		tx.s.cmtOrder = append(tx.s.cmtOrder, c.ID)
	}
	p := &c
	tx.s.comments[c.ID] = p
	return p
}

// RemoveComment deletes a comment.
func (tx *Tx) RemoveComment(id string) bool {
	if _, ok := tx.s.comments[id]; !ok {
		return false
	}
	delete(tx.s.comments, id)
	tx.s.cmtOrder = removeID(tx.s.cmtOrder, id)
	return true
}

// CommentsFor returns the comments on challengeID in creation order.
func (tx *Tx) CommentsFor(challengeID string) []*domain.Comment {
	var out []*domain.Comment
	for _, id := range tx.s.cmtOrder {
		c := tx.s.comments[id]
		if c.ChallengeID == challengeID {
			out = append(out, c)
		}
	}
	return out
}

func removeID(ids []string, id string) []string {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}
