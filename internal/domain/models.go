// Package domain defines the entities of the challenge application: users,
// challenges, proof submissions (completions), friend requests, chats,
// messages, notifications and comments. The types are plain values owned by
// the in-memory store; handlers and observers only ever see copies.
package domain

import (
	"time"
)

// Difficulty grades a challenge.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
)

// Valid reports whether d is one of the known grades.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// FriendRequests groups the pending request identifiers on a user, split by
// direction. The values are user ids of the other party.
type FriendRequests struct {
	Sent     IDSet `json:"sent"`
	Received IDSet `json:"received"`
}

// User is a participant of the application.
//
// Fields:
//   - Points: derived from Completed; never written except by a recompute.
//   - Active / Pending / Completed: challenge ids by lifecycle stage. An id
//     lives in at most one of the three.
//   - Created: challenges authored by this user.
//   - Favorites: saved challenge ids (the single source of truth for favorites).
//   - Friends: symmetric friendship set.
//   - ReceivedChallenges: challenge ids shared with this user through chat.
type User struct {
	ID                 string         `json:"id"`
	Username           string         `json:"username"`
	FullName           string         `json:"fullName"`
	AvatarURL          string         `json:"avatarUrl,omitempty"`
	Points             int            `json:"points"`
	Active             IDSet          `json:"activeChallenges"`
	Pending            IDSet          `json:"pendingChallenges"`
	Completed          IDSet          `json:"completedChallenges"`
	Created            IDSet          `json:"createdChallenges"`
	Favorites          IDSet          `json:"favorites"`
	Friends            IDSet          `json:"friends"`
	FriendRequests     FriendRequests `json:"friendRequests"`
	ReceivedChallenges IDSet          `json:"receivedChallenges"`
	Online             bool           `json:"isOnline"`
	LastSeen           time.Time      `json:"lastSeen"`
}

// Clone returns a deep copy of u.
func (u User) Clone() User {
	u.Active = u.Active.Clone()
	u.Pending = u.Pending.Clone()
	u.Completed = u.Completed.Clone()
	u.Created = u.Created.Clone()
	u.Favorites = u.Favorites.Clone()
	u.Friends = u.Friends.Clone()
	u.FriendRequests.Sent = u.FriendRequests.Sent.Clone()
	u.FriendRequests.Received = u.FriendRequests.Received.Clone()
	u.ReceivedChallenges = u.ReceivedChallenges.Clone()
	return u
}

// Challenge is a user-created task with a point reward. Only LikesCount,
// CompletionsCount and LikedBy change after creation.
type Challenge struct {
	ID               string     `json:"id"`
	Title            string     `json:"title"`
	Description      string     `json:"description"`
	Category         string     `json:"category"`
	Difficulty       Difficulty `json:"difficulty"`
	Points           int        `json:"points"`
	TimeLimit        *int       `json:"timeLimit,omitempty"` // hours
	CreatorID        string     `json:"creatorId"`
	ImageURL         string     `json:"imageUrl,omitempty"`
	LikesCount       int        `json:"likesCount"`
	CompletionsCount int        `json:"completionsCount"`
	LikedBy          IDSet      `json:"-"`
	CreatedAt        time.Time  `json:"createdAt"`
}

// Clone returns a deep copy of c.
func (c Challenge) Clone() Challenge {
	c.LikedBy = c.LikedBy.Clone()
	if c.TimeLimit != nil {
		v := *c.TimeLimit
		c.TimeLimit = &v
	}
	return c
}

// MediaType describes the proof attachment of a completion.
type MediaType string

const (
	MediaImage MediaType = "image"
	MediaVideo MediaType = "video"
)

// CompletionStatus is the review state of a proof submission.
type CompletionStatus string

const (
	CompletionPending  CompletionStatus = "pending"
	CompletionApproved CompletionStatus = "approved"
	CompletionRejected CompletionStatus = "rejected"
)

// Completion is a proof submission for a challenge. AverageRating is derived
// from Ratings and is refreshed whenever Ratings changes.
type Completion struct {
	ID            string           `json:"id"`
	UserID        string           `json:"userId"`
	ChallengeID   string           `json:"challengeId"`
	MediaURL      string           `json:"proofUrl"`
	MediaType     MediaType        `json:"proofType"`
	Description   string           `json:"description"`
	Ratings       map[string]int   `json:"ratings"`
	AverageRating float64          `json:"averageRating"`
	Status        CompletionStatus `json:"status"`
	SubmittedAt   time.Time        `json:"submittedAt"`
	DecidedAt     *time.Time       `json:"completedAt,omitempty"`
}

// Clone returns a deep copy of c.
func (c Completion) Clone() Completion {
	r := make(map[string]int, len(c.Ratings))
	for k, v := range c.Ratings {
		r[k] = v
	}
	c.Ratings = r
	if c.DecidedAt != nil {
		t := *c.DecidedAt
		c.DecidedAt = &t
	}
	return c
}

// RequestStatus is the lifecycle state of a friend request.
type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestAccepted RequestStatus = "accepted"
	RequestRejected RequestStatus = "rejected"
)

// FriendRequest is an invitation from SenderID to ReceiverID.
type FriendRequest struct {
	ID         string        `json:"id"`
	SenderID   string        `json:"senderId"`
	ReceiverID string        `json:"receiverId"`
	Status     RequestStatus `json:"status"`
	CreatedAt  time.Time     `json:"createdAt"`
}

// MessageType distinguishes plain text from shared challenges.
type MessageType string

const (
	MessageText      MessageType = "text"
	MessageChallenge MessageType = "challenge"
)

// Message is one entry in a chat. Messages are never reordered or removed.
type Message struct {
	ID          string      `json:"id"`
	ChatID      string      `json:"chatId"`
	SenderID    string      `json:"senderId"`
	ReceiverID  string      `json:"receiverId"`
	Content     string      `json:"content"`
	Type        MessageType `json:"type"`
	ChallengeID string      `json:"challengeId,omitempty"`
	CreatedAt   time.Time   `json:"timestamp"`
	IsRead      bool        `json:"isRead"`
}

// Chat is a direct conversation between exactly two users. ID is the
// canonical key of the participant pair (see ChatKey).
type Chat struct {
	ID           string    `json:"id"`
	Participants [2]string `json:"participants"`
	Messages     []Message `json:"messages"`
	LastMessage  *Message  `json:"lastMessage,omitempty"`
	UnreadCount  int       `json:"unreadCount"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Clone returns a deep copy of c.
func (c Chat) Clone() Chat {
	c.Messages = append([]Message(nil), c.Messages...)
	if c.LastMessage != nil {
		m := *c.LastMessage
		c.LastMessage = &m
	}
	return c
}

// Other returns the participant that is not userID.
func (c Chat) Other(userID string) string {
	if c.Participants[0] == userID {
		return c.Participants[1]
	}
	return c.Participants[0]
}

// Has reports whether userID participates in the chat.
func (c Chat) Has(userID string) bool {
	return c.Participants[0] == userID || c.Participants[1] == userID
}

// NotificationType enumerates the only events that create notifications.
type NotificationType string

const (
	NotifyFriendRequest   NotificationType = "friend_request"
	NotifyFriendAccepted  NotificationType = "friend_accepted"
	NotifyMessage         NotificationType = "message"
	NotifyChallengeShared NotificationType = "challenge_shared"
)

// NotificationData carries optional references back to the originating entity.
type NotificationData struct {
	RequestID   string `json:"requestId,omitempty"`
	ChatID      string `json:"chatId,omitempty"`
	ChallengeID string `json:"challengeId,omitempty"`
}

// Notification informs UserID about something FromUserID did.
type Notification struct {
	ID         string           `json:"id"`
	UserID     string           `json:"userId"`
	Type       NotificationType `json:"type"`
	FromUserID string           `json:"fromUserId"`
	Content    string           `json:"content"`
	IsRead     bool             `json:"isRead"`
	CreatedAt  time.Time        `json:"createdAt"`
	Data       NotificationData `json:"data"`
}

// Comment is a free-text remark on a challenge.
type Comment struct {
	ID          string    `json:"id"`
	ChallengeID string    `json:"challengeId"`
	UserID      string    `json:"userId"`
	Content     string    `json:"content"`
	CreatedAt   time.Time `json:"createdAt"`
}

// UserStats are the profile counters of a user.
type UserStats struct {
	Created     int `json:"createdChallenges"`
	Completed   int `json:"completedChallenges"`
	Active      int `json:"activeChallenges"`
	Saved       int `json:"savedChallenges"`
	Submissions int `json:"submissions"`
	Points      int `json:"points"`
	Friends     int `json:"friends"`
}
