package domain

import "time"

// EventKind discriminates bus events.
type EventKind string

const (
	EventChallengeCreated    EventKind = "challenge-created"
	EventChallengeUpdated    EventKind = "challenge-updated"
	EventFavoriteToggled     EventKind = "favorite-toggled"
	EventChallengeLiked      EventKind = "challenge-liked"
	EventCommentAdded        EventKind = "comment-added"
	EventCommentDeleted      EventKind = "comment-deleted"
	EventCompletionRated     EventKind = "completion-rated"
	EventFriendRequest       EventKind = "friend-request"
	EventFriendChanged       EventKind = "friend-changed"
	EventChatCreated         EventKind = "chat-created"
	EventMessageSent         EventKind = "message-sent"
	EventMessagesRead        EventKind = "messages-read"
	EventChallengeReceived   EventKind = "challenge-received"
	EventNotificationCreated EventKind = "notification-created"
	EventNotificationsRead   EventKind = "notifications-read"
	EventSessionChanged      EventKind = "session-changed"
)

// Event is published on the change bus after a mutation has been applied.
// Only the identifiers relevant to Kind are set.
type Event struct {
	Kind         EventKind `json:"kind"`
	UserID       string    `json:"userId,omitempty"`
	OtherUserID  string    `json:"otherUserId,omitempty"`
	ChallengeID  string    `json:"challengeId,omitempty"`
	CompletionID string    `json:"completionId,omitempty"`
	ChatID       string    `json:"chatId,omitempty"`
	RequestID    string    `json:"requestId,omitempty"`
	At           time.Time `json:"at"`
}

// Involves reports whether userID is one of the users named by e.
func (e Event) Involves(userID string) bool {
	return userID != "" && (e.UserID == userID || e.OtherUserID == userID)
}
