// Package services implements the mutation facades over the domain store:
// challenges, friends, chat, notifications and users. Every facade call
// returns its failure as a *domain.Error (never a panic); the values below are
// the stable sentinels callers match with errors.Is or classify with
// domain.KindOf. Translation into HTTP statuses happens in the handlers.
package services

import "github.com/tbourn/go-challenge-backend/internal/domain"

// Identity errors.
var (
	// ErrNoSession is returned when the call needs a current user and none can
	// be resolved.
	ErrNoSession = domain.NewError(domain.KindUnauthorized, "no resolvable session user")

	// ErrNotCreator is returned when creator-only decisions are enforced and
	// the actor did not author the challenge.
	ErrNotCreator = domain.NewError(domain.KindUnauthorized, "only the challenge creator can decide on submissions")

	// ErrNotParticipant is returned when a user acts on a chat they are not part of.
	ErrNotParticipant = domain.NewError(domain.KindUnauthorized, "user is not a participant of this chat")

	ErrNotCommentAuthor = domain.NewError(domain.KindUnauthorized, "only the author can delete a comment")
)

// Lookup errors.
var (
	ErrUserNotFound       = domain.ErrUserNotFound
	ErrChallengeNotFound  = domain.NewError(domain.KindNotFound, "challenge not found")
	ErrCompletionNotFound = domain.NewError(domain.KindNotFound, "completion not found")
	ErrRequestNotFound    = domain.NewError(domain.KindNotFound, "friend request not found")
	ErrChatNotFound       = domain.NewError(domain.KindNotFound, "chat not found")
	ErrMessageNotFound    = domain.NewError(domain.KindNotFound, "message not found")
	ErrCommentNotFound    = domain.NewError(domain.KindNotFound, "comment not found")
)

// State errors.
var (
	ErrNoPendingSubmission  = domain.NewError(domain.KindInvalidState, "no pending submission for this challenge")
	ErrRequestNotPending    = domain.NewError(domain.KindInvalidState, "friend request is no longer pending")
	ErrAlreadyFriends       = domain.NewError(domain.KindInvalidState, "users are already friends")
	ErrRequestAlreadyExists = domain.NewError(domain.KindInvalidState, "a friend request is already pending")
	ErrSelfRating           = domain.NewError(domain.KindInvalidState, "cannot rate your own submission")
)

// Input errors.
var (
	ErrSelfTarget    = domain.NewError(domain.KindInvalid, "users must be different")
	ErrEmptyContent  = domain.NewError(domain.KindInvalid, "content is empty")
	ErrInvalidRating = domain.NewError(domain.KindInvalid, "rating must be between 1 and 5")
	ErrUnknownAction = domain.NewError(domain.KindInvalid, "unknown status action")
)
