// Package handlers exposes the challenge, friends, chat, notification, user
// and session facades over HTTP.
//
// Handlers are transport-thin: they bind and validate input, call the
// facades with the request context (so client disconnects cancel the
// simulated latency) and translate *domain.Error kinds into status codes.
package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-challenge-backend/internal/bus"
	"github.com/tbourn/go-challenge-backend/internal/domain"
	"github.com/tbourn/go-challenge-backend/internal/http/middleware"
	"github.com/tbourn/go-challenge-backend/internal/services"
	"github.com/tbourn/go-challenge-backend/internal/utils"
)

//
// Service contracts (context-aware)
//

// ChallengeService is the challenge facade consumed by the handlers.
type ChallengeService interface {
	List(ctx context.Context, q services.ListQuery) ([]domain.Challenge, error)
	Get(ctx context.Context, challengeID string) (services.ChallengeDetails, error)
	Create(ctx context.Context, in services.CreateChallengeInput, creatorID string) (domain.Challenge, error)
	Status(ctx context.Context, challengeID string) (services.StatusView, error)
	UpdateStatus(ctx context.Context, challengeID string, action services.StatusAction) error
	ToggleFavorite(ctx context.Context, challengeID string) (bool, error)
	SetFavorite(ctx context.Context, challengeID string, on bool) error
	IsFavorite(ctx context.Context, challengeID string) (bool, error)
	Favorites(ctx context.Context) ([]domain.Challenge, error)
	ToggleLike(ctx context.Context, challengeID string) (services.LikeResult, error)
	AddComment(ctx context.Context, challengeID, content string) (domain.Comment, error)
	DeleteComment(ctx context.Context, commentID string) error
	RateCompletion(ctx context.Context, completionID string, rating int) (domain.Completion, error)
}

// FriendService is the friends facade consumed by the handlers.
type FriendService interface {
	Status(ctx context.Context, a, b string) (services.FriendshipStatus, error)
	SendRequest(ctx context.Context, senderID, receiverID string) (domain.FriendRequest, error)
	AcceptRequest(ctx context.Context, requestID, actingUserID string) error
	RejectRequest(ctx context.Context, requestID, actingUserID string) error
	RemoveFriend(ctx context.Context, a, b string) error
	Friends(ctx context.Context, userID string) ([]domain.User, error)
	PendingRequests(ctx context.Context, userID string) (services.PendingRequests, error)
}

// ChatService is the chat facade consumed by the handlers.
type ChatService interface {
	GetOrCreate(ctx context.Context, a, b string) (domain.Chat, error)
	SendMessage(ctx context.Context, chatID string, in services.SendMessageInput) (domain.Message, error)
	Message(ctx context.Context, chatID, messageID string) (domain.Message, error)
	MarkRead(ctx context.Context, chatID, userID string) (int, error)
	Messages(ctx context.Context, chatID string, page, pageSize int) ([]domain.Message, int, error)
	ChatsFor(ctx context.Context, userID string) ([]domain.Chat, error)
}

// NotificationService is the notifications facade consumed by the handlers.
type NotificationService interface {
	UnreadCount(ctx context.Context, userID string) (int, error)
	List(ctx context.Context, userID string, unreadOnly bool) ([]domain.Notification, error)
	MarkAllRead(ctx context.Context, userID string) (int, error)
}

// UserService is the user directory consumed by the handlers.
type UserService interface {
	Get(ctx context.Context, userID string) (domain.User, error)
	List(ctx context.Context, search string, page, pageSize int) ([]domain.User, int, error)
	Stats(ctx context.Context, userID string) (domain.UserStats, error)
}

// SessionService persists the current user.
type SessionService interface {
	Current() (domain.User, bool)
	Login(ctx context.Context, userID string) (domain.User, error)
	Logout(ctx context.Context) error
}

// EventSource delivers change events to observers.
type EventSource interface {
	Subscribe(fn bus.Observer, kinds ...domain.EventKind) (unsubscribe func())
}

//
// Handler wiring
//

// Services bundles the facades the handlers depend on.
type Services struct {
	Challenges    ChallengeService
	Friends       FriendService
	Chats         ChatService
	Notifications NotificationService
	Users         UserService
	Session       SessionService
	Events        EventSource
}

// Handlers groups every HTTP endpoint of the API.
type Handlers struct {
	challenges    ChallengeService
	friends       FriendService
	chats         ChatService
	notifications NotificationService
	users         UserService
	session       SessionService
	events        EventSource
}

// New constructs Handlers bound to the given services.
func New(s Services) *Handlers {
	return &Handlers{
		challenges:    s.Challenges,
		friends:       s.Friends,
		chats:         s.Chats,
		notifications: s.Notifications,
		users:         s.Users,
		session:       s.Session,
		events:        s.Events,
	}
}

// actor returns the acting user recorded by the Identity middleware, or ""
// when the facades should fall back to the session user.
func actor(c *gin.Context) string {
	id, _ := middleware.UserID(c)
	return id
}

//
// DTOs
//

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int  `json:"page"`
	PageSize   int  `json:"page_size"`
	Total      int  `json:"total"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
}

func newPagination(page, pageSize, total int) Pagination {
	totalPages := (total + pageSize - 1) / pageSize
	return Pagination{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
	}
}

// clampPagination parses page and page_size (or limit) into bounded values.
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	size := c.Query("page_size")
	if size == "" {
		size = c.Query("limit")
	}
	pageSize = utils.AtoiDefault(size, defaultPageSize)
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return
}
