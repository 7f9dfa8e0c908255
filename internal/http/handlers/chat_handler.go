// Chat HTTP handlers.
//
// This file exposes direct chats between two users:
//   - POST /chats/direct               (get or create)
//   - GET  /chats/{id}/messages        (paginated)
//   - POST /chats/{id}/messages        (send, Idempotency-Key replay)
//   - POST /chats/{id}/read            (mark read)
//   - GET  /users/{id}/chats           (list)
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-challenge-backend/internal/domain"
	"github.com/tbourn/go-challenge-backend/internal/http/middleware"
	"github.com/tbourn/go-challenge-backend/internal/services"
)

//
// DTOs
//

// DirectChatRequest is the payload of POST /chats/direct.
type DirectChatRequest struct {
	UserID1 string `json:"userId1" binding:"required" example:"user1"`
	UserID2 string `json:"userId2" binding:"required" example:"user2"`
}

// SendMessageRequest is the payload of POST /chats/{id}/messages. SenderID
// defaults to the acting user.
type SendMessageRequest struct {
	SenderID    string             `json:"senderId,omitempty" example:"user1"`
	Content     string             `json:"content" example:"Try this one"`
	Type        domain.MessageType `json:"type,omitempty" example:"challenge"`
	ChallengeID string             `json:"challengeId,omitempty" example:"1"`
}

// MarkReadRequest names the reader. Empty means the acting user.
type MarkReadRequest struct {
	UserID string `json:"userId" example:"user2"`
}

// MarkReadResponse reports how many messages changed.
type MarkReadResponse struct {
	Updated int `json:"updated"`
}

// ListMessagesResponse wraps a page of messages and pagination information.
type ListMessagesResponse struct {
	Messages   []domain.Message `json:"messages"`
	Pagination Pagination       `json:"pagination"`
}

// ListChatsResponse wraps a user's chats.
type ListChatsResponse struct {
	Chats []domain.Chat `json:"chats"`
}

//
// Handlers
//

// DirectChat godoc
// @ID          directChat
// @Summary     Get or create the chat between two users
// @Description The chat id is derived from the sorted participant pair, so either order returns the same chat.
// @Tags        Chats
// @Accept      json
// @Produce     json
// @Param       body  body  handlers.DirectChatRequest  true  "Participants"
// @Success     200  {object}  domain.Chat
// @Failure     400  {object}  handlers.ErrorResponse  "Same user twice"
// @Failure     404  {object}  handlers.ErrorResponse  "Unknown user"
// @Router      /chats/direct [post]
func (h *Handlers) DirectChat(c *gin.Context) {
	var req DirectChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "userId1 and userId2 are required")
		return
	}
	ch, err := h.chats.GetOrCreate(c.Request.Context(), strings.TrimSpace(req.UserID1), strings.TrimSpace(req.UserID2))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, ch)
}

// ListMessages godoc
// @ID          listMessages
// @Summary     List messages in a chat (paginated)
// @Tags        Chats
// @Produce     json
// @Param       id         path   string  true   "Chat ID"
// @Param       page       query  int     false  "Page number"     minimum(1) default(1)
// @Param       page_size  query  int     false  "Items per page"  minimum(1) maximum(100) default(20)
// @Success     200  {object}  handlers.ListMessagesResponse
// @Failure     404  {object}  handlers.ErrorResponse  "Not found"
// @Router      /chats/{id}/messages [get]
func (h *Handlers) ListMessages(c *gin.Context) {
	page, pageSize := clampPagination(c)
	items, total, err := h.chats.Messages(c.Request.Context(), c.Param("id"), page, pageSize)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, ListMessagesResponse{
		Messages:   items,
		Pagination: newPagination(page, pageSize, total),
	})
}

// SendMessage godoc
// @ID          sendMessage
// @Summary     Send a text or challenge message
// @Description A challenge message with empty content carries the challenge title. A retry with the same Idempotency-Key returns the original message with 200.
// @Tags        Chats
// @Accept      json
// @Produce     json
// @Param       X-User-ID        header  string  false  "Acting user"      example(user1)
// @Param       Idempotency-Key  header  string  false  "Idempotency key"  example(msg-1)
// @Param       id               path    string  true   "Chat ID"
// @Param       body             body    handlers.SendMessageRequest  true  "Message"
// @Success     201  {object}  domain.Message
// @Success     200  {object}  domain.Message  "Replayed"
// @Failure     400  {object}  handlers.ErrorResponse  "Empty content"
// @Failure     401  {object}  handlers.ErrorResponse  "Not a participant"
// @Failure     404  {object}  handlers.ErrorResponse  "Not found"
// @Router      /chats/{id}/messages [post]
func (h *Handlers) SendMessage(c *gin.Context) {
	ctx := c.Request.Context()
	chatID := c.Param("id")
	if rec, replay := middleware.Replay(c); replay {
		m, err := h.chats.Message(ctx, chatID, rec.ResourceID)
		if err != nil {
			failErr(c, err)
			return
		}
		ok(c, http.StatusOK, m)
		return
	}

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	sender := strings.TrimSpace(req.SenderID)
	if sender == "" {
		sender = actor(c)
	}
	if sender == "" {
		failErr(c, services.ErrNoSession)
		return
	}

	m, err := h.chats.SendMessage(ctx, chatID, services.SendMessageInput{
		SenderID:    sender,
		Content:     req.Content,
		Type:        req.Type,
		ChallengeID: strings.TrimSpace(req.ChallengeID),
	})
	if err != nil {
		failErr(c, err)
		return
	}
	middleware.SetIdempotentResource(c, m.ID)
	ok(c, http.StatusCreated, m)
}

// MarkChatRead godoc
// @ID          markChatRead
// @Summary     Mark every message addressed to the reader as read
// @Tags        Chats
// @Accept      json
// @Produce     json
// @Param       X-User-ID  header  string  false  "Acting user"  example(user2)
// @Param       id         path    string  true   "Chat ID"
// @Param       body       body    handlers.MarkReadRequest  false  "Reader"
// @Success     200  {object}  handlers.MarkReadResponse
// @Failure     401  {object}  handlers.ErrorResponse  "Not a participant"
// @Failure     404  {object}  handlers.ErrorResponse  "Not found"
// @Router      /chats/{id}/read [post]
func (h *Handlers) MarkChatRead(c *gin.Context) {
	var req MarkReadRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
			return
		}
	}
	uid := strings.TrimSpace(req.UserID)
	if uid == "" {
		uid = actor(c)
	}
	if uid == "" {
		failErr(c, services.ErrNoSession)
		return
	}
	n, err := h.chats.MarkRead(c.Request.Context(), c.Param("id"), uid)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, MarkReadResponse{Updated: n})
}

// ListChats godoc
// @ID          listChats
// @Summary     A user's chats, most recent activity first
// @Tags        Chats
// @Produce     json
// @Param       id  path  string  true  "User ID"
// @Success     200  {object}  handlers.ListChatsResponse
// @Failure     404  {object}  handlers.ErrorResponse  "Unknown user"
// @Router      /users/{id}/chats [get]
func (h *Handlers) ListChats(c *gin.Context) {
	chats, err := h.chats.ChatsFor(c.Request.Context(), c.Param("id"))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, ListChatsResponse{Chats: chats})
}
