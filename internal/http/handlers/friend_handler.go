// Friend HTTP handlers.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-challenge-backend/internal/domain"
	"github.com/tbourn/go-challenge-backend/internal/services"
)

// FriendRequestBody is the payload of POST /friends/request.
type FriendRequestBody struct {
	SenderID   string `json:"senderId" binding:"required" example:"user1"`
	ReceiverID string `json:"receiverId" binding:"required" example:"user2"`
}

// ResolveFriendRequest names the user accepting or rejecting a request.
// Empty means the acting user.
type ResolveFriendRequest struct {
	UserID string `json:"userId" example:"user2"`
}

// FriendsResponse lists a user's friends.
type FriendsResponse struct {
	Friends []domain.User `json:"friends"`
}

// FriendStatus godoc
// @ID          friendStatus
// @Summary     How user a relates to user b
// @Description One of none, friends, pending (a asked b) or received (b asked a).
// @Tags        Friends
// @Produce     json
// @Param       a  path  string  true  "User A"
// @Param       b  path  string  true  "User B"
// @Success     200  {object}  services.FriendshipStatus
// @Failure     404  {object}  handlers.ErrorResponse  "Unknown user"
// @Router      /friends/status/{a}/{b} [get]
func (h *Handlers) FriendStatus(c *gin.Context) {
	st, err := h.friends.Status(c.Request.Context(), c.Param("a"), c.Param("b"))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, st)
}

// SendFriendRequest godoc
// @ID          sendFriendRequest
// @Summary     Send a friend request
// @Tags        Friends
// @Accept      json
// @Produce     json
// @Param       body  body  handlers.FriendRequestBody  true  "Sender and receiver"
// @Success     201  {object}  domain.FriendRequest
// @Failure     400  {object}  handlers.ErrorResponse  "Self request"
// @Failure     404  {object}  handlers.ErrorResponse  "Unknown user"
// @Failure     409  {object}  handlers.ErrorResponse  "Already friends or already pending"
// @Router      /friends/request [post]
func (h *Handlers) SendFriendRequest(c *gin.Context) {
	var req FriendRequestBody
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "senderId and receiverId are required")
		return
	}
	fr, err := h.friends.SendRequest(c.Request.Context(), req.SenderID, req.ReceiverID)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusCreated, fr)
}

// AcceptFriendRequest godoc
// @ID          acceptFriendRequest
// @Summary     Accept a pending friend request
// @Tags        Friends
// @Accept      json
// @Param       X-User-ID  header  string  false  "Acting user"  example(user2)
// @Param       id         path    string  true   "Request ID"
// @Param       body       body    handlers.ResolveFriendRequest  false  "Receiver"
// @Success     204
// @Failure     401  {object}  handlers.ErrorResponse  "Not the receiver"
// @Failure     404  {object}  handlers.ErrorResponse  "Not found"
// @Failure     409  {object}  handlers.ErrorResponse  "No longer pending"
// @Router      /friends/request/{id}/accept [post]
func (h *Handlers) AcceptFriendRequest(c *gin.Context) { h.resolveRequest(c, true) }

// RejectFriendRequest godoc
// @ID          rejectFriendRequest
// @Summary     Reject a pending friend request
// @Tags        Friends
// @Accept      json
// @Param       X-User-ID  header  string  false  "Acting user"  example(user2)
// @Param       id         path    string  true   "Request ID"
// @Param       body       body    handlers.ResolveFriendRequest  false  "Receiver"
// @Success     204
// @Failure     401  {object}  handlers.ErrorResponse  "Not the receiver"
// @Failure     404  {object}  handlers.ErrorResponse  "Not found"
// @Failure     409  {object}  handlers.ErrorResponse  "No longer pending"
// @Router      /friends/request/{id}/reject [post]
func (h *Handlers) RejectFriendRequest(c *gin.Context) { h.resolveRequest(c, false) }

func (h *Handlers) resolveRequest(c *gin.Context, accept bool) {
	var req ResolveFriendRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
			return
		}
	}
	uid := req.UserID
	if uid == "" {
		uid = actor(c)
	}
	if uid == "" {
		failErr(c, services.ErrNoSession)
		return
	}

	resolve := h.friends.RejectRequest
	if accept {
		resolve = h.friends.AcceptRequest
	}
	if err := resolve(c.Request.Context(), c.Param("id"), uid); err != nil {
		failErr(c, err)
		return
	}
	noContent(c)
}

// RemoveFriend godoc
// @ID          removeFriend
// @Summary     End a friendship
// @Tags        Friends
// @Param       X-User-ID  header  string  true  "Acting user"  example(user1)
// @Param       friendId   path    string  true  "Friend ID"
// @Success     204
// @Failure     401  {object}  handlers.ErrorResponse  "No acting user"
// @Router      /friends/{friendId} [delete]
func (h *Handlers) RemoveFriend(c *gin.Context) {
	uid := actor(c)
	if uid == "" {
		failErr(c, services.ErrNoSession)
		return
	}
	if err := h.friends.RemoveFriend(c.Request.Context(), uid, c.Param("friendId")); err != nil {
		failErr(c, err)
		return
	}
	noContent(c)
}

// ListFriends godoc
// @ID          listFriends
// @Summary     A user's friends
// @Tags        Friends
// @Produce     json
// @Param       id  path  string  true  "User ID"
// @Success     200  {object}  handlers.FriendsResponse
// @Failure     404  {object}  handlers.ErrorResponse  "Unknown user"
// @Router      /users/{id}/friends [get]
func (h *Handlers) ListFriends(c *gin.Context) {
	users, err := h.friends.Friends(c.Request.Context(), c.Param("id"))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, FriendsResponse{Friends: users})
}

// ListFriendRequests godoc
// @ID          listFriendRequests
// @Summary     A user's pending friend requests, sent and received
// @Tags        Friends
// @Produce     json
// @Param       id  path  string  true  "User ID"
// @Success     200  {object}  services.PendingRequests
// @Failure     404  {object}  handlers.ErrorResponse  "Unknown user"
// @Router      /users/{id}/friend-requests [get]
func (h *Handlers) ListFriendRequests(c *gin.Context) {
	reqs, err := h.friends.PendingRequests(c.Request.Context(), c.Param("id"))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, reqs)
}
