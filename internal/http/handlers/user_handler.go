// User directory and session handlers.
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-challenge-backend/internal/domain"
)

// ListUsersResponse wraps a page of users.
type ListUsersResponse struct {
	Users      []domain.User `json:"users"`
	Pagination Pagination    `json:"pagination"`
}

// LoginRequest is the payload of POST /session.
type LoginRequest struct {
	UserID string `json:"userId" binding:"required" example:"user1"`
}

// SessionResponse is the current session. User is nil when logged out.
type SessionResponse struct {
	LoggedIn bool         `json:"loggedIn"`
	User     *domain.User `json:"user,omitempty"`
}

// ListUsers godoc
// @ID          listUsers
// @Summary     Search users by username or full name
// @Tags        Users
// @Produce     json
// @Param       search  query  string  false  "Substring, case-insensitive"
// @Param       page    query  int     false  "Page number"     minimum(1) default(1)
// @Param       limit   query  int     false  "Items per page"  minimum(1) maximum(100) default(20)
// @Success     200  {object}  handlers.ListUsersResponse
// @Router      /users [get]
func (h *Handlers) ListUsers(c *gin.Context) {
	page, pageSize := clampPagination(c)
	users, total, err := h.users.List(c.Request.Context(), strings.TrimSpace(c.Query("search")), page, pageSize)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, ListUsersResponse{Users: users, Pagination: newPagination(page, pageSize, total)})
}

// GetUser godoc
// @ID          getUser
// @Summary     Get a user
// @Tags        Users
// @Produce     json
// @Param       id  path  string  true  "User ID"
// @Success     200  {object}  domain.User
// @Failure     404  {object}  handlers.ErrorResponse  "Not found"
// @Router      /users/{id} [get]
func (h *Handlers) GetUser(c *gin.Context) {
	u, err := h.users.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, u)
}

// UserStats godoc
// @ID          userStats
// @Summary     Profile counters of a user
// @Tags        Users
// @Produce     json
// @Param       id  path  string  true  "User ID"
// @Success     200  {object}  domain.UserStats
// @Failure     404  {object}  handlers.ErrorResponse  "Not found"
// @Router      /users/{id}/stats [get]
func (h *Handlers) UserStats(c *gin.Context) {
	st, err := h.users.Stats(c.Request.Context(), c.Param("id"))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, st)
}

// CurrentSession godoc
// @ID          currentSession
// @Summary     The persisted session user
// @Tags        Session
// @Produce     json
// @Success     200  {object}  handlers.SessionResponse
// @Router      /session [get]
func (h *Handlers) CurrentSession(c *gin.Context) {
	ok(c, http.StatusOK, sessionView(h.session.Current()))
}

// Login godoc
// @ID          login
// @Summary     Persist a user as the session user
// @Tags        Session
// @Accept      json
// @Produce     json
// @Param       body  body  handlers.LoginRequest  true  "User"
// @Success     200  {object}  handlers.SessionResponse
// @Failure     404  {object}  handlers.ErrorResponse  "Unknown user"
// @Router      /session [post]
func (h *Handlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "userId is required")
		return
	}
	u, err := h.session.Login(c.Request.Context(), req.UserID)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, sessionView(u, true))
}

// Logout godoc
// @ID          logout
// @Summary     Clear the session user
// @Tags        Session
// @Success     204
// @Router      /session [delete]
func (h *Handlers) Logout(c *gin.Context) {
	if err := h.session.Logout(c.Request.Context()); err != nil {
		failErr(c, err)
		return
	}
	noContent(c)
}

func sessionView(u domain.User, loggedIn bool) SessionResponse {
	if !loggedIn {
		return SessionResponse{}
	}
	return SessionResponse{LoggedIn: true, User: &u}
}
