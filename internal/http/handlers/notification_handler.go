package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-challenge-backend/internal/domain"
	"github.com/tbourn/go-challenge-backend/internal/sysutil"
)

// UnreadCountResponse is the unread notification badge.
type UnreadCountResponse struct {
	Count int `json:"count"`
}

// ListNotificationsResponse wraps a user's notifications, newest first.
type ListNotificationsResponse struct {
	Notifications []domain.Notification `json:"notifications"`
}

// UnreadCount godoc
// @ID          unreadNotificationCount
// @Summary     Number of unread notifications
// @Tags        Notifications
// @Produce     json
// @Param       userId  path  string  true  "User ID"
// @Success     200  {object}  handlers.UnreadCountResponse
// @Failure     404  {object}  handlers.ErrorResponse  "Unknown user"
// @Router      /notifications/{userId}/unread-count [get]
func (h *Handlers) UnreadCount(c *gin.Context) {
	n, err := h.notifications.UnreadCount(c.Request.Context(), c.Param("userId"))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, UnreadCountResponse{Count: n})
}

// ListNotifications godoc
// @ID          listNotifications
// @Summary     A user's notifications, newest first
// @Tags        Notifications
// @Produce     json
// @Param       userId  path   string  true   "User ID"
// @Param       unread  query  bool    false  "Only unread"
// @Success     200  {object}  handlers.ListNotificationsResponse
// @Failure     404  {object}  handlers.ErrorResponse  "Unknown user"
// @Router      /notifications/{userId} [get]
func (h *Handlers) ListNotifications(c *gin.Context) {
	items, err := h.notifications.List(c.Request.Context(), c.Param("userId"), sysutil.IsTruthy(c.Query("unread")))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, ListNotificationsResponse{Notifications: items})
}

// MarkNotificationsRead godoc
// @ID          markNotificationsRead
// @Summary     Mark every notification of a user as read
// @Tags        Notifications
// @Produce     json
// @Param       userId  path  string  true  "User ID"
// @Success     200  {object}  handlers.MarkReadResponse
// @Failure     404  {object}  handlers.ErrorResponse  "Unknown user"
// @Router      /notifications/{userId}/read [post]
func (h *Handlers) MarkNotificationsRead(c *gin.Context) {
	n, err := h.notifications.MarkAllRead(c.Request.Context(), c.Param("userId"))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, MarkReadResponse{Updated: n})
}
