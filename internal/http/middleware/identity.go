package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-challenge-backend/internal/session"
	"github.com/tbourn/go-challenge-backend/internal/sysutil"
)

// HeaderUserID lets a client act as a specific user for one request. Without
// it the persisted session user acts.
const HeaderUserID = "X-User-ID"

// ctxKeyUserID is the Gin context key holding the acting user id. Logging and
// rate limiting read it.
const ctxKeyUserID = "userID"

// SessionResolver returns the persisted session user.
type SessionResolver interface {
	UserID(ctx context.Context) (string, bool)
}

// Identity resolves the acting user for the request. An explicit X-User-ID
// header (or ?as= query parameter) becomes a request-scoped identity via
// session.WithUser, which the domain services prefer over the session user.
// Otherwise the session user, if any, is recorded for logging only.
func Identity(sess SessionResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(sysutil.FirstNonEmpty(c.GetHeader(HeaderUserID), c.Query("as")))
		if id != "" {
			c.Set(ctxKeyUserID, id)
			c.Request = c.Request.WithContext(session.WithUser(c.Request.Context(), id))
		} else if sess != nil {
			if sid, ok := sess.UserID(c.Request.Context()); ok {
				c.Set(ctxKeyUserID, sid)
			}
		}
		c.Next()
	}
}

// UserID returns the acting user id recorded by Identity.
func UserID(c *gin.Context) (string, bool) {
	v, ok := c.Get(ctxKeyUserID)
	if !ok {
		return "", false
	}
	s, _ := v.(string)
	return s, s != ""
}
