// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements idempotent retries for POST endpoints. A client sends
// an Idempotency-Key header; the first successful request records the id of
// the resource it produced, scoped to (user, request path). A retry with the
// same key is marked as a replay so the handler can return the original
// resource instead of creating a second one, and the rate limiter lets it
// through without spending a token.
package middleware

import (
	"context"
	"net/http"
	"regexp"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-challenge-backend/internal/domain"
)

// HeaderIdempotencyKey carries the client's idempotency key.
const HeaderIdempotencyKey = "Idempotency-Key"

const (
	ctxKeyIdemKey      = "idem.key"
	ctxKeyIdemReplay   = "idem.replay"   // *domain.Idempotency of the original request
	ctxKeyIdemResource = "idem.resource" // resource id set by the handler
	ctxKeyRateBypass   = "rate.bypass"   // bool: true to skip rate limiting
)

// IdempotencyStore persists request outcomes. Get returns an error when no
// live record exists.
type IdempotencyStore interface {
	Get(ctx context.Context, userID, scope, key string) (*domain.Idempotency, error)
	Save(ctx context.Context, userID, scope, key, resourceID string, status int) (*domain.Idempotency, error)
}

// IdempotencyOptions configures key validation.
type IdempotencyOptions struct {
	// MaxLen caps the accepted key length. Values <= 0 default to 200.
	MaxLen int
	// Pattern restricts allowed characters. Defaults to ^[A-Za-z0-9._~\-:]+$
	Pattern *regexp.Regexp
}

// GetIdempotencyKey returns the validated key, if the request carried one.
func GetIdempotencyKey(c *gin.Context) (string, bool) {
	v, ok := c.Get(ctxKeyIdemKey)
	if !ok {
		return "", false
	}
	s, _ := v.(string)
	return s, s != ""
}

// Replay returns the stored outcome when this request repeats an earlier one.
func Replay(c *gin.Context) (*domain.Idempotency, bool) {
	v, ok := c.Get(ctxKeyIdemReplay)
	if !ok {
		return nil, false
	}
	rec, _ := v.(*domain.Idempotency)
	return rec, rec != nil
}

// IsReplay reports whether Replay would return a record.
func IsReplay(c *gin.Context) bool {
	_, ok := Replay(c)
	return ok
}

// SetIdempotentResource tells the middleware which resource the handler
// produced. Only requests that call it are recorded.
func SetIdempotentResource(c *gin.Context, resourceID string) {
	c.Set(ctxKeyIdemResource, resourceID)
}

// IdempotencyScope is the scope a request's key is recorded under: the method
// plus the concrete request path.
func IdempotencyScope(c *gin.Context) string {
	return c.Request.Method + " " + c.Request.URL.Path
}

// Idempotency validates the Idempotency-Key header on POST requests, detects
// replays through store and records successful outcomes after the handler
// ran. Store failures never fail the request; they only disable replay.
func Idempotency(opts IdempotencyOptions, store IdempotencyStore) gin.HandlerFunc {
	maxLen := opts.MaxLen
	if maxLen <= 0 {
		maxLen = 200
	}
	pat := opts.Pattern
	if pat == nil {
		pat = regexp.MustCompile(`^[A-Za-z0-9._~\-:]+$`)
	}

	return func(c *gin.Context) {
		key := c.GetHeader(HeaderIdempotencyKey)
		if key == "" || c.Request.Method != http.MethodPost {
			c.Next()
			return
		}
		if len(key) > maxLen || !pat.MatchString(key) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"request_id": c.Writer.Header().Get(requestIDHeader),
				"code":       "bad_idempotency_key",
				"message":    "invalid Idempotency-Key",
			})
			return
		}
		c.Set(ctxKeyIdemKey, key)
		if store == nil {
			c.Next()
			return
		}

		uid, _ := UserID(c)
		scope := IdempotencyScope(c)
		ctx := c.Request.Context()

		if rec, err := store.Get(ctx, uid, scope, key); err == nil && rec != nil {
			c.Set(ctxKeyIdemReplay, rec)
			c.Set(ctxKeyRateBypass, true)
			c.Next()
			return
		}

		c.Next()

		status := c.Writer.Status()
		if status < 200 || status >= 300 {
			return
		}
		v, ok := c.Get(ctxKeyIdemResource)
		if !ok {
			return
		}
		resourceID, _ := v.(string)
		// Save fails when a concurrent retry recorded the key first.
		if _, err := store.Save(ctx, uid, scope, key, resourceID, status); err != nil {
			lg := LoggerFrom(c)
			lg.Debug().Err(err).Str("scope", scope).Msg("idempotency record not saved")
		}
	}
}
