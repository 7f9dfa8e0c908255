package handlers

import (
	"io"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-challenge-backend/internal/domain"
	"github.com/tbourn/go-challenge-backend/internal/http/middleware"
)

// SSE tuning. Tests shorten the heartbeat.
var (
	sseHeartbeat = 15 * time.Second
	sseBuffer    = 64
)

// Events godoc
// @ID          streamEvents
// @Summary     Stream change events as server-sent events
// @Description Each event is named by its kind and carries the event JSON. With userId (or an acting user) only events naming that user are sent. kinds restricts the stream to a comma-separated list. A ping event is sent periodically. Slow readers lose events rather than stall publishers.
// @Tags        Events
// @Produce     text/event-stream
// @Param       X-User-ID  header  string  false  "Acting user"  example(user1)
// @Param       userId     query   string  false  "Only events involving this user"
// @Param       kinds      query   string  false  "Comma-separated event kinds"
// @Success     200  {string}  string  "event stream"
// @Router      /events [get]
func (h *Handlers) Events(c *gin.Context) {
	uid := strings.TrimSpace(c.Query("userId"))
	if uid == "" {
		uid = actor(c)
	}
	var kinds []domain.EventKind
	for _, k := range strings.Split(c.Query("kinds"), ",") {
		if k = strings.TrimSpace(k); k != "" {
			kinds = append(kinds, domain.EventKind(k))
		}
	}

	ch := make(chan domain.Event, sseBuffer)
	var dropped atomic.Int64
	unsubscribe := h.events.Subscribe(func(e domain.Event) {
		if uid != "" && !e.Involves(uid) {
			return
		}
		select {
		case ch <- e:
		default:
			dropped.Add(1)
		}
	}, kinds...)
	defer unsubscribe()
	defer middleware.TrackStream()()

	lg := middleware.LoggerFrom(c)
	defer func() {
		if n := dropped.Load(); n > 0 {
			lg.Warn().Int64("dropped", n).Str("user_id", uid).Msg("event stream fell behind")
		}
	}()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	tick := time.NewTicker(sseHeartbeat)
	defer tick.Stop()
	ctx := c.Request.Context()

	c.SSEvent("ready", gin.H{"userId": uid})
	c.Writer.Flush()
	c.Stream(func(io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case e := <-ch:
			c.SSEvent(string(e.Kind), e)
		case t := <-tick.C:
			c.SSEvent("ping", t.UTC().Unix())
		}
		return true
	})
}
