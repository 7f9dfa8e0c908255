package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/tbourn/go-challenge-backend/internal/bus"
	"github.com/tbourn/go-challenge-backend/internal/http/middleware"
	"github.com/tbourn/go-challenge-backend/internal/repo"
	"github.com/tbourn/go-challenge-backend/internal/services"
	"github.com/tbourn/go-challenge-backend/internal/session"
	"github.com/tbourn/go-challenge-backend/internal/store"
)

// harness serves the full API over a seeded store with no simulated latency.
type harness struct {
	r     *gin.Engine
	store *store.Store
	bus   *bus.Bus
	sess  *session.Session
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st := store.New()
	st.Seed()
	b := bus.New(zerolog.Nop())
	sess := session.New(session.NewMemoryKV(), st, b, zerolog.Nop())
	t.Cleanup(sess.Close)

	db, err := repo.OpenSQLite(filepath.Join(t.TempDir(), "handlers.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	d := services.Deps{Store: st, Bus: b, Identity: sess, Logger: zerolog.Nop()}
	h := New(Services{
		Challenges:    services.NewChallengeService(d),
		Friends:       services.NewFriendService(d),
		Chats:         services.NewChatService(d),
		Notifications: services.NewNotificationService(d),
		Users:         services.NewUserService(d),
		Session:       sess,
		Events:        b,
	})

	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.Identity(sess),
		middleware.Idempotency(middleware.IdempotencyOptions{}, repo.NewIdempotency(db, time.Hour)),
	)
	h.Register(r)
	return &harness{r: r, store: st, bus: b, sess: sess}
}

// do sends a request as user (empty for none) and returns the recorder.
func (h *harness) do(t *testing.T, method, path, user string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if user != "" {
		req.Header.Set(middleware.HeaderUserID, user)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	h.r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return v
}

func expectStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("status=%d want %d body=%s", w.Code, want, w.Body.String())
	}
}

func expectError(t *testing.T, w *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	expectStatus(t, w, status)
	if got := decode[ErrorResponse](t, w); got.Code != code {
		t.Fatalf("code=%q want %q", got.Code, code)
	}
}

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{services.ErrChallengeNotFound, http.StatusNotFound, ErrCodeNotFound},
		{services.ErrRequestNotPending, http.StatusConflict, ErrCodeInvalidState},
		{services.ErrNoSession, http.StatusUnauthorized, ErrCodeUnauthorized},
		{services.ErrInvalidRating, http.StatusBadRequest, ErrCodeInvalidInput},
		{fmt.Errorf("wrapped: %w", services.ErrChatNotFound), http.StatusNotFound, ErrCodeNotFound},
		{context.DeadlineExceeded, http.StatusGatewayTimeout, ErrCodeTimeout},
		{context.Canceled, statusClientClosed, ErrCodeTimeout},
		{errors.New("boom"), http.StatusInternalServerError, ErrCodeInternal},
	}
	for _, tc := range cases {
		status, code := statusFor(tc.err)
		if status != tc.status || code != tc.code {
			t.Errorf("%v: got %d/%s want %d/%s", tc.err, status, code, tc.status, tc.code)
		}
	}
}

func TestFailErr_HidesInternalMessage(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/x", func(c *gin.Context) { failErr(c, errors.New("db password leaked")) })
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

	expectStatus(t, w, http.StatusInternalServerError)
	if got := decode[ErrorResponse](t, w); got.Message != "internal server error" {
		t.Fatalf("message leaked: %q", got.Message)
	}
}

func TestClampPagination(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		query          string
		page, pageSize int
	}{
		{"", 1, 20},
		{"page=0&page_size=0", 1, 1},
		{"page=3&page_size=500", 3, 100},
		{"page=2&limit=5", 2, 5},
		{"page=x&limit=y", 1, 20},
	}
	for _, tc := range cases {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/?"+tc.query, nil)
		page, size := clampPagination(c)
		if page != tc.page || size != tc.pageSize {
			t.Errorf("%q: got %d/%d want %d/%d", tc.query, page, size, tc.page, tc.pageSize)
		}
	}

	p := newPagination(2, 10, 25)
	if p.TotalPages != 3 || !p.HasNext {
		t.Fatalf("unexpected pagination %+v", p)
	}
	if p := newPagination(1, 10, 0); p.TotalPages != 0 || p.HasNext {
		t.Fatalf("unexpected empty pagination %+v", p)
	}
}

func TestUnknownDomainUserIsNotFound(t *testing.T) {
	h := newHarness(t)
	w := h.do(t, http.MethodGet, "/users/ghost", "", nil)
	expectError(t, w, http.StatusNotFound, ErrCodeNotFound)
	if decode[ErrorResponse](t, w).RequestID == "" {
		t.Fatal("expected request id in error envelope")
	}
}
