package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-challenge-backend/internal/session"
)

type staticSession string

func (s staticSession) UserID(context.Context) (string, bool) { return string(s), s != "" }

func TestIdentity(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name      string
		sess      SessionResolver
		header    string
		query     string
		wantID    string
		wantCtxID string
	}{
		{name: "header wins", sess: staticSession("s1"), header: "u1", wantID: "u1", wantCtxID: "u1"},
		{name: "query fallback", sess: staticSession("s1"), query: "u2", wantID: "u2", wantCtxID: "u2"},
		{name: "session only", sess: staticSession("s1"), wantID: "s1"},
		{name: "anonymous", sess: staticSession("")},
		{name: "nil session", sess: nil},
		{name: "blank header", sess: staticSession("s1"), header: "   ", wantID: "s1"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := gin.New()
			r.Use(Identity(tc.sess))
			r.GET("/who", func(c *gin.Context) {
				id, ok := UserID(c)
				if id != tc.wantID || ok != (tc.wantID != "") {
					t.Fatalf("UserID = %q,%v want %q", id, ok, tc.wantID)
				}
				ctxID, _ := session.UserFromContext(c.Request.Context())
				if ctxID != tc.wantCtxID {
					t.Fatalf("context user = %q want %q", ctxID, tc.wantCtxID)
				}
				c.Status(http.StatusNoContent)
			})

			target := "/who"
			if tc.query != "" {
				target += "?as=" + tc.query
			}
			req := httptest.NewRequest(http.MethodGet, target, nil)
			if tc.header != "" {
				req.Header.Set(HeaderUserID, tc.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != http.StatusNoContent {
				t.Fatalf("status %d", w.Code)
			}
		})
	}
}
