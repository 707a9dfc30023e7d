package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

// Engine returns a bare gin engine in test mode.
func Engine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

// AsUser stands in for the session middleware.
func AsUser(userID uint) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", userID)
		c.Set("role", "user")
		c.Next()
	}
}

// AsClient stands in for the portal middleware.
func AsClient(clientID, userID uint) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("client_id", clientID)
		c.Set("portal_user_id", userID)
		c.Next()
	}
}

// Do sends body as JSON (nil for none) and records the response.
func Do(t *testing.T, h http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func Decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
}
