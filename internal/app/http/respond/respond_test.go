package respond

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"freelancer-hub/internal/apperr"

	"github.com/gin-gonic/gin"
)

func run(t *testing.T, err error) (int, map[string]interface{}) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/x", func(c *gin.Context) { Error(c, err) })
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	var body map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &body)
	return w.Code, body
}

func TestError(t *testing.T) {
	t.Run("internal errors are hidden", func(t *testing.T) {
		code, body := run(t, errors.New("pq: connection refused"))
		if code != http.StatusInternalServerError || body["error"] != "Internal server error" {
			t.Fatalf("unexpected response %d %v", code, body)
		}
	})

	t.Run("conflict keeps message", func(t *testing.T) {
		code, body := run(t, fmt.Errorf("pay: %w", apperr.Conflict("Invoice is already paid")))
		if code != http.StatusConflict || body["error"] != "Invoice is already paid" {
			t.Fatalf("unexpected response %d %v", code, body)
		}
	})

	t.Run("validation carries fields", func(t *testing.T) {
		code, body := run(t, apperr.Validation("Invalid input", map[string]string{"email": "required"}))
		if code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", code)
		}
		fields, _ := body["fields"].(map[string]interface{})
		if fields["email"] != "required" {
			t.Fatalf("expected field errors, got %v", body)
		}
	})
}

func TestBindError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	type input struct {
		ClientID uint   `json:"client_id" binding:"required"`
		Email    string `json:"email" binding:"required,email"`
	}
	r := gin.New()
	r.POST("/x", func(c *gin.Context) {
		var in input
		if err := c.ShouldBindJSON(&in); err != nil {
			BindError(c, err)
			return
		}
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/x", jsonBody(`{"email":"nope"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	var body struct {
		Fields map[string]string `json:"fields"`
	}
	json.Unmarshal(w.Body.Bytes(), &body)
	if w.Code != http.StatusBadRequest || body.Fields["client_id"] != "required" || body.Fields["email"] != "email" {
		t.Fatalf("unexpected response %d %s", w.Code, w.Body.String())
	}
}
