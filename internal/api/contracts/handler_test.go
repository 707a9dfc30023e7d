package contracts_test

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"testing"

	contractsapi "freelancer-hub/internal/api/contracts"
	"freelancer-hub/internal/app/services"
	"freelancer-hub/internal/domain/contracts"
	"freelancer-hub/internal/infra/mailer"
	"freelancer-hub/internal/infra/mailer/mocks"
	"freelancer-hub/internal/testutil"

	"github.com/gin-gonic/gin"
	"go.uber.org/mock/gomock"
)

func router(userID uint) *gin.Engine {
	r := testutil.Engine()
	r.Use(testutil.AsUser(userID))
	r.GET("/contracts", contractsapi.ListContracts)
	r.POST("/contracts", contractsapi.CreateContract)
	r.GET("/contracts/:id", contractsapi.GetContract)
	r.PUT("/contracts/:id", contractsapi.UpdateContract)
	r.DELETE("/contracts/:id", contractsapi.DeleteContract)
	r.POST("/contracts/:id/send", contractsapi.SendContract)
	r.POST("/contracts/:id/cancel", contractsapi.CancelContract)
	return r
}

func TestContractLifecycle(t *testing.T) {
	db := testutil.NewDB(t)
	u := testutil.User(t, db, "me@example.com")
	c := testutil.Client(t, db, u.ID)
	other := testutil.User(t, db, "other@example.com")
	oc := testutil.Client(t, db, other.ID)
	p := testutil.Project(t, db, other.ID, oc.ID, "1000")
	r := router(u.ID)

	ctrl := gomock.NewController(t)
	m := mocks.NewMockMailer(ctrl)
	m.EXPECT().Send(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, msg mailer.Message) error {
		if msg.To != c.Email || !strings.Contains(msg.Subject, "Service agreement") {
			t.Errorf("unexpected message %+v", msg)
		}
		return nil
	})
	services.Mailer = m
	t.Cleanup(services.Reset)

	t.Run("foreign project", func(t *testing.T) {
		w := testutil.Do(t, r, http.MethodPost, "/contracts", map[string]interface{}{
			"client_id": c.ID, "project_id": p.ID, "title": "Service agreement", "content": "Terms",
		})
		if w.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", w.Code)
		}
	})

	var ct contracts.Contract
	w := testutil.Do(t, r, http.MethodPost, "/contracts", map[string]interface{}{
		"client_id": c.ID, "title": "Service agreement", "content": "Terms",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	testutil.Decode(t, w, &ct)
	path := fmt.Sprintf("/contracts/%d", ct.ID)

	t.Run("update draft", func(t *testing.T) {
		w := testutil.Do(t, r, http.MethodPut, path, map[string]interface{}{
			"client_id": c.ID, "title": "Service agreement v2", "content": "New terms",
		})
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
		}
	})

	t.Run("send", func(t *testing.T) {
		w := testutil.Do(t, r, http.MethodPost, path+"/send", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
		}
		var got struct {
			Contract  contracts.Contract `json:"contract"`
			EmailSent bool               `json:"email_sent"`
		}
		testutil.Decode(t, w, &got)
		if got.Contract.Status != contracts.StatusSent || !got.EmailSent {
			t.Fatalf("unexpected response %+v", got)
		}
	})

	t.Run("sent is not editable", func(t *testing.T) {
		w := testutil.Do(t, r, http.MethodPut, path, map[string]interface{}{
			"client_id": c.ID, "title": "x", "content": "y",
		})
		if w.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", w.Code)
		}
		if w := testutil.Do(t, r, http.MethodDelete, path, nil); w.Code != http.StatusConflict {
			t.Fatalf("expected 409 on delete, got %d", w.Code)
		}
	})

	t.Run("cancel then delete", func(t *testing.T) {
		w := testutil.Do(t, r, http.MethodPost, path+"/cancel", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
		}
		var got contracts.Contract
		testutil.Decode(t, w, &got)
		if got.Status != contracts.StatusCancelled {
			t.Fatalf("expected cancelled, got %s", got.Status)
		}
		if w := testutil.Do(t, r, http.MethodDelete, path, nil); w.Code != http.StatusOK {
			t.Fatalf("expected 200 on delete, got %d", w.Code)
		}
	})

	t.Run("other user cannot see", func(t *testing.T) {
		w := testutil.Do(t, router(other.ID), http.MethodGet, "/contracts", nil)
		var list []contracts.Contract
		testutil.Decode(t, w, &list)
		if len(list) != 0 {
			t.Fatalf("expected no contracts, got %d", len(list))
		}
	})
}
