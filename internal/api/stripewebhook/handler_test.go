package stripewebhooks

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"freelancer-hub/internal/app/services"
	"freelancer-hub/internal/domain/billing"
	"freelancer-hub/internal/domain/invoices"
	"freelancer-hub/internal/infra/stripe/mocks"
	"freelancer-hub/internal/testutil"

	"github.com/stripe/stripe-go/v75"
	"go.uber.org/mock/gomock"
)

func event(t *testing.T, typ string, session map[string]interface{}) stripe.Event {
	t.Helper()
	raw, err := json.Marshal(session)
	if err != nil {
		t.Fatalf("marshal session: %v", err)
	}
	return stripe.Event{Type: stripe.EventType(typ), Data: &stripe.EventData{Raw: raw}}
}

func TestStripeWebhook(t *testing.T) {
	db := testutil.NewDB(t)
	u := testutil.User(t, db, "me@example.com")
	c := testutil.Client(t, db, u.ID)
	inv := testutil.Invoice(t, db, u.ID, c.ID, invoices.StatusSent, "120.50", time.Now().AddDate(0, 0, 7))

	r := testutil.Engine()
	r.POST("/webhooks/stripe", StripeWebhook)

	ctrl := gomock.NewController(t)
	gw := mocks.NewMockCheckoutGateway(ctrl)
	services.Checkout = gw
	t.Cleanup(services.Reset)

	completed := map[string]interface{}{
		"id":             "cs_test_1",
		"payment_status": "paid",
		"amount_total":   12050,
		"currency":       "usd",
		"metadata":       map[string]string{"invoice_id": fmt.Sprint(inv.ID)},
	}

	t.Run("bad signature", func(t *testing.T) {
		gw.EXPECT().ConstructEvent(gomock.Any(), gomock.Any()).Return(stripe.Event{}, errors.New("bad sig"))
		w := testutil.Do(t, r, http.MethodPost, "/webhooks/stripe", map[string]string{})
		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", w.Code)
		}
	})

	t.Run("completed pays invoice", func(t *testing.T) {
		gw.EXPECT().ConstructEvent(gomock.Any(), gomock.Any()).Return(event(t, "checkout.session.completed", completed), nil)
		w := testutil.Do(t, r, http.MethodPost, "/webhooks/stripe", map[string]string{})
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
		}
		got, err := invoices.Load(db, inv.ID)
		if err != nil {
			t.Fatalf("load: %v", err)
		}
		if got.Status != invoices.StatusPaid || got.AmountPaid.String() != "120.5" {
			t.Fatalf("expected paid invoice, got %s / %s", got.Status, got.AmountPaid)
		}
	})

	t.Run("redelivery is acknowledged", func(t *testing.T) {
		gw.EXPECT().ConstructEvent(gomock.Any(), gomock.Any()).Return(event(t, "checkout.session.completed", completed), nil)
		w := testutil.Do(t, r, http.MethodPost, "/webhooks/stripe", map[string]string{})
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		var n int64
		db.Table("payments").Where("invoice_id = ?", inv.ID).Count(&n)
		if n != 1 {
			t.Fatalf("expected a single payment, got %d", n)
		}
	})

	t.Run("second session on a paid invoice is kept for refund", func(t *testing.T) {
		late := map[string]interface{}{
			"id":             "cs_test_second_tab",
			"payment_status": "paid",
			"amount_total":   12050,
			"currency":       "usd",
			"metadata":       map[string]string{"invoice_id": fmt.Sprint(inv.ID)},
		}
		for i := 0; i < 2; i++ {
			gw.EXPECT().ConstructEvent(gomock.Any(), gomock.Any()).Return(event(t, "checkout.session.completed", late), nil)
			w := testutil.Do(t, r, http.MethodPost, "/webhooks/stripe", map[string]string{})
			if w.Code != http.StatusOK {
				t.Fatalf("delivery %d: expected 200, got %d", i+1, w.Code)
			}
		}

		ps, err := invoices.Payments(db, inv.ID)
		if err != nil {
			t.Fatalf("payments: %v", err)
		}
		if len(ps) != 2 {
			t.Fatalf("expected the applied payment plus one refund row, got %d", len(ps))
		}
		refund := ps[1]
		if refund.Status != billing.PaymentNeedsRefund || refund.StripeSessionID == nil || *refund.StripeSessionID != "cs_test_second_tab" {
			t.Fatalf("unexpected refund row %+v", refund)
		}
		if !refund.Amount.Equal(testutil.Money("120.50")) {
			t.Fatalf("expected refund amount 120.50, got %s", refund.Amount)
		}
		got, _ := invoices.Load(db, inv.ID)
		if !got.AmountPaid.Equal(testutil.Money("120.50")) || got.Status != invoices.StatusPaid {
			t.Fatalf("invoice changed: %s / %s", got.Status, got.AmountPaid)
		}
	})

	t.Run("unpaid session ignored", func(t *testing.T) {
		unpaid := map[string]interface{}{"id": "cs_test_2", "payment_status": "unpaid"}
		gw.EXPECT().ConstructEvent(gomock.Any(), gomock.Any()).Return(event(t, "checkout.session.completed", unpaid), nil)
		w := testutil.Do(t, r, http.MethodPost, "/webhooks/stripe", map[string]string{})
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
	})

	t.Run("expired clears session", func(t *testing.T) {
		other := testutil.Invoice(t, db, u.ID, c.ID, invoices.StatusSent, "50", time.Now().AddDate(0, 0, 7))
		if err := invoices.SetCheckoutSession(db, other.ID, "cs_test_3"); err != nil {
			t.Fatalf("set session: %v", err)
		}
		gw.EXPECT().ConstructEvent(gomock.Any(), gomock.Any()).Return(event(t, "checkout.session.expired", map[string]interface{}{"id": "cs_test_3"}), nil)
		w := testutil.Do(t, r, http.MethodPost, "/webhooks/stripe", map[string]string{})
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		got, _ := invoices.Load(db, other.ID)
		if got.StripeSessionID != nil {
			t.Fatalf("expected session id cleared")
		}
	})
}
