package billing

import (
	"net/http"
	"testing"
	"time"

	"freelancer-hub/internal/domain/billing"
	"freelancer-hub/internal/domain/invoices"
	"freelancer-hub/internal/testutil"
)

func TestGetPaymentHistory(t *testing.T) {
	db := testutil.NewDB(t)
	u := testutil.User(t, db, "me@example.com")
	c := testutil.Client(t, db, u.ID)
	inv := testutil.Invoice(t, db, u.ID, c.ID, invoices.StatusSent, "500", time.Now())
	day := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	db.Create(&billing.Payment{InvoiceID: inv.ID, UserID: u.ID, Amount: testutil.Money("100"), Status: billing.PaymentCompleted, Method: billing.MethodManual, PaidAt: day})
	db.Create(&billing.Payment{InvoiceID: inv.ID, UserID: u.ID, Amount: testutil.Money("150"), Status: billing.PaymentCompleted, Method: billing.MethodStripe, PaidAt: day.AddDate(0, 0, 5)})

	r := testutil.Engine()
	r.Use(testutil.AsUser(u.ID))
	r.GET("/payments", GetPaymentHistory)

	cases := []struct {
		name, query string
		count       int
		total       string
	}{
		{"all", "", 2, "250"},
		{"stripe only", "?method=stripe", 1, "150"},
		{"up to the tenth", "?to=2026-03-10", 1, "100"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var got paymentHistory
			testutil.Decode(t, testutil.Do(t, r, http.MethodGet, "/payments"+tc.query, nil), &got)
			if len(got.Payments) != tc.count || got.Total.String() != tc.total {
				t.Fatalf("expected %d / %s, got %d / %s", tc.count, tc.total, len(got.Payments), got.Total)
			}
		})
	}

	t.Run("bad date", func(t *testing.T) {
		if w := testutil.Do(t, r, http.MethodGet, "/payments?from=yesterday", nil); w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", w.Code)
		}
	})
}
