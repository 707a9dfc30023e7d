package pdf

import (
	"bytes"
	"testing"
	"time"

	"freelancer-hub/internal/domain/clients"
	"freelancer-hub/internal/domain/invoices"
	"freelancer-hub/internal/domain/users"

	"github.com/shopspring/decimal"
)

func TestRenderInvoice(t *testing.T) {
	d := decimal.RequireFromString
	inv := invoices.Invoice{
		Number:    "INV-0042",
		Currency:  "eur",
		IssueDate: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		DueDate:   time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC),
		Subtotal:  d("200"),
		Total:     d("200"),
		Notes:     "Thank you for your business.",
		LineItems: []invoices.LineItem{
			{Description: "Consulting", Quantity: d("2"), UnitPrice: d("100"), Amount: d("200")},
		},
	}
	var buf bytes.Buffer
	err := RenderInvoice(&buf, inv, users.User{Email: "me@freelancer.test", BusinessName: "Studio Ö"}, clients.Client{Name: "Acme", Email: "ap@acme.test"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
		t.Fatalf("output is not a PDF")
	}
}

func TestMoney(t *testing.T) {
	if got := money(decimal.RequireFromString("12.5"), "usd"); got != "USD 12.50" {
		t.Fatalf("got %q", got)
	}
}
