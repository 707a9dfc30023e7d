package invoices

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestCheckCheckout(t *testing.T) {
	cases := []struct {
		name string
		inv  Invoice
		want error
	}{
		{"sent with balance", Invoice{Status: StatusSent, Total: d("100"), AmountPaid: d("40")}, nil},
		{"overdue with balance", Invoice{Status: StatusOverdue, Total: d("100")}, nil},
		{"paid", Invoice{Status: StatusPaid, Total: d("100"), AmountPaid: d("100")}, ErrAlreadyPaid},
		{"no balance", Invoice{Status: StatusViewed, Total: d("100"), AmountPaid: d("100")}, ErrNothingDue},
		{"zero total", Invoice{Status: StatusSent, Total: d("0")}, ErrNothingDue},
		{"draft", Invoice{Status: StatusDraft, Total: d("100")}, ErrNotPayable},
		{"cancelled", Invoice{Status: StatusCancelled, Total: d("100")}, ErrNotPayable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := CheckCheckout(tc.inv)
			if tc.want == nil && err != nil {
				t.Fatalf("expected nil, got %v", err)
			}
			if tc.want != nil && !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestTotals(t *testing.T) {
	items, err := BuildItems([]ItemInput{
		{Description: "a", Quantity: d("1.5"), UnitPrice: d("33.33")},
		{Description: "b", Quantity: d("3"), UnitPrice: d("10")},
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if !items[0].Amount.Equal(d("50")) {
		t.Fatalf("expected rounded line amount 50, got %s", items[0].Amount)
	}
	sub, tax, total := Totals(items, d("8.25"))
	if !sub.Equal(d("80")) || !tax.Equal(d("6.6")) || !total.Equal(d("86.6")) {
		t.Fatalf("unexpected totals %s %s %s", sub, tax, total)
	}
}

func TestBuildItemsValidation(t *testing.T) {
	if _, err := BuildItems(nil); !errors.Is(err, ErrNoLineItems) {
		t.Fatalf("expected ErrNoLineItems, got %v", err)
	}
	if _, err := BuildItems([]ItemInput{{Description: "x", Quantity: d("0"), UnitPrice: d("1")}}); err == nil {
		t.Fatalf("expected error for zero quantity")
	}
}

func TestFormatNumber(t *testing.T) {
	if got := FormatNumber(7); got != "INV-0007" {
		t.Fatalf("got %s", got)
	}
	if got := FormatNumber(12345); got != "INV-12345" {
		t.Fatalf("got %s", got)
	}
}
