package stripe

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v75"
)

// Currencies Stripe charges in whole units.
var zeroDecimal = map[string]bool{
	"bif": true, "clp": true, "djf": true, "gnf": true, "jpy": true,
	"kmf": true, "krw": true, "mga": true, "pyg": true, "rwf": true,
	"ugx": true, "vnd": true, "vuv": true, "xaf": true, "xof": true, "xpf": true,
}

// ToMinorUnits converts an amount to the integer Stripe expects.
func ToMinorUnits(amount decimal.Decimal, currency string) (int64, error) {
	if !amount.IsPositive() {
		return 0, fmt.Errorf("amount must be positive, got %s", amount)
	}
	if zeroDecimal[strings.ToLower(currency)] {
		return amount.Round(0).IntPart(), nil
	}
	return amount.Shift(2).Round(0).IntPart(), nil
}

// FromMinorUnits is the inverse of ToMinorUnits.
func FromMinorUnits(v int64, currency string) decimal.Decimal {
	d := decimal.NewFromInt(v)
	if zeroDecimal[strings.ToLower(currency)] {
		return d
	}
	return d.Shift(-2)
}

// SessionPaid reports whether a completed checkout session actually collected money.
func SessionPaid(s *stripe.CheckoutSession) bool {
	return s != nil && s.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid
}

// PaymentIntentID returns the intent id whether or not it was expanded.
func PaymentIntentID(s *stripe.CheckoutSession) string {
	if s == nil || s.PaymentIntent == nil {
		return ""
	}
	return s.PaymentIntent.ID
}
