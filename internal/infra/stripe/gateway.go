package stripe

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v75"
	checkoutsession "github.com/stripe/stripe-go/v75/checkout/session"
	"github.com/stripe/stripe-go/v75/webhook"
)

var ErrNotConfigured = errors.New("stripe is not configured")

// CheckoutRequest describes a one-off payment of an invoice balance.
type CheckoutRequest struct {
	InvoiceID     uint
	UserID        uint
	InvoiceNumber string
	Description   string
	Amount        decimal.Decimal
	Currency      string
	CustomerEmail string
	SuccessURL    string
	CancelURL     string
}

type CheckoutSession struct {
	ID  string `json:"session_id"`
	URL string `json:"url"`

	Status      stripe.CheckoutSessionStatus `json:"-"`
	AmountTotal int64                        `json:"-"`
}

func (s CheckoutSession) Open() bool {
	return s.Status == stripe.CheckoutSessionStatusOpen
}

func (s CheckoutSession) Complete() bool {
	return s.Status == stripe.CheckoutSessionStatusComplete
}

// CheckoutGateway is the part of Stripe the app talks to.
type CheckoutGateway interface {
	CreateCheckout(ctx context.Context, req CheckoutRequest) (CheckoutSession, error)
	LookupCheckout(ctx context.Context, sessionID string) (CheckoutSession, error)
	ExpireCheckout(ctx context.Context, sessionID string) error
	ConstructEvent(payload []byte, signature string) (stripe.Event, error)
}

type Client struct {
	secretKey     string
	webhookSecret string
}

func NewClient(secretKey, webhookSecret string) *Client {
	stripe.Key = secretKey
	return &Client{secretKey: secretKey, webhookSecret: webhookSecret}
}

func (c *Client) CreateCheckout(ctx context.Context, req CheckoutRequest) (CheckoutSession, error) {
	if c.secretKey == "" {
		return CheckoutSession{}, ErrNotConfigured
	}
	amount, err := ToMinorUnits(req.Amount, req.Currency)
	if err != nil {
		return CheckoutSession{}, err
	}

	invoiceID := fmt.Sprint(req.InvoiceID)
	userID := fmt.Sprint(req.UserID)
	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(req.SuccessURL),
		CancelURL:         stripe.String(req.CancelURL),
		ClientReferenceID: stripe.String(invoiceID),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(req.Currency),
					UnitAmount: stripe.Int64(amount),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name:        stripe.String("Invoice " + req.InvoiceNumber),
						Description: optional(req.Description),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
			Metadata: map[string]string{
				"invoice_id": invoiceID,
				"user_id":    userID,
			},
		},
	}
	params.Context = ctx
	params.AddMetadata("invoice_id", invoiceID)
	params.AddMetadata("user_id", userID)
	if req.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(req.CustomerEmail)
	}

	s, err := checkoutsession.New(params)
	if err != nil {
		return CheckoutSession{}, fmt.Errorf("create checkout session: %w", err)
	}
	return fromStripe(s), nil
}

func (c *Client) LookupCheckout(ctx context.Context, sessionID string) (CheckoutSession, error) {
	if c.secretKey == "" {
		return CheckoutSession{}, ErrNotConfigured
	}
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	s, err := checkoutsession.Get(sessionID, params)
	if err != nil {
		return CheckoutSession{}, fmt.Errorf("get checkout session: %w", err)
	}
	return fromStripe(s), nil
}

// ExpireCheckout closes an open session so it can no longer be paid.
func (c *Client) ExpireCheckout(ctx context.Context, sessionID string) error {
	if c.secretKey == "" {
		return ErrNotConfigured
	}
	params := &stripe.CheckoutSessionExpireParams{}
	params.Context = ctx
	if _, err := checkoutsession.Expire(sessionID, params); err != nil {
		return fmt.Errorf("expire checkout session: %w", err)
	}
	return nil
}

func fromStripe(s *stripe.CheckoutSession) CheckoutSession {
	return CheckoutSession{ID: s.ID, URL: s.URL, Status: s.Status, AmountTotal: s.AmountTotal}
}

func (c *Client) ConstructEvent(payload []byte, signature string) (stripe.Event, error) {
	if c.webhookSecret == "" {
		return stripe.Event{}, ErrNotConfigured
	}
	return webhook.ConstructEventWithOptions(
		payload,
		signature,
		c.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true},
	)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return stripe.String(s)
}
