package stripewebhooks

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"freelancer-hub/internal/app/services"
	"freelancer-hub/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v75"
)

// errIgnored marks events that are acknowledged without retry.
var errIgnored = errors.New("event ignored")

func StripeWebhook(c *gin.Context) {
	lg := logger.WithComponent("stripe")
	gw := services.Checkout
	if gw == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Stripe is not configured"})
		return
	}

	payload, err := readStripeBody(c, 65536)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Error reading request body"})
		return
	}

	event, err := gw.ConstructEvent(payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		lg.Warn().Err(err).Msg("stripe signature verification failed")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Signature verification failed"})
		return
	}

	switch event.Type {
	case "checkout.session.completed", "checkout.session.async_payment_succeeded":
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to parse session"})
			return
		}
		err := handleCheckoutSessionCompleted(&session)
		if errors.Is(err, errIgnored) {
			lg.Info().Str("session_id", session.ID).Err(err).Msg("checkout session acknowledged")
			c.JSON(http.StatusOK, gin.H{"status": "ignored"})
			return
		}
		if err != nil {
			// 500 makes Stripe retry.
			lg.Error().Err(err).Str("session_id", session.ID).Msg("checkout session not applied")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to apply payment"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "received"})

	case "checkout.session.expired":
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to parse session"})
			return
		}
		if err := handleCheckoutSessionExpired(&session); err != nil {
			lg.Error().Err(err).Str("session_id", session.ID).Msg("clear expired session")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to clear session"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "received"})

	default:
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
	}
}

func readStripeBody(c *gin.Context, maxBytes int64) ([]byte, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
	return io.ReadAll(c.Request.Body)
}
