// Package services holds the process-wide collaborators handlers reach for,
// next to database.DB.
package services

import (
	"time"

	"freelancer-hub/internal/infra/mailer"
	stripegw "freelancer-hub/internal/infra/stripe"

	"github.com/rs/zerolog/log"
)

var (
	Mailer   mailer.Mailer = &mailer.LogMailer{Log: log.Logger}
	Checkout stripegw.CheckoutGateway

	// Now is swapped in tests that need a fixed clock.
	Now = time.Now
)

// Reset restores the defaults.
func Reset() {
	Mailer = &mailer.LogMailer{Log: log.Logger}
	Checkout = nil
	Now = time.Now
}
