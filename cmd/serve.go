package cmd

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"freelancer-hub/config"
	"freelancer-hub/database"
	routes "freelancer-hub/internal/app/http"
	"freelancer-hub/internal/app/services"
	"freelancer-hub/internal/infra/mailer"
	stripegw "freelancer-hub/internal/infra/stripe"
	"freelancer-hub/internal/logger"
	"freelancer-hub/internal/ratelimit"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Run the HTTP API.

Required environment variables:
  DB_URL      - Postgres connection string
  JWT_SECRET  - Secret used to sign freelancer sessions

Optional: STRIPE_SECRET_KEY / STRIPE_WEBHOOK_SECRET for invoice payment,
REDIS_URL to share rate limits between instances, CRON_SECRET for the
cron endpoints.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

// newStore picks redis when configured and falls back to memory.
func newStore(ctx context.Context, cfg *config.Config) (ratelimit.Store, func() error) {
	log := logger.WithComponent("ratelimit")
	if !cfg.RateLimit.Enabled {
		log.Warn().Msg("rate limiting disabled")
		return nil, func() error { return nil }
	}
	if cfg.Redis.URL != "" {
		rs, err := ratelimit.NewRedisStoreFromURL(ctx, cfg.Redis.URL)
		if err == nil {
			log.Info().Msg("using redis rate-limit store")
			return rs, rs.Close
		}
		log.Warn().Err(err).Msg("redis unavailable, using in-memory rate limits")
	}
	ms := ratelimit.NewMemoryStore(cfg.RateLimit.PurgeInterval)
	return ms, ms.Close
}

func runServe(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("serve")
	cfg := config.App
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	database.InitDB()
	services.Mailer = mailer.New(cfg, logger.WithComponent("mailer"))
	if cfg.Stripe.SecretKey != "" {
		services.Checkout = stripegw.NewClient(cfg.Stripe.SecretKey, cfg.Stripe.WebhookSecret)
	} else {
		log.Warn().Msg("STRIPE_SECRET_KEY not set, online payment disabled")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore := newStore(ctx, cfg)
	defer closeStore()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           routes.NewEngine(cfg, store),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
