package routes

import (
	"net/http"
	"strings"
	"time"

	"freelancer-hub/config"
	adminapi "freelancer-hub/internal/api/admin"
	authapi "freelancer-hub/internal/api/auth"
	billingapi "freelancer-hub/internal/api/billing"
	clientsapi "freelancer-hub/internal/api/clients"
	contractsapi "freelancer-hub/internal/api/contracts"
	cronapi "freelancer-hub/internal/api/cron"
	dashboardapi "freelancer-hub/internal/api/dashboard"
	invoicesapi "freelancer-hub/internal/api/invoices"
	portalapi "freelancer-hub/internal/api/portal"
	projectsapi "freelancer-hub/internal/api/projects"
	remindersapi "freelancer-hub/internal/api/reminders"
	stripewebhooks "freelancer-hub/internal/api/stripewebhook"
	timeapi "freelancer-hub/internal/api/timeentries"
	usersapi "freelancer-hub/internal/api/users"
	"freelancer-hub/internal/app/http/middleware"
	"freelancer-hub/internal/domain/users"
	"freelancer-hub/internal/ratelimit"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewEngine builds the gin engine with the global middleware and every route.
// A nil store disables rate limiting.
func NewEngine(cfg *config.Config, store ratelimit.Store) *gin.Engine {
	r := gin.New()
	r.Use(middleware.Recovery(), middleware.RequestLogger())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     origins(cfg.CorsOrigin),
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Retry-After", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	RegisterRoutes(r, store)
	return r
}

// origins splits a comma separated CORS_ORIGIN value.
func origins(v string) []string {
	var out []string
	for _, o := range strings.Split(v, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	if len(out) == 0 {
		out = []string{"http://localhost:5173"}
	}
	return out
}

func RegisterRoutes(r *gin.Engine, store ratelimit.Store) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")

	// Stripe signs the raw body; it must not be sanitized.
	api.POST("/webhooks/stripe", stripewebhooks.StripeWebhook)

	cron := api.Group("/cron", middleware.CronAuth())
	cron.GET("/reminders", cronapi.Reminders)
	cron.POST("/reminders", cronapi.Reminders)
	cron.POST("/mark-overdue", cronapi.MarkOverdue)

	auth := api.Group("/auth",
		middleware.RateLimit(store, ratelimit.Auth),
		middleware.SanitizeAndCleanInputMiddleware(),
	)
	auth.POST("/register", authapi.Register)
	auth.POST("/login", authapi.Login)
	auth.POST("/logout", authapi.Logout)
	auth.GET("/google", authapi.GoogleStart)
	auth.GET("/google/callback", authapi.GoogleCallback)

	portal := api.Group("/portal",
		middleware.RateLimit(store, ratelimit.Public),
		middleware.SanitizeAndCleanInputMiddleware(),
	)
	portal.POST("/auth", portalapi.Auth)
	portal.POST("/logout", portalapi.Logout)

	client := portal.Group("/", middleware.PortalAuth())
	client.GET("/me", portalapi.Me)
	client.GET("/invoices", portalapi.ListInvoices)
	client.GET("/invoices/:id", portalapi.GetInvoice)
	client.GET("/invoices/:id/pdf", portalapi.InvoicePDF)
	client.POST("/invoices/:id/checkout", portalapi.Checkout)
	client.GET("/projects", portalapi.ListProjects)
	client.GET("/projects/:id", portalapi.GetProject)
	client.POST("/milestones/:id/approve", portalapi.ApproveMilestone)
	client.POST("/milestones/:id/request-revision", portalapi.RequestRevision)
	client.GET("/contracts", portalapi.ListContracts)
	client.POST("/contracts/:id/sign", portalapi.SignContract)
	client.GET("/messages", portalapi.ListMessages)
	client.POST("/messages", portalapi.PostMessage)

	// Authenticated freelancer
	me := api.Group("/",
		middleware.AuthMiddleware(),
		middleware.RateLimit(store, ratelimit.Standard),
	)
	me.GET("/me", usersapi.GetCurrentUser)
	me.PUT("/me", usersapi.UpdateCurrentUser)
	me.DELETE("/me", usersapi.DeleteCurrentUser)
	me.POST("/me/password", authapi.ChangePassword)
	me.GET("/settings/reminders", usersapi.GetReminderSettings)
	me.PUT("/settings/reminders", usersapi.UpdateReminderSettings)
	me.GET("/dashboard", dashboardapi.GetDashboard)

	me.GET("/clients", clientsapi.ListClients)
	me.POST("/clients", clientsapi.CreateClient)
	me.GET("/clients/:id", clientsapi.GetClient)
	me.PUT("/clients/:id", clientsapi.UpdateClient)
	me.DELETE("/clients/:id", clientsapi.DeleteClient)
	me.POST("/clients/:id/portal-invite", clientsapi.PortalInvite)
	me.GET("/clients/:id/messages", clientsapi.ListMessages)
	me.POST("/clients/:id/messages", clientsapi.PostMessage)

	me.GET("/projects", projectsapi.ListProjects)
	me.POST("/projects", projectsapi.CreateProject)
	me.GET("/projects/:id", projectsapi.GetProject)
	me.PUT("/projects/:id", projectsapi.UpdateProject)
	me.DELETE("/projects/:id", projectsapi.DeleteProject)
	me.GET("/projects/:id/milestones", projectsapi.ListMilestones)
	me.POST("/projects/:id/milestones", projectsapi.CreateMilestone)
	me.PUT("/projects/:id/milestones/reorder", projectsapi.ReorderMilestones)

	me.PUT("/milestones/:id", projectsapi.UpdateMilestone)
	me.DELETE("/milestones/:id", projectsapi.DeleteMilestone)
	me.POST("/milestones/:id/start", projectsapi.StartMilestone)
	me.POST("/milestones/:id/submit", projectsapi.SubmitMilestone)
	me.POST("/milestones/:id/mark-paid", projectsapi.MarkMilestonePaid)
	me.POST("/milestones/:id/invoice", invoicesapi.FromMilestone)
	me.POST("/milestones/:id/deliverables", projectsapi.AddDeliverable)
	me.DELETE("/deliverables/:id", projectsapi.DeleteDeliverable)

	me.GET("/payments", billingapi.GetPaymentHistory)
	me.GET("/invoices", invoicesapi.ListInvoices)
	me.POST("/invoices", invoicesapi.CreateInvoice)
	me.POST("/invoices/from-time-entries", invoicesapi.FromTimeEntries)
	me.GET("/invoices/:id", invoicesapi.GetInvoice)
	me.PUT("/invoices/:id", invoicesapi.UpdateInvoice)
	me.DELETE("/invoices/:id", invoicesapi.DeleteInvoice)
	me.POST("/invoices/:id/send", invoicesapi.SendInvoice)
	me.POST("/invoices/:id/cancel", invoicesapi.CancelInvoice)
	me.POST("/invoices/:id/payments", invoicesapi.RecordPayment)
	me.POST("/invoices/:id/remind", invoicesapi.RemindInvoice)
	me.GET("/invoices/:id/pdf", invoicesapi.InvoicePDF)

	me.GET("/contracts", contractsapi.ListContracts)
	me.POST("/contracts", contractsapi.CreateContract)
	me.GET("/contracts/:id", contractsapi.GetContract)
	me.PUT("/contracts/:id", contractsapi.UpdateContract)
	me.DELETE("/contracts/:id", contractsapi.DeleteContract)
	me.POST("/contracts/:id/send", contractsapi.SendContract)
	me.POST("/contracts/:id/cancel", contractsapi.CancelContract)

	me.GET("/time-entries", timeapi.ListEntries)
	me.POST("/time-entries", timeapi.CreateEntry)
	me.POST("/time-entries/start", timeapi.StartTimer)
	me.PUT("/time-entries/:id", timeapi.UpdateEntry)
	me.DELETE("/time-entries/:id", timeapi.DeleteEntry)
	me.POST("/time-entries/:id/stop", timeapi.StopTimer)

	me.GET("/reminders", remindersapi.ListReminders)
	me.GET("/reminders/stats", remindersapi.Stats)

	// Admin routes
	admin := api.Group("/admin")
	admin.Use(middleware.AuthMiddleware(), middleware.RequireRole(users.RoleAdmin))
	admin.GET("/users", adminapi.ListAllUsers)
	admin.GET("/users/:id", adminapi.GetUserDetails)
	admin.GET("/stats", adminapi.GetAdminStats)
}
