package routes

import (
	"net/http"

	accessapi "crm-app/internal/api/access"
	"crm-app/internal/api/billing"
	profilesapi "crm-app/internal/api/profiles"
	sessionapi "crm-app/internal/api/session"
	stripewebhooks "crm-app/internal/api/stripewebhook"
	"crm-app/internal/app/http/middleware"
	"crm-app/internal/domain/profiles"
	"crm-app/internal/logger"
	"crm-app/internal/metrics"
	"crm-app/internal/notify"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Deps struct {
	Auth     *middleware.Authenticator
	Gate     middleware.GateChecker
	Profiles middleware.ProfileLoader
	Notifier notify.Publisher
	Limiter  middleware.Limiter
	Metrics  metrics.AccessMetrics
	Gatherer prometheus.Gatherer
	Log      logger.Logger

	Access   *accessapi.Handler
	Session  *sessionapi.Handler
	Billing  *billing.Handler
	Admin    *profilesapi.Handler
	Webhooks *stripewebhooks.Handler
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	r.POST("/webhook", d.Webhooks.StripeWebhook)
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if d.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	optional := r.Group("/")
	optional.Use(d.Auth.Optional())
	optional.GET("/access/route", d.Access.RouteDecision)

	// Authenticated
	auth := r.Group("/")
	auth.Use(d.Auth.Required())
	auth.GET("/access/action", d.Access.ActionDecision)
	auth.GET("/subscription/status", d.Access.SubscriptionStatus)
	auth.GET("/me", d.Access.Me)
	auth.GET("/notifications", d.Session.Notifications)
	auth.GET("/plans", d.Billing.ListPlans)
	auth.GET("/checkout/link", d.Billing.CheckoutLink)
	auth.POST("/checkout/session", d.Billing.CreateCheckoutSession)
	auth.POST("/session/start",
		middleware.RateLimit(d.Limiter, "session_start", d.Metrics, d.Log),
		d.Session.Start,
	)

	// Tenant admins with a usable subscription
	admin := auth.Group("/profiles")
	admin.Use(
		middleware.SanitizeInput(),
		middleware.RequireActiveSubscription(d.Gate),
		middleware.RequirePermission(d.Profiles, d.Notifier, profiles.LevelAdmin),
	)
	admin.GET("", d.Admin.List)
	admin.PUT("/:id/permission", d.Admin.SetPermission)
	admin.POST("/:id/deactivate", d.Admin.Deactivate)
	admin.POST("/:id/activate", d.Admin.Activate)
}
