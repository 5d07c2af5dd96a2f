package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"crm-app/config"
	"crm-app/database"
	accessapi "crm-app/internal/api/access"
	"crm-app/internal/api/billing"
	profilesapi "crm-app/internal/api/profiles"
	sessionapi "crm-app/internal/api/session"
	stripewebhooks "crm-app/internal/api/stripewebhook"
	routes "crm-app/internal/app/http"
	"crm-app/internal/app/http/middleware"
	"crm-app/internal/domain/access"
	"crm-app/internal/guard"
	stripeinfra "crm-app/internal/infra/stripe"
	"crm-app/internal/logger"
	"crm-app/internal/metrics"
	"crm-app/internal/notify"
	"crm-app/internal/ratelimit"
	"crm-app/internal/session"
	"crm-app/internal/store"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/stripe/stripe-go/v75"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, err := logger.NewStructured(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer log.Sync()

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	db, err := database.Open(cfg.DBURL)
	if err != nil {
		return err
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warn("redis not reachable at startup", map[string]interface{}{
			"addr":  cfg.Redis.Address,
			"error": err.Error(),
		})
	}

	// Stripe follow-up calls (checkout sessions, subscription fetches) use the global key.
	stripe.Key = cfg.Stripe.SecretKey

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewAccessMetrics(registry)

	profileStore := store.NewProfileStore(db)
	subscriptionStore := store.NewSubscriptionStore(db)

	queue := notify.NewQueue(cfg.NotificationQueueSize, log, m)
	inbox := notify.NewRedisInbox(rdb)
	dispatcher := notify.NewDispatcher(inbox)
	dispatcher.On(notify.KindSessionTerminated, inbox)
	dispatcher.On(notify.KindSessionTerminated, notify.SinkFunc(func(_ context.Context, n notify.Notification) error {
		log.Info("session terminated", map[string]interface{}{"userId": n.UserID.String(), "message": n.Message})
		return nil
	}))

	checkout := stripeinfra.CheckoutLinker{
		BaseURL:    cfg.Stripe.CheckoutURL,
		SuccessURL: cfg.Stripe.SuccessURL(),
		CancelURL:  cfg.Stripe.CancelURL(),
	}

	allowList := append(access.AllowList{}, access.DefaultAllowList...)
	allowList = append(allowList, cfg.AllowListExtra...)
	gate := guard.NewGate(profileStore, subscriptionStore, checkout, queue, m, log, guard.Options{AllowList: allowList})

	revoker := session.NewRedisRevoker(rdb, cfg.Auth.MaxTokenTTL)
	validator := session.NewValidator(session.NewProfileAccessChecker(profileStore), revoker, queue, m, log)

	verifier, err := tokenVerifier(ctx, cfg.Auth)
	if err != nil {
		return err
	}

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.CORSOrigin},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	routes.RegisterRoutes(r, routes.Deps{
		Auth:     middleware.NewAuthenticator(verifier, revoker, log),
		Gate:     gate,
		Profiles: profileStore,
		Notifier: queue,
		Limiter:  ratelimit.New(rdb, cfg.RateLimit.SessionStartMax, cfg.RateLimit.Window),
		Metrics:  m,
		Gatherer: registry,
		Log:      log,

		Access:  accessapi.NewHandler(gate, profileStore, subscriptionStore, log),
		Session: sessionapi.NewHandler(validator, inbox, log),
		Billing: billing.NewHandler(profileStore, subscriptionStore, checkout, billing.Config{
			StripeEnabled: cfg.Stripe.SecretKey != "",
			PriceID:       cfg.Stripe.PriceID,
			SuccessURL:    cfg.Stripe.SuccessURL(),
			CancelURL:     cfg.Stripe.CancelURL(),
			Environment:   cfg.Environment,
		}, log),
		Admin:    profilesapi.NewHandler(profileStore, log),
		Webhooks: stripewebhooks.NewHandler(subscriptionStore, cfg.Stripe.WebhookSecret, log),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	// stops on queue.Close, after Shutdown has let in-flight requests publish
	g.Go(func() error {
		return queue.Run(context.WithoutCancel(gctx), dispatcher)
	})
	g.Go(func() error {
		log.Info("http server listening", map[string]interface{}{"addr": srv.Addr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, done := context.WithTimeout(context.Background(), 15*time.Second)
		defer done()
		err := srv.Shutdown(shutdownCtx)
		queue.Close()
		return err
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, notify.ErrQueueClosed) {
		return err
	}
	log.Info("shutdown complete", nil)
	return nil
}

func tokenVerifier(ctx context.Context, cfg config.AuthConfig) (middleware.TokenVerifier, error) {
	if cfg.OIDCIssuer != "" {
		return middleware.NewOIDCVerifier(ctx, cfg.OIDCIssuer, cfg.OIDCClientID)
	}
	return middleware.NewHMACVerifier(cfg.JWTSecret), nil
}
