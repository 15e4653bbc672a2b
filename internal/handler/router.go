package handler

import (
	"fmt"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/makkenzo/checkout-service-api/internal/config"
	"github.com/makkenzo/checkout-service-api/internal/handler/middleware"
	"github.com/makkenzo/checkout-service-api/internal/ierr"
	"github.com/makkenzo/checkout-service-api/internal/ratelimit"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// RouterConfig carries everything the HTTP edge needs. Health may be nil when
// no backing stores are wired (tests).
type RouterConfig struct {
	Checkout     *CheckoutHandler
	Webhook      *WebhookHandler
	License      *LicenseHandler
	Health       *HealthHandler
	Auth         middleware.Authenticator
	LimitStore   ratelimit.Store
	Limits       config.RateLimitConfig
	PublicDomain string
	StaticDir    string
	Logger       *zap.Logger
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()

	router.Use(gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
			param.ClientIP,
			param.TimeStamp.Format(time.RFC1123),
			param.Method,
			param.Path,
			param.Request.Proto,
			param.StatusCode,
			param.Latency,
			param.Request.UserAgent(),
			param.ErrorMessage,
		)
	}))
	router.Use(gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logMsg := "Panic recovered"
		if err, ok := recovered.(string); ok {
			logMsg = fmt.Sprintf("%s: %s", logMsg, err)
		} else if err, ok := recovered.(error); ok {
			logMsg = fmt.Sprintf("%s: %v", logMsg, err)
		}
		cfg.Logger.Error(logMsg, zap.Stack("stack"))

		_ = c.Error(ierr.ErrInternalServer)
		c.Abort()
	}))

	corsConfig := cors.Config{
		AllowOrigins:     []string{cfg.PublicDomain},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	router.Use(cors.New(corsConfig))
	router.Use(middleware.SecurityHeadersMiddleware(cfg.PublicDomain))
	router.Use(middleware.ErrorHandlerMiddleware(cfg.Logger))

	if cfg.Health != nil {
		router.GET("/healthz", cfg.Health.Check)
	}
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if cfg.StaticDir != "" {
		router.StaticFile("/", cfg.StaticDir+"/index.html")
		router.StaticFile("/success.html", cfg.StaticDir+"/success.html")
		router.StaticFile("/cancel.html", cfg.StaticDir+"/cancel.html")
		router.Static("/public", cfg.StaticDir)
	}

	// Each route carries its own window; sharing one would let portal
	// traffic eat into the checkout budget.
	checkoutLimit := middleware.RateLimitMiddleware(cfg.LimitStore, "checkout-session", cfg.Limits.Checkout, cfg.Logger)
	portalLimit := middleware.RateLimitMiddleware(cfg.LimitStore, "portal-session", cfg.Limits.Checkout, cfg.Logger)
	licenseLimit := middleware.RateLimitMiddleware(cfg.LimitStore, "license", cfg.Limits.License, cfg.Logger)
	authGate := middleware.BasicAuthMiddleware(cfg.Auth, cfg.Logger)

	router.POST("/create-checkout-session", checkoutLimit, cfg.Checkout.CreateSession)
	router.POST("/create-portal-session", portalLimit, cfg.Checkout.CreatePortalSession)
	router.POST("/webhook", cfg.Webhook.Receive)
	router.POST("/check-license", licenseLimit, authGate, cfg.License.Check)

	return router
}
