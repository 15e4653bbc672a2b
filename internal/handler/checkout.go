package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/makkenzo/checkout-service-api/internal/billing"
	"github.com/makkenzo/checkout-service-api/internal/handler/dto"
	"github.com/makkenzo/checkout-service-api/internal/metrics"
	"go.uber.org/zap"
)

type CheckoutHandler struct {
	gateway billing.Gateway
	logger  *zap.Logger
}

func NewCheckoutHandler(gateway billing.Gateway, logger *zap.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		gateway: gateway,
		logger:  logger.Named("CheckoutHandler"),
	}
}

// CreateSession starts a hosted checkout and redirects the browser to it.
func (h *CheckoutHandler) CreateSession(c *gin.Context) {
	var req dto.CreateCheckoutSessionRequest
	if err := c.ShouldBind(&req); err != nil {
		h.logger.Warn("Failed to bind checkout session request", zap.Error(err))
		_ = c.Error(err)
		c.Abort()
		return
	}

	url, err := h.gateway.CreateCheckoutSession(c.Request.Context(), req.LookupKey, req.ClientReferenceID)
	if err != nil {
		_ = c.Error(err)
		c.Abort()
		return
	}

	metrics.CheckoutSessionsTotal.WithLabelValues(req.LookupKey).Inc()
	h.logger.Info("Redirecting to hosted checkout", zap.String("lookup_key", req.LookupKey))
	c.Redirect(http.StatusSeeOther, url)
}

// CreatePortalSession opens the provider's self-management portal for the
// customer behind a completed checkout session.
func (h *CheckoutHandler) CreatePortalSession(c *gin.Context) {
	var req dto.CreatePortalSessionRequest
	if err := c.ShouldBind(&req); err != nil {
		h.logger.Warn("Failed to bind portal session request", zap.Error(err))
		_ = c.Error(err)
		c.Abort()
		return
	}

	url, err := h.gateway.CreatePortalSession(c.Request.Context(), req.SessionID)
	if err != nil {
		_ = c.Error(err)
		c.Abort()
		return
	}

	h.logger.Info("Redirecting to customer portal")
	c.Redirect(http.StatusSeeOther, url)
}
