package handler

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/makkenzo/checkout-service-api/internal/ierr"
	"github.com/makkenzo/checkout-service-api/internal/service"
	"github.com/stripe/stripe-go/v82/webhook"
	"go.uber.org/zap"
)

const webhookBodyLimit = int64(65536)

// WebhookHandler receives provider events. Signature verification is the sole
// authentication on this route, so it happens before anything else touches
// the payload.
type WebhookHandler struct {
	svc           *service.WebhookService
	webhookSecret string
	logger        *zap.Logger
}

func NewWebhookHandler(svc *service.WebhookService, webhookSecret string, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{
		svc:           svc,
		webhookSecret: webhookSecret,
		logger:        logger.Named("WebhookHandler"),
	}
}

func (h *WebhookHandler) Receive(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, webhookBodyLimit)
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.logger.Warn("Failed to read webhook payload", zap.Error(err))
		_ = c.Error(fmt.Errorf("%w: unreadable payload", ierr.ErrValidation))
		c.Abort()
		return
	}

	sigHeader := c.GetHeader("Stripe-Signature")
	event, err := webhook.ConstructEventWithOptions(payload, sigHeader, h.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		h.logger.Warn("Webhook signature verification failed",
			zap.String("remote_addr", c.ClientIP()),
			zap.Error(err),
		)
		_ = c.Error(ierr.ErrInvalidSignature)
		c.Abort()
		return
	}

	h.logger.Info("Webhook event verified",
		zap.String("event_id", event.ID),
		zap.String("event_type", string(event.Type)),
	)

	if err := h.svc.HandleEvent(c.Request.Context(), &event); err != nil {
		h.logger.Error("Webhook event processing failed",
			zap.String("event_id", event.ID),
			zap.String("event_type", string(event.Type)),
			zap.Error(err),
		)
		// Non-2xx makes the provider redeliver.
		_ = c.Error(fmt.Errorf("%w: event %s", ierr.ErrInternalServer, event.ID))
		c.Abort()
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}
