package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/makkenzo/checkout-service-api/internal/domain/webhookevent"
	"go.uber.org/zap"
)

// WebhookEventPruneHandler trims old rows from the event dedup table. The
// provider stops redelivering long before the retention horizon, so forgotten
// ids cannot be replayed.
type WebhookEventPruneHandler struct {
	repo   webhookevent.Repository
	logger *zap.Logger
}

func NewWebhookEventPruneHandler(repo webhookevent.Repository, logger *zap.Logger) *WebhookEventPruneHandler {
	return &WebhookEventPruneHandler{
		repo:   repo,
		logger: logger.Named("WebhookEventPruneHandler"),
	}
}

func (h *WebhookEventPruneHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	if t.Type() != TypeWebhookEventPrune {
		return fmt.Errorf("unexpected task type: %s", t.Type())
	}

	var p PruneWebhookEventsPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		h.logger.Error("Failed to unmarshal payload for prune task", zap.Error(err), zap.ByteString("payload", t.Payload()))
		return fmt.Errorf("invalid payload: %v", err)
	}

	if p.Retention <= 0 {
		p.Retention = 30 * 24 * time.Hour
	}

	cutoff := time.Now().UTC().Add(-p.Retention)

	deleted, err := h.repo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		h.logger.Error("Failed to prune webhook events", zap.Error(err))
		return fmt.Errorf("repository error pruning webhook events: %w", err)
	}

	h.logger.Info("Webhook event prune finished",
		zap.Int64("deleted", deleted),
		zap.Time("cutoff", cutoff),
	)
	return nil
}
