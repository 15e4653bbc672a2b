package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/makkenzo/checkout-service-api/internal/domain/webhookevent"
	"go.uber.org/zap"
)

type WebhookEventRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewWebhookEventRepository(db *pgxpool.Pool, logger *zap.Logger) *WebhookEventRepository {
	return &WebhookEventRepository{
		db:     db,
		logger: logger.Named("WebhookEventRepository"),
	}
}

var _ webhookevent.Repository = (*WebhookEventRepository)(nil)

func (r *WebhookEventRepository) Seen(ctx context.Context, eventID string) (bool, error) {
	var seen bool
	query := `SELECT EXISTS (SELECT 1 FROM webhook_events WHERE event_id = $1)`

	if err := r.db.QueryRow(ctx, query, eventID).Scan(&seen); err != nil {
		r.logger.Error("Failed to look up webhook event", zap.String("event_id", eventID), zap.Error(err))
		return false, fmt.Errorf("database error on look up webhook event: %w", err)
	}
	return seen, nil
}

func (r *WebhookEventRepository) MarkProcessed(ctx context.Context, eventID, eventType string) (bool, error) {
	query := `
        INSERT INTO webhook_events (event_id, event_type)
        VALUES ($1, $2)
        ON CONFLICT (event_id) DO NOTHING
    `

	cmdTag, err := r.db.Exec(ctx, query, eventID, eventType)
	if err != nil {
		r.logger.Error("Failed to record webhook event", zap.String("event_id", eventID), zap.Error(err))
		return false, fmt.Errorf("database error on record webhook event: %w", err)
	}

	return cmdTag.RowsAffected() == 1, nil
}

func (r *WebhookEventRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `DELETE FROM webhook_events WHERE received_at < $1`

	cmdTag, err := r.db.Exec(ctx, query, cutoff)
	if err != nil {
		r.logger.Error("Failed to prune webhook events", zap.Error(err))
		return 0, fmt.Errorf("database error on prune webhook events: %w", err)
	}

	return cmdTag.RowsAffected(), nil
}
