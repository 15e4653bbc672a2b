package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/makkenzo/checkout-service-api/internal/domain/license"
	"github.com/makkenzo/checkout-service-api/internal/domain/webhookevent"
	"github.com/makkenzo/checkout-service-api/internal/metrics"
	"github.com/stripe/stripe-go/v82"
	"go.uber.org/zap"
)

const (
	EventCheckoutCompleted   = "checkout.session.completed"
	EventSubscriptionDeleted = "customer.subscription.deleted"
)

// WebhookService reconciles provider events into the license store. Callers
// verify the event signature before handing the event over.
type WebhookService struct {
	licenses license.Repository
	events   webhookevent.Repository
	logger   *zap.Logger
}

func NewWebhookService(licenses license.Repository, events webhookevent.Repository, logger *zap.Logger) *WebhookService {
	return &WebhookService{
		licenses: licenses,
		events:   events,
		logger:   logger.Named("WebhookService"),
	}
}

// HandleEvent applies one verified event. A returned error means the provider
// should redeliver; everything else (duplicates, unknown types, missing
// records on deletion) is acknowledged as handled.
//
// The event id is recorded only after the event's effects have landed, so a
// crash or dead context mid-apply leaves no record and the redelivery is
// processed normally. Re-applying between the two steps is safe: issuance is
// a customer-keyed upsert and revocation tolerates missing rows.
func (s *WebhookService) HandleEvent(ctx context.Context, event *stripe.Event) error {
	seen, err := s.events.Seen(ctx, event.ID)
	if err != nil {
		return fmt.Errorf("event dedup lookup failed: %w", err)
	}
	if seen {
		s.logger.Info("Duplicate webhook event acknowledged",
			zap.String("event_id", event.ID),
			zap.String("event_type", string(event.Type)),
		)
		metrics.WebhookEventsTotal.WithLabelValues(string(event.Type), "duplicate").Inc()
		return nil
	}

	if err := s.applyEvent(ctx, event); err != nil {
		metrics.WebhookEventsTotal.WithLabelValues(string(event.Type), "error").Inc()
		return err
	}

	if _, err := s.events.MarkProcessed(ctx, event.ID, string(event.Type)); err != nil {
		// The effects are already applied and idempotent; failing the
		// delivery here would only trigger a harmless re-apply.
		s.logger.Warn("Failed to record processed webhook event",
			zap.String("event_id", event.ID),
			zap.Error(err),
		)
	}

	return nil
}

func (s *WebhookService) applyEvent(ctx context.Context, event *stripe.Event) error {
	switch event.Type {
	case EventCheckoutCompleted:
		return s.handleCheckoutCompleted(ctx, event)
	case EventSubscriptionDeleted:
		return s.handleSubscriptionDeleted(ctx, event)
	default:
		// The provider retries on non-2xx, so unknown-but-harmless types are
		// acknowledged, not rejected.
		s.logger.Info("Ignoring unhandled webhook event type",
			zap.String("event_id", event.ID),
			zap.String("event_type", string(event.Type)),
		)
		metrics.WebhookEventsTotal.WithLabelValues(string(event.Type), "ignored").Inc()
		return nil
	}
}

func (s *WebhookService) handleCheckoutCompleted(ctx context.Context, event *stripe.Event) error {
	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return fmt.Errorf("failed to unmarshal checkout session from event %s: %w", event.ID, err)
	}

	if sess.Customer == nil || sess.Customer.ID == "" {
		return fmt.Errorf("checkout session %s in event %s has no customer", sess.ID, event.ID)
	}
	customerID := sess.Customer.ID

	plan, err := license.ParsePlan(sess.Metadata["plan"])
	if err != nil {
		// Payment went through but the plan is unmappable; retrying will not
		// fix it. Log for manual reconciliation and acknowledge.
		s.logger.Error("Checkout completed with unknown plan, manual reconciliation required",
			zap.String("event_id", event.ID),
			zap.String("customer_id", customerID),
			zap.String("plan", sess.Metadata["plan"]),
		)
		metrics.WebhookEventsTotal.WithLabelValues(string(event.Type), "skipped").Inc()
		return nil
	}

	lic := &license.License{
		ID:             uuid.New(),
		LicenseKey:     uuid.NewString(),
		CustomerID:     customerID,
		Plan:           plan,
		DevicesAllowed: plan.DevicesAllowed(),
		Fingerprint:    sess.ClientReferenceID,
	}

	stored, err := s.licenses.UpsertByCustomer(ctx, lic)
	if err != nil {
		return fmt.Errorf("failed to issue license for customer %s (event %s): %w", customerID, event.ID, err)
	}

	s.logger.Info("License issued from checkout",
		zap.String("event_id", event.ID),
		zap.String("customer_id", customerID),
		zap.String("license_id", stored.ID.String()),
		zap.String("plan", string(plan)),
	)
	metrics.WebhookEventsTotal.WithLabelValues(string(event.Type), "processed").Inc()
	return nil
}

func (s *WebhookService) handleSubscriptionDeleted(ctx context.Context, event *stripe.Event) error {
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		return fmt.Errorf("failed to unmarshal subscription from event %s: %w", event.ID, err)
	}

	if sub.Customer == nil || sub.Customer.ID == "" {
		return fmt.Errorf("subscription %s in event %s has no customer", sub.ID, event.ID)
	}
	customerID := sub.Customer.ID

	err := s.licenses.RevokeByCustomer(ctx, customerID)
	if err != nil {
		if errors.Is(err, license.ErrNotFound) {
			// Out-of-order or duplicate delivery; nothing to revoke.
			s.logger.Info("Subscription deleted for unknown customer, nothing to revoke",
				zap.String("event_id", event.ID),
				zap.String("customer_id", customerID),
			)
			metrics.WebhookEventsTotal.WithLabelValues(string(event.Type), "noop").Inc()
			return nil
		}
		return fmt.Errorf("failed to revoke license for customer %s (event %s): %w", customerID, event.ID, err)
	}

	s.logger.Info("License revoked from subscription deletion",
		zap.String("event_id", event.ID),
		zap.String("customer_id", customerID),
	)
	metrics.WebhookEventsTotal.WithLabelValues(string(event.Type), "processed").Inc()
	return nil
}
