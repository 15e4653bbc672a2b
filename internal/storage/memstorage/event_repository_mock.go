package memstorage

import (
	"context"
	"sync"
	"time"

	"github.com/makkenzo/checkout-service-api/internal/domain/webhookevent"
)

type WebhookEventRepositoryMock struct {
	mu     sync.Mutex
	events map[string]webhookevent.Event
}

func NewWebhookEventRepositoryMock() *WebhookEventRepositoryMock {
	return &WebhookEventRepositoryMock{
		events: make(map[string]webhookevent.Event),
	}
}

var _ webhookevent.Repository = (*WebhookEventRepositoryMock)(nil)

func (r *WebhookEventRepositoryMock) Seen(ctx context.Context, eventID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.events[eventID]
	return ok, nil
}

func (r *WebhookEventRepositoryMock) MarkProcessed(ctx context.Context, eventID, eventType string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.events[eventID]; ok {
		return false, nil
	}
	r.events[eventID] = webhookevent.Event{
		EventID:    eventID,
		EventType:  eventType,
		ReceivedAt: time.Now().UTC(),
	}
	return true, nil
}

func (r *WebhookEventRepositoryMock) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var deleted int64
	for id, ev := range r.events {
		if ev.ReceivedAt.Before(cutoff) {
			delete(r.events, id)
			deleted++
		}
	}
	return deleted, nil
}
