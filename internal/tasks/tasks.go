package tasks

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	TypeWebhookEventPrune = "webhook:events:prune"
)

type PruneWebhookEventsPayload struct {
	Retention time.Duration `json:"retention"`
}

func NewWebhookEventPruneTask(retention time.Duration, opts ...asynq.Option) (*asynq.Task, error) {
	payload := PruneWebhookEventsPayload{Retention: retention}
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	uniqueOpt := asynq.Unique(1 * time.Hour)
	allOpts := append(opts, uniqueOpt)

	return asynq.NewTask(TypeWebhookEventPrune, payloadBytes, allOpts...), nil
}
