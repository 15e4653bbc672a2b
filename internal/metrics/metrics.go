package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WebhookEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_webhook_events_total",
		Help: "Webhook events received, by event type and outcome.",
	}, []string{"type", "outcome"})

	LicenseChecksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_license_checks_total",
		Help: "License validation requests, by outcome.",
	}, []string{"outcome"})

	CheckoutSessionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_sessions_created_total",
		Help: "Hosted checkout sessions created, by plan.",
	}, []string{"plan"})
)
