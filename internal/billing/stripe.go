package billing

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/makkenzo/checkout-service-api/internal/config"
	"github.com/makkenzo/checkout-service-api/internal/ierr"
	"github.com/stripe/stripe-go/v82"
	portalsession "github.com/stripe/stripe-go/v82/billingportal/session"
	checkoutsession "github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/price"
	"go.uber.org/zap"
)

// Gateway is the call-through to the payment provider's hosted surfaces.
// Handlers depend on this interface so tests can swap in a fake.
type Gateway interface {
	CreateCheckoutSession(ctx context.Context, lookupKey, clientReferenceID string) (string, error)
	CreatePortalSession(ctx context.Context, checkoutSessionID string) (string, error)
}

type StripeGateway struct {
	publicDomain string
	logger       *zap.Logger
}

func NewStripeGateway(cfg *config.StripeConfig, publicDomain string, logger *zap.Logger) *StripeGateway {
	stripe.Key = cfg.APIKey

	// The default stripe-go timeout is generous; a hung provider must surface
	// as a gateway error instead of stalling the request.
	stripe.SetBackend(stripe.APIBackend, stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		HTTPClient: &http.Client{Timeout: cfg.RequestTimeout},
	}))

	return &StripeGateway{
		publicDomain: publicDomain,
		logger:       logger.Named("StripeGateway"),
	}
}

var _ Gateway = (*StripeGateway)(nil)

func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, lookupKey, clientReferenceID string) (string, error) {
	listParams := &stripe.PriceListParams{
		LookupKeys: stripe.StringSlice([]string{lookupKey}),
	}
	listParams.Context = ctx

	iter := price.List(listParams)

	var priceID string
	for iter.Next() {
		priceID = iter.Price().ID
		break
	}
	if err := iter.Err(); err != nil {
		g.logger.Error("Stripe price lookup failed", zap.String("lookup_key", lookupKey), zap.Error(err))
		return "", fmt.Errorf("%w: price lookup", ierr.ErrGateway)
	}
	if priceID == "" {
		g.logger.Warn("No Stripe price for lookup key", zap.String("lookup_key", lookupKey))
		return "", fmt.Errorf("%w: %s", ierr.ErrInvalidPlan, lookupKey)
	}

	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(priceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL:        stripe.String(g.publicDomain + "/success.html?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:         stripe.String(g.publicDomain + "/cancel.html"),
		ClientReferenceID: stripe.String(clientReferenceID),
		Metadata: map[string]string{
			"plan": lookupKey,
		},
	}
	params.Context = ctx

	sess, err := checkoutsession.New(params)
	if err != nil {
		g.logger.Error("Stripe checkout session creation failed", zap.String("lookup_key", lookupKey), zap.Error(err))
		return "", fmt.Errorf("%w: checkout session", ierr.ErrGateway)
	}

	g.logger.Info("Checkout session created",
		zap.String("session_id", sess.ID),
		zap.String("lookup_key", lookupKey),
	)
	return sess.URL, nil
}

func (g *StripeGateway) CreatePortalSession(ctx context.Context, checkoutSessionID string) (string, error) {
	getParams := &stripe.CheckoutSessionParams{}
	getParams.Context = ctx

	sess, err := checkoutsession.Get(checkoutSessionID, getParams)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && stripeErr.Code == stripe.ErrorCodeResourceMissing {
			g.logger.Warn("Unknown checkout session for portal", zap.String("session_id", checkoutSessionID))
			return "", fmt.Errorf("%w: %s", ierr.ErrSessionNotFound, checkoutSessionID)
		}
		g.logger.Error("Stripe checkout session retrieval failed", zap.String("session_id", checkoutSessionID), zap.Error(err))
		return "", fmt.Errorf("%w: session retrieval", ierr.ErrGateway)
	}
	if sess.Customer == nil {
		g.logger.Warn("Checkout session has no customer", zap.String("session_id", checkoutSessionID))
		return "", fmt.Errorf("%w: %s", ierr.ErrSessionNotFound, checkoutSessionID)
	}

	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(sess.Customer.ID),
		ReturnURL: stripe.String(g.publicDomain),
	}
	params.Context = ctx

	portal, err := portalsession.New(params)
	if err != nil {
		g.logger.Error("Stripe portal session creation failed", zap.String("session_id", checkoutSessionID), zap.Error(err))
		return "", fmt.Errorf("%w: portal session", ierr.ErrGateway)
	}

	g.logger.Info("Portal session created", zap.String("customer_id", sess.Customer.ID))
	return portal.URL, nil
}
