package handler

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/makkenzo/checkout-service-api/internal/config"
	"github.com/makkenzo/checkout-service-api/internal/handler/middleware"
	"github.com/makkenzo/checkout-service-api/internal/ierr"
	"github.com/makkenzo/checkout-service-api/internal/ratelimit"
	"github.com/makkenzo/checkout-service-api/internal/service"
	"github.com/makkenzo/checkout-service-api/internal/storage/memstorage"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	testWebhookSecret = "whsec_test_secret"
	testAdminUser     = "admin"
	testAdminPassword = "adminpassword"
)

// fakeGateway satisfies billing.Gateway without talking to the provider.
type fakeGateway struct {
	checkoutURL string
	portalURL   string
	err         error
}

func (g *fakeGateway) CreateCheckoutSession(ctx context.Context, lookupKey, clientReferenceID string) (string, error) {
	if g.err != nil {
		return "", g.err
	}
	if lookupKey != "monthly" && lookupKey != "yearly" && lookupKey != "enterprise" {
		return "", fmt.Errorf("%w: %s", ierr.ErrInvalidPlan, lookupKey)
	}
	return g.checkoutURL, nil
}

func (g *fakeGateway) CreatePortalSession(ctx context.Context, checkoutSessionID string) (string, error) {
	if g.err != nil {
		return "", g.err
	}
	if checkoutSessionID != "cs_known" {
		return "", fmt.Errorf("%w: %s", ierr.ErrSessionNotFound, checkoutSessionID)
	}
	return g.portalURL, nil
}

type testEnv struct {
	router   *gin.Engine
	licenses *memstorage.LicenseRepositoryMock
	gateway  *fakeGateway
}

func newTestEnv(t *testing.T, limits config.RateLimitConfig) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := zap.NewNop()
	licenses := memstorage.NewLicenseRepositoryMock()
	events := memstorage.NewWebhookEventRepositoryMock()

	gateway := &fakeGateway{
		checkoutURL: "https://checkout.example.com/session",
		portalURL:   "https://portal.example.com/session",
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(testAdminPassword), bcrypt.MinCost)
	require.NoError(t, err)

	router := NewRouter(RouterConfig{
		Checkout: NewCheckoutHandler(gateway, logger),
		Webhook:  NewWebhookHandler(service.NewWebhookService(licenses, events, logger), testWebhookSecret, logger),
		License:  NewLicenseHandler(service.NewLicenseService(licenses, logger), logger),
		Auth: &middleware.SharedCredential{
			Username:     testAdminUser,
			PasswordHash: string(hash),
		},
		LimitStore:   ratelimit.NewMemoryStore(),
		Limits:       limits,
		PublicDomain: "http://localhost:4242",
		Logger:       logger,
	})

	return &testEnv{router: router, licenses: licenses, gateway: gateway}
}

func defaultLimits() config.RateLimitConfig {
	return config.RateLimitConfig{
		Checkout: config.RouteLimit{Requests: 100, Window: time.Minute},
		License:  config.RouteLimit{Requests: 100, Window: time.Minute},
	}
}

func signWebhookPayload(payload []byte, secret string) string {
	ts := time.Now().Unix()
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.", ts)
	mac.Write(payload)
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}
