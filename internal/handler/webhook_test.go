package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/makkenzo/checkout-service-api/internal/domain/license"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func checkoutCompletedPayload(eventID, customerID, plan string) []byte {
	return []byte(fmt.Sprintf(`{
		"id": %q,
		"type": "checkout.session.completed",
		"data": {
			"object": {
				"id": "cs_test_1",
				"customer": %q,
				"client_reference_id": "UA123x1920x1080",
				"metadata": {"plan": %q}
			}
		}
	}`, eventID, customerID, plan))
}

func subscriptionDeletedPayload(eventID, customerID string) []byte {
	return []byte(fmt.Sprintf(`{
		"id": %q,
		"type": "customer.subscription.deleted",
		"data": {"object": {"id": "sub_test_1", "customer": %q}}
	}`, eventID, customerID))
}

func postWebhook(env *testEnv, payload []byte, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if signature != "" {
		req.Header.Set("Stripe-Signature", signature)
	}
	req.RemoteAddr = "10.0.0.1:1234"

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

func TestWebhook_CheckoutCompletedIssuesLicense(t *testing.T) {
	env := newTestEnv(t, defaultLimits())

	payload := checkoutCompletedPayload("evt_1", "cus_100", "monthly")
	w := postWebhook(env, payload, signWebhookPayload(payload, testWebhookSecret))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "received")

	lic, err := env.licenses.FindByCustomer("cus_100")
	require.NoError(t, err)
	assert.Equal(t, license.StatusActive, lic.Status)
	assert.Equal(t, license.PlanMonthly, lic.Plan)
	assert.Equal(t, "UA123x1920x1080", lic.Fingerprint)
}

func TestWebhook_SubscriptionDeletedRevokes(t *testing.T) {
	env := newTestEnv(t, defaultLimits())

	issue := checkoutCompletedPayload("evt_1", "cus_100", "monthly")
	w := postWebhook(env, issue, signWebhookPayload(issue, testWebhookSecret))
	require.Equal(t, http.StatusOK, w.Code)

	revoke := subscriptionDeletedPayload("evt_2", "cus_100")
	w = postWebhook(env, revoke, signWebhookPayload(revoke, testWebhookSecret))
	assert.Equal(t, http.StatusOK, w.Code)

	lic, err := env.licenses.FindByCustomer("cus_100")
	require.NoError(t, err)
	assert.Equal(t, license.StatusRevoked, lic.Status)
}

func TestWebhook_MissingSignatureRejected(t *testing.T) {
	env := newTestEnv(t, defaultLimits())

	payload := checkoutCompletedPayload("evt_1", "cus_100", "monthly")
	w := postWebhook(env, payload, "")

	assert.Equal(t, http.StatusBadRequest, w.Code)

	_, err := env.licenses.FindByCustomer("cus_100")
	assert.ErrorIs(t, err, license.ErrNotFound, "unverified payload must not touch state")
}

func TestWebhook_InvalidSignatureRejected(t *testing.T) {
	env := newTestEnv(t, defaultLimits())

	payload := checkoutCompletedPayload("evt_1", "cus_100", "monthly")
	w := postWebhook(env, payload, signWebhookPayload(payload, "whsec_wrong_secret"))

	assert.Equal(t, http.StatusBadRequest, w.Code)

	_, err := env.licenses.FindByCustomer("cus_100")
	assert.ErrorIs(t, err, license.ErrNotFound)
}

func TestWebhook_TamperedPayloadRejected(t *testing.T) {
	env := newTestEnv(t, defaultLimits())

	payload := checkoutCompletedPayload("evt_1", "cus_100", "monthly")
	signature := signWebhookPayload(payload, testWebhookSecret)
	tampered := checkoutCompletedPayload("evt_1", "cus_attacker", "enterprise")

	w := postWebhook(env, tampered, signature)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWebhook_DuplicateDeliveryAcknowledged(t *testing.T) {
	env := newTestEnv(t, defaultLimits())

	payload := checkoutCompletedPayload("evt_1", "cus_100", "monthly")
	signature := signWebhookPayload(payload, testWebhookSecret)

	w := postWebhook(env, payload, signature)
	require.Equal(t, http.StatusOK, w.Code)
	first, err := env.licenses.FindByCustomer("cus_100")
	require.NoError(t, err)

	w = postWebhook(env, payload, signature)
	assert.Equal(t, http.StatusOK, w.Code)

	second, err := env.licenses.FindByCustomer("cus_100")
	require.NoError(t, err)
	assert.Equal(t, first.LicenseKey, second.LicenseKey)
}
