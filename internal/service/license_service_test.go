package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/makkenzo/checkout-service-api/internal/domain/license"
	"github.com/makkenzo/checkout-service-api/internal/storage/memstorage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func issueTestLicense(t *testing.T, repo license.Repository, customerID, fingerprint string) *license.License {
	t.Helper()
	lic, err := repo.UpsertByCustomer(context.Background(), &license.License{
		ID:             uuid.New(),
		LicenseKey:     uuid.NewString(),
		CustomerID:     customerID,
		Plan:           license.PlanMonthly,
		DevicesAllowed: license.PlanMonthly.DevicesAllowed(),
		Fingerprint:    fingerprint,
	})
	require.NoError(t, err)
	return lic
}

func TestCheckLicense_UnknownKey(t *testing.T) {
	repo := memstorage.NewLicenseRepositoryMock()
	svc := NewLicenseService(repo, zap.NewNop())

	resp, err := svc.CheckLicense(context.Background(), "no-such-key", "FP1")
	require.NoError(t, err)

	assert.False(t, resp.Valid)
	assert.Equal(t, ReasonNotFound, resp.Reason)
	assert.Nil(t, resp.Plan)
}

func TestCheckLicense_MatchingFingerprint(t *testing.T) {
	repo := memstorage.NewLicenseRepositoryMock()
	svc := NewLicenseService(repo, zap.NewNop())

	lic := issueTestLicense(t, repo, "cus_1", "UA123x1920x1080")

	resp, err := svc.CheckLicense(context.Background(), lic.LicenseKey, "UA123x1920x1080")
	require.NoError(t, err)

	assert.True(t, resp.Valid)
	require.NotNil(t, resp.Plan)
	assert.Equal(t, license.PlanMonthly, *resp.Plan)
	require.NotNil(t, resp.DevicesAllowed)
	assert.Equal(t, 1, *resp.DevicesAllowed)
	assert.Empty(t, resp.Reason)
}

func TestCheckLicense_BindsFirstSeenFingerprint(t *testing.T) {
	repo := memstorage.NewLicenseRepositoryMock()
	svc := NewLicenseService(repo, zap.NewNop())

	// Checkout completed without a client reference id, so the record starts
	// with no fingerprint.
	lic := issueTestLicense(t, repo, "cus_1", "")

	resp, err := svc.CheckLicense(context.Background(), lic.LicenseKey, "F1")
	require.NoError(t, err)
	assert.True(t, resp.Valid, "first fingerprint binds")

	resp, err = svc.CheckLicense(context.Background(), lic.LicenseKey, "F1")
	require.NoError(t, err)
	assert.True(t, resp.Valid, "bound fingerprint keeps validating")

	resp, err = svc.CheckLicense(context.Background(), lic.LicenseKey, "F2")
	require.NoError(t, err)
	assert.False(t, resp.Valid, "second device is rejected")
	assert.Equal(t, ReasonFingerprintMismatch, resp.Reason)
}

func TestCheckLicense_FingerprintMismatch(t *testing.T) {
	repo := memstorage.NewLicenseRepositoryMock()
	svc := NewLicenseService(repo, zap.NewNop())

	lic := issueTestLicense(t, repo, "cus_1", "FP1")

	resp, err := svc.CheckLicense(context.Background(), lic.LicenseKey, "FP2")
	require.NoError(t, err)

	assert.False(t, resp.Valid)
	assert.Equal(t, ReasonFingerprintMismatch, resp.Reason)
}

func TestCheckLicense_RevokedNeverValidates(t *testing.T) {
	repo := memstorage.NewLicenseRepositoryMock()
	svc := NewLicenseService(repo, zap.NewNop())

	lic := issueTestLicense(t, repo, "cus_1", "FP1")
	require.NoError(t, repo.RevokeByCustomer(context.Background(), "cus_1"))

	resp, err := svc.CheckLicense(context.Background(), lic.LicenseKey, "FP1")
	require.NoError(t, err)

	assert.False(t, resp.Valid)
	assert.Equal(t, ReasonRevoked, resp.Reason)
}

func TestCheckLicense_SuccessBumpsUpdatedAt(t *testing.T) {
	repo := memstorage.NewLicenseRepositoryMock()
	svc := NewLicenseService(repo, zap.NewNop())

	lic := issueTestLicense(t, repo, "cus_1", "FP1")
	before, err := repo.FindByKey(context.Background(), lic.LicenseKey)
	require.NoError(t, err)

	_, err = svc.CheckLicense(context.Background(), lic.LicenseKey, "FP1")
	require.NoError(t, err)

	after, err := repo.FindByKey(context.Background(), lic.LicenseKey)
	require.NoError(t, err)
	assert.False(t, after.UpdatedAt.Before(before.UpdatedAt))
}
