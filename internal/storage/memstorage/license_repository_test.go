package memstorage

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/makkenzo/checkout-service-api/internal/domain/license"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLicense(customerID string) *license.License {
	return &license.License{
		ID:             uuid.New(),
		LicenseKey:     uuid.NewString(),
		CustomerID:     customerID,
		Plan:           license.PlanMonthly,
		DevicesAllowed: license.PlanMonthly.DevicesAllowed(),
	}
}

func TestUpsertByCustomer_RedeliveryKeepsKey(t *testing.T) {
	repo := NewLicenseRepositoryMock()
	ctx := context.Background()

	first, err := repo.UpsertByCustomer(ctx, newLicense("cus_1"))
	require.NoError(t, err)

	second, err := repo.UpsertByCustomer(ctx, newLicense("cus_1"))
	require.NoError(t, err)

	assert.Equal(t, first.LicenseKey, second.LicenseKey, "redelivery must not rotate the key")
	assert.Equal(t, license.StatusActive, second.Status)
}

func TestUpsertByCustomer_RevokedGetsFreshKey(t *testing.T) {
	repo := NewLicenseRepositoryMock()
	ctx := context.Background()

	first, err := repo.UpsertByCustomer(ctx, newLicense("cus_1"))
	require.NoError(t, err)

	require.NoError(t, repo.RevokeByCustomer(ctx, "cus_1"))

	replacement := newLicense("cus_1")
	second, err := repo.UpsertByCustomer(ctx, replacement)
	require.NoError(t, err)

	assert.NotEqual(t, first.LicenseKey, second.LicenseKey, "fresh checkout after revocation issues a new key")
	assert.Equal(t, replacement.LicenseKey, second.LicenseKey)
	assert.Equal(t, license.StatusActive, second.Status)

	_, err = repo.FindByKey(ctx, first.LicenseKey)
	assert.ErrorIs(t, err, license.ErrNotFound, "old key is gone after reissue")
}

func TestRevokeByCustomer_MissingIsNotFound(t *testing.T) {
	repo := NewLicenseRepositoryMock()

	err := repo.RevokeByCustomer(context.Background(), "cus_missing")
	assert.ErrorIs(t, err, license.ErrNotFound)
}

func TestBindFingerprint_OnlyOnce(t *testing.T) {
	repo := NewLicenseRepositoryMock()
	ctx := context.Background()

	lic, err := repo.UpsertByCustomer(ctx, newLicense("cus_1"))
	require.NoError(t, err)

	require.NoError(t, repo.BindFingerprint(ctx, lic.ID, "FP1"))

	err = repo.BindFingerprint(ctx, lic.ID, "FP2")
	assert.ErrorIs(t, err, license.ErrUpdateFailed)

	stored, err := repo.FindByKey(ctx, lic.LicenseKey)
	require.NoError(t, err)
	assert.Equal(t, "FP1", stored.Fingerprint)
}
