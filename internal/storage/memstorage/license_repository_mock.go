package memstorage

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/makkenzo/checkout-service-api/internal/domain/license"
)

// LicenseRepositoryMock mirrors the postgres upsert/revoke semantics in memory
// so service and handler tests run without a database.
type LicenseRepositoryMock struct {
	mu         sync.RWMutex
	byCustomer map[string]*license.License
}

func NewLicenseRepositoryMock() *LicenseRepositoryMock {
	return &LicenseRepositoryMock{
		byCustomer: make(map[string]*license.License),
	}
}

var _ license.Repository = (*LicenseRepositoryMock)(nil)

func (r *LicenseRepositoryMock) UpsertByCustomer(ctx context.Context, lic *license.License) (*license.License, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()

	existing, ok := r.byCustomer[lic.CustomerID]
	if !ok {
		stored := *lic
		stored.Status = license.StatusActive
		stored.CreatedAt = now
		stored.UpdatedAt = now
		r.byCustomer[lic.CustomerID] = &stored
		out := stored
		return &out, nil
	}

	if existing.Status == license.StatusRevoked {
		existing.LicenseKey = lic.LicenseKey
		existing.Fingerprint = lic.Fingerprint
	}
	existing.Plan = lic.Plan
	existing.DevicesAllowed = lic.DevicesAllowed
	existing.Status = license.StatusActive
	existing.UpdatedAt = now

	out := *existing
	return &out, nil
}

// FindByCustomer is a test convenience outside the repository interface.
func (r *LicenseRepositoryMock) FindByCustomer(customerID string) (*license.License, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	lic, ok := r.byCustomer[customerID]
	if !ok {
		return nil, license.ErrNotFound
	}
	out := *lic
	return &out, nil
}

func (r *LicenseRepositoryMock) FindByKey(ctx context.Context, key string) (*license.License, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, lic := range r.byCustomer {
		if lic.LicenseKey == key {
			out := *lic
			return &out, nil
		}
	}
	return nil, license.ErrNotFound
}

func (r *LicenseRepositoryMock) RevokeByCustomer(ctx context.Context, customerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	lic, ok := r.byCustomer[customerID]
	if !ok || lic.Status == license.StatusRevoked {
		return license.ErrNotFound
	}
	lic.Status = license.StatusRevoked
	lic.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *LicenseRepositoryMock) BindFingerprint(ctx context.Context, id uuid.UUID, fingerprint string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, lic := range r.byCustomer {
		if lic.ID == id {
			if lic.Fingerprint != "" {
				return license.ErrUpdateFailed
			}
			lic.Fingerprint = fingerprint
			lic.UpdatedAt = time.Now().UTC()
			return nil
		}
	}
	return license.ErrUpdateFailed
}

func (r *LicenseRepositoryMock) Touch(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, lic := range r.byCustomer {
		if lic.ID == id {
			lic.UpdatedAt = time.Now().UTC()
			return nil
		}
	}
	return license.ErrNotFound
}
