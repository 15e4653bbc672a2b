package license

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrNotFound     = errors.New("license not found")
	ErrUpdateFailed = errors.New("license update failed")
)

type Repository interface {
	// UpsertByCustomer inserts a license, or updates the existing row for the
	// same customer. Redelivered events keep the already-issued key; a fresh
	// checkout for a revoked customer replaces the key and reactivates.
	UpsertByCustomer(ctx context.Context, lic *License) (*License, error)
	FindByKey(ctx context.Context, key string) (*License, error)
	// RevokeByCustomer returns ErrNotFound when no row matches; callers decide
	// whether that is an error.
	RevokeByCustomer(ctx context.Context, customerID string) error
	BindFingerprint(ctx context.Context, id uuid.UUID, fingerprint string) error
	Touch(ctx context.Context, id uuid.UUID) error
}
