package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/makkenzo/checkout-service-api/internal/domain/license"
	"go.uber.org/zap"
)

type LicenseRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewLicenseRepository(db *pgxpool.Pool, logger *zap.Logger) *LicenseRepository {
	return &LicenseRepository{
		db:     db,
		logger: logger.Named("LicenseRepository"),
	}
}

var _ license.Repository = (*LicenseRepository)(nil)

func (r *LicenseRepository) UpsertByCustomer(ctx context.Context, lic *license.License) (*license.License, error) {
	// The unique constraint on customer_id makes redelivered events converge
	// on one row even when several instances process them concurrently. An
	// active row keeps its key; a revoked row gets the freshly minted one.
	query := `
        INSERT INTO licenses (
            id, license_key, customer_id, plan, devices_allowed, fingerprint, status
        ) VALUES (
            $1, $2, $3, $4, $5, $6, 'active'
        )
        ON CONFLICT (customer_id) DO UPDATE SET
            license_key = CASE WHEN licenses.status = 'revoked'
                               THEN EXCLUDED.license_key
                               ELSE licenses.license_key END,
            fingerprint = CASE WHEN licenses.status = 'revoked'
                               THEN EXCLUDED.fingerprint
                               ELSE licenses.fingerprint END,
            plan = EXCLUDED.plan,
            devices_allowed = EXCLUDED.devices_allowed,
            status = 'active',
            updated_at = now()
        RETURNING id, license_key, customer_id, plan, devices_allowed, fingerprint,
                  status, created_at, updated_at
    `

	row := r.db.QueryRow(ctx, query,
		lic.ID,
		lic.LicenseKey,
		lic.CustomerID,
		lic.Plan,
		lic.DevicesAllowed,
		lic.Fingerprint,
	)

	stored, err := r.scanLicense(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			r.logger.Warn("Duplicate license key on upsert",
				zap.String("customer_id", lic.CustomerID),
				zap.String("constraint", pgErr.ConstraintName),
			)
			return nil, fmt.Errorf("license key collision for customer %s: %w", lic.CustomerID, err)
		}

		r.logger.Error("Failed to upsert license", zap.String("customer_id", lic.CustomerID), zap.Error(err))
		return nil, fmt.Errorf("database error on upsert license: %w", err)
	}

	r.logger.Info("License upserted",
		zap.String("id", stored.ID.String()),
		zap.String("customer_id", stored.CustomerID),
	)
	return stored, nil
}

func (r *LicenseRepository) FindByKey(ctx context.Context, key string) (*license.License, error) {
	query := `
        SELECT id, license_key, customer_id, plan, devices_allowed, fingerprint,
               status, created_at, updated_at
        FROM licenses
        WHERE license_key = $1
    `

	row := r.db.QueryRow(ctx, query, key)
	lic, err := r.scanLicense(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, license.ErrNotFound
		}
		r.logger.Error("Failed to find license by key", zap.Error(err))
		return nil, fmt.Errorf("database error on find license: %w", err)
	}
	return lic, nil
}

func (r *LicenseRepository) RevokeByCustomer(ctx context.Context, customerID string) error {
	query := `
        UPDATE licenses SET status = 'revoked', updated_at = now()
        WHERE customer_id = $1 AND status <> 'revoked'
    `

	cmdTag, err := r.db.Exec(ctx, query, customerID)
	if err != nil {
		r.logger.Error("Failed to revoke license", zap.String("customer_id", customerID), zap.Error(err))
		return fmt.Errorf("database error on revoke license: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return license.ErrNotFound
	}

	r.logger.Info("License revoked", zap.String("customer_id", customerID))
	return nil
}

func (r *LicenseRepository) BindFingerprint(ctx context.Context, id uuid.UUID, fingerprint string) error {
	// Guarded on the empty fingerprint so two racing first validations cannot
	// both bind; the loser re-reads and compares.
	query := `
        UPDATE licenses SET fingerprint = $1, updated_at = now()
        WHERE id = $2 AND fingerprint = ''
    `

	cmdTag, err := r.db.Exec(ctx, query, fingerprint, id)
	if err != nil {
		r.logger.Error("Failed to bind fingerprint", zap.String("id", id.String()), zap.Error(err))
		return fmt.Errorf("database error on bind fingerprint: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return license.ErrUpdateFailed
	}
	return nil
}

func (r *LicenseRepository) Touch(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE licenses SET updated_at = now() WHERE id = $1`

	cmdTag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		r.logger.Error("Failed to touch license", zap.String("id", id.String()), zap.Error(err))
		return fmt.Errorf("database error on touch license: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return license.ErrNotFound
	}
	return nil
}

func (r *LicenseRepository) scanLicense(row pgx.Row) (*license.License, error) {
	var lic license.License
	err := row.Scan(
		&lic.ID,
		&lic.LicenseKey,
		&lic.CustomerID,
		&lic.Plan,
		&lic.DevicesAllowed,
		&lic.Fingerprint,
		&lic.Status,
		&lic.CreatedAt,
		&lic.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &lic, nil
}
