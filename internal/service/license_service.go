package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/makkenzo/checkout-service-api/internal/domain/license"
	"github.com/makkenzo/checkout-service-api/internal/handler/dto"
	"github.com/makkenzo/checkout-service-api/internal/metrics"
	"go.uber.org/zap"
)

const (
	ReasonNotFound            = "not_found"
	ReasonRevoked             = "revoked"
	ReasonFingerprintMismatch = "fingerprint_mismatch"
)

type LicenseService struct {
	repo   license.Repository
	logger *zap.Logger
}

func NewLicenseService(repo license.Repository, logger *zap.Logger) *LicenseService {
	return &LicenseService{
		repo:   repo,
		logger: logger.Named("LicenseService"),
	}
}

// CheckLicense validates a key against its record. Fingerprint policy is
// bind-first-seen: a record with no fingerprint binds to the first device
// that validates; any other fingerprint is rejected afterwards. Business
// rejections come back in the response, not as errors.
func (s *LicenseService) CheckLicense(ctx context.Context, key, fingerprint string) (*dto.CheckLicenseResponse, error) {
	lic, err := s.repo.FindByKey(ctx, key)
	if err != nil {
		if errors.Is(err, license.ErrNotFound) {
			s.logger.Info("License key not found")
			metrics.LicenseChecksTotal.WithLabelValues(ReasonNotFound).Inc()
			return &dto.CheckLicenseResponse{Valid: false, Reason: ReasonNotFound}, nil
		}
		return nil, fmt.Errorf("repository error during license check: %w", err)
	}

	if lic.Status == license.StatusRevoked {
		s.logger.Info("Revoked license presented", zap.String("customer_id", lic.CustomerID))
		metrics.LicenseChecksTotal.WithLabelValues(ReasonRevoked).Inc()
		return &dto.CheckLicenseResponse{Valid: false, Reason: ReasonRevoked}, nil
	}

	if lic.Fingerprint == "" {
		err := s.repo.BindFingerprint(ctx, lic.ID, fingerprint)
		if err != nil {
			if !errors.Is(err, license.ErrUpdateFailed) {
				return nil, fmt.Errorf("repository error binding fingerprint: %w", err)
			}
			// Lost a race with another first validation; re-read and fall
			// through to the comparison.
			lic, err = s.repo.FindByKey(ctx, key)
			if err != nil {
				return nil, fmt.Errorf("repository error re-reading license: %w", err)
			}
		} else {
			lic.Fingerprint = fingerprint
			s.logger.Info("Fingerprint bound to license", zap.String("customer_id", lic.CustomerID))
		}
	}

	if lic.Fingerprint != fingerprint {
		s.logger.Warn("License fingerprint mismatch", zap.String("customer_id", lic.CustomerID))
		metrics.LicenseChecksTotal.WithLabelValues(ReasonFingerprintMismatch).Inc()
		return &dto.CheckLicenseResponse{Valid: false, Reason: ReasonFingerprintMismatch}, nil
	}

	if err := s.repo.Touch(ctx, lic.ID); err != nil {
		s.logger.Warn("Failed to bump license updated_at", zap.String("customer_id", lic.CustomerID), zap.Error(err))
	}

	metrics.LicenseChecksTotal.WithLabelValues("valid").Inc()

	devices := lic.DevicesAllowed
	plan := lic.Plan
	return &dto.CheckLicenseResponse{
		Valid:          true,
		Plan:           &plan,
		DevicesAllowed: &devices,
	}, nil
}
