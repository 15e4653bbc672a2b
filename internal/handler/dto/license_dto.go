package dto

import "github.com/makkenzo/checkout-service-api/internal/domain/license"

type CheckLicenseRequest struct {
	LicenseKey  string `json:"license_key" binding:"required"`
	Fingerprint string `json:"fingerprint" binding:"required"`
}

type CheckLicenseResponse struct {
	Valid          bool          `json:"valid"`
	Plan           *license.Plan `json:"plan,omitempty"`
	DevicesAllowed *int          `json:"devices_allowed,omitempty"`
	Reason         string        `json:"reason,omitempty"`
}
