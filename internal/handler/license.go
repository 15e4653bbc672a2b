package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/makkenzo/checkout-service-api/internal/handler/dto"
	"github.com/makkenzo/checkout-service-api/internal/service"
	"go.uber.org/zap"
)

type LicenseHandler struct {
	service *service.LicenseService
	logger  *zap.Logger
}

func NewLicenseHandler(service *service.LicenseService, logger *zap.Logger) *LicenseHandler {
	return &LicenseHandler{
		service: service,
		logger:  logger.Named("LicenseHandler"),
	}
}

// Check validates a license key against a device fingerprint. An unknown key
// is an invalid license, not an HTTP error.
func (h *LicenseHandler) Check(c *gin.Context) {
	var req dto.CheckLicenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Failed to bind license check request", zap.Error(err))
		_ = c.Error(err)
		c.Abort()
		return
	}

	resp, err := h.service.CheckLicense(c.Request.Context(), req.LicenseKey, req.Fingerprint)
	if err != nil {
		h.logger.Error("License check failed", zap.Error(err))
		_ = c.Error(err)
		c.Abort()
		return
	}

	c.JSON(http.StatusOK, resp)
}
