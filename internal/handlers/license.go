// internal/handlers/license.go
package handlers

import (
	"crypto/hmac"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ecompria/themelock/internal/apperrors"
	"github.com/ecompria/themelock/internal/models"
	"github.com/ecompria/themelock/internal/services"
	"github.com/ecompria/themelock/internal/utils"
)

type LicenseHandler struct {
	licenseSvc *services.LicenseService
	log        *logrus.Logger
	apiSecret  []byte
}

func NewLicenseHandler(licenseSvc *services.LicenseService, log *logrus.Logger, apiSecret string) *LicenseHandler {
	return &LicenseHandler{
		licenseSvc: licenseSvc,
		log:        log,
		apiSecret:  []byte(apiSecret),
	}
}

type createLicenseRequest struct {
	services.IssueLicenseRequest
	SecretKey string `json:"secretKey"`
}

// POST /api/create-license
//
// Automated issuance path used by the webhook pipeline. The pre-shared secret
// is checked before any persistence; bad input is 400, bad secret is 401.
// The response shape mirrors what downstream order tooling consumes.
func (h *LicenseHandler) CreateLicense(c *gin.Context) {
	var req createLicenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data"})
		return
	}

	if !hmac.Equal([]byte(req.SecretKey), h.apiSecret) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	license, err := h.licenseSvc.Issue(c.Request.Context(), &req.IssueLicenseRequest)
	if err != nil {
		var validationErr *apperrors.ValidationError
		if errors.As(err, &validationErr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "field": validationErr.Field})
			return
		}
		h.log.WithError(err).Error("Error creating license")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create license"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"licenseKey":    license.LicenseKey,
		"customerName":  license.CustomerName,
		"customerEmail": license.CustomerEmail,
		"themeName":     license.ThemeName,
		"licenseType":   license.LicenseType,
		"orderNumber":   license.OrderNumber,
		"createdAt":     license.CreatedAt,
		"expiresAt":     license.ExpiresAt,
	})
}

// GET /v1/licenses. Licenses owned by the authenticated customer.
func (h *LicenseHandler) GetMyLicenses(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		utils.UnauthorizedResponse(c, "")
		return
	}

	licenses, err := h.licenseSvc.ListByOwner(c.Request.Context(), user)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"licenses": licenses})
}

// GET /v1/licenses/:key
func (h *LicenseHandler) GetLicense(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		utils.UnauthorizedResponse(c, "")
		return
	}

	license, err := h.licenseSvc.Get(c.Request.Context(), c.Param("key"))
	if err != nil {
		respondError(c, err)
		return
	}

	if !user.IsAdmin() && (license.OwnerID == nil || *license.OwnerID != user.ID) {
		utils.ForbiddenResponse(c, "you do not own this license")
		return
	}

	utils.SuccessResponse(c, gin.H{"license": license})
}

// currentUser returns the account loaded by the auth middleware, or nil.
func currentUser(c *gin.Context) *models.User {
	if v, exists := c.Get("current_user"); exists {
		if user, ok := v.(*models.User); ok {
			return user
		}
	}
	return nil
}
